package middlewares

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fsdevblog/lumen-credits/internal/transport/api/tokens"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenNotExist = errors.New("token not exist")

const CurrentUserUIDKey = "currentUserUID"

// checkAuthorization извлекает токен из заголовка Authorization и проверяет его. Если токен не передан, вернется ошибка
// ErrTokenNotExist
func checkAuthorization(c *gin.Context, jwtTokenSecret []byte) (*jwt.Token, error) {
	tokenHeader := c.GetHeader("Authorization")
	bearer := "Bearer "

	if len(tokenHeader) < len(bearer) || tokenHeader[:len(bearer)] != bearer {
		return nil, ErrTokenNotExist
	}

	tokenStr := tokenHeader[len(bearer):]
	token, err := tokens.ValidateUserJWT(tokenStr, jwtTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("check authorization: %w", err)
	}
	return token, nil
}

// AuthRequired проверяет, что запрос авторизован. Записывает в контекст
// (поле CurrentUserUIDKey) идентификатор пользователя из токена.
func AuthRequired(jwtTokenSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := checkAuthorization(c, jwtTokenSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"data":    nil,
				"error":   gin.H{"code": "unauthorized", "message": "Unauthorized"},
			})
			if !errors.Is(err, ErrTokenNotExist) {
				_ = c.Error(err).SetType(gin.ErrorTypePrivate)
			}
			return
		}
		userClaims, ok := token.Claims.(*tokens.UserClaims)
		if !ok || userClaims.UID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"data":    nil,
				"error":   gin.H{"code": "unauthorized", "message": "Unauthorized"},
			})
			return
		}
		c.Set(CurrentUserUIDKey, userClaims.UID)
		c.Next()
	}
}
