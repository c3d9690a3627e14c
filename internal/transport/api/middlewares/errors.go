package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func statusErrorCode(status int) (string, string) {
	switch status {
	case http.StatusBadRequest:
		return "bad_request", "bad request"
	case http.StatusUnauthorized:
		return "unauthorized", "unauthorized"
	case http.StatusForbidden:
		return "forbidden", "forbidden"
	case http.StatusNotFound:
		return "not_found", "not found"
	case http.StatusUnprocessableEntity:
		return "validation_error", "unprocessable entity"
	case http.StatusConflict:
		return "conflict", "conflict"
	default:
		return "internal_error", "internal server error"
	}
}

// Errors рендерит конверт ошибки для запросов, завершившихся через AbortWithError.
// Приватные ошибки наружу не выходят - клиент видит только код и сообщение статуса.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// обрабатываем только первую ошибку
		firstErr := c.Errors[0]
		code, msg := statusErrorCode(c.Writer.Status())
		if firstErr.IsType(gin.ErrorTypePublic) {
			msg = firstErr.Error()
		}

		c.JSON(c.Writer.Status(), gin.H{
			"success": false,
			"data":    nil,
			"error":   gin.H{"code": code, "message": msg},
		})
		c.Abort()
	}
}
