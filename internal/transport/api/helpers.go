package api

import (
	"github.com/fsdevblog/lumen-credits/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
)

// getUIDFromContext возвращает идентификатор пользователя, записанный auth middleware.
// Вызывается только в хендлерах за AuthRequired.
func getUIDFromContext(c *gin.Context) string {
	return c.GetString(middlewares.CurrentUserUIDKey)
}
