package api

import (
	"net/http"
	"time"

	"github.com/fsdevblog/lumen-credits/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
)

// Envelope - единый формат ответа API: { success, data|null, error|null, meta }.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
	Meta    *Meta     `json:"meta,omitempty"`
}

// APIError несет стабильный машинный код и человекочитаемое сообщение.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Total     *int64 `json:"total,omitempty"`
	Limit     *uint  `json:"limit,omitempty"`
	Offset    *uint  `json:"offset,omitempty"`
}

func newMeta(c *gin.Context) *Meta {
	return &Meta{
		RequestID: c.GetString(middlewares.RequestIDKey),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func respondOK(c *gin.Context, data any) {
	respondWithMeta(c, http.StatusOK, data, newMeta(c))
}

func respondCreated(c *gin.Context, data any) {
	respondWithMeta(c, http.StatusCreated, data, newMeta(c))
}

func respondWithMeta(c *gin.Context, status int, data any, meta *Meta) {
	c.JSON(status, Envelope{Success: true, Data: data, Meta: meta})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    newMeta(c),
	})
}
