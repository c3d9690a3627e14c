package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type AccountsHandler struct {
	accounts AccountServicer
}

func NewAccountsHandler(accounts AccountServicer) *AccountsHandler {
	return &AccountsHandler{
		accounts: accounts,
	}
}

type AccountResponse struct {
	UID       string `json:"uid"`
	Credits   int64  `json:"credits"`
	CreatedAt string `json:"created_at"`
}

// Register POST RouteGroup + RegisterRoute. Заводит счет при первом обращении
// пользователя (201) либо возвращает существующий (200). Идентификатор берется
// из bearer токена, тело запроса не требуется.
func (h *AccountsHandler) Register(c *gin.Context) {
	uid := getUIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	account, created, err := h.accounts.Register(reqCtx, uid)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	response := AccountResponse{
		UID:       account.UID,
		Credits:   account.Balance,
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
	}
	if created {
		respondCreated(c, response)
		return
	}
	respondOK(c, response)
}
