package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/service"
	"github.com/fsdevblog/lumen-credits/internal/service/storekit"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type CreditsHandler struct {
	ledger    LedgerServicer
	purchases PurchaseServicer
}

func NewCreditsHandler(ledger LedgerServicer, purchases PurchaseServicer) *CreditsHandler {
	return &CreditsHandler{
		ledger:    ledger,
		purchases: purchases,
	}
}

type BalanceResponse struct {
	Credits int64 `json:"credits"`
}

// Balance GET RouteGroup + BalanceRoute. Возвращает текущий баланс кредитов.
func (h *CreditsHandler) Balance(c *gin.Context) {
	uid := getUIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	balance, err := h.ledger.GetBalance(reqCtx, uid)
	if err != nil {
		h.abortWithLedgerError(c, err)
		return
	}

	respondOK(c, BalanceResponse{Credits: balance})
}

type HistoryParams struct {
	Limit  uint `form:"limit"  binding:"omitempty,lte=100"`
	Offset uint `form:"offset"`
}

type TransactionResponseItem struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Amount    int64  `json:"amount"`
	ProductID string `json:"product_id,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type TransactionsResponse struct {
	Transactions []TransactionResponseItem `json:"transactions"`
}

// Transactions GET RouteGroup + TransactionsRoute. Страница журнала транзакций
// от новых к старым; total/limit/offset уходят в meta конверта.
func (h *CreditsHandler) Transactions(c *gin.Context) {
	uid := getUIDFromContext(c)

	var params HistoryParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "limit must be 1..100, offset must be >= 0")
		return
	}

	limit := params.Limit
	if limit == 0 {
		limit = service.DefaultHistoryLimit
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	transactions, total, err := h.ledger.GetTransactionHistory(reqCtx, uid, limit, params.Offset)
	if err != nil {
		h.abortWithLedgerError(c, err)
		return
	}

	items := make([]TransactionResponseItem, len(transactions))
	for i, transaction := range transactions {
		items[i] = TransactionResponseItem{
			ID:        transaction.ID,
			Type:      string(transaction.Type),
			Amount:    transaction.Amount,
			ProductID: transaction.ProductRef,
			Status:    string(transaction.Status),
			CreatedAt: transaction.CreatedAt.Format(time.RFC3339),
		}
	}

	meta := newMeta(c)
	meta.Total = &total
	meta.Limit = &limit
	meta.Offset = &params.Offset
	respondWithMeta(c, http.StatusOK, TransactionsResponse{Transactions: items}, meta)
}

type PurchaseParams struct {
	TransactionData string `binding:"required"         json:"transaction_data"`
	ProductID       string `binding:"required,max=128" json:"product_id"`
}

type PurchaseResponse struct {
	TransactionID int64 `json:"transaction_id"`
	CreditsAdded  int64 `json:"credits_added"`
	NewBalance    int64 `json:"new_balance"`
}

// Purchase POST RouteGroup + PurchaseRoute. Проверяет платежные данные StoreKit
// и начисляет кредиты купленного продукта. Повторный колбек платформы с тем же
// идентификатором транзакции кредиты не задваивает.
func (h *CreditsHandler) Purchase(c *gin.Context) {
	uid := getUIDFromContext(c)

	var params PurchaseParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			respondError(c, http.StatusUnprocessableEntity, "validation_error", valErrs.Error())
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	result, err := h.purchases.ProcessPurchase(reqCtx, uid, params.TransactionData, params.ProductID)
	if err != nil {
		h.abortWithPurchaseError(c, err)
		return
	}

	respondOK(c, PurchaseResponse{
		TransactionID: result.TransactionID,
		CreditsAdded:  result.CreditsAdded,
		NewBalance:    result.NewBalance,
	})
}

type RewardParams struct {
	Source string `binding:"omitempty,slug,max=64" json:"source"`
}

type RewardResponse struct {
	CreditsAdded int64 `json:"credits_added"`
	NewBalance   int64 `json:"new_balance"`
}

// Reward POST RouteGroup + RewardRoute. Начисляет бонус за просмотр
// rewarded-рекламы. Тело запроса опционально.
func (h *CreditsHandler) Reward(c *gin.Context) {
	uid := getUIDFromContext(c)

	var params RewardParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil && !errors.Is(bindErr, io.EOF) {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			respondError(c, http.StatusUnprocessableEntity, "validation_error", valErrs.Error())
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	result, err := h.ledger.RewardCredit(reqCtx, uid, params.Source)
	if err != nil {
		h.abortWithLedgerError(c, err)
		return
	}

	respondOK(c, RewardResponse{
		CreditsAdded: result.Transaction.Amount,
		NewBalance:   result.NewBalance,
	})
}

type UsageParams struct {
	Amount    int64  `binding:"omitempty,gt=0" json:"amount"`
	ProductID string `binding:"omitempty,max=128" json:"product_id"`
}

type UsageResponse struct {
	CreditsUsed int64 `json:"credits_used"`
	NewBalance  int64 `json:"new_balance"`
}

// Usage POST RouteGroup + UsageRoute. Списывает кредиты перед оплачиваемым
// действием (обработкой изображения). При insufficient_credits оплачиваемое
// действие выполнять нельзя. Без тела списывается один кредит.
func (h *CreditsHandler) Usage(c *gin.Context) {
	uid := getUIDFromContext(c)

	var params UsageParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil && !errors.Is(bindErr, io.EOF) {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			respondError(c, http.StatusUnprocessableEntity, "validation_error", valErrs.Error())
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}
	if params.Amount == 0 {
		params.Amount = 1
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	newBalance, err := h.ledger.Debit(reqCtx, uid, params.Amount, params.ProductID)
	if err != nil {
		h.abortWithLedgerError(c, err)
		return
	}

	respondOK(c, UsageResponse{CreditsUsed: params.Amount, NewBalance: newBalance})
}

type ProductResponseItem struct {
	ProductID    string  `json:"product_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Credits      int64   `json:"credits"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	DisplayOrder int32   `json:"display_order"`
}

type ProductsResponse struct {
	Products []ProductResponseItem `json:"products"`
}

// Products GET RouteGroup + ProductsRoute. Активные продукты каталога для пейвола.
func (h *CreditsHandler) Products(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	products, err := h.purchases.GetActiveProducts(reqCtx)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	items := make([]ProductResponseItem, len(products))
	for i, product := range products {
		items[i] = ProductResponseItem{
			ProductID:    product.ProductID,
			Name:         product.Name,
			Description:  product.Description,
			Credits:      product.Credits,
			Price:        product.Price.InexactFloat64(),
			Currency:     product.Currency,
			DisplayOrder: product.DisplayOrder,
		}
	}

	respondOK(c, ProductsResponse{Products: items})
}

// abortWithLedgerError транслирует бизнес-ошибки леджера в HTTP статусы и коды конверта.
func (h *CreditsHandler) abortWithLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		respondError(c, http.StatusNotFound, "user_not_found", "User not found")
	case errors.Is(err, domain.ErrInsufficientCredits):
		respondError(c, http.StatusForbidden, "insufficient_credits", "Insufficient credits")
	case errors.Is(err, service.ErrInvalidAmount):
		respondError(c, http.StatusUnprocessableEntity, "validation_error", "Amount must be positive")
	default:
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
	}
}

func (h *CreditsHandler) abortWithPurchaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storekit.ErrVerificationExpired):
		respondError(c, http.StatusUnprocessableEntity, "verification_expired", "Transaction verification expired")
	case errors.Is(err, storekit.ErrInvalidTransaction), errors.Is(err, service.ErrProductMismatch):
		respondError(c, http.StatusUnprocessableEntity, "invalid_transaction", "Invalid transaction data")
	case errors.Is(err, domain.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "product_not_found", "IAP product not found")
	case errors.Is(err, domain.ErrProductInactive):
		respondError(c, http.StatusUnprocessableEntity, "product_inactive", "Product is not active")
	default:
		h.abortWithLedgerError(c, err)
	}
}
