package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/service"
)

// AccountServicer интерфейс исключительно для моков.
type AccountServicer interface {
	Register(ctx context.Context, uid string) (*domain.Account, bool, error)
}

type LedgerServicer interface {
	GetBalance(ctx context.Context, uid string) (int64, error)
	GetTransactionHistory(ctx context.Context, uid string, limit, offset uint) ([]domain.Transaction, int64, error)
	Debit(ctx context.Context, uid string, amount int64, productRef string) (int64, error)
	RewardCredit(ctx context.Context, uid string, source string) (*service.CreditResult, error)
}

type PurchaseServicer interface {
	ProcessPurchase(ctx context.Context, uid, transactionData, productID string) (*service.PurchaseResult, error)
	GetActiveProducts(ctx context.Context) ([]domain.Product, error)
}
