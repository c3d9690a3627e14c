package service

import (
	"context"

	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
	"github.com/fsdevblog/lumen-credits/internal/service/storekit"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type AccountRepository interface {
	Create(ctx context.Context, uid string) (*domain.Account, error)
	FindByUID(ctx context.Context, uid string) (*domain.Account, error)
	FindByUIDForUpdate(ctx context.Context, uid string) (*domain.Account, error)
	AddToBalance(ctx context.Context, accountID int64, delta int64) (*domain.Account, error)
	FindBalanceMismatches(ctx context.Context, limit uint) ([]repoargs.BalanceMismatch, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, args repoargs.TransactionCreate) (*domain.Transaction, error)
	FindCompletedByExternalID(ctx context.Context, externalID string) (*domain.Transaction, error)
	GetPage(ctx context.Context, args repoargs.TransactionPage) ([]domain.Transaction, error)
	CountByAccountID(ctx context.Context, accountID int64) (int64, error)
}

type ProductRepository interface {
	FindByProductID(ctx context.Context, productID string) (*domain.Product, error)
	GetActive(ctx context.Context) ([]domain.Product, error)
}

// TransactionVerifier - внешний коллаборатор проверки платежных данных.
// Леджер считает его непрозрачным: не прошла проверка - нет начисления.
type TransactionVerifier interface {
	Verify(transactionData string) (*storekit.Transaction, error)
}

// LedgerCrediter - часть леджера, нужная сервису покупок. Интерфейс исключительно для моков.
type LedgerCrediter interface {
	Credit(ctx context.Context, uid string, args CreditArgs) (*CreditResult, error)
}
