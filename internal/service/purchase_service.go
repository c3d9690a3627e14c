package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
	"github.com/fsdevblog/lumen-credits/pkg/uow"
)

// PurchaseService обрабатывает покупки кредитов: проверяет платежные данные,
// сопоставляет продукт с каталогом и начисляет кредиты через леджер.
type PurchaseService struct {
	verifier    TransactionVerifier
	productRepo ProductRepository
	ledger      LedgerCrediter
}

func NewPurchaseService(u uow.UOW, verifier TransactionVerifier, ledger LedgerCrediter) (*PurchaseService, error) {
	productRepo, productRepoErr := uow.GetRepositoryAs[ProductRepository](
		u, uow.RepositoryName(repoargs.ProductRepoName))
	if productRepoErr != nil {
		return nil, productRepoErr
	}
	return &PurchaseService{
		verifier:    verifier,
		productRepo: productRepo,
		ledger:      ledger,
	}, nil
}

type PurchaseResult struct {
	TransactionID    int64
	CreditsAdded     int64
	NewBalance       int64
	AlreadyProcessed bool
}

// ProcessPurchase проверяет платежные данные и начисляет кредиты в объеме,
// определенном продуктом каталога.
//
// Алгоритм работы:
//  1. Верификация transactionData (ошибки storekit пробрасываются как есть,
//     без верификации начисления не будет).
//  2. Продукт в данных должен совпасть с заявленным productID.
//  3. Продукт ищется в каталоге и должен быть активен.
//  4. Начисление идемпотентно по OriginalTransactionID транзакции платформы:
//     повторный колбек вернет текущий баланс без двойного начисления.
func (s *PurchaseService) ProcessPurchase(
	ctx context.Context,
	uid string,
	transactionData string,
	productID string,
) (*PurchaseResult, error) {
	payload, verifyErr := s.verifier.Verify(transactionData)
	if verifyErr != nil {
		return nil, verifyErr //nolint:wrapcheck
	}

	if payload.ProductID != productID {
		return nil, fmt.Errorf("%w: got %s, transaction carries %s",
			ErrProductMismatch, productID, payload.ProductID)
	}

	product, productErr := s.productRepo.FindByProductID(ctx, productID)
	if productErr != nil {
		if errors.Is(productErr, domain.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("processing purchase %s: %w", payload.TransactionID, productErr)
	}
	if !product.Active {
		return nil, domain.ErrProductInactive
	}

	credit, creditErr := s.ledger.Credit(ctx, uid, CreditArgs{
		Amount:                product.Credits,
		Type:                  domain.TransactionTypePurchase,
		ProductRef:            product.ProductID,
		ExternalTransactionID: payload.OriginalTransactionID,
	})
	if creditErr != nil {
		return nil, creditErr //nolint:wrapcheck
	}

	return &PurchaseResult{
		TransactionID:    credit.Transaction.ID,
		CreditsAdded:     product.Credits,
		NewBalance:       credit.NewBalance,
		AlreadyProcessed: credit.AlreadyProcessed,
	}, nil
}

// GetActiveProducts возвращает активные продукты каталога для пейвола.
func (s *PurchaseService) GetActiveProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.productRepo.GetActive(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return products, nil
}
