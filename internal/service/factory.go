package service

import (
	"fmt"

	"github.com/fsdevblog/lumen-credits/internal/service/storekit"
	"github.com/fsdevblog/lumen-credits/pkg/uow"
)

type AppServices struct {
	AccountService  *AccountService
	LedgerService   *LedgerService
	PurchaseService *PurchaseService
}

type FactoryArgs struct {
	SignupCredits int64
	RewardCredits int64
}

func Factory(unitOfWork uow.UOW, args FactoryArgs) (*AppServices, error) {
	accountService, accountServiceErr := NewAccountService(unitOfWork, args.SignupCredits)
	if accountServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", accountServiceErr.Error())
	}

	ledgerService, ledgerServiceErr := NewLedgerService(unitOfWork, args.RewardCredits)
	if ledgerServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", ledgerServiceErr.Error())
	}

	purchaseService, purchaseServiceErr := NewPurchaseService(unitOfWork, storekit.NewVerifier(), ledgerService)
	if purchaseServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", purchaseServiceErr.Error())
	}

	return &AppServices{
		AccountService:  accountService,
		LedgerService:   ledgerService,
		PurchaseService: purchaseService,
	}, nil
}
