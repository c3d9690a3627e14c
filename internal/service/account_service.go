package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
	"github.com/fsdevblog/lumen-credits/pkg/uow"
)

// SignupBonusRef - метка транзакции разового бонуса за регистрацию.
const SignupBonusRef = "signup"

// AccountService создает счета. Счет заводится лениво при первой регистрации
// и дальше живет вместе с пользователем.
type AccountService struct {
	uow           uow.UOW
	accountRepo   AccountRepository
	signupCredits int64
}

func NewAccountService(u uow.UOW, signupCredits int64) (*AccountService, error) {
	accountRepo, accountRepoErr := uow.GetRepositoryAs[AccountRepository](
		u, uow.RepositoryName(repoargs.AccountRepoName))
	if accountRepoErr != nil {
		return nil, accountRepoErr
	}
	return &AccountService{
		uow:           u,
		accountRepo:   accountRepo,
		signupCredits: signupCredits,
	}, nil
}

// Register возвращает счет пользователя, создавая его при первом обращении.
// Новому счету в той же транзакции начисляется разовый бонус регистрации
// (баланс и бонусная запись журнала коммитятся вместе). Повторная регистрация
// бонус не дублирует. Второй результат - признак того, что счет был создан.
func (s *AccountService) Register(ctx context.Context, uid string) (*domain.Account, bool, error) {
	existing, findErr := s.accountRepo.FindByUID(ctx, uid)
	if findErr == nil {
		return existing, false, nil
	}
	if !errors.Is(findErr, domain.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("registering account %s: %w", uid, findErr)
	}

	account, createErr := s.createWithSignupBonus(ctx, uid)
	if createErr != nil {
		// Гонка двух первых запросов одного пользователя: проигравший
		// получает дубликат и просто читает созданный счет.
		if errors.Is(createErr, domain.ErrDuplicateKey) {
			existing, raceErr := s.accountRepo.FindByUID(ctx, uid)
			if raceErr != nil {
				return nil, false, fmt.Errorf("registering account %s: %w", uid, raceErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("registering account %s: %w", uid, createErr)
	}
	return account, true, nil
}

func (s *AccountService) createWithSignupBonus(ctx context.Context, uid string) (*domain.Account, error) {
	var account *domain.Account

	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		accountRepo, accountRepoErr := uow.GetAs[AccountRepository](
			tx, uow.RepositoryName(repoargs.AccountRepoName))
		if accountRepoErr != nil {
			return accountRepoErr //nolint:wrapcheck
		}

		created, createErr := accountRepo.Create(c, uid)
		if createErr != nil {
			return createErr //nolint:wrapcheck
		}
		account = created

		if s.signupCredits <= 0 {
			return nil
		}

		transactionRepo, transactionRepoErr := uow.GetAs[TransactionRepository](
			tx, uow.RepositoryName(repoargs.TransactionRepoName))
		if transactionRepoErr != nil {
			return transactionRepoErr //nolint:wrapcheck
		}

		updated, bonusErr := accountRepo.AddToBalance(c, created.ID, s.signupCredits)
		if bonusErr != nil {
			return bonusErr //nolint:wrapcheck
		}
		account = updated

		if _, createTxErr := transactionRepo.Create(c, repoargs.TransactionCreate{
			AccountID:  created.ID,
			Type:       domain.TransactionTypeBonus,
			Status:     domain.TransactionStatusCompleted,
			Amount:     s.signupCredits,
			ProductRef: SignupBonusRef,
		}); createTxErr != nil {
			return createTxErr //nolint:wrapcheck
		}
		return nil
	})

	if txErr != nil {
		return nil, txErr //nolint:wrapcheck
	}
	return account, nil
}
