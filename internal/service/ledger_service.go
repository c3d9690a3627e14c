package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
	"github.com/fsdevblog/lumen-credits/pkg/uow"
)

const (
	DefaultHistoryLimit uint = 20
	MaxHistoryLimit     uint = 100

	// RewardSourceDefault подставляется, если клиент не передал источник бонуса.
	RewardSourceDefault = "rewarded_ad"
)

// LedgerService управляет балансом кредитов и журналом транзакций. Все мутации
// проходят внутри одной транзакции БД с блокировкой строки счета: конкурентные
// Debit/Credit по одному счету сериализуются на уровне хранилища.
type LedgerService struct {
	uow             uow.UOW
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	rewardCredits   int64
}

func NewLedgerService(u uow.UOW, rewardCredits int64) (*LedgerService, error) {
	accountRepo, accountRepoErr := uow.GetRepositoryAs[AccountRepository](
		u, uow.RepositoryName(repoargs.AccountRepoName))
	if accountRepoErr != nil {
		return nil, accountRepoErr
	}
	transactionRepo, transactionRepoErr := uow.GetRepositoryAs[TransactionRepository](
		u, uow.RepositoryName(repoargs.TransactionRepoName))
	if transactionRepoErr != nil {
		return nil, transactionRepoErr
	}
	return &LedgerService{
		uow:             u,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		rewardCredits:   rewardCredits,
	}, nil
}

// GetBalance возвращает текущий баланс кредитов. Если счета нет,
// вернется domain.ErrAccountNotFound.
func (s *LedgerService) GetBalance(ctx context.Context, uid string) (int64, error) {
	account, err := s.accountRepo.FindByUID(ctx, uid)
	if err != nil {
		return 0, convertAccountErr(err)
	}
	return account.Balance, nil
}

// GetTransactionHistory возвращает страницу журнала (от новых к старым) и общее
// количество записей. Нулевой limit заменяется на DefaultHistoryLimit, limit выше
// MaxHistoryLimit обрезается. Offset за пределами журнала - пустая страница, не ошибка.
func (s *LedgerService) GetTransactionHistory(
	ctx context.Context,
	uid string,
	limit, offset uint,
) ([]domain.Transaction, int64, error) {
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	account, accountErr := s.accountRepo.FindByUID(ctx, uid)
	if accountErr != nil {
		return nil, 0, convertAccountErr(accountErr)
	}

	transactions, pageErr := s.transactionRepo.GetPage(ctx, repoargs.TransactionPage{
		AccountID: account.ID,
		Limit:     limit,
		Offset:    offset,
	})
	if pageErr != nil {
		return nil, 0, pageErr //nolint:wrapcheck
	}

	total, countErr := s.transactionRepo.CountByAccountID(ctx, account.ID)
	if countErr != nil {
		return nil, 0, countErr //nolint:wrapcheck
	}
	return transactions, total, nil
}

// Debit атомарно списывает amount кредитов перед оплачиваемым действием.
// При нехватке средств возвращает domain.ErrInsufficientCredits, ничего не меняя:
// проверка и списание происходят под блокировкой строки счета, поэтому два
// конкурентных списания последнего кредита дадут ровно один успех.
//
// Debit намеренно не идемпотентен - каждый вызов соответствует одному реальному
// потреблению. Возвращает остаток после списания.
func (s *LedgerService) Debit(ctx context.Context, uid string, amount int64, productRef string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var newBalance int64
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		accountRepo, transactionRepo, reposErr := s.ledgerRepos(tx)
		if reposErr != nil {
			return reposErr
		}

		account, lockErr := accountRepo.FindByUIDForUpdate(c, uid)
		if lockErr != nil {
			return convertAccountErr(lockErr)
		}

		if account.Balance < amount {
			return domain.ErrInsufficientCredits
		}

		updated, updateErr := accountRepo.AddToBalance(c, account.ID, -amount)
		if updateErr != nil {
			return updateErr //nolint:wrapcheck
		}

		if _, createErr := transactionRepo.Create(c, repoargs.TransactionCreate{
			AccountID:  account.ID,
			Type:       domain.TransactionTypeUsage,
			Status:     domain.TransactionStatusCompleted,
			Amount:     -amount,
			ProductRef: productRef,
		}); createErr != nil {
			return createErr //nolint:wrapcheck
		}

		newBalance = updated.Balance
		return nil
	})

	if txErr != nil {
		if isLedgerErr(txErr) {
			return 0, txErr
		}
		return 0, fmt.Errorf("debiting %d credits from %s: %w", amount, uid, txErr)
	}
	return newBalance, nil
}

type CreditArgs struct {
	Amount     int64
	Type       domain.TransactionType
	ProductRef string
	// ExternalTransactionID - ключ идемпотентности платформы (для покупок).
	// Пустая строка означает начисление без дедупликации (бонусы).
	ExternalTransactionID string
}

type CreditResult struct {
	NewBalance       int64
	Transaction      *domain.Transaction
	AlreadyProcessed bool
}

// Credit атомарно начисляет кредиты. Если передан ExternalTransactionID и
// завершенная транзакция с таким идентификатором уже существует, начисление не
// происходит: возвращается текущий баланс и существующая транзакция
// (AlreadyProcessed = true). Платежные колбеки платформа может дублировать,
// поэтому повторный вызов безопасен.
func (s *LedgerService) Credit(ctx context.Context, uid string, args CreditArgs) (*CreditResult, error) {
	if args.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if args.Type != domain.TransactionTypePurchase && args.Type != domain.TransactionTypeBonus {
		return nil, ErrInvalidTransactionType
	}

	result, err := s.creditOnce(ctx, uid, args)
	if err == nil {
		return result, nil
	}

	// Гонка двух одинаковых начислений разрешается уникальным индексом по
	// external_transaction_id: проигравший получает ErrDuplicateKey и один раз
	// перечитывает уже записанную транзакцию вместо повторного начисления.
	if errors.Is(err, domain.ErrDuplicateKey) && args.ExternalTransactionID != "" {
		return s.replayedCredit(ctx, uid, args.ExternalTransactionID)
	}

	if isLedgerErr(err) {
		return nil, err
	}
	return nil, fmt.Errorf("crediting %d credits to %s: %w", args.Amount, uid, err)
}

// RewardCredit начисляет бонус за просмотр rewarded-рекламы. Величина начисления
// управляется сервером; дедупликации у бонусов нет (см. DESIGN.md).
func (s *LedgerService) RewardCredit(ctx context.Context, uid string, source string) (*CreditResult, error) {
	if source == "" {
		source = RewardSourceDefault
	}
	return s.Credit(ctx, uid, CreditArgs{
		Amount:     s.rewardCredits,
		Type:       domain.TransactionTypeBonus,
		ProductRef: source,
	})
}

// AuditBalances возвращает счета, расходящиеся с журналом. Используется фоновым аудитором.
func (s *LedgerService) AuditBalances(ctx context.Context, limit uint) ([]repoargs.BalanceMismatch, error) {
	mismatches, err := s.accountRepo.FindBalanceMismatches(ctx, limit)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return mismatches, nil
}

func (s *LedgerService) creditOnce(ctx context.Context, uid string, args CreditArgs) (*CreditResult, error) {
	var result CreditResult
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		accountRepo, transactionRepo, reposErr := s.ledgerRepos(tx)
		if reposErr != nil {
			return reposErr
		}

		account, lockErr := accountRepo.FindByUIDForUpdate(c, uid)
		if lockErr != nil {
			return convertAccountErr(lockErr)
		}

		if args.ExternalTransactionID != "" {
			existing, findErr := transactionRepo.FindCompletedByExternalID(c, args.ExternalTransactionID)
			if findErr == nil {
				result = CreditResult{
					NewBalance:       account.Balance,
					Transaction:      existing,
					AlreadyProcessed: true,
				}
				return nil
			}
			if !errors.Is(findErr, domain.ErrRecordNotFound) {
				return findErr //nolint:wrapcheck
			}
		}

		updated, updateErr := accountRepo.AddToBalance(c, account.ID, args.Amount)
		if updateErr != nil {
			return updateErr //nolint:wrapcheck
		}

		transaction, createErr := transactionRepo.Create(c, repoargs.TransactionCreate{
			AccountID:             account.ID,
			Type:                  args.Type,
			Status:                domain.TransactionStatusCompleted,
			Amount:                args.Amount,
			ProductRef:            args.ProductRef,
			ExternalTransactionID: args.ExternalTransactionID,
		})
		if createErr != nil {
			return createErr //nolint:wrapcheck
		}

		result = CreditResult{NewBalance: updated.Balance, Transaction: transaction}
		return nil
	})

	if txErr != nil {
		return nil, txErr //nolint:wrapcheck
	}
	return &result, nil
}

func (s *LedgerService) replayedCredit(ctx context.Context, uid, externalID string) (*CreditResult, error) {
	existing, findErr := s.transactionRepo.FindCompletedByExternalID(ctx, externalID)
	if findErr != nil {
		return nil, fmt.Errorf("resolving duplicate credit %s: %w", externalID, findErr)
	}
	account, accountErr := s.accountRepo.FindByUID(ctx, uid)
	if accountErr != nil {
		return nil, convertAccountErr(accountErr)
	}
	return &CreditResult{
		NewBalance:       account.Balance,
		Transaction:      existing,
		AlreadyProcessed: true,
	}, nil
}

func (s *LedgerService) ledgerRepos(tx uow.TX) (AccountRepository, TransactionRepository, error) {
	accountRepo, accountRepoErr := uow.GetAs[AccountRepository](
		tx, uow.RepositoryName(repoargs.AccountRepoName))
	if accountRepoErr != nil {
		return nil, nil, accountRepoErr //nolint:wrapcheck
	}
	transactionRepo, transactionRepoErr := uow.GetAs[TransactionRepository](
		tx, uow.RepositoryName(repoargs.TransactionRepoName))
	if transactionRepoErr != nil {
		return nil, nil, transactionRepoErr //nolint:wrapcheck
	}
	return accountRepo, transactionRepo, nil
}

// convertAccountErr переводит ошибку отсутствия записи в бизнес-ошибку счета.
func convertAccountErr(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrAccountNotFound
	}
	return err
}

// isLedgerErr сообщает, является ли ошибка типизированной бизнес-ошибкой леджера,
// которую нужно пробросить наверх без дополнительной обертки.
func isLedgerErr(err error) bool {
	return errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrInsufficientCredits)
}
