package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
	"github.com/fsdevblog/lumen-credits/internal/service"
	"github.com/fsdevblog/lumen-credits/internal/service/mocks"
	"github.com/fsdevblog/lumen-credits/pkg/uow"
	uowmocks "github.com/fsdevblog/lumen-credits/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockCtrl            *gomock.Controller
	mockUOW             *uowmocks.MockUOW
	mockTX              *uowmocks.MockTX
	mockAccountRepo     *mocks.MockAccountRepository
	mockTransactionRepo *mocks.MockTransactionRepository
	service             *service.LedgerService
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)
	s.mockAccountRepo = mocks.NewMockAccountRepository(s.mockCtrl)
	s.mockTransactionRepo = mocks.NewMockTransactionRepository(s.mockCtrl)

	// Настроить получение репозиториев из uow при инициализации сервиса.
	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.AccountRepoName)).
		Return(s.mockAccountRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.TransactionRepoName)).
		Return(s.mockTransactionRepo, nil).AnyTimes()

	var err error
	s.service, err = service.NewLedgerService(s.mockUOW, 1)
	s.Require().NoError(err)
}

func (s *LedgerServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

// expectTransaction настраивает прокидывание колбека uow.Do в мок транзакции.
func (s *LedgerServiceTestSuite) expectTransaction(times int) {
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.AccountRepoName)).
		Return(s.mockAccountRepo, nil).Times(times)
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.TransactionRepoName)).
		Return(s.mockTransactionRepo, nil).Times(times)
	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(s.T().Context(), s.mockTX)
		},
	).Times(times)
}

func (s *LedgerServiceTestSuite) testAccount(balance int64) *domain.Account {
	return &domain.Account{
		ID:        1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		UID:       gofakeit.UUID(),
		Balance:   balance,
	}
}

func (s *LedgerServiceTestSuite) TestGetBalance() {
	account := s.testAccount(42)

	s.mockAccountRepo.EXPECT().FindByUID(gomock.Any(), account.UID).
		Return(account, nil)

	balance, err := s.service.GetBalance(s.T().Context(), account.UID)
	s.Require().NoError(err)
	s.Equal(int64(42), balance)
}

func (s *LedgerServiceTestSuite) TestGetBalance_AccountNotFound() {
	uid := gofakeit.UUID()

	s.mockAccountRepo.EXPECT().FindByUID(gomock.Any(), uid).
		Return(nil, domain.ErrRecordNotFound)

	_, err := s.service.GetBalance(s.T().Context(), uid)
	s.Require().ErrorIs(err, domain.ErrAccountNotFound)
}

func (s *LedgerServiceTestSuite) TestGetTransactionHistory() {
	account := s.testAccount(10)
	transactions := []domain.Transaction{
		{ID: 2, AccountID: account.ID, Type: domain.TransactionTypeUsage, Amount: -1},
		{ID: 1, AccountID: account.ID, Type: domain.TransactionTypePurchase, Amount: 10},
	}

	s.mockAccountRepo.EXPECT().FindByUID(gomock.Any(), account.UID).
		Return(account, nil)

	// Нулевой limit должен замениться значением по умолчанию.
	s.mockTransactionRepo.EXPECT().GetPage(gomock.Any(), repoargs.TransactionPage{
		AccountID: account.ID,
		Limit:     service.DefaultHistoryLimit,
		Offset:    0,
	}).Return(transactions, nil)

	s.mockTransactionRepo.EXPECT().CountByAccountID(gomock.Any(), account.ID).
		Return(int64(2), nil)

	page, total, err := s.service.GetTransactionHistory(s.T().Context(), account.UID, 0, 0)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(page, 2)
	s.Equal(transactions[0].ID, page[0].ID)
}

func (s *LedgerServiceTestSuite) TestGetTransactionHistory_LimitCapped() {
	account := s.testAccount(0)

	s.mockAccountRepo.EXPECT().FindByUID(gomock.Any(), account.UID).
		Return(account, nil)

	// limit выше максимума обрезается.
	s.mockTransactionRepo.EXPECT().GetPage(gomock.Any(), repoargs.TransactionPage{
		AccountID: account.ID,
		Limit:     service.MaxHistoryLimit,
		Offset:    500,
	}).Return([]domain.Transaction{}, nil)

	s.mockTransactionRepo.EXPECT().CountByAccountID(gomock.Any(), account.ID).
		Return(int64(0), nil)

	page, total, err := s.service.GetTransactionHistory(s.T().Context(), account.UID, 1000, 500)
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(page)
}

func (s *LedgerServiceTestSuite) TestDebit() {
	account := s.testAccount(5)

	s.expectTransaction(1)

	s.mockAccountRepo.EXPECT().FindByUIDForUpdate(gomock.Any(), account.UID).
		Return(account, nil)

	updated := *account
	updated.Balance = 3
	s.mockAccountRepo.EXPECT().AddToBalance(gomock.Any(), account.ID, int64(-2)).
		Return(&updated, nil)

	s.mockTransactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.TransactionCreate) (*domain.Transaction, error) {
			// убеждаемся что запись журнала списания собрана верно.
			s.Equal(account.ID, args.AccountID)
			s.Equal(domain.TransactionTypeUsage, args.Type)
			s.Equal(domain.TransactionStatusCompleted, args.Status)
			s.Equal(int64(-2), args.Amount)
			s.Equal("image_generation", args.ProductRef)
			return &domain.Transaction{ID: 77, AccountID: account.ID, Amount: -2}, nil
		})

	newBalance, err := s.service.Debit(s.T().Context(), account.UID, 2, "image_generation")
	s.Require().NoError(err)
	s.Equal(int64(3), newBalance)
}

func (s *LedgerServiceTestSuite) TestDebit_InsufficientCredits() {
	account := s.testAccount(1)

	s.expectTransaction(1)

	s.mockAccountRepo.EXPECT().FindByUIDForUpdate(gomock.Any(), account.UID).
		Return(account, nil)

	_, err := s.service.Debit(s.T().Context(), account.UID, 2, "image_generation")
	s.Require().ErrorIs(err, domain.ErrInsufficientCredits)
}

func (s *LedgerServiceTestSuite) TestDebit_AccountNotFound() {
	uid := gofakeit.UUID()

	s.expectTransaction(1)

	s.mockAccountRepo.EXPECT().FindByUIDForUpdate(gomock.Any(), uid).
		Return(nil, domain.ErrRecordNotFound)

	_, err := s.service.Debit(s.T().Context(), uid, 1, "")
	s.Require().ErrorIs(err, domain.ErrAccountNotFound)
}

func (s *LedgerServiceTestSuite) TestDebit_InvalidAmount() {
	cases := []struct {
		name   string
		amount int64
	}{
		{name: "zero", amount: 0},
		{name: "negative", amount: -3},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			_, err := s.service.Debit(s.T().Context(), gofakeit.UUID(), t.amount, "")
			s.Require().ErrorIs(err, service.ErrInvalidAmount)
		})
	}
}

func (s *LedgerServiceTestSuite) TestCredit() {
	account := s.testAccount(3)
	externalID := gofakeit.UUID()

	s.expectTransaction(1)

	s.mockAccountRepo.EXPECT().FindByUIDForUpdate(gomock.Any(), account.UID).
		Return(account, nil)

	// Завершенной транзакции с таким внешним идентификатором еще нет.
	s.mockTransactionRepo.EXPECT().FindCompletedByExternalID(gomock.Any(), externalID).
		Return(nil, domain.ErrRecordNotFound)

	updated := *account
	updated.Balance = 13
	s.mockAccountRepo.EXPECT().AddToBalance(gomock.Any(), account.ID, int64(10)).
		Return(&updated, nil)

	s.mockTransactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.TransactionCreate) (*domain.Transaction, error) {
			s.Equal(domain.TransactionTypePurchase, args.Type)
			s.Equal(int64(10), args.Amount)
			s.Equal(externalID, args.ExternalTransactionID)
			return &domain.Transaction{ID: 5, AccountID: account.ID, Amount: 10}, nil
		})

	result, err := s.service.Credit(s.T().Context(), account.UID, service.CreditArgs{
		Amount:                10,
		Type:                  domain.TransactionTypePurchase,
		ProductRef:            "com.lumen.credits.10",
		ExternalTransactionID: externalID,
	})
	s.Require().NoError(err)
	s.Equal(int64(13), result.NewBalance)
	s.False(result.AlreadyProcessed)
}

func (s *LedgerServiceTestSuite) TestCredit_AlreadyProcessed() {
	account := s.testAccount(13)
	externalID := gofakeit.UUID()
	existing := &domain.Transaction{
		ID:                    5,
		AccountID:             account.ID,
		Type:                  domain.TransactionTypePurchase,
		Amount:                10,
		ExternalTransactionID: externalID,
	}

	s.expectTransaction(1)

	s.mockAccountRepo.EXPECT().FindByUIDForUpdate(gomock.Any(), account.UID).
		Return(account, nil)

	// Повторный колбек платформы: транзакция уже записана, начисления быть не должно.
	s.mockTransactionRepo.EXPECT().FindCompletedByExternalID(gomock.Any(), externalID).
		Return(existing, nil)

	result, err := s.service.Credit(s.T().Context(), account.UID, service.CreditArgs{
		Amount:                10,
		Type:                  domain.TransactionTypePurchase,
		ExternalTransactionID: externalID,
	})
	s.Require().NoError(err)
	s.True(result.AlreadyProcessed)
	s.Equal(account.Balance, result.NewBalance)
	s.Equal(existing.ID, result.Transaction.ID)
}

func (s *LedgerServiceTestSuite) TestCredit_DuplicateRace() {
	account := s.testAccount(13)
	externalID := gofakeit.UUID()
	existing := &domain.Transaction{
		ID:                    5,
		AccountID:             account.ID,
		Type:                  domain.TransactionTypePurchase,
		Amount:                10,
		ExternalTransactionID: externalID,
	}

	s.expectTransaction(1)

	s.mockAccountRepo.EXPECT().FindByUIDForUpdate(gomock.Any(), account.UID).
		Return(account, nil)

	s.mockTransactionRepo.EXPECT().FindCompletedByExternalID(gomock.Any(), externalID).
		Return(nil, domain.ErrRecordNotFound)

	// Гонка: параллельное начисление успело вставить транзакцию первым,
	// уникальный индекс отбивает нашу вставку.
	s.mockAccountRepo.EXPECT().AddToBalance(gomock.Any(), account.ID, int64(10)).
		Return(account, nil)
	s.mockTransactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrDuplicateKey)

	// Проигравший перечитывает записанную транзакцию вне транзакции БД.
	s.mockTransactionRepo.EXPECT().FindCompletedByExternalID(gomock.Any(), externalID).
		Return(existing, nil)
	s.mockAccountRepo.EXPECT().FindByUID(gomock.Any(), account.UID).
		Return(account, nil)

	result, err := s.service.Credit(s.T().Context(), account.UID, service.CreditArgs{
		Amount:                10,
		Type:                  domain.TransactionTypePurchase,
		ExternalTransactionID: externalID,
	})
	s.Require().NoError(err)
	s.True(result.AlreadyProcessed)
	s.Equal(existing.ID, result.Transaction.ID)
}

func (s *LedgerServiceTestSuite) TestCredit_InvalidArgs() {
	cases := []struct {
		name    string
		args    service.CreditArgs
		wantErr error
	}{
		{
			name:    "zero amount",
			args:    service.CreditArgs{Amount: 0, Type: domain.TransactionTypePurchase},
			wantErr: service.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			args:    service.CreditArgs{Amount: -5, Type: domain.TransactionTypeBonus},
			wantErr: service.ErrInvalidAmount,
		},
		{
			name:    "usage type",
			args:    service.CreditArgs{Amount: 5, Type: domain.TransactionTypeUsage},
			wantErr: service.ErrInvalidTransactionType,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			_, err := s.service.Credit(s.T().Context(), gofakeit.UUID(), t.args)
			s.Require().ErrorIs(err, t.wantErr)
		})
	}
}

func (s *LedgerServiceTestSuite) TestRewardCredit_DefaultSource() {
	account := s.testAccount(0)

	s.expectTransaction(1)

	s.mockAccountRepo.EXPECT().FindByUIDForUpdate(gomock.Any(), account.UID).
		Return(account, nil)

	updated := *account
	updated.Balance = 1
	s.mockAccountRepo.EXPECT().AddToBalance(gomock.Any(), account.ID, int64(1)).
		Return(&updated, nil)

	s.mockTransactionRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.TransactionCreate) (*domain.Transaction, error) {
			s.Equal(domain.TransactionTypeBonus, args.Type)
			s.Equal(int64(1), args.Amount)
			s.Equal(service.RewardSourceDefault, args.ProductRef)
			s.Empty(args.ExternalTransactionID)
			return &domain.Transaction{ID: 9, AccountID: account.ID, Amount: 1}, nil
		})

	result, err := s.service.RewardCredit(s.T().Context(), account.UID, "")
	s.Require().NoError(err)
	s.Equal(int64(1), result.NewBalance)
	s.False(result.AlreadyProcessed)
}

func (s *LedgerServiceTestSuite) TestAuditBalances() {
	mismatches := []repoargs.BalanceMismatch{
		{AccountID: 1, UID: gofakeit.UUID(), Balance: 10, LedgerSum: 12},
	}

	s.mockAccountRepo.EXPECT().FindBalanceMismatches(gomock.Any(), uint(100)).
		Return(mismatches, nil)

	got, err := s.service.AuditBalances(s.T().Context(), 100)
	s.Require().NoError(err)
	s.Equal(mismatches, got)
}
