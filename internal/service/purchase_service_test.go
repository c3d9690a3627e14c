package service_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
	"github.com/fsdevblog/lumen-credits/internal/service"
	"github.com/fsdevblog/lumen-credits/internal/service/mocks"
	"github.com/fsdevblog/lumen-credits/internal/service/storekit"
	"github.com/fsdevblog/lumen-credits/pkg/uow"
	uowmocks "github.com/fsdevblog/lumen-credits/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PurchaseServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockUOW         *uowmocks.MockUOW
	mockProductRepo *mocks.MockProductRepository
	mockVerifier    *mocks.MockTransactionVerifier
	mockLedger      *mocks.MockLedgerCrediter
	service         *service.PurchaseService
}

func TestPurchaseServiceSuite(t *testing.T) {
	suite.Run(t, new(PurchaseServiceTestSuite))
}

func (s *PurchaseServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockProductRepo = mocks.NewMockProductRepository(s.mockCtrl)
	s.mockVerifier = mocks.NewMockTransactionVerifier(s.mockCtrl)
	s.mockLedger = mocks.NewMockLedgerCrediter(s.mockCtrl)

	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.ProductRepoName)).
		Return(s.mockProductRepo, nil).AnyTimes()

	var err error
	s.service, err = service.NewPurchaseService(s.mockUOW, s.mockVerifier, s.mockLedger)
	s.Require().NoError(err)
}

func (s *PurchaseServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *PurchaseServiceTestSuite) testProduct(active bool) *domain.Product {
	return &domain.Product{
		ID:        1,
		ProductID: "com.lumen.credits.10",
		Name:      "10 Credits",
		Credits:   10,
		Price:     decimal.NewFromFloat(0.99),
		Currency:  "USD",
		Active:    active,
	}
}

func (s *PurchaseServiceTestSuite) testPayload(productID string) *storekit.Transaction {
	return &storekit.Transaction{
		TransactionID:         gofakeit.UUID(),
		OriginalTransactionID: gofakeit.UUID(),
		ProductID:             productID,
		Quantity:              1,
		Environment:           "Production",
	}
}

func (s *PurchaseServiceTestSuite) TestProcessPurchase() {
	uid := gofakeit.UUID()
	product := s.testProduct(true)
	payload := s.testPayload(product.ProductID)

	s.mockVerifier.EXPECT().Verify("raw-transaction-data").
		Return(payload, nil)

	s.mockProductRepo.EXPECT().FindByProductID(gomock.Any(), product.ProductID).
		Return(product, nil)

	s.mockLedger.EXPECT().Credit(gomock.Any(), uid, service.CreditArgs{
		Amount:                product.Credits,
		Type:                  domain.TransactionTypePurchase,
		ProductRef:            product.ProductID,
		ExternalTransactionID: payload.OriginalTransactionID,
	}).Return(&service.CreditResult{
		NewBalance:  13,
		Transaction: &domain.Transaction{ID: 5, Amount: product.Credits},
	}, nil)

	result, err := s.service.ProcessPurchase(s.T().Context(), uid, "raw-transaction-data", product.ProductID)
	s.Require().NoError(err)
	s.Equal(int64(5), result.TransactionID)
	s.Equal(product.Credits, result.CreditsAdded)
	s.Equal(int64(13), result.NewBalance)
	s.False(result.AlreadyProcessed)
}

func (s *PurchaseServiceTestSuite) TestProcessPurchase_AlreadyProcessed() {
	uid := gofakeit.UUID()
	product := s.testProduct(true)
	payload := s.testPayload(product.ProductID)

	s.mockVerifier.EXPECT().Verify(gomock.Any()).
		Return(payload, nil)

	s.mockProductRepo.EXPECT().FindByProductID(gomock.Any(), product.ProductID).
		Return(product, nil)

	// Повторный колбек платформы: леджер возвращает существующую транзакцию.
	s.mockLedger.EXPECT().Credit(gomock.Any(), uid, gomock.Any()).
		Return(&service.CreditResult{
			NewBalance:       13,
			Transaction:      &domain.Transaction{ID: 5, Amount: product.Credits},
			AlreadyProcessed: true,
		}, nil)

	result, err := s.service.ProcessPurchase(s.T().Context(), uid, "raw", product.ProductID)
	s.Require().NoError(err)
	s.True(result.AlreadyProcessed)
	s.Equal(int64(13), result.NewBalance)
}

func (s *PurchaseServiceTestSuite) TestProcessPurchase_VerificationFailed() {
	s.mockVerifier.EXPECT().Verify(gomock.Any()).
		Return(nil, storekit.ErrInvalidTransaction)

	// При ошибке верификации начисления быть не должно, мок леджера без ожиданий.
	_, err := s.service.ProcessPurchase(s.T().Context(), gofakeit.UUID(), "garbage", "com.lumen.credits.10")
	s.Require().ErrorIs(err, storekit.ErrInvalidTransaction)
}

func (s *PurchaseServiceTestSuite) TestProcessPurchase_ProductMismatch() {
	payload := s.testPayload("com.lumen.credits.100")

	s.mockVerifier.EXPECT().Verify(gomock.Any()).
		Return(payload, nil)

	_, err := s.service.ProcessPurchase(s.T().Context(), gofakeit.UUID(), "raw", "com.lumen.credits.10")
	s.Require().ErrorIs(err, service.ErrProductMismatch)
}

func (s *PurchaseServiceTestSuite) TestProcessPurchase_ProductNotFound() {
	payload := s.testPayload("com.lumen.credits.999")

	s.mockVerifier.EXPECT().Verify(gomock.Any()).
		Return(payload, nil)

	s.mockProductRepo.EXPECT().FindByProductID(gomock.Any(), payload.ProductID).
		Return(nil, domain.ErrRecordNotFound)

	_, err := s.service.ProcessPurchase(s.T().Context(), gofakeit.UUID(), "raw", payload.ProductID)
	s.Require().ErrorIs(err, domain.ErrProductNotFound)
}

func (s *PurchaseServiceTestSuite) TestProcessPurchase_ProductInactive() {
	product := s.testProduct(false)
	payload := s.testPayload(product.ProductID)

	s.mockVerifier.EXPECT().Verify(gomock.Any()).
		Return(payload, nil)

	s.mockProductRepo.EXPECT().FindByProductID(gomock.Any(), product.ProductID).
		Return(product, nil)

	_, err := s.service.ProcessPurchase(s.T().Context(), gofakeit.UUID(), "raw", product.ProductID)
	s.Require().ErrorIs(err, domain.ErrProductInactive)
}

func (s *PurchaseServiceTestSuite) TestGetActiveProducts() {
	products := []domain.Product{*s.testProduct(true)}

	s.mockProductRepo.EXPECT().GetActive(gomock.Any()).
		Return(products, nil)

	got, err := s.service.GetActiveProducts(s.T().Context())
	s.Require().NoError(err)
	s.Equal(products, got)
}
