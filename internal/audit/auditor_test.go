package audit

import (
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/lumen-credits/internal/audit/mocks"
	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type AuditorTestSuite struct {
	suite.Suite
	auditor     *Auditor
	mockService *mocks.MockServicer
	ctrl        *gomock.Controller
}

func (s *AuditorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockServicer(s.ctrl)

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	s.auditor = New(s.mockService, time.Minute, logger)
}

func (s *AuditorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestAuditorSuite(t *testing.T) {
	suite.Run(t, new(AuditorTestSuite))
}

// TestRunOnce_NoMismatches Тест на случай, когда расхождений нет.
func (s *AuditorTestSuite) TestRunOnce_NoMismatches() {
	s.mockService.EXPECT().
		AuditBalances(gomock.Any(), s.auditor.limitPerIteration).
		Return([]repoargs.BalanceMismatch{}, nil)

	err := s.auditor.runOnce(s.T().Context())
	s.NoError(err)
}

// TestRunOnce_WithMismatches Тест на случай, когда сверка нашла расхождения.
// Расхождения пишутся в лог, итерация завершается без ошибки.
func (s *AuditorTestSuite) TestRunOnce_WithMismatches() {
	mismatches := []repoargs.BalanceMismatch{
		{AccountID: 1, UID: gofakeit.UUID(), Balance: 10, LedgerSum: 12},
		{AccountID: 2, UID: gofakeit.UUID(), Balance: 0, LedgerSum: -1},
	}

	s.mockService.EXPECT().
		AuditBalances(gomock.Any(), s.auditor.limitPerIteration).
		Return(mismatches, nil)

	err := s.auditor.runOnce(s.T().Context())
	s.NoError(err)
}

// TestRunOnce_ServiceError Тест на случай ошибки сервиса при сверке.
func (s *AuditorTestSuite) TestRunOnce_ServiceError() {
	serviceErr := errors.New("db is down")

	s.mockService.EXPECT().
		AuditBalances(gomock.Any(), s.auditor.limitPerIteration).
		Return(nil, serviceErr)

	err := s.auditor.runOnce(s.T().Context())
	s.ErrorIs(err, serviceErr)
}

func (s *AuditorTestSuite) TestSetLimitPerIteration() {
	s.auditor.SetLimitPerIteration(5)

	s.mockService.EXPECT().
		AuditBalances(gomock.Any(), uint(5)).
		Return([]repoargs.BalanceMismatch{}, nil)

	err := s.auditor.runOnce(s.T().Context())
	s.NoError(err)
}
