package api

import (
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/logger"
	"github.com/fsdevblog/lumen-credits/internal/transport/api/mocks"
	"github.com/fsdevblog/lumen-credits/internal/transport/api/testutils"
	"github.com/fsdevblog/lumen-credits/internal/transport/api/tokens"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type AccountsHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockAccountService *mocks.MockAccountServicer
	jwtSecret          []byte
}

func TestAccountsHandlerSuite(t *testing.T) {
	suite.Run(t, new(AccountsHandlerTestSuite))
}

func (s *AccountsHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	defer mockCtrl.Finish()

	s.mockAccountService = mocks.NewMockAccountServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	router, routerErr := New(RouterArgs{
		Logger:          logger.New(os.Stdout),
		AccountService:  s.mockAccountService,
		LedgerService:   mocks.NewMockLedgerServicer(mockCtrl),
		PurchaseService: mocks.NewMockPurchaseServicer(mockCtrl),
		JWTSecretKey:    s.jwtSecret,
	})
	s.Require().NoError(routerErr)
	s.router = router
}

func (s *AccountsHandlerTestSuite) TestRegister() {
	newUID := gofakeit.UUID()
	existingUID := gofakeit.UUID()

	s.mockAccountService.EXPECT().Register(gomock.Any(), newUID).
		Return(&domain.Account{ID: 1, CreatedAt: time.Now(), UID: newUID, Balance: 3}, true, nil)
	s.mockAccountService.EXPECT().Register(gomock.Any(), existingUID).
		Return(&domain.Account{ID: 2, CreatedAt: time.Now(), UID: existingUID, Balance: 15}, false, nil)

	cases := []struct {
		name        string
		uid         string
		wantStatus  int
		wantCredits float64
	}{
		{name: "new account", uid: newUID, wantStatus: http.StatusCreated, wantCredits: 3},
		{name: "existing account", uid: existingUID, wantStatus: http.StatusOK, wantCredits: 15},
		{name: "not authorized", uid: "", wantStatus: http.StatusUnauthorized},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			var reqOpts []func(*testutils.RequestOptions)
			if t.uid != "" {
				token, tokenErr := tokens.GenerateUserJWT(t.uid, time.Hour, s.jwtSecret)
				s.Require().NoError(tokenErr)
				reqOpts = append(reqOpts, testutils.WithBearerToken(token))
			}

			res, err := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodPost,
				URL:    RouteGroup + RegisterRoute,
			}, reqOpts...)
			s.Require().NoError(err)
			defer func() {
				closeErr := res.Body.Close()
				s.Require().NoError(closeErr)
			}()

			s.Equal(t.wantStatus, res.StatusCode)
			if t.wantStatus == http.StatusUnauthorized {
				return
			}

			var envelope envelopeBody
			s.Require().NoError(json.NewDecoder(res.Body).Decode(&envelope))
			s.True(envelope.Success)
			s.Equal(t.uid, envelope.Data["uid"])
			s.InDelta(t.wantCredits, envelope.Data["credits"], 0)
		})
	}
}
