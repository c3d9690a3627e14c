package api

import (
	"time"

	"github.com/fsdevblog/lumen-credits/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup        = "/api/v1"
	RegisterRoute     = "/users/register"
	BalanceRoute      = "/credits/balance"
	TransactionsRoute = "/credits/transactions"
	PurchaseRoute     = "/credits/purchase"
	RewardRoute       = "/credits/reward"
	UsageRoute        = "/credits/usage"
	ProductsRoute     = "/credits/products"
)

type RouterArgs struct {
	Logger          *logrus.Logger
	AccountService  AccountServicer
	LedgerService   LedgerServicer
	PurchaseService PurchaseServicer
	JWTSecretKey    []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	accountsHandler := NewAccountsHandler(args.AccountService)
	creditsHandler := NewCreditsHandler(args.LedgerService, args.PurchaseService)

	api := r.Group(RouteGroup)
	api.Use(middlewares.AuthRequired(args.JWTSecretKey))

	// все роуты группы требуют авторизованного пользователя.
	api.POST(RegisterRoute, accountsHandler.Register)

	api.GET(BalanceRoute, creditsHandler.Balance)
	api.GET(TransactionsRoute, creditsHandler.Transactions)
	api.POST(PurchaseRoute, creditsHandler.Purchase)
	api.POST(RewardRoute, creditsHandler.Reward)
	api.POST(UsageRoute, creditsHandler.Usage)
	api.GET(ProductsRoute, creditsHandler.Products)
	return r, nil
}
