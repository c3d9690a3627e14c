package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fsdevblog/lumen-credits/internal/audit"
	"github.com/fsdevblog/lumen-credits/internal/config"
	"github.com/fsdevblog/lumen-credits/internal/repository/pgrepo"
	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
	"github.com/fsdevblog/lumen-credits/internal/service"
	"github.com/fsdevblog/lumen-credits/internal/transport/api"
	"github.com/fsdevblog/lumen-credits/pkg/uow"
	"github.com/sirupsen/logrus"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
	"github.com/jackc/pgx/v5/pgxpool"
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.Infof("Starting app on %s", a.Config.RunAddress)
	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %s", uowErr.Error())
	}

	services, sErr := service.Factory(unitOfWork, service.FactoryArgs{
		SignupCredits: a.Config.SignupCredits,
		RewardCredits: a.Config.RewardCredits,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:          a.Logger,
		AccountService:  services.AccountService,
		LedgerService:   services.LedgerService,
		PurchaseService: services.PurchaseService,
		JWTSecretKey:    []byte(a.Config.JWTUserSecret),
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %s", routerErr.Error())
	}

	errChan := make(chan error, 1)

	go func() {
		if runErr := router.Run(a.Config.RunAddress); runErr != nil {
			errChan <- runErr
		}
	}()

	if a.Config.AuditInterval > 0 {
		auditor := audit.New(services.LedgerService, a.Config.AuditInterval, a.Logger).
			SetLimitPerIteration(100) //nolint:mnd
		go auditor.Run(notifyCtx)
	}

	select {
	case <-notifyCtx.Done():
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	// account repo
	accountRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewAccountRepository(dbtx)
	}
	if regErr := unitOfWork.Register(uow.RepositoryName(repoargs.AccountRepoName), accountRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	// transaction repo
	transactionRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewTransactionRepository(dbtx)
	}
	if regErr := unitOfWork.Register(
		uow.RepositoryName(repoargs.TransactionRepoName),
		transactionRepoFactoryFn,
	); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	// product repo
	productRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewProductRepository(dbtx)
	}
	if regErr := unitOfWork.Register(uow.RepositoryName(repoargs.ProductRepoName), productRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	return unitOfWork, nil
}
