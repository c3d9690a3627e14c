package audit

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
)

type Servicer interface {
	AuditBalances(ctx context.Context, limit uint) ([]repoargs.BalanceMismatch, error)
}
