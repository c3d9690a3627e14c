// Package audit периодически сверяет балансы счетов с журналом транзакций.
// Инвариант леджера: баланс равен сумме завершенных транзакций счета. Нарушение
// означает баг или ручное вмешательство в данные и требует расследования.
package audit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultServiceTimeout         = 30 * time.Second
	defaultLimitPerIteration uint = 100
)

// Auditor запускает сверку по расписанию и пишет каждое расхождение в лог.
type Auditor struct {
	svs               Servicer
	l                 *logrus.Entry
	interval          time.Duration
	limitPerIteration uint
}

func New(svs Servicer, interval time.Duration, l *logrus.Logger) *Auditor {
	loggerEntry := l.WithFields(logrus.Fields{
		"component": "audit",
		"module":    "auditor",
	})

	return &Auditor{
		svs:               svs,
		l:                 loggerEntry,
		interval:          interval,
		limitPerIteration: defaultLimitPerIteration,
	}
}

// SetLimitPerIteration устанавливает максимум расхождений, выбираемых за одну итерацию.
func (a *Auditor) SetLimitPerIteration(limit uint) *Auditor {
	a.limitPerIteration = limit
	return a
}

// Run выполняет сверку с периодом interval до отмены контекста.
func (a *Auditor) Run(ctx context.Context) {
	a.l.WithFields(logrus.Fields{
		"interval":          a.interval.String(),
		"limitPerIteration": a.limitPerIteration,
	}).Info("Starting")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.l.Info("Got stop signal, exiting...")
			return
		case <-ticker.C:
			if err := a.runOnce(ctx); err != nil {
				a.l.WithError(err).Error("audit iteration failed")
			}
		}
	}
}

func (a *Auditor) runOnce(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	mismatches, err := a.svs.AuditBalances(reqCtx, a.limitPerIteration)
	if err != nil {
		return errors.Wrap(err, "auditing balances")
	}

	for _, mismatch := range mismatches {
		a.l.WithFields(logrus.Fields{
			"accountID": mismatch.AccountID,
			"uid":       mismatch.UID,
			"balance":   mismatch.Balance,
			"ledgerSum": mismatch.LedgerSum,
		}).Error("account balance diverged from transaction log")
	}

	if len(mismatches) == 0 {
		a.l.Debug("no mismatches found")
	}
	return nil
}
