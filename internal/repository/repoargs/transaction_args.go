package repoargs

import "github.com/fsdevblog/lumen-credits/internal/domain"

type TransactionCreate struct {
	AccountID             int64
	Type                  domain.TransactionType
	Status                domain.TransactionStatus
	Amount                int64
	ProductRef            string
	ExternalTransactionID string
}

// TransactionPage - параметры постраничной выборки журнала. Limit всегда > 0,
// Offset >= 0: валидация происходит на сервисном слое.
type TransactionPage struct {
	AccountID int64
	Limit     uint
	Offset    uint
}
