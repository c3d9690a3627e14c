package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account хранит баланс кредитов пользователя. UID - стабильный идентификатор
// из внешней системы аутентификации (subject токена). Баланс меняется только
// операциями Debit/Credit и никогда не уходит в минус.
type Account struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	UID       string
	Balance   int64
}

// Transaction - запись журнала операций по счету. Создается один раз и больше
// не изменяется (аудит). Amount со знаком: положительный для purchase/bonus,
// отрицательный для usage.
type Transaction struct {
	ID                    int64
	CreatedAt             time.Time
	AccountID             int64
	Type                  TransactionType
	Status                TransactionStatus
	Amount                int64
	ProductRef            string
	ExternalTransactionID string
}

// Product - позиция каталога внутренних покупок: сколько кредитов дает продукт
// и за какую цену он продается в сторе.
type Product struct {
	ID           int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProductID    string
	Name         string
	Description  string
	Credits      int64
	Price        decimal.Decimal
	Currency     string
	Active       bool
	DisplayOrder int32
}
