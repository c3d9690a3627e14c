package domain

type TransactionType string

const (
	TransactionTypePurchase TransactionType = "purchase"
	TransactionTypeUsage    TransactionType = "usage"
	TransactionTypeBonus    TransactionType = "bonus"
)

type TransactionStatus string

// Статусы pending/failed/refunded зарезервированы под асинхронные платежные
// сценарии. Операции Debit/Credit создают записи только со статусом completed,
// и только completed записи участвуют в балансе.
const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)
