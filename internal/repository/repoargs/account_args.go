package repoargs

// BalanceMismatch - расхождение между балансом счета и суммой его завершенных
// транзакций. Используется фоновым аудитором.
type BalanceMismatch struct {
	AccountID int64
	UID       string
	Balance   int64
	LedgerSum int64
}
