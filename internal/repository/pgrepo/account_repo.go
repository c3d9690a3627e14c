package pgrepo

import (
	"context"

	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
	"github.com/jackc/pgx/v5"
)

const accountColumns = "id, created_at, updated_at, uid, balance"

type AccountRepository struct {
	conn DBTX
}

func NewAccountRepository(conn DBTX) *AccountRepository {
	return &AccountRepository{conn: conn}
}

// Create создает счет с нулевым балансом. Если счет для uid уже существует,
// вернется ошибка domain.ErrDuplicateKey.
func (a *AccountRepository) Create(ctx context.Context, uid string) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx,
		"INSERT INTO accounts (uid) VALUES ($1) RETURNING "+accountColumns, uid)

	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "creating account for uid %s", uid)
	}
	return account, nil
}

func (a *AccountRepository) FindByUID(ctx context.Context, uid string) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE uid = $1", uid)

	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "finding account by uid %s", uid)
	}
	return account, nil
}

// FindByUIDForUpdate получает счет с блокировкой строки (SELECT ... FOR UPDATE).
// Конкурентные Debit/Credit по одному счету сериализуются именно на этой блокировке:
// проверка баланса/идемпотентности и запись происходят атомарно в рамках транзакции.
// Вызывать только внутри uow.Do.
func (a *AccountRepository) FindByUIDForUpdate(ctx context.Context, uid string) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE uid = $1 FOR UPDATE", uid)

	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "locking account by uid %s", uid)
	}
	return account, nil
}

// AddToBalance изменяет баланс счета на delta (может быть отрицательной) и возвращает
// обновленный счет. CHECK ограничение в БД не даст балансу уйти в минус.
func (a *AccountRepository) AddToBalance(ctx context.Context, accountID int64, delta int64) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx,
		"UPDATE accounts SET balance = balance + $2, updated_at = now() WHERE id = $1 RETURNING "+accountColumns,
		accountID, delta)

	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "updating balance of account %d", accountID)
	}
	return account, nil
}

// FindBalanceMismatches возвращает счета, чей баланс разошелся с суммой завершенных
// транзакций. В нормальной работе выборка пуста; любая строка - повод для алерта.
func (a *AccountRepository) FindBalanceMismatches(
	ctx context.Context,
	limit uint,
) ([]repoargs.BalanceMismatch, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT a.id, a.uid, a.balance, COALESCE(SUM(t.amount) FILTER (WHERE t.status = 'completed'), 0) AS ledger_sum
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		GROUP BY a.id, a.uid, a.balance
		HAVING a.balance <> COALESCE(SUM(t.amount) FILTER (WHERE t.status = 'completed'), 0)
		ORDER BY a.id
		LIMIT $1`, int64(limit))
	if err != nil {
		return nil, convertErr(err, "finding balance mismatches")
	}
	defer rows.Close()

	var mismatches []repoargs.BalanceMismatch
	for rows.Next() {
		var m repoargs.BalanceMismatch
		if scanErr := rows.Scan(&m.AccountID, &m.UID, &m.Balance, &m.LedgerSum); scanErr != nil {
			return nil, convertErr(scanErr, "scanning balance mismatch")
		}
		mismatches = append(mismatches, m)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "finding balance mismatches")
	}
	return mismatches, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt, &account.UID, &account.Balance)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &account, nil
}
