package pgrepo

import (
	"context"

	"github.com/fsdevblog/lumen-credits/internal/domain"
	"github.com/fsdevblog/lumen-credits/internal/repository/repoargs"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, created_at, account_id, type, status, amount,
	COALESCE(product_ref, ''), COALESCE(external_transaction_id, '')`

type TransactionRepository struct {
	conn DBTX
}

func NewTransactionRepository(conn DBTX) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

// Create добавляет запись в журнал. Пустые product_ref и external_transaction_id
// сохраняются как NULL: на external_transaction_id висит частичный уникальный индекс,
// и пустые строки не должны конфликтовать между собой.
func (t *TransactionRepository) Create(
	ctx context.Context,
	args repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	row := t.conn.QueryRow(ctx, `
		INSERT INTO transactions (account_id, type, status, amount, product_ref, external_transaction_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING `+transactionColumns,
		args.AccountID, string(args.Type), string(args.Status), args.Amount,
		args.ProductRef, args.ExternalTransactionID)

	transaction, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "creating %s transaction for account %d", args.Type, args.AccountID)
	}
	return transaction, nil
}

// FindCompletedByExternalID ищет завершенную транзакцию по внешнему идентификатору
// платежной платформы. Используется для идемпотентности начисления покупок.
func (t *TransactionRepository) FindCompletedByExternalID(
	ctx context.Context,
	externalID string,
) (*domain.Transaction, error) {
	row := t.conn.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE external_transaction_id = $1 AND status = 'completed'`,
		externalID)

	transaction, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "finding transaction by external id %s", externalID)
	}
	return transaction, nil
}

// GetPage возвращает страницу журнала счета, отсортированную от новых к старым.
func (t *TransactionRepository) GetPage(
	ctx context.Context,
	args repoargs.TransactionPage,
) ([]domain.Transaction, error) {
	rows, err := t.conn.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		args.AccountID, int64(args.Limit), int64(args.Offset))
	if err != nil {
		return nil, convertErr(err, "getting transactions page for account %d", args.AccountID)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		transaction, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning transaction of account %d", args.AccountID)
		}
		transactions = append(transactions, *transaction)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting transactions page for account %d", args.AccountID)
	}
	return transactions, nil
}

func (t *TransactionRepository) CountByAccountID(ctx context.Context, accountID int64) (int64, error) {
	var count int64
	err := t.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM transactions WHERE account_id = $1", accountID).Scan(&count)
	if err != nil {
		return 0, convertErr(err, "counting transactions of account %d", accountID)
	}
	return count, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var transaction domain.Transaction
	err := row.Scan(
		&transaction.ID,
		&transaction.CreatedAt,
		&transaction.AccountID,
		&transaction.Type,
		&transaction.Status,
		&transaction.Amount,
		&transaction.ProductRef,
		&transaction.ExternalTransactionID,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &transaction, nil
}
