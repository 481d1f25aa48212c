package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
)

const transactionColumns = `transaction_id, kind, status, token_address, token_id, amount, from_user, to_user,
	from_address, to_address, transaction_hash, error, created_at, updated_at`

// TransactionRepository persists ledger records.
type TransactionRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewTransactionRepository(db *sqlx.DB, txGetter TxGetter) *TransactionRepository {
	return &TransactionRepository{db: db, txGetter: txGetter}
}

// Insert stores a new record.
func (r *TransactionRepository) Insert(ctx context.Context, rec *models.TransactionRecord) error {
	const query = `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	args := []any{rec.TransactionID, rec.Kind, rec.Status, rec.TokenAddress, rec.TokenID, rec.Amount,
		rec.FromUser, rec.ToUser, rec.FromAddress, rec.ToAddress, rec.TransactionHash, rec.Error,
		rec.CreatedAt, rec.UpdatedAt}

	res, err := pick(ctx, r.db, r.txGetter).ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"query",
		"sql", oneLine(query),
		"args", args,
		"result", rowsAffected,
		"error", err,
	)

	return mapError(err)
}

// Finalize moves a PENDING or PROCESSING record to a terminal status.
// It returns nil when the record is missing or already final.
func (r *TransactionRepository) Finalize(
	ctx context.Context,
	id uuid.UUID,
	status models.TransactionStatus,
	txHash, reason string,
) (*models.TransactionRecord, error) {
	const query = `
		UPDATE transactions
		SET status = $2, transaction_hash = $3, error = $4, updated_at = NOW()
		WHERE transaction_id = $1 AND status IN ('PENDING', 'PROCESSING')
		RETURNING ` + transactionColumns + `
	`
	return r.get(ctx, query, id, status, txHash, reason)
}

// GetByID returns the record, or nil.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TransactionRecord, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_id = $1
	`
	return r.get(ctx, query, id)
}

// GetByHash returns the record carrying the on-chain hash, or nil.
func (r *TransactionRepository) GetByHash(ctx context.Context, txHash string) (*models.TransactionRecord, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE LOWER(transaction_hash) = LOWER($1) AND transaction_hash <> ''
		ORDER BY created_at
		LIMIT 1
	`
	return r.get(ctx, query, txHash)
}

func (r *TransactionRepository) get(ctx context.Context, query string, args ...any) (*models.TransactionRecord, error) {
	var rec models.TransactionRecord
	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), &rec, query, args...)

	logger.Log.Infow(
		"query",
		"sql", oneLine(query),
		"args", args,
		"result", rec.Status,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
