package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
)

const walletColumns = `wallet_id, owner_id, address, encrypted_private_key, private_key_salt,
	encrypted_mnemonic, mnemonic_salt, kind, created_at`

// WalletRepository persists custodial wallets.
type WalletRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewWalletRepository(db *sqlx.DB, txGetter TxGetter) *WalletRepository {
	return &WalletRepository{db: db, txGetter: txGetter}
}

// Create inserts a wallet. A second MAIN wallet for the same owner yields ErrUniqueViolation.
func (r *WalletRepository) Create(ctx context.Context, w *models.Wallet) error {
	query := `
		INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`
	args := []any{w.WalletID, w.OwnerID, strings.ToLower(w.Address), w.EncryptedPrivateKey, w.PrivateKeySalt,
		w.EncryptedMnemonic, w.MnemonicSalt, w.Kind}

	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), &w.CreatedAt, query, args...)

	// Secrets are never logged
	logger.Log.Infow(
		"query",
		"sql", oneLine(query),
		"args", []any{w.WalletID, w.OwnerID, w.Address, w.Kind},
		"result", w.CreatedAt,
		"error", err,
	)

	return mapError(err)
}

// GetByOwnerAndKind returns the first wallet of the given kind, or nil.
func (r *WalletRepository) GetByOwnerAndKind(ctx context.Context, ownerID uuid.UUID, kind models.WalletKind) (*models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE owner_id = $1 AND kind = $2
		ORDER BY created_at
		LIMIT 1
	`
	return r.get(ctx, query, ownerID, kind)
}

// GetByAddress returns the wallet with the given address, or nil.
func (r *WalletRepository) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE address = $1
	`
	return r.get(ctx, query, strings.ToLower(address))
}

// GetByAddressAndOwner returns the wallet only if ownerID owns address, or nil.
func (r *WalletRepository) GetByAddressAndOwner(ctx context.Context, address string, ownerID uuid.UUID) (*models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE address = $1 AND owner_id = $2
	`
	return r.get(ctx, query, strings.ToLower(address), ownerID)
}

// ListByOwner returns every wallet of ownerID, oldest first.
func (r *WalletRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Wallet, error) {
	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE owner_id = $1
		ORDER BY created_at, address
	`

	var wallets []models.Wallet
	err := sqlx.SelectContext(ctx, pick(ctx, r.db, r.txGetter), &wallets, query, ownerID)

	logger.Log.Infow(
		"query",
		"sql", oneLine(query),
		"args", []any{ownerID},
		"result", len(wallets),
		"error", err,
	)

	return wallets, err
}

func (r *WalletRepository) get(ctx context.Context, query string, args ...any) (*models.Wallet, error) {
	var w models.Wallet
	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), &w, query, args...)

	logger.Log.Infow(
		"query",
		"sql", oneLine(query),
		"args", args,
		"result", w.Address,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
