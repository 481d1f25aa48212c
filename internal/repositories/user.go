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

const userColumns = `user_id, username, email, password_hash, provider, created_at, updated_at`

// UserRepository persists user accounts.
type UserRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewUserRepository(db *sqlx.DB, txGetter TxGetter) *UserRepository {
	return &UserRepository{db: db, txGetter: txGetter}
}

// GetByID returns the user, or nil.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_id = $1
	`
	return r.get(ctx, query, userID)
}

// GetByUsername matches case-insensitively and returns nil when absent.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`
	return r.get(ctx, query, username)
}

// GetByUsernameOrEmail returns a user matching either identifier, or nil.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(username) = LOWER($1) OR ($2 <> '' AND LOWER(email) = LOWER($2))
		LIMIT 1
	`
	return r.get(ctx, query, username, email)
}

// Create inserts a user and fills in the generated id and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	const query = `
		INSERT INTO users (username, email, password_hash, provider, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING user_id, created_at, updated_at
	`
	args := []any{u.Username, u.Email, u.PasswordHash, u.Provider}

	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), u, query, args...)

	logger.Log.Infow(
		"query",
		"sql", oneLine(query),
		"args", []any{u.Username, u.Email, u.Provider},
		"result", u.UserID,
		"error", err,
	)

	return mapError(err)
}

func (r *UserRepository) get(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	err := sqlx.GetContext(ctx, pick(ctx, r.db, r.txGetter), &u, query, args...)

	logger.Log.Infow(
		"query",
		"sql", oneLine(query),
		"args", args,
		"result", u.UserID,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
