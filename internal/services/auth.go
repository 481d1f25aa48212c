package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/repositories"
)

//go:generate mockgen -source=auth.go -destination=auth_mock_test.go -package=services

// UserRepository persists user accounts.
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}

// MainWalletCreator creates the MAIN wallet of a new user.
type MainWalletCreator interface {
	CreateMainWallet(ctx context.Context, ownerID uuid.UUID) (*models.WalletInfo, error)
}

// JWTGenerator issues identity tokens.
type JWTGenerator interface {
	Generate(ctx context.Context, identity models.Identity) (string, error)
}

// AuthService handles registration and login.
type AuthService struct {
	users   UserRepository
	wallets MainWalletCreator
	jwt     JWTGenerator
}

func NewAuthService(users UserRepository, wallets MainWalletCreator, jwt JWTGenerator) *AuthService {
	return &AuthService{
		users:   users,
		wallets: wallets,
		jwt:     jwt,
	}
}

// Register creates a local user together with its MAIN wallet and returns the wallet secrets.
func (svc *AuthService) Register(ctx context.Context, username, password, email string) (*models.WalletInfo, error) {
	username, email = strings.TrimSpace(username), strings.TrimSpace(email)

	existing, err := svc.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "username", username, "error", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "error", err)
		return nil, err
	}
	hash := string(hashed)

	u := &models.User{Username: username, PasswordHash: &hash, Provider: models.ProviderLocal}
	if email != "" {
		u.Email = &email
	}

	if err := svc.users.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrUniqueViolation) {
			return nil, ErrUserAlreadyExists
		}
		logger.Log.Errorw("failed to save user", "username", username, "error", err)
		return nil, err
	}

	info, err := svc.wallets.CreateMainWallet(ctx, u.UserID)
	if err != nil {
		logger.Log.Errorw("failed to create main wallet", "user_id", u.UserID, "error", err)
		return nil, err
	}

	logger.Log.Infow("user registered", "user_id", u.UserID, "username", username, "address", info.Address)
	return info, nil
}

// Login authenticates a local user and returns a JWT.
func (svc *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := svc.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		logger.Log.Errorw("failed to get user", "username", username, "error", err)
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}
	if u.PasswordHash == nil {
		// implicit accounts have no password
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		logger.Log.Warnw("invalid credentials", "username", username)
		return "", ErrInvalidCredentials
	}

	token, err := svc.jwt.Generate(ctx, models.NewIdentity(u))
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "error", err)
		return "", err
	}
	return token, nil
}
