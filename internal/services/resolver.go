package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/repositories"
)

//go:generate mockgen -source=resolver.go -destination=resolver_mock_test.go -package=services

// RecipientWallets is the wallet lookup and creation the resolver needs.
type RecipientWallets interface {
	FindWallet(ctx context.Context, ownerID uuid.UUID, kind models.WalletKind) (*models.Wallet, error)
	FindWalletByAddress(ctx context.Context, address string) (*models.Wallet, error)
	CreateMainWallet(ctx context.Context, ownerID uuid.UUID) (*models.WalletInfo, error)
}

// ResolvePolicy controls what Resolve may do on behalf of the caller.
type ResolvePolicy struct {
	AllowImplicitCreation bool // create unknown usernames as implicit users
	ForbidSelfTransfer    bool
}

// Resolution is the on-chain destination of a transfer.
type Resolution struct {
	Address common.Address
	User    *models.User // nil for an address no user owns
	Created bool         // the user was created by this call
}

// Username returns the recipient username, or nil for an external address.
func (r *Resolution) Username() *string {
	if r.User == nil {
		return nil
	}
	name := r.User.Username
	return &name
}

// RecipientResolver turns a username or address into a transfer destination.
type RecipientResolver struct {
	users   UserRepository
	wallets RecipientWallets
}

func NewRecipientResolver(users UserRepository, wallets RecipientWallets) *RecipientResolver {
	return &RecipientResolver{users: users, wallets: wallets}
}

// Resolve validates target and returns where funds for it must be sent.
func (r *RecipientResolver) Resolve(
	ctx context.Context,
	caller models.Identity,
	target models.Recipient,
	policy ResolvePolicy,
) (*Resolution, error) {
	username := strings.TrimSpace(target.Username)
	address := strings.TrimSpace(target.Address)

	var (
		res *Resolution
		err error
	)
	switch {
	case username != "" && address != "":
		return nil, fmt.Errorf("%w: give either a username or an address", ErrInvalidRecipient)
	case address != "":
		res, err = r.byAddress(ctx, address)
	case username != "":
		res, err = r.byUsername(ctx, username, policy)
	default:
		return nil, fmt.Errorf("%w: username or address is required", ErrInvalidRecipient)
	}
	if err != nil {
		return nil, err
	}

	if policy.ForbidSelfTransfer && res.User != nil && res.User.UserID == caller.ID {
		return nil, ErrSelfTransfer
	}
	return res, nil
}

func (r *RecipientResolver) byAddress(ctx context.Context, address string) (*Resolution, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q is not an address", ErrInvalidRecipient, address)
	}
	res := &Resolution{Address: common.HexToAddress(address)}

	w, err := r.wallets.FindWalletByAddress(ctx, strings.ToLower(address))
	if err != nil {
		return nil, err
	}
	if w == nil {
		return res, nil
	}

	u, err := r.users.GetByID(ctx, w.OwnerID)
	if err != nil {
		return nil, err
	}
	res.User = u
	return res, nil
}

func (r *RecipientResolver) byUsername(ctx context.Context, username string, policy ResolvePolicy) (*Resolution, error) {
	u, err := r.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	created := false
	if u == nil {
		if !policy.AllowImplicitCreation {
			return nil, fmt.Errorf("%w: %s", ErrRecipientNotFound, username)
		}
		if u, err = r.createImplicitUser(ctx, username); err != nil {
			return nil, err
		}
		created = true
	}

	address, err := r.mainAddress(ctx, u.UserID)
	if err != nil {
		return nil, err
	}
	return &Resolution{Address: address, User: u, Created: created}, nil
}

func (r *RecipientResolver) createImplicitUser(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{Username: username, Provider: models.ProviderImplicit}
	err := r.users.Create(ctx, u)
	if errors.Is(err, repositories.ErrUniqueViolation) {
		// created concurrently
		existing, err := r.users.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("%w: %s", ErrRecipientNotFound, username)
		}
		return existing, nil
	}
	if err != nil {
		logger.Log.Errorw("failed to create implicit user", "username", username, "error", err)
		return nil, err
	}

	logger.Log.Infow("implicit user created", "username", username, "user_id", u.UserID)
	return u, nil
}

// mainAddress returns the MAIN wallet address of ownerID, creating the wallet when missing.
func (r *RecipientResolver) mainAddress(ctx context.Context, ownerID uuid.UUID) (common.Address, error) {
	w, err := r.wallets.FindWallet(ctx, ownerID, models.WalletKindMain)
	if err != nil {
		return common.Address{}, err
	}
	if w != nil {
		return common.HexToAddress(w.Address), nil
	}

	info, err := r.wallets.CreateMainWallet(ctx, ownerID)
	if errors.Is(err, ErrWalletAlreadyExists) {
		// created concurrently
		w, err = r.wallets.FindWallet(ctx, ownerID, models.WalletKindMain)
		if err != nil {
			return common.Address{}, err
		}
		if w == nil {
			return common.Address{}, ErrWalletNotFound
		}
		return common.HexToAddress(w.Address), nil
	}
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(info.Address), nil
}
