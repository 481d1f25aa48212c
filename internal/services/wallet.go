package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/repositories"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/vault"
)

//go:generate mockgen -source=wallet.go -destination=wallet_mock_test.go -package=services

const (
	saltLength = 16
	// MaxSubWallets bounds a single CreateSubWallets call.
	MaxSubWallets = 20
)

// WalletRepository persists wallets.
type WalletRepository interface {
	Create(ctx context.Context, w *models.Wallet) error
	GetByOwnerAndKind(ctx context.Context, ownerID uuid.UUID, kind models.WalletKind) (*models.Wallet, error)
	GetByAddress(ctx context.Context, address string) (*models.Wallet, error)
	GetByAddressAndOwner(ctx context.Context, address string, ownerID uuid.UUID) (*models.Wallet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Wallet, error)
}

// SecretCipher encrypts wallet secrets at rest.
type SecretCipher interface {
	Encrypt(plaintext, salt string) (string, error)
	Decrypt(ciphertext, salt string) (string, error)
}

// WalletService generates custodial wallets and guards their secrets.
type WalletService struct {
	repo   WalletRepository
	cipher SecretCipher
}

func NewWalletService(repo WalletRepository, cipher SecretCipher) *WalletService {
	return &WalletService{repo: repo, cipher: cipher}
}

// CreateMainWallet creates the single MAIN wallet of ownerID and returns its plaintext secrets.
func (s *WalletService) CreateMainWallet(ctx context.Context, ownerID uuid.UUID) (*models.WalletInfo, error) {
	existing, err := s.repo.GetByOwnerAndKind(ctx, ownerID, models.WalletKindMain)
	if err != nil {
		logger.Log.Errorw("failed to check main wallet", "owner_id", ownerID, "error", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrWalletAlreadyExists
	}

	info, err := s.create(ctx, ownerID, models.WalletKindMain)
	if errors.Is(err, repositories.ErrUniqueViolation) {
		return nil, ErrWalletAlreadyExists
	}
	return info, err
}

// CreateSubWallets creates n SUB wallets for ownerID.
func (s *WalletService) CreateSubWallets(ctx context.Context, ownerID uuid.UUID, n int) ([]*models.WalletInfo, error) {
	if n < 1 || n > MaxSubWallets {
		return nil, ErrInvalidWalletCount
	}

	infos := make([]*models.WalletInfo, 0, n)
	for i := 0; i < n; i++ {
		info, err := s.create(ctx, ownerID, models.WalletKindSub)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ExportMainWallet decrypts the MAIN wallet of ownerID.
func (s *WalletService) ExportMainWallet(ctx context.Context, ownerID uuid.UUID) (*models.WalletInfo, error) {
	w, err := s.repo.GetByOwnerAndKind(ctx, ownerID, models.WalletKindMain)
	if err != nil {
		logger.Log.Errorw("failed to get main wallet", "owner_id", ownerID, "error", err)
		return nil, err
	}
	if w == nil {
		return nil, ErrWalletNotFound
	}

	privateKey, err := s.cipher.Decrypt(w.EncryptedPrivateKey, w.PrivateKeySalt)
	if err != nil {
		logger.Log.Errorw("failed to decrypt private key", "address", w.Address, "error", err)
		return nil, err
	}
	mnemonic, err := s.cipher.Decrypt(w.EncryptedMnemonic, w.MnemonicSalt)
	if err != nil {
		logger.Log.Errorw("failed to decrypt mnemonic", "address", w.Address, "error", err)
		return nil, err
	}

	return models.NewWalletInfo(w, privateKey, mnemonic), nil
}

// FindWallet returns the first wallet of the given kind, or nil.
func (s *WalletService) FindWallet(ctx context.Context, ownerID uuid.UUID, kind models.WalletKind) (*models.Wallet, error) {
	return s.repo.GetByOwnerAndKind(ctx, ownerID, kind)
}

// FindWalletByAddress returns the wallet stored under address, or nil.
func (s *WalletService) FindWalletByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	return s.repo.GetByAddress(ctx, strings.ToLower(address))
}

// GetPrivateKey decrypts the key of address if ownerID owns it.
func (s *WalletService) GetPrivateKey(ctx context.Context, address string, ownerID uuid.UUID) (string, error) {
	w, err := s.repo.GetByAddressAndOwner(ctx, strings.ToLower(address), ownerID)
	if err != nil {
		return "", err
	}
	if w == nil {
		return "", ErrWalletNotFound
	}

	key, err := s.cipher.Decrypt(w.EncryptedPrivateKey, w.PrivateKeySalt)
	if err != nil {
		logger.Log.Errorw("failed to decrypt private key", "address", w.Address, "error", err)
		return "", err
	}
	return key, nil
}

// ListWallets returns the public view of every wallet of ownerID.
func (s *WalletService) ListWallets(ctx context.Context, ownerID uuid.UUID) ([]models.WalletView, error) {
	wallets, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		logger.Log.Errorw("failed to list wallets", "owner_id", ownerID, "error", err)
		return nil, err
	}

	views := make([]models.WalletView, 0, len(wallets))
	for i := range wallets {
		views = append(views, models.NewWalletView(&wallets[i]))
	}
	return views, nil
}

func (s *WalletService) create(ctx context.Context, ownerID uuid.UUID, kind models.WalletKind) (*models.WalletInfo, error) {
	mnemonic, err := vault.NewMnemonic()
	if err != nil {
		return nil, err
	}
	key, address, err := vault.DeriveAccount(mnemonic)
	if err != nil {
		return nil, err
	}
	privateKey := hexutil.Encode(crypto.FromECDSA(key))

	keySalt, err := vault.GenerateKey(saltLength, vault.Hex)
	if err != nil {
		return nil, err
	}
	mnemonicSalt, err := vault.GenerateKey(saltLength, vault.Hex)
	if err != nil {
		return nil, err
	}

	encryptedKey, err := s.cipher.Encrypt(privateKey, keySalt)
	if err != nil {
		return nil, fmt.Errorf("encrypt private key: %w", err)
	}
	encryptedMnemonic, err := s.cipher.Encrypt(mnemonic, mnemonicSalt)
	if err != nil {
		return nil, fmt.Errorf("encrypt mnemonic: %w", err)
	}

	w := &models.Wallet{
		WalletID:            uuid.New(),
		OwnerID:             ownerID,
		Address:             strings.ToLower(address.Hex()),
		EncryptedPrivateKey: encryptedKey,
		PrivateKeySalt:      keySalt,
		EncryptedMnemonic:   encryptedMnemonic,
		MnemonicSalt:        mnemonicSalt,
		Kind:                kind,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		logger.Log.Errorw("failed to save wallet", "owner_id", ownerID, "kind", kind, "error", err)
		return nil, err
	}

	logger.Log.Infow("wallet created", "owner_id", ownerID, "address", w.Address, "kind", kind)
	return models.NewWalletInfo(w, privateKey, mnemonic), nil
}
