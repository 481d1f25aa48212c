package services_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/repositories"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/vault"
)

func newTestVault() *vault.Vault {
	v, err := vault.New("test-master-key", vault.WithParams(vault.Params{Time: 1, Memory: 1024, Threads: 1}))
	if err != nil {
		panic(err)
	}
	return v
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// memUsers is an in-memory services.UserRepository.
type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]*models.User{}}
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	if u, _ := m.GetByUsername(ctx, username); u != nil {
		return u, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if email != "" && u.Email != nil && strings.EqualFold(*u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return repositories.ErrUniqueViolation
		}
	}
	u.UserID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.UserID] = &cp
	return nil
}

func (m *memUsers) add(username string) models.Identity {
	u := &models.User{Username: username, Provider: models.ProviderLocal}
	if err := m.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return models.NewIdentity(u)
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// memWallets is an in-memory services.WalletRepository enforcing the same unique constraints as the schema.
type memWallets struct {
	mu      sync.Mutex
	wallets []models.Wallet
}

func (m *memWallets) Create(_ context.Context, w *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.wallets {
		if existing.Address == strings.ToLower(w.Address) {
			return repositories.ErrUniqueViolation
		}
		if w.Kind == models.WalletKindMain && existing.Kind == models.WalletKindMain && existing.OwnerID == w.OwnerID {
			return repositories.ErrUniqueViolation
		}
	}
	w.CreatedAt = time.Now()
	cp := *w
	cp.Address = strings.ToLower(cp.Address)
	m.wallets = append(m.wallets, cp)
	return nil
}

func (m *memWallets) find(match func(w models.Wallet) bool) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if match(w) {
			cp := w
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memWallets) GetByOwnerAndKind(_ context.Context, ownerID uuid.UUID, kind models.WalletKind) (*models.Wallet, error) {
	return m.find(func(w models.Wallet) bool { return w.OwnerID == ownerID && w.Kind == kind })
}

func (m *memWallets) GetByAddress(_ context.Context, address string) (*models.Wallet, error) {
	return m.find(func(w models.Wallet) bool { return w.Address == strings.ToLower(address) })
}

func (m *memWallets) GetByAddressAndOwner(_ context.Context, address string, ownerID uuid.UUID) (*models.Wallet, error) {
	return m.find(func(w models.Wallet) bool { return w.Address == strings.ToLower(address) && w.OwnerID == ownerID })
}

func (m *memWallets) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Wallet
	for _, w := range m.wallets {
		if w.OwnerID == ownerID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memWallets) countKind(ownerID uuid.UUID, kind models.WalletKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.wallets {
		if w.OwnerID == ownerID && w.Kind == kind {
			n++
		}
	}
	return n
}

// memTransactions is an in-memory services.TransactionRepository.
type memTransactions struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.TransactionRecord
	order   []uuid.UUID
}

func newMemTransactions() *memTransactions {
	return &memTransactions{records: map[uuid.UUID]*models.TransactionRecord{}}
}

func (m *memTransactions) Insert(_ context.Context, rec *models.TransactionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.TransactionID] = &cp
	m.order = append(m.order, rec.TransactionID)
	return nil
}

func (m *memTransactions) Finalize(_ context.Context, id uuid.UUID, status models.TransactionStatus, txHash, reason string) (*models.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.Status.IsFinal() {
		return nil, nil
	}
	rec.Status, rec.TransactionHash, rec.Error, rec.UpdatedAt = status, txHash, reason, time.Now()
	cp := *rec
	return &cp, nil
}

func (m *memTransactions) GetByID(_ context.Context, id uuid.UUID) (*models.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, nil
}

func (m *memTransactions) GetByHash(_ context.Context, txHash string) (*models.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.TransactionHash != "" && strings.EqualFold(rec.TransactionHash, txHash) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memTransactions) all() []models.TransactionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TransactionRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.records[id])
	}
	return out
}
