package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
)

type mockAccount struct {
	uid          string
	passwordHash []byte
	disabled     bool
}

// MockProvider is an in-memory identity provider for development and tests
type MockProvider struct {
	mu       sync.Mutex
	accounts map[string]*mockAccount
}

// NewMockProvider creates an empty mock identity provider
func NewMockProvider() *MockProvider {
	return &MockProvider{accounts: make(map[string]*mockAccount)}
}

var _ providers.IdentityProvider = (*MockProvider)(nil)

// SignUp registers a new account
func (m *MockProvider) SignUp(_ context.Context, email, password string) (*entities.Identity, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if len(password) < 6 {
		return nil, &providers.IdentityError{Code: entities.IdentityWeakPassword}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[key]; exists {
		return nil, &providers.IdentityError{Code: entities.IdentityEmailInUse}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	account := &mockAccount{uid: uuid.NewString(), passwordHash: hash}
	m.accounts[key] = account

	return &entities.Identity{UID: account.uid, Email: key, IDToken: uuid.NewString()}, nil
}

// SignIn authenticates an account
func (m *MockProvider) SignIn(_ context.Context, email, password string) (*entities.Identity, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	m.mu.Lock()
	account, ok := m.accounts[key]
	m.mu.Unlock()

	if !ok {
		return nil, &providers.IdentityError{Code: entities.IdentityUserNotFound}
	}
	if account.disabled {
		return nil, &providers.IdentityError{Code: entities.IdentityUserDisabled}
	}
	if bcrypt.CompareHashAndPassword(account.passwordHash, []byte(password)) != nil {
		return nil, &providers.IdentityError{Code: entities.IdentityWrongPassword}
	}

	return &entities.Identity{UID: account.uid, Email: key, IDToken: uuid.NewString()}, nil
}

// Disable marks an account as disabled
func (m *MockProvider) Disable(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account, ok := m.accounts[strings.ToLower(strings.TrimSpace(email))]; ok {
		account.disabled = true
	}
}
