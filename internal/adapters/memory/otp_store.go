package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/repositories"
)

// OTPStore keeps outstanding codes in process memory. Expiry is enforced by
// the OTP service, not by the store.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]entities.OTPEntry
}

// NewOTPStore creates an empty in-memory OTP store
func NewOTPStore() *OTPStore {
	return &OTPStore{entries: make(map[string]entities.OTPEntry)}
}

var _ repositories.OTPRepository = (*OTPStore)(nil)

// Get returns a copy of the entry, or nil, nil when none exists
func (s *OTPStore) Get(_ context.Context, identifier string) (*entities.OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[identifier]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// Save stores a copy of entry
func (s *OTPStore) Save(_ context.Context, identifier string, entry *entities.OTPEntry, _ time.Duration) error {
	s.mu.Lock()
	s.entries[identifier] = *entry
	s.mu.Unlock()
	return nil
}

// Delete removes the entry for identifier
func (s *OTPStore) Delete(_ context.Context, identifier string) error {
	s.mu.Lock()
	delete(s.entries, identifier)
	s.mu.Unlock()
	return nil
}
