package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/repositories"
)

// HistoryStore keeps accepted-request aggregates in process memory. Values
// are stored serialized so callers never share slices with the store.
type HistoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewHistoryStore creates an empty in-memory history store
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{docs: make(map[string][]byte)}
}

var _ repositories.AcceptedHistoryRepository = (*HistoryStore)(nil)

// Get returns the aggregate for bankKey
func (s *HistoryStore) Get(_ context.Context, bankKey string) (*entities.AcceptedHistory, error) {
	s.mu.RLock()
	doc, ok := s.docs[bankKey]
	s.mu.RUnlock()
	if !ok {
		return entities.EmptyHistory(), nil
	}

	var history entities.AcceptedHistory
	if err := json.Unmarshal(doc, &history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return history.Normalize(), nil
}

// Save replaces the aggregate for bankKey
func (s *HistoryStore) Save(_ context.Context, bankKey string, history *entities.AcceptedHistory) error {
	doc, err := json.Marshal(history.Normalize())
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	s.mu.Lock()
	s.docs[bankKey] = doc
	s.mu.Unlock()
	return nil
}
