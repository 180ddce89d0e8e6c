package repositories

import (
	"context"

	"github.com/bloodconnect/backend/internal/domain/entities"
)

// AcceptedHistoryRepository stores the accepted-request aggregate per bank
type AcceptedHistoryRepository interface {
	// Get returns the aggregate for bankKey, or an empty aggregate when none exists
	Get(ctx context.Context, bankKey string) (*entities.AcceptedHistory, error)

	// Save replaces the whole aggregate for bankKey
	Save(ctx context.Context, bankKey string, history *entities.AcceptedHistory) error
}
