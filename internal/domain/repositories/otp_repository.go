package repositories

import (
	"context"
	"time"

	"github.com/bloodconnect/backend/internal/domain/entities"
)

// OTPRepository stores outstanding one-time codes by identifier
type OTPRepository interface {
	// Get returns nil, nil when no entry exists
	Get(ctx context.Context, identifier string) (*entities.OTPEntry, error)

	// Save stores entry, keeping it for at least ttl
	Save(ctx context.Context, identifier string, entry *entities.OTPEntry, ttl time.Duration) error

	// Delete removes the entry for identifier
	Delete(ctx context.Context, identifier string) error
}
