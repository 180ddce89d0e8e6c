package repositories

import (
	"context"

	"github.com/bloodconnect/backend/internal/domain/entities"
)

// FacilityRepository is the read-only facility directory
type FacilityRepository interface {
	// List returns every facility in the directory
	List(ctx context.Context) ([]*entities.Facility, error)

	// ListEligible returns facilities that offer category and are not Critical
	ListEligible(ctx context.Context, category string) ([]*entities.Facility, error)

	// GetByID retrieves a facility by ID
	GetByID(ctx context.Context, id string) (*entities.Facility, error)
}
