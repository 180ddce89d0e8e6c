package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	"github.com/bloodconnect/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

var facilityColumns = []interface{}{
	"id", "name", "region", "subregion", "address", "phone",
	"blood_groups", "availability", "last_updated",
}

// FacilityAdapter reads the facility directory from the blood_banks table
type FacilityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFacilityAdapter creates a new facility adapter
func NewFacilityAdapter(client *postgres.Client) repositories.FacilityRepository {
	return &FacilityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// List returns every facility ordered by region and name
func (a *FacilityAdapter) List(ctx context.Context) ([]*entities.Facility, error) {
	query, args, err := a.db.From("blood_banks").
		Select(facilityColumns...).
		Order(goqu.I("region").Asc(), goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build facility query", err)
	}
	return a.query(ctx, query, args...)
}

// ListEligible returns facilities that stock category and are not Critical
func (a *FacilityAdapter) ListEligible(ctx context.Context, category string) ([]*entities.Facility, error) {
	query, args, err := a.db.From("blood_banks").
		Select(facilityColumns...).
		Where(
			goqu.C("availability").Neq(string(entities.AvailabilityCritical)),
			goqu.L("? = ANY(blood_groups)", category),
		).
		Order(goqu.I("region").Asc(), goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build facility query", err)
	}
	return a.query(ctx, query, args...)
}

// GetByID retrieves a facility by ID
func (a *FacilityAdapter) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	query, args, err := a.db.From("blood_banks").
		Select(facilityColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build facility query", err)
	}

	f, err := scanFacility(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("facility with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get facility", err)
	}
	return f, nil
}

func (a *FacilityAdapter) query(ctx context.Context, query string, args ...interface{}) ([]*entities.Facility, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list facilities", err)
	}
	defer rows.Close()

	var out []*entities.Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan facility", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate facilities", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFacility(row rowScanner) (*entities.Facility, error) {
	var (
		f            entities.Facility
		availability string
	)
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Region,
		&f.Subregion,
		&f.Address,
		&f.Phone,
		pq.Array(&f.OfferedCategories),
		&availability,
		&f.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	f.Availability = entities.ParseAvailability(availability)
	return &f, nil
}
