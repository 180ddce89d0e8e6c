package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

// UpsertFacilities writes facilities into blood_banks, replacing rows that
// share an id. It returns the number of rows affected.
func UpsertFacilities(ctx context.Context, client *postgres.Client, facilities []*entities.Facility) (int64, error) {
	if len(facilities) == 0 {
		return 0, nil
	}

	rows := make([]interface{}, 0, len(facilities))
	for _, f := range facilities {
		rows = append(rows, goqu.Record{
			"id":           f.ID,
			"name":         f.Name,
			"region":       f.Region,
			"subregion":    f.Subregion,
			"address":      f.Address,
			"phone":        f.Phone,
			"blood_groups": pq.Array(f.OfferedCategories),
			"availability": string(f.Availability),
			"last_updated": f.LastUpdated,
		})
	}

	query, args, err := client.Goqu().Insert("blood_banks").
		Prepared(true).
		Rows(rows...).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"name":         goqu.L("EXCLUDED.name"),
			"region":       goqu.L("EXCLUDED.region"),
			"subregion":    goqu.L("EXCLUDED.subregion"),
			"address":      goqu.L("EXCLUDED.address"),
			"phone":        goqu.L("EXCLUDED.phone"),
			"blood_groups": goqu.L("EXCLUDED.blood_groups"),
			"availability": goqu.L("EXCLUDED.availability"),
			"last_updated": goqu.L("EXCLUDED.last_updated"),
		})).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build facility upsert", err)
	}

	result, err := client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to upsert facilities", err)
	}
	return result.RowsAffected()
}
