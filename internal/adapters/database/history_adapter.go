package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	"github.com/bloodconnect/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

// HistoryAdapter stores accepted-request aggregates as JSONB documents
type HistoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewHistoryAdapter creates a new history adapter
func NewHistoryAdapter(client *postgres.Client) repositories.AcceptedHistoryRepository {
	return &HistoryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    time.Now,
	}
}

// Get returns the aggregate for bankKey, or an empty one
func (a *HistoryAdapter) Get(ctx context.Context, bankKey string) (*entities.AcceptedHistory, error) {
	query, args, err := a.db.From("accepted_history").
		Select("document").
		Where(goqu.C("bank_key").Eq(bankKey)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build history query", err)
	}

	var doc []byte
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.EmptyHistory(), nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get history", err)
	}

	var history entities.AcceptedHistory
	if err := json.Unmarshal(doc, &history); err != nil {
		return nil, apperrors.NewInternalError("failed to decode history", err)
	}
	return history.Normalize(), nil
}

// Save upserts the whole aggregate for bankKey
func (a *HistoryAdapter) Save(ctx context.Context, bankKey string, history *entities.AcceptedHistory) error {
	doc, err := json.Marshal(history.Normalize())
	if err != nil {
		return apperrors.NewInternalError("failed to encode history", err)
	}

	query, args, err := a.db.Insert("accepted_history").
		Rows(goqu.Record{
			"bank_key":   bankKey,
			"document":   string(doc),
			"updated_at": a.now().UTC(),
		}).
		OnConflict(goqu.DoUpdate("bank_key", goqu.Record{
			"document":   goqu.L("EXCLUDED.document"),
			"updated_at": goqu.L("EXCLUDED.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build history upsert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save history", err)
	}
	return nil
}
