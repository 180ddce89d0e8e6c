package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/domain/entities"
)

func TestHistoryStore_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewHistoryStore()

	history := entities.EmptyHistory()
	history.AcceptedDonorRecords = append(history.AcceptedDonorRecords, entities.DonorRecord{Name: "Asha", BloodGroup: "B+"})
	require.NoError(t, store.Save(ctx, "bank", history))

	history.AcceptedDonorRecords[0].Name = "mutated"

	got, err := store.Get(ctx, "bank")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.AcceptedDonorRecords[0].Name)

	other, err := store.Get(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other.AcceptedDonorRecords)
}

func TestOTPStore(t *testing.T) {
	ctx := context.Background()
	store := NewOTPStore()

	got, err := store.Get(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Nil(t, got)

	entry := &entities.OTPEntry{Hash: "h", Attempts: 1}
	require.NoError(t, store.Save(ctx, "a@b.co", entry, time.Minute))
	entry.Attempts = 99

	got, err = store.Get(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)

	require.NoError(t, store.Delete(ctx, "a@b.co"))
	got, err = store.Get(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Nil(t, got)
}
