package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/adapters/cache"
	"github.com/bloodconnect/backend/internal/adapters/memory"
	"github.com/bloodconnect/backend/internal/adapters/providers/identity"
	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

func TestIdentityService_SignUpThenSignIn(t *testing.T) {
	svc := services.NewIdentityService(identity.NewMockProvider())
	ctx := context.Background()

	created, err := svc.SignUp(ctx, "agent@bank.in", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "agent@bank.in", created.Email)

	signedIn, err := svc.SignIn(ctx, "agent@bank.in", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.UID, signedIn.UID)

	_, err = svc.SignUp(ctx, "agent@bank.in", "secret1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.Equal(t, entities.IdentityEmailInUse.UserMessage(), apperrors.MessageOf(err, ""))
}

func TestIdentityService_ProviderErrorsCarryUserMessages(t *testing.T) {
	provider := identity.NewMockProvider()
	svc := services.NewIdentityService(provider)
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "nobody@bank.in", "secret1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	assert.Equal(t, "No account found with this email address.", apperrors.MessageOf(err, ""))
	code, ok := services.IdentityCode(err)
	assert.True(t, ok)
	assert.Equal(t, entities.IdentityUserNotFound, code)

	_, err = svc.SignUp(ctx, "agent@bank.in", "secret1")
	require.NoError(t, err)
	_, err = svc.SignIn(ctx, "agent@bank.in", "wrong-password")
	assert.Equal(t, "Incorrect password. Please try again.", apperrors.MessageOf(err, ""))

	provider.Disable("agent@bank.in")
	_, err = svc.SignIn(ctx, "agent@bank.in", "secret1")
	assert.Equal(t, entities.IdentityUserDisabled.UserMessage(), apperrors.MessageOf(err, ""))
}

func TestIdentityService_ValidatesBeforeCallingProvider(t *testing.T) {
	svc := services.NewIdentityService(identity.NewMockProvider())
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "empty", email: "", password: ""},
		{name: "bad email", email: "agent-at-bank", password: "secret1"},
		{name: "short password", email: "agent@bank.in", password: "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tt.email, tt.password)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
			_, ok := services.IdentityCode(err)
			assert.False(t, ok)
		})
	}
}

func TestSessionService_Lifecycle(t *testing.T) {
	store, err := cache.NewMemoryAdapter(16)
	require.NoError(t, err)
	svc := services.NewSessionService(store, time.Hour)
	ctx := context.Background()

	session, err := svc.Start(ctx, "agent-7", "Suresh")
	require.NoError(t, err)
	assert.Equal(t, session.CreatedAt.Add(time.Hour), session.ExpiresAt)

	loaded, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Suresh", loaded.AgentName)

	require.NoError(t, svc.End(ctx, session.ID))
	_, err = svc.Get(ctx, session.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = svc.Start(ctx, " ", "nobody")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestHistoryService_AcceptRewritesAggregate(t *testing.T) {
	store := memory.NewHistoryStore()
	svc := services.NewHistoryService(store)
	ctx := context.Background()

	_, err := svc.AcceptUser(ctx, "default", entities.UserRequestRecord{Name: "Ravi", BloodRequired: "o +ve", Location: "Guntur"})
	require.NoError(t, err)
	_, err = svc.AcceptHospital(ctx, "default", entities.HospitalRequestRecord{HospitalName: "City", BloodRequired: "B-", Location: "Hyderabad"})
	require.NoError(t, err)
	history, err := svc.AcceptDonor(ctx, "default", entities.DonorRecord{Name: "Anil", BloodGroup: "ab pos"})
	require.NoError(t, err)

	require.Len(t, history.AcceptedRequesterRecords, 1)
	assert.Equal(t, "O+", history.AcceptedRequesterRecords[0].BloodRequired)
	assert.NotEmpty(t, history.AcceptedRequesterRecords[0].AcceptedAt)
	require.Len(t, history.AcceptedDonorRecords, 1)
	assert.Equal(t, "AB+", history.AcceptedDonorRecords[0].BloodGroup)
	assert.Equal(t, "accepted", history.AcceptedDonorRecords[0].Status)

	stored, err := store.Get(ctx, "default")
	require.NoError(t, err)
	assert.Len(t, stored.AcceptedFacilityRecords, 1)

	_, err = svc.AcceptUser(ctx, "default", entities.UserRequestRecord{Name: "No Group"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	require.NoError(t, svc.Replace(ctx, "default", nil))
	cleared, err := svc.Get(ctx, "default")
	require.NoError(t, err)
	assert.Empty(t, cleared.AcceptedRequesterRecords)
}
