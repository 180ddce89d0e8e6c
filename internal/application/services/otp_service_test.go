package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bloodconnect/backend/internal/adapters/memory"
	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/infrastructure/notifications"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func otpConfig() services.OTPConfig {
	return services.OTPConfig{
		CodeLength:  6,
		TTL:         300 * time.Second,
		Cooldown:    30 * time.Second,
		MaxAttempts: 5,
		HashCost:    bcrypt.MinCost,
		TokenSecret: []byte("test-secret"),
	}
}

func newOTPService(t *testing.T, cfg services.OTPConfig, senders ...providers.CodeSender) (*services.OTPService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)}
	svc, err := services.NewOTPService(memory.NewOTPStore(), senders, cfg, nil)
	require.NoError(t, err)
	return svc.WithClock(clock.Now), clock
}

func wrongCode(code string) string {
	last := code[len(code)-1]
	if last == '9' {
		return code[:len(code)-1] + "0"
	}
	return code[:len(code)-1] + string(last+1)
}

func TestOTPService_VerifySucceedsExactlyOnce(t *testing.T) {
	sender := newRecordingSender(entities.OTPChannelEmail)
	svc, _ := newOTPService(t, otpConfig(), sender)
	ctx := context.Background()

	issue, err := svc.RequestCode(ctx, "donor@example.com")
	require.NoError(t, err)
	assert.Equal(t, entities.OTPChannelEmail, issue.Channel)
	assert.Empty(t, issue.DevCode)

	code := sender.Code("donor@example.com")
	require.Len(t, code, 6)
	assert.NotEqual(t, byte('0'), code[0])

	token, err := svc.VerifyCode(ctx, "donor@example.com", code)
	require.NoError(t, err)
	subject, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "donor@example.com", subject)

	_, err = svc.VerifyCode(ctx, "donor@example.com", code)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.Equal(t, "no request found", apperrors.MessageOf(err, ""))
}

func TestOTPService_MaximumAttempts(t *testing.T) {
	sender := newRecordingSender(entities.OTPChannelSMS)
	svc, _ := newOTPService(t, otpConfig(), sender)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "919876543210")
	require.NoError(t, err)
	code := sender.Code("919876543210")

	for i := 0; i < 5; i++ {
		_, err := svc.VerifyCode(ctx, "919876543210", wrongCode(code))
		require.Error(t, err)
		assert.Equal(t, "invalid code", apperrors.MessageOf(err, ""))
	}

	_, err = svc.VerifyCode(ctx, "919876543210", code)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimited))
	assert.Equal(t, "maximum attempts reached", apperrors.MessageOf(err, ""))

	_, err = svc.VerifyCode(ctx, "919876543210", code)
	assert.Equal(t, "no request found", apperrors.MessageOf(err, ""))
}

func TestOTPService_Cooldown(t *testing.T) {
	sender := newRecordingSender(entities.OTPChannelEmail)
	svc, clock := newOTPService(t, otpConfig(), sender)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "a@b.co")
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	_, err = svc.RequestCode(ctx, "a@b.co")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimited))

	clock.Advance(21 * time.Second)
	_, err = svc.RequestCode(ctx, "a@b.co")
	assert.NoError(t, err)
}

func TestOTPService_ExpiredCode(t *testing.T) {
	sender := newRecordingSender(entities.OTPChannelEmail)
	svc, clock := newOTPService(t, otpConfig(), sender)
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "a@b.co")
	require.NoError(t, err)
	clock.Advance(301 * time.Second)

	_, err = svc.VerifyCode(ctx, "a@b.co", sender.Code("a@b.co"))
	assert.Equal(t, "code expired", apperrors.MessageOf(err, ""))
	_, err = svc.VerifyCode(ctx, "a@b.co", sender.Code("a@b.co"))
	assert.Equal(t, "no request found", apperrors.MessageOf(err, ""))
}

func TestOTPService_RejectsMalformedInput(t *testing.T) {
	svc, _ := newOTPService(t, otpConfig(), newRecordingSender(entities.OTPChannelEmail))
	ctx := context.Background()

	for _, id := range []string{"", "not-an-email", "12345", "+919876543210"} {
		_, err := svc.RequestCode(ctx, id)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), id)
	}
	_, err := svc.VerifyCode(ctx, "a@b.co", "12ab56")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	_, err = svc.VerifyCode(ctx, "a@b.co", "1234")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestOTPService_DevEchoOutsideProduction(t *testing.T) {
	svc, _ := newOTPService(t, otpConfig(), notifications.DevEchoSender{})

	issue, err := svc.RequestCode(context.Background(), "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, entities.OTPChannelDev, issue.Channel)
	assert.Len(t, issue.DevCode, 6)

	_, err = svc.VerifyCode(context.Background(), "a@b.co", issue.DevCode)
	assert.NoError(t, err)
}

func TestOTPService_ProductionWithoutProvider(t *testing.T) {
	cfg := otpConfig()
	cfg.Production = true
	svc, _ := newOTPService(t, cfg, notifications.DevEchoSender{})

	_, err := svc.RequestCode(context.Background(), "a@b.co")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestOTPService_ProductionRequiresSecret(t *testing.T) {
	cfg := otpConfig()
	cfg.Production = true
	cfg.TokenSecret = nil

	_, err := services.NewOTPService(memory.NewOTPStore(), nil, cfg, nil)
	assert.Error(t, err)
}
