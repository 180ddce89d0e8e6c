package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bloodconnect/backend/internal/adapters/memory"
	"github.com/bloodconnect/backend/internal/api/handlers"
	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/infrastructure/notifications"
)

func newOTPAPI(t *testing.T, production bool) *testAPI {
	t.Helper()

	service, err := services.NewOTPService(
		memory.NewOTPStore(),
		[]providers.CodeSender{notifications.DevEchoSender{}},
		services.OTPConfig{
			CodeLength:  6,
			TTL:         5 * time.Minute,
			Cooldown:    30 * time.Second,
			MaxAttempts: 5,
			HashCost:    bcrypt.MinCost,
			TokenSecret: []byte("test-secret"),
			Production:  production,
		},
		nil,
	)
	require.NoError(t, err)

	otp := handlers.NewOTPHandler(service, production)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /request-otp", otp.RequestOTP)
	mux.HandleFunc("POST /verify-otp", otp.VerifyOTP)
	return &testAPI{handler: mux}
}

func TestOTPHandler_RequestAndVerify(t *testing.T) {
	api := newOTPAPI(t, false)

	w := api.do(t, http.MethodPost, "/request-otp", map[string]string{"identifier": "donor@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "OTP sent", body["message"])
	code, ok := body["devOtp"].(string)
	require.True(t, ok)
	assert.Len(t, code, 6)

	// cooldown
	w = api.do(t, http.MethodPost, "/request-otp", map[string]string{"identifier": "donor@example.com"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "error", decodeBody(t, w)["status"])

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	w = api.do(t, http.MethodPost, "/verify-otp", map[string]string{"identifier": "donor@example.com", "otp": wrong})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid code", decodeBody(t, w)["message"])

	w = api.do(t, http.MethodPost, "/verify-otp", map[string]string{"identifier": "donor@example.com", "otp": code})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["token"])

	// single use
	w = api.do(t, http.MethodPost, "/verify-otp", map[string]string{"identifier": "donor@example.com", "otp": code})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no request found", decodeBody(t, w)["message"])
}

func TestOTPHandler_InvalidIdentifier(t *testing.T) {
	api := newOTPAPI(t, false)

	w := api.do(t, http.MethodPost, "/request-otp", map[string]string{"identifier": "not an id"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid identifier", decodeBody(t, w)["message"])

	w = api.do(t, http.MethodPost, "/verify-otp", map[string]string{"identifier": "9876543210", "otp": "12"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid payload", decodeBody(t, w)["message"])
}

func TestOTPHandler_ProductionWithoutProvider(t *testing.T) {
	api := newOTPAPI(t, true)

	w := api.do(t, http.MethodPost, "/request-otp", map[string]string{"identifier": "9876543210"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "no delivery provider configured", body["message"])
	assert.NotContains(t, body, "devOtp")
}
