package handlers

import (
	"net/http"

	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

// OTPHandler serves the one-time-code endpoints. Responses use the
// {"status": "ok"|"error"} envelope.
type OTPHandler struct {
	service    *services.OTPService
	production bool
}

// NewOTPHandler creates a new OTP handler
func NewOTPHandler(service *services.OTPService, production bool) *OTPHandler {
	return &OTPHandler{service: service, production: production}
}

type otpRequest struct {
	Identifier string `json:"identifier"`
	OTP        string `json:"otp,omitempty"`
}

// RequestOTP handles POST /request-otp
func (h *OTPHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var body otpRequest
	if err := decodeOptionalJSON(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	if !services.ValidIdentifier(body.Identifier) {
		h.fail(w, r, apperrors.NewValidationError("invalid identifier"))
		return
	}

	issue, err := h.service.RequestCode(r.Context(), body.Identifier)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	payload := map[string]interface{}{
		"status":  "ok",
		"message": "OTP sent",
		"channel": issue.Channel,
	}
	if !h.production && issue.Channel == entities.OTPChannelDev && issue.DevCode != "" {
		payload["devOtp"] = issue.DevCode
		payload["note"] = "OTP returned only in non-production for testing"
	}
	respondWithJSON(w, http.StatusOK, payload)
}

// VerifyOTP handles POST /verify-otp
func (h *OTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var body otpRequest
	if err := decodeOptionalJSON(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.service.VerifyCode(r.Context(), body.Identifier, body.OTP)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"token":  token,
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *OTPHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("otp request failed")
	}
	respondWithJSON(w, status, map[string]string{
		"status":  "error",
		"message": apperrors.MessageOf(err, "request failed"),
	})
}
