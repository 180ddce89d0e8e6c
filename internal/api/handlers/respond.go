package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
)

var statusByType = map[apperrors.ErrorType]int{
	apperrors.ErrorTypeValidation:   http.StatusBadRequest,
	apperrors.ErrorTypeNotFound:     http.StatusNotFound,
	apperrors.ErrorTypeConflict:     http.StatusConflict,
	apperrors.ErrorTypeUnauthorized: http.StatusUnauthorized,
	apperrors.ErrorTypeRateLimited:  http.StatusTooManyRequests,
	apperrors.ErrorTypeExternal:     http.StatusBadGateway,
	apperrors.ErrorTypeInternal:     http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for err
func StatusFor(err error) int {
	if status, ok := statusByType[apperrors.TypeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError writes err using its AppError type. Internal details
// are logged, never returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	message := apperrors.MessageOf(err, "internal server error")
	if status == http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		message = "internal server error"
	}
	respondWithError(w, status, message)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid request body")
	}
	return nil
}

// decodeOptionalJSON accepts an empty body and leaves dst untouched
func decodeOptionalJSON(r *http.Request, dst interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return apperrors.NewValidationError("invalid request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.NewValidationError("invalid request body")
	}
	return nil
}

func parseFloatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperrors.NewValidationError(name + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid " + name + " parameter")
	}
	return v, nil
}
