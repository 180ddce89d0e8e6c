package handlers

import (
	"net/http"

	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
)

// HistoryHandler handles the accepted-request history of blood banks
type HistoryHandler struct {
	service *services.HistoryService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(service *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// GetHistory handles GET /api/history/{bank}
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.Get(r.Context(), r.PathValue("bank"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, history)
}

// ReplaceHistory handles PUT /api/history/{bank}
func (h *HistoryHandler) ReplaceHistory(w http.ResponseWriter, r *http.Request) {
	var history entities.AcceptedHistory
	if err := decodeJSON(r, &history); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if err := h.service.Replace(r.Context(), r.PathValue("bank"), &history); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, history.Normalize())
}

// AcceptUser handles POST /api/history/{bank}/users
func (h *HistoryHandler) AcceptUser(w http.ResponseWriter, r *http.Request) {
	var record entities.UserRequestRecord
	if err := decodeJSON(r, &record); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondAccepted(w, r)(h.service.AcceptUser(r.Context(), r.PathValue("bank"), record))
}

// AcceptHospital handles POST /api/history/{bank}/hospitals
func (h *HistoryHandler) AcceptHospital(w http.ResponseWriter, r *http.Request) {
	var record entities.HospitalRequestRecord
	if err := decodeJSON(r, &record); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondAccepted(w, r)(h.service.AcceptHospital(r.Context(), r.PathValue("bank"), record))
}

// AcceptDonor handles POST /api/history/{bank}/donors
func (h *HistoryHandler) AcceptDonor(w http.ResponseWriter, r *http.Request) {
	var record entities.DonorRecord
	if err := decodeJSON(r, &record); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.respondAccepted(w, r)(h.service.AcceptDonor(r.Context(), r.PathValue("bank"), record))
}

func (h *HistoryHandler) respondAccepted(w http.ResponseWriter, r *http.Request) func(*entities.AcceptedHistory, error) {
	return func(history *entities.AcceptedHistory, err error) {
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, history)
	}
}
