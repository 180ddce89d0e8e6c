package handlers

import (
	"net/http"

	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
)

// DeliveryHandler handles delivery request workflow endpoints
type DeliveryHandler struct {
	service *services.DeliveryService
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(service *services.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{service: service}
}

type acceptRequest struct {
	AgentID string `json:"agent_id"`
}

// ListDeliveries handles GET /api/deliveries
func (h *DeliveryHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	requests := h.service.List(r.Context())
	if requests == nil {
		requests = []*entities.DeliveryRequest{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"count":    len(requests),
	})
}

// GetDelivery handles GET /api/deliveries/{id}
func (h *DeliveryHandler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}

// Reload handles POST /api/deliveries/reload
func (h *DeliveryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	loaded, err := h.service.LoadAccepted(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"loaded": len(loaded),
	})
}

// Accept handles POST /api/deliveries/{id}/accept
func (h *DeliveryHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var body acceptRequest
	if err := decodeOptionalJSON(r, &body); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	req, err := h.service.Accept(r.Context(), r.PathValue("id"), body.AgentID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}

// StartTransit handles POST /api/deliveries/{id}/start
func (h *DeliveryHandler) StartTransit(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.StartTransit(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}

// MarkDelivered handles POST /api/deliveries/{id}/deliver
func (h *DeliveryHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.MarkDelivered(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, req)
}

// Reject handles POST /api/deliveries/{id}/reject
func (h *DeliveryHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reject(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
