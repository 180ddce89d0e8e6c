package handlers

import (
	"net/http"

	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
	"github.com/bloodconnect/backend/pkg/utils"
)

// FacilityHandler handles facility-related HTTP requests
type FacilityHandler struct {
	facilityRepo repositories.FacilityRepository
	matcher      *services.FacilityMatcher
}

// NewFacilityHandler creates a new facility handler
func NewFacilityHandler(facilityRepo repositories.FacilityRepository, matcher *services.FacilityMatcher) *FacilityHandler {
	return &FacilityHandler{
		facilityRepo: facilityRepo,
		matcher:      matcher,
	}
}

// ListFacilities handles GET /api/facilities?category=
func (h *FacilityHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	var (
		facilities []*entities.Facility
		err        error
	)
	if raw := r.URL.Query().Get("category"); raw != "" {
		category := utils.NormalizeBloodGroup(raw)
		if !utils.IsValidBloodGroup(category) {
			respondWithError(w, http.StatusBadRequest, "invalid category")
			return
		}
		facilities, err = h.facilityRepo.ListEligible(r.Context(), category)
	} else {
		facilities, err = h.facilityRepo.List(r.Context())
	}
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if facilities == nil {
		facilities = []*entities.Facility{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"facilities": facilities,
		"count":      len(facilities),
	})
}

// GetFacility handles GET /api/facilities/{id...}
func (h *FacilityHandler) GetFacility(w http.ResponseWriter, r *http.Request) {
	facilityID := r.PathValue("id")
	if facilityID == "" {
		respondWithError(w, http.StatusBadRequest, "facility ID is required")
		return
	}

	facility, err := h.facilityRepo.GetByID(r.Context(), facilityID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, facility)
}

// Nearest handles GET /api/facilities/nearest?lat=&lon=&category=
func (h *FacilityHandler) Nearest(w http.ResponseWriter, r *http.Request) {
	lat, err := parseFloatParam(r, "lat")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	lon, err := parseFloatParam(r, "lon")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	category := utils.NormalizeBloodGroup(r.URL.Query().Get("category"))
	if !utils.IsValidBloodGroup(category) {
		respondWithError(w, http.StatusBadRequest, "invalid category")
		return
	}

	match, err := h.matcher.FindNearest(r.Context(), entities.Coordinate{Latitude: lat, Longitude: lon}, category)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if match == nil {
		respondWithAppError(w, r, apperrors.NewNotFoundError("no facility found within 10km"))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"facility":        match.Facility,
		"coordinate":      match.Coordinate,
		"distance_meters": match.DistanceMeters,
		"distance":        utils.FormatDistance(match.DistanceMeters),
	})
}
