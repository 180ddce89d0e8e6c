package handlers

import (
	"net/http"

	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
)

// RouteHandler handles route planning requests
type RouteHandler struct {
	planner *services.RoutePlanner
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(planner *services.RoutePlanner) *RouteHandler {
	return &RouteHandler{planner: planner}
}

// PlanRoute handles GET /api/routes?from_lat=&from_lon=&to_lat=&to_lon=
func (h *RouteHandler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var coords [4]float64
	for i, name := range []string{"from_lat", "from_lon", "to_lat", "to_lon"} {
		v, err := parseFloatParam(r, name)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		coords[i] = v
	}

	origin := entities.Coordinate{Latitude: coords[0], Longitude: coords[1]}
	destination := entities.Coordinate{Latitude: coords[2], Longitude: coords[3]}
	plan, err := h.planner.Plan(r.Context(), origin, destination)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"plan":    plan,
		"summary": services.Summarize(plan),
	})
}
