package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
	"github.com/bloodconnect/backend/pkg/utils"
)

// OriginResolver resolves a requester's location, falling back to a default
type OriginResolver interface {
	ResolveWithFallback(ctx context.Context, text string, hints ...string) entities.LocationResolution
}

// NearestFinder finds the nearest eligible facility
type NearestFinder interface {
	FindNearest(ctx context.Context, origin entities.Coordinate, category string) (*entities.FacilityMatch, error)
}

// Planner computes route plans. Deliveries are planned from the facility to
// the requester.
type Planner interface {
	Plan(ctx context.Context, origin, destination entities.Coordinate) (*entities.RoutePlan, error)
}

// DeliveryConfig configures the delivery workflow
type DeliveryConfig struct {
	HistoryKey   string
	RegionHint   string
	RouteTimeout time.Duration
}

// DeliveryService drives delivery requests through
// pending -> accepted -> in_transit -> delivered.
type DeliveryService struct {
	mu       sync.Mutex
	requests map[string]*entities.DeliveryRequest
	order    []string
	sources  map[string]string

	history  repositories.AcceptedHistoryRepository
	resolver OriginResolver
	matcher  NearestFinder
	planner  Planner
	eventBus providers.EventBus
	metrics  *observability.Metrics
	cfg      DeliveryConfig
	now      func() time.Time

	routes sync.WaitGroup
}

// NewDeliveryService creates a new delivery service. eventBus may be nil.
func NewDeliveryService(
	history repositories.AcceptedHistoryRepository,
	resolver OriginResolver,
	matcher NearestFinder,
	planner Planner,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	cfg DeliveryConfig,
) *DeliveryService {
	if cfg.RouteTimeout <= 0 {
		cfg.RouteTimeout = 30 * time.Second
	}
	return &DeliveryService{
		requests: make(map[string]*entities.DeliveryRequest),
		sources:  make(map[string]string),
		history:  history,
		resolver: resolver,
		matcher:  matcher,
		planner:  planner,
		eventBus: eventBus,
		metrics:  metrics,
		cfg:      cfg,
		now:      time.Now,
	}
}

// LoadAccepted turns the bank's accepted user and hospital requests into
// pending deliveries. Requests already loaded are kept as they are.
func (s *DeliveryService) LoadAccepted(ctx context.Context) ([]*entities.DeliveryRequest, error) {
	history, err := s.history.Get(ctx, s.cfg.HistoryKey)
	if err != nil {
		return nil, err
	}

	var loaded []*entities.DeliveryRequest
	for i, rec := range history.AcceptedRequesterRecords {
		loaded = append(loaded, &entities.DeliveryRequest{
			ID:                 fmt.Sprintf("user-%d-%s-%s", i, rec.Name, rec.AcceptedAt),
			Kind:               entities.RequesterUser,
			RequesterName:      rec.Name,
			Phone:              rec.Phone,
			RequiredCategory:   utils.NormalizeBloodGroup(rec.BloodRequired),
			Urgency:            entities.ParseUrgency(rec.Urgency),
			Quantity:           rec.QuantityUnits,
			OriginLocationText: rec.Location,
			Status:             entities.DeliveryStatusPending,
			User:               &entities.UserDetails{NationalID: rec.Aadhar, Reason: rec.Reason},
		})
	}
	for i, rec := range history.AcceptedFacilityRecords {
		loaded = append(loaded, &entities.DeliveryRequest{
			ID:                 fmt.Sprintf("hospital-%d-%s-%s", i, rec.HospitalName, rec.AcceptedAt),
			Kind:               entities.RequesterHospital,
			RequesterName:      rec.HospitalName,
			Phone:              rec.Phone,
			RequiredCategory:   utils.NormalizeBloodGroup(rec.BloodRequired),
			Urgency:            entities.ParseUrgency(rec.Urgency),
			Quantity:           rec.UnitsNeeded,
			OriginLocationText: rec.Location,
			Status:             entities.DeliveryStatusPending,
			Hospital:           &entities.HospitalDetails{Department: rec.Department},
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.DeliveryRequest, 0, len(loaded))
	for _, req := range loaded {
		// the ID above is the source key; requests get a fresh uuid
		source := req.ID
		if id, ok := s.sources[source]; ok {
			if existing, ok := s.requests[id]; ok {
				out = append(out, existing.Clone())
				continue
			}
		}
		req.ID = uuid.NewString()
		s.sources[source] = req.ID
		s.requests[req.ID] = req
		s.order = append(s.order, req.ID)
		out = append(out, req.Clone())
	}
	observability.LoggerFromContext(ctx).Info().Int("requests", len(out)).Msg("loaded accepted requests")
	return out, nil
}

// Add registers a pending request directly
func (s *DeliveryService) Add(req *entities.DeliveryRequest) *entities.DeliveryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := req.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Status = entities.DeliveryStatusPending
	c.RequiredCategory = utils.NormalizeBloodGroup(c.RequiredCategory)
	if _, exists := s.requests[c.ID]; !exists {
		s.order = append(s.order, c.ID)
	}
	s.requests[c.ID] = c
	return c.Clone()
}

// List returns every known request in load order
func (s *DeliveryService) List(_ context.Context) []*entities.DeliveryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.DeliveryRequest, 0, len(s.order))
	for _, id := range s.order {
		if req, ok := s.requests[id]; ok {
			out = append(out, req.Clone())
		}
	}
	return out
}

// Get returns a single request
func (s *DeliveryService) Get(_ context.Context, id string) (*entities.DeliveryRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("delivery request %s not found", id))
	}
	return req.Clone(), nil
}

// Accept moves a pending request to accepted. The origin is resolved with a
// default fallback and the nearest facility attached; when one is found the
// route is planned in the background and attached later.
func (s *DeliveryService) Accept(ctx context.Context, id, agentID string) (*entities.DeliveryRequest, error) {
	ctx, span := observability.StartSpan(ctx, "DeliveryService.Accept")
	defer span.End()

	snapshot, err := s.expect(id, entities.DeliveryStatusAccepted)
	if err != nil {
		return nil, err
	}

	var hints []string
	if s.cfg.RegionHint != "" && snapshot.OriginLocationText != "" {
		hints = append(hints, snapshot.OriginLocationText+", "+s.cfg.RegionHint)
	}
	resolution := s.resolver.ResolveWithFallback(ctx, snapshot.OriginLocationText, hints...)
	if !resolution.OK() {
		return nil, apperrors.NewNotFoundError("requester location could not be resolved: " + resolution.Reason)
	}
	origin := *resolution.Coordinate

	match, err := s.matcher.FindNearest(ctx, origin, snapshot.RequiredCategory)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.mu.Lock()
	req, err := s.lockedTransition(id, entities.DeliveryStatusAccepted)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	acceptedAt := s.now()
	req.AcceptedAt = &acceptedAt
	req.AgentID = agentID
	req.ResolvedOrigin = &origin
	req.OriginResolution = resolution.Kind
	req.MatchedFacility = match
	req.Route = nil
	req.RouteError = ""
	result := req.Clone()
	s.mu.Unlock()

	observability.RecordTransition(ctx, s.metrics, string(entities.DeliveryStatusPending), string(entities.DeliveryStatusAccepted))
	details := map[string]any{"origin_resolution": string(resolution.Kind)}
	if resolution.Kind == entities.ResolutionDefaulted {
		details["fallback_reason"] = resolution.Reason
	}
	s.publish(ctx, result, entities.DeliveryEventAccepted, details)

	if match == nil {
		s.publish(ctx, result, entities.DeliveryEventNoFacility, nil)
		return result, nil
	}

	s.routes.Add(1)
	go s.attachRoute(id, match.Coordinate, origin)
	return result, nil
}

// attachRoute plans the route with a detached context and stores it on the
// request. A newer route written by a concurrent plan simply replaces it.
func (s *DeliveryService) attachRoute(id string, facility, requester entities.Coordinate) {
	defer s.routes.Done()
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RouteTimeout)
	defer cancel()

	plan, err := s.planner.Plan(ctx, facility, requester)
	if err != nil {
		observability.ComponentLogger("delivery").Warn().Err(err).Str("request_id", id).Msg("background route planning failed")
	}
	if snapshot := s.storeRoute(id, plan, err); snapshot != nil {
		s.publishRoute(ctx, snapshot, plan, err)
	}
}

// storeRoute records a planning outcome on request id and returns a snapshot,
// or nil when the request is gone.
func (s *DeliveryService) storeRoute(id string, plan *entities.RoutePlan, err error) *entities.DeliveryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil
	}
	if err != nil {
		req.Route = nil
		req.RouteError = apperrors.MessageOf(err, "route planning failed")
	} else {
		req.Route = plan
		req.RouteError = ""
	}
	return req.Clone()
}

func (s *DeliveryService) publishRoute(ctx context.Context, req *entities.DeliveryRequest, plan *entities.RoutePlan, err error) {
	if err != nil {
		s.publish(ctx, req, entities.DeliveryEventRouteFailed, map[string]any{"error": req.RouteError})
		return
	}
	s.publish(ctx, req, entities.DeliveryEventRouteReady, map[string]any{
		"car_distance_meters": plan.Car.DistanceMeters,
	})
}

// WaitForRoutes blocks until all background route plans have finished
func (s *DeliveryService) WaitForRoutes() {
	s.routes.Wait()
}

// StartTransit moves an accepted request to in_transit after re-matching the
// facility. Only a missing facility blocks the move; the route is planned
// afterwards and a planning failure is recorded on the request as RouteError.
func (s *DeliveryService) StartTransit(ctx context.Context, id string) (*entities.DeliveryRequest, error) {
	ctx, span := observability.StartSpan(ctx, "DeliveryService.StartTransit")
	defer span.End()

	snapshot, err := s.expect(id, entities.DeliveryStatusInTransit)
	if err != nil {
		return nil, err
	}
	if snapshot.ResolvedOrigin == nil {
		return nil, apperrors.NewValidationError("request has no resolved origin")
	}
	origin := *snapshot.ResolvedOrigin

	match, err := s.matcher.FindNearest(ctx, origin, snapshot.RequiredCategory)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if match == nil {
		s.publish(ctx, snapshot, entities.DeliveryEventNoFacility, nil)
		return nil, apperrors.NewNotFoundError("no facility found within 10km")
	}

	s.mu.Lock()
	req, err := s.lockedTransition(id, entities.DeliveryStatusInTransit)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	req.MatchedFacility = match
	moved := req.Clone()
	s.mu.Unlock()

	observability.RecordTransition(ctx, s.metrics, string(entities.DeliveryStatusAccepted), string(entities.DeliveryStatusInTransit))
	s.publish(ctx, moved, entities.DeliveryEventInTransit, nil)

	plan, err := s.planner.Plan(ctx, match.Coordinate, origin)
	if err != nil {
		observability.RecordError(span, err)
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("request_id", id).Msg("route planning failed after starting transit")
	}
	result := s.storeRoute(id, plan, err)
	if result == nil {
		return moved, nil
	}
	s.publishRoute(ctx, result, plan, err)
	return result, nil
}

// MarkDelivered completes an accepted or in-transit request
func (s *DeliveryService) MarkDelivered(ctx context.Context, id string) (*entities.DeliveryRequest, error) {
	s.mu.Lock()
	req, ok := s.requests[id]
	if !ok {
		s.mu.Unlock()
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("delivery request %s not found", id))
	}
	from := req.Status
	if _, err := s.lockedTransition(id, entities.DeliveryStatusDelivered); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	result := req.Clone()
	s.mu.Unlock()

	observability.RecordTransition(ctx, s.metrics, string(from), string(entities.DeliveryStatusDelivered))
	s.publish(ctx, result, entities.DeliveryEventDelivered, nil)
	return result, nil
}

// Reject removes a request that has not been accepted yet
func (s *DeliveryService) Reject(ctx context.Context, id string) error {
	s.mu.Lock()
	req, ok := s.requests[id]
	if !ok {
		s.mu.Unlock()
		return apperrors.NewNotFoundError(fmt.Sprintf("delivery request %s not found", id))
	}
	if req.Status != entities.DeliveryStatusPending {
		s.mu.Unlock()
		return apperrors.NewConflictError(fmt.Sprintf("cannot reject a request that is %s", req.Status))
	}
	delete(s.requests, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	snapshot := req.Clone()
	s.mu.Unlock()

	s.publish(ctx, snapshot, entities.DeliveryEventRejected, nil)
	return nil
}

// expect returns a snapshot of request id if it may move to next
func (s *DeliveryService) expect(id string, next entities.DeliveryStatus) (*entities.DeliveryRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("delivery request %s not found", id))
	}
	if !req.Status.CanTransitionTo(next) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("cannot move request from %s to %s", req.Status, next))
	}
	return req.Clone(), nil
}

// lockedTransition applies next to request id. s.mu must be held.
func (s *DeliveryService) lockedTransition(id string, next entities.DeliveryStatus) (*entities.DeliveryRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("delivery request %s not found", id))
	}
	if !req.Status.CanTransitionTo(next) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("cannot move request from %s to %s", req.Status, next))
	}
	req.Status = next
	return req, nil
}

func (s *DeliveryService) publish(ctx context.Context, req *entities.DeliveryRequest, eventType entities.DeliveryEventType, details map[string]any) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewDeliveryEvent(req, eventType, details)
	logger := observability.LoggerFromContext(ctx)
	if err := s.eventBus.Publish(ctx, providers.EventChannelDeliveryUpdates, event); err != nil {
		logger.Warn().Err(err).Str("request_id", req.ID).Msg("failed to publish delivery event")
	}
	if err := s.eventBus.Publish(ctx, providers.GetDeliveryChannel(req.ID), event); err != nil {
		logger.Warn().Err(err).Str("request_id", req.ID).Msg("failed to publish delivery event")
	}
}
