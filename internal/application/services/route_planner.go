package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
	"github.com/bloodconnect/backend/pkg/geo"
	"github.com/bloodconnect/backend/pkg/utils"
)

const (
	// AirSpeedKmh is the cruising speed used for air estimates
	AirSpeedKmh = 800.0
	// BikeSpeedKmh is the speed used when a bike estimate is synthesized
	BikeSpeedKmh = 15.0
)

// RoutePlanner computes car, bike and air estimates between two points
type RoutePlanner struct {
	routing providers.RoutingProvider
	metrics *observability.Metrics
}

// NewRoutePlanner creates a new route planner
func NewRoutePlanner(routing providers.RoutingProvider, metrics *observability.Metrics) *RoutePlanner {
	return &RoutePlanner{routing: routing, metrics: metrics}
}

type routeResult struct {
	path *providers.RoutePath
	err  error
}

// Plan returns all three estimates or an error. A failed car route fails the
// whole plan; a failed bike route is replaced by a synthesized estimate.
func (p *RoutePlanner) Plan(ctx context.Context, origin, destination entities.Coordinate) (*entities.RoutePlan, error) {
	ctx, span := observability.StartSpan(ctx, "RoutePlanner.Plan")
	defer span.End()

	var (
		wg        sync.WaitGroup
		car, bike routeResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		car = p.route(ctx, origin, destination, entities.TravelModeCar)
	}()
	go func() {
		defer wg.Done()
		bike = p.route(ctx, origin, destination, entities.TravelModeBike)
	}()
	wg.Wait()

	if car.err != nil {
		observability.RecordError(span, car.err)
		if errors.Is(car.err, providers.ErrNoPath) {
			return nil, apperrors.NewExternalError("no car route found", car.err)
		}
		return nil, apperrors.NewExternalError("routing service unavailable", car.err)
	}

	airDistance := geo.HaversineMeters(origin.Latitude, origin.Longitude, destination.Latitude, destination.Longitude)
	plan := &entities.RoutePlan{
		Car: entities.RouteEstimate{
			Mode:           entities.TravelModeCar,
			DistanceMeters: car.path.DistanceMeters,
			DurationMillis: car.path.DurationMillis,
		},
		Air: entities.RouteEstimate{
			Mode:           entities.TravelModeAir,
			DistanceMeters: airDistance,
			DurationMillis: durationAt(airDistance, AirSpeedKmh),
		},
		Path: car.path.Points,
	}

	if bike.err == nil {
		plan.Bike = entities.RouteEstimate{
			Mode:           entities.TravelModeBike,
			DistanceMeters: bike.path.DistanceMeters,
			DurationMillis: bike.path.DurationMillis,
		}
	} else {
		distance := car.path.DistanceMeters
		if distance == 0 {
			distance = airDistance
		}
		observability.LoggerFromContext(ctx).Debug().Err(bike.err).Msg("bike route unavailable, synthesizing estimate")
		plan.Bike = entities.RouteEstimate{
			Mode:           entities.TravelModeBike,
			DistanceMeters: distance,
			DurationMillis: durationAt(distance, BikeSpeedKmh),
			Synthesized:    true,
		}
	}
	return plan, nil
}

func (p *RoutePlanner) route(ctx context.Context, from, to entities.Coordinate, mode entities.TravelMode) routeResult {
	start := time.Now()
	path, err := p.routing.Route(ctx, from, to, mode)
	observability.RecordUpstreamMetric(ctx, p.metrics, "routing", time.Since(start), err)
	if err == nil && path == nil {
		err = providers.ErrNoPath
	}
	return routeResult{path: path, err: err}
}

// durationAt converts meters at speedKmh into milliseconds
func durationAt(meters, speedKmh float64) float64 {
	return meters / 1000 / speedKmh * 3600 * 1000
}

// Summarize renders plan for display
func Summarize(plan *entities.RoutePlan) entities.RouteSummary {
	return entities.RouteSummary{
		CarDistance:  utils.FormatDistance(plan.Car.DistanceMeters),
		CarDuration:  utils.FormatDuration(plan.Car.DurationMillis),
		BikeDistance: utils.FormatDistance(plan.Bike.DistanceMeters),
		BikeDuration: utils.FormatDuration(plan.Bike.DurationMillis),
		AirDistance:  utils.FormatDistance(plan.Air.DistanceMeters),
		AirDuration:  utils.FormatDuration(plan.Air.DurationMillis),
	}
}
