package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/providers"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
	"github.com/bloodconnect/backend/pkg/geo"
)

func TestRoutePlanner_CarFailureFailsWholePlan(t *testing.T) {
	routing := new(mockRoutingProvider)
	dest := offset(hyderabad, 5000)
	routing.On("Route", mock.Anything, hyderabad, dest, entities.TravelModeCar).Return(nil, providers.ErrNoPath)
	routing.On("Route", mock.Anything, hyderabad, dest, entities.TravelModeBike).
		Return(&providers.RoutePath{DistanceMeters: 5200, DurationMillis: 1_200_000}, nil)

	plan, err := services.NewRoutePlanner(routing, nil).Plan(context.Background(), hyderabad, dest)

	assert.Nil(t, plan)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.True(t, errors.Is(err, providers.ErrNoPath))
}

func TestRoutePlanner_BikeFailureIsSynthesized(t *testing.T) {
	routing := new(mockRoutingProvider)
	dest := offset(hyderabad, 5000)
	routing.On("Route", mock.Anything, hyderabad, dest, entities.TravelModeCar).
		Return(&providers.RoutePath{DistanceMeters: 6000, DurationMillis: 720_000}, nil)
	routing.On("Route", mock.Anything, hyderabad, dest, entities.TravelModeBike).
		Return(nil, errors.New("upstream timeout"))

	plan, err := services.NewRoutePlanner(routing, nil).Plan(context.Background(), hyderabad, dest)

	require.NoError(t, err)
	assert.True(t, plan.Bike.Synthesized)
	assert.Equal(t, 6000.0, plan.Bike.DistanceMeters)
	assert.InDelta(t, 6000.0/1000/15*3600*1000, plan.Bike.DurationMillis, 1e-6)
	assert.False(t, plan.Car.Synthesized)
}

func TestRoutePlanner_ZeroCarDistanceFallsBackToAir(t *testing.T) {
	routing := new(mockRoutingProvider)
	dest := offset(hyderabad, 3000)
	routing.On("Route", mock.Anything, hyderabad, dest, entities.TravelModeCar).
		Return(&providers.RoutePath{DistanceMeters: 0, DurationMillis: 0}, nil)
	routing.On("Route", mock.Anything, hyderabad, dest, entities.TravelModeBike).
		Return(nil, providers.ErrNoPath)

	plan, err := services.NewRoutePlanner(routing, nil).Plan(context.Background(), hyderabad, dest)

	require.NoError(t, err)
	assert.InDelta(t, plan.Air.DistanceMeters, plan.Bike.DistanceMeters, 1e-9)
	assert.True(t, plan.Bike.Synthesized)
}

func TestRoutePlanner_AllModes(t *testing.T) {
	routing := new(mockRoutingProvider)
	dest := offset(hyderabad, 8000)
	path := []entities.Coordinate{hyderabad, dest}
	routing.On("Route", mock.Anything, hyderabad, dest, entities.TravelModeCar).
		Return(&providers.RoutePath{DistanceMeters: 9500, DurationMillis: 1_140_000, Points: path}, nil)
	routing.On("Route", mock.Anything, hyderabad, dest, entities.TravelModeBike).
		Return(&providers.RoutePath{DistanceMeters: 9100, DurationMillis: 2_184_000}, nil)

	plan, err := services.NewRoutePlanner(routing, nil).Plan(context.Background(), hyderabad, dest)
	require.NoError(t, err)

	air := geo.HaversineMeters(hyderabad.Latitude, hyderabad.Longitude, dest.Latitude, dest.Longitude)
	assert.Equal(t, 9100.0, plan.Bike.DistanceMeters)
	assert.False(t, plan.Bike.Synthesized)
	assert.InDelta(t, air, plan.Air.DistanceMeters, 1e-9)
	assert.InDelta(t, air/1000/800*3600*1000, plan.Air.DurationMillis, 1e-6)
	assert.Equal(t, path, plan.Path)

	summary := services.Summarize(plan)
	assert.Equal(t, "9.5 km", summary.CarDistance)
	assert.Equal(t, "19m 0s", summary.CarDuration)
	assert.Equal(t, "36m 24s", summary.BikeDuration)
	routing.AssertExpectations(t)
}
