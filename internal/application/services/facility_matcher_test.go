package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodconnect/backend/internal/application/services"
	"github.com/bloodconnect/backend/internal/domain/entities"
)

func seededMatcher(facilities staticFacilities, coords map[string]entities.Coordinate, geocoder services.Geocoder) *services.FacilityMatcher {
	memo := services.NewCoordinateMemo()
	for id, c := range coords {
		memo.Put(id, c)
	}
	return services.NewFacilityMatcher(facilities, geocoder, memo, services.DefaultMatcherConfig())
}

func TestFindNearest_EarlyExitWithinTwoKilometers(t *testing.T) {
	far := facility("far", "O+")
	near := facility("near", "O+")
	matcher := seededMatcher(staticFacilities{far, near}, map[string]entities.Coordinate{
		"far":  offset(hyderabad, 8000),
		"near": offset(hyderabad, 1500),
	}, &countingGeocoder{})

	match, err := matcher.FindNearest(context.Background(), hyderabad, "O+")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "near", match.Facility.ID)
	assert.InDelta(t, 1500, match.DistanceMeters, 1)
}

func TestFindNearest_BestWithinTenKilometers(t *testing.T) {
	a := facility("six", "B+")
	b := facility("three", "B+")
	matcher := seededMatcher(staticFacilities{a, b}, map[string]entities.Coordinate{
		"six":   offset(hyderabad, 6000),
		"three": offset(hyderabad, 3000),
	}, &countingGeocoder{})

	match, err := matcher.FindNearest(context.Background(), hyderabad, "B+")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "three", match.Facility.ID)
}

func TestFindNearest_NoneInRange(t *testing.T) {
	critical := facility("critical", "AB-")
	critical.Availability = entities.AvailabilityCritical
	distant := facility("distant", "AB-")
	wrongGroup := facility("wrong", "O+")

	geocoder := &countingGeocoder{}
	matcher := seededMatcher(staticFacilities{critical, distant, wrongGroup}, map[string]entities.Coordinate{
		"critical": offset(hyderabad, 500),
		"distant":  offset(hyderabad, 22000),
		"wrong":    offset(hyderabad, 100),
	}, geocoder)

	match, err := matcher.FindNearest(context.Background(), hyderabad, "AB-")

	require.NoError(t, err)
	assert.Nil(t, match)
	assert.Equal(t, 0, geocoder.Calls())
}

func TestFindNearest_NeverBeyondMaximumDistance(t *testing.T) {
	// passes the 15 km prefilter but is 12 km away
	f := facility("twelve", "A+")
	matcher := seededMatcher(staticFacilities{f}, map[string]entities.Coordinate{
		"twelve": offset(hyderabad, 12000),
	}, &countingGeocoder{})

	match, err := matcher.FindNearest(context.Background(), hyderabad, "A+")

	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestFindNearest_ColdStartWhenMemoizedFacilitiesAreOutOfRange(t *testing.T) {
	f := facility("twelve", "A+")
	unresolved := facility("unresolved", "A+")
	geocoder := &countingGeocoder{coords: map[string]entities.Coordinate{
		unresolved.Address: offset(hyderabad, 100),
	}}
	matcher := seededMatcher(staticFacilities{f, unresolved}, map[string]entities.Coordinate{
		"twelve": offset(hyderabad, 12000),
	}, geocoder)

	match, err := matcher.FindNearest(context.Background(), hyderabad, "A+")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "unresolved", match.Facility.ID)
	assert.InDelta(t, 100, match.DistanceMeters, 5)
	assert.Equal(t, 1, geocoder.Calls())
}

func TestFindNearest_MemoizedMatchSkipsColdStart(t *testing.T) {
	f := facility("eight", "A+")
	unresolved := facility("unresolved", "A+")
	geocoder := &countingGeocoder{coords: map[string]entities.Coordinate{
		unresolved.Address: offset(hyderabad, 100),
	}}
	matcher := seededMatcher(staticFacilities{f, unresolved}, map[string]entities.Coordinate{
		"eight": offset(hyderabad, 8000),
	}, geocoder)

	match, err := matcher.FindNearest(context.Background(), hyderabad, "A+")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "eight", match.Facility.ID)
	assert.Equal(t, 0, geocoder.Calls())
}

func TestFindNearest_ColdStartStopsAfterGoodBatch(t *testing.T) {
	var facilities staticFacilities
	coords := make(map[string]entities.Coordinate)
	for i := 0; i < 12; i++ {
		f := facility(fmt.Sprintf("f%02d", i), "O-")
		facilities = append(facilities, f)
		coords[f.Address] = offset(hyderabad, 30000)
	}
	coords[facilities[3].Address] = offset(hyderabad, 4000)
	coords[facilities[8].Address] = offset(hyderabad, 2500)

	geocoder := &countingGeocoder{coords: coords}
	matcher := services.NewFacilityMatcher(facilities, geocoder, nil, services.DefaultMatcherConfig())

	match, err := matcher.FindNearest(context.Background(), hyderabad, "O-")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "f03", match.Facility.ID)
	assert.Equal(t, 5, geocoder.Calls())
	assert.Equal(t, 5, matcher.Memo().Len())
}

func TestFindNearest_ColdStartEarlyExit(t *testing.T) {
	var facilities staticFacilities
	coords := make(map[string]entities.Coordinate)
	for i := 0; i < 10; i++ {
		f := facility(fmt.Sprintf("g%02d", i), "O+")
		facilities = append(facilities, f)
		coords[f.Address] = offset(hyderabad, 9000)
	}
	coords[facilities[6].Address] = offset(hyderabad, 1200)

	geocoder := &countingGeocoder{coords: coords}
	matcher := services.NewFacilityMatcher(facilities, geocoder, nil, services.DefaultMatcherConfig())

	match, err := matcher.FindNearest(context.Background(), hyderabad, "O+")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, "g06", match.Facility.ID)
	assert.Equal(t, 10, geocoder.Calls())
}

func TestFindNearest_ColdStartCapsCandidates(t *testing.T) {
	var facilities staticFacilities
	for i := 0; i < 40; i++ {
		facilities = append(facilities, facility(fmt.Sprintf("h%02d", i), "A-"))
	}
	geocoder := &countingGeocoder{coords: map[string]entities.Coordinate{}}
	matcher := services.NewFacilityMatcher(facilities, geocoder, nil, services.DefaultMatcherConfig())

	match, err := matcher.FindNearest(context.Background(), hyderabad, "A-")

	require.NoError(t, err)
	assert.Nil(t, match)
	assert.Equal(t, 30, geocoder.Calls())
}
