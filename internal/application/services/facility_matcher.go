package services

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	"github.com/bloodconnect/backend/internal/infrastructure/observability"
	"github.com/bloodconnect/backend/pkg/geo"
)

// MatcherConfig holds the distance thresholds of the nearest-facility search
type MatcherConfig struct {
	MaxDistanceMeters   float64
	PrefilterFactor     float64
	MaxCandidates       int
	EarlyExitMeters     float64
	ColdStartStopMeters float64
	BatchSize           int
}

// DefaultMatcherConfig returns the standard 10 km search
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		MaxDistanceMeters:   10000,
		PrefilterFactor:     1.5,
		MaxCandidates:       30,
		EarlyExitMeters:     2000,
		ColdStartStopMeters: 5000,
		BatchSize:           5,
	}
}

// CoordinateMemo remembers facility coordinates by facility ID. A facility
// without an entry has not been resolved yet.
type CoordinateMemo struct {
	mu     sync.RWMutex
	coords map[string]entities.Coordinate
}

// NewCoordinateMemo creates an empty memo
func NewCoordinateMemo() *CoordinateMemo {
	return &CoordinateMemo{coords: make(map[string]entities.Coordinate)}
}

// Get returns the memoized coordinate for id
func (m *CoordinateMemo) Get(id string) (entities.Coordinate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.coords[id]
	return c, ok
}

// Put memoizes c for id
func (m *CoordinateMemo) Put(id string, c entities.Coordinate) {
	m.mu.Lock()
	m.coords[id] = c
	m.mu.Unlock()
}

// Len returns the number of memoized facilities
func (m *CoordinateMemo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.coords)
}

// Geocoder resolves free text to a coordinate
type Geocoder interface {
	Resolve(ctx context.Context, text string) (entities.Coordinate, error)
}

// FacilityMatcher finds the nearest eligible facility to an origin
type FacilityMatcher struct {
	repo     repositories.FacilityRepository
	geocoder Geocoder
	memo     *CoordinateMemo
	cfg      MatcherConfig
}

// NewFacilityMatcher creates a new facility matcher
func NewFacilityMatcher(repo repositories.FacilityRepository, geocoder Geocoder, memo *CoordinateMemo, cfg MatcherConfig) *FacilityMatcher {
	if memo == nil {
		memo = NewCoordinateMemo()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	return &FacilityMatcher{
		repo:     repo,
		geocoder: geocoder,
		memo:     memo,
		cfg:      cfg,
	}
}

// Memo exposes the coordinate memo
func (m *FacilityMatcher) Memo() *CoordinateMemo {
	return m.memo
}

type candidate struct {
	facility *entities.Facility
	coord    entities.Coordinate
	approx   float64
}

// FindNearest returns the nearest eligible facility within the maximum
// distance of origin, or nil when there is none.
func (m *FacilityMatcher) FindNearest(ctx context.Context, origin entities.Coordinate, category string) (*entities.FacilityMatch, error) {
	ctx, span := observability.StartSpan(ctx, "FacilityMatcher.FindNearest")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.String("facility.category", category))

	eligible, err := m.repo.ListEligible(ctx, category)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	var (
		resolved   []candidate
		unresolved []*entities.Facility
	)
	cutoff := m.cfg.MaxDistanceMeters * m.cfg.PrefilterFactor
	for _, f := range eligible {
		if !f.Eligible(category) {
			continue
		}
		c, ok := m.memo.Get(f.ID)
		if !ok {
			unresolved = append(unresolved, f)
			continue
		}
		approx := geo.ApproxMeters(origin.Latitude, origin.Longitude, c.Latitude, c.Longitude)
		if approx <= cutoff {
			resolved = append(resolved, candidate{facility: f, coord: c, approx: approx})
		}
	}
	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].approx < resolved[j].approx })

	var best *entities.FacilityMatch
	bestDist := math.Inf(1)
	for i, c := range resolved {
		if i >= m.cfg.MaxCandidates {
			break
		}
		d := geo.HaversineMeters(origin.Latitude, origin.Longitude, c.coord.Latitude, c.coord.Longitude)
		if d <= m.cfg.EarlyExitMeters {
			return newMatch(c.facility, c.coord, d), nil
		}
		if d < bestDist && d <= m.cfg.MaxDistanceMeters {
			bestDist = d
			best = newMatch(c.facility, c.coord, d)
		}
	}

	// unresolved facilities are only geocoded when the memoized ones gave no match
	if best != nil || len(unresolved) == 0 {
		return best, nil
	}
	return m.coldStart(ctx, origin, unresolved)
}

// coldStart geocodes unresolved facilities in concurrent batches. Results of
// a batch are inspected in facility order once the whole batch is done.
func (m *FacilityMatcher) coldStart(ctx context.Context, origin entities.Coordinate, unresolved []*entities.Facility) (*entities.FacilityMatch, error) {
	logger := observability.LoggerFromContext(ctx)
	if len(unresolved) > m.cfg.MaxCandidates {
		unresolved = unresolved[:m.cfg.MaxCandidates]
	}
	logger.Debug().Int("facilities", len(unresolved)).Msg("resolving facility coordinates")

	var best *entities.FacilityMatch
	for start := 0; start < len(unresolved); start += m.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return best, err
		}
		end := start + m.cfg.BatchSize
		if end > len(unresolved) {
			end = len(unresolved)
		}
		batch := unresolved[start:end]

		coords := make([]*entities.Coordinate, len(batch))
		var wg sync.WaitGroup
		for i, f := range batch {
			wg.Add(1)
			go func(i int, f *entities.Facility) {
				defer wg.Done()
				c, err := m.geocoder.Resolve(ctx, facilityQuery(f))
				if err != nil {
					logger.Debug().Err(err).Str("facility_id", f.ID).Msg("facility location unresolved")
					return
				}
				coords[i] = &c
			}(i, f)
		}
		wg.Wait()

		for i, f := range batch {
			c := coords[i]
			if c == nil {
				continue
			}
			m.memo.Put(f.ID, *c)
			d := geo.HaversineMeters(origin.Latitude, origin.Longitude, c.Latitude, c.Longitude)
			if d <= m.cfg.EarlyExitMeters {
				return newMatch(f, *c, d), nil
			}
			if d <= m.cfg.MaxDistanceMeters && (best == nil || d < best.DistanceMeters) {
				best = newMatch(f, *c, d)
			}
		}

		if best != nil && best.DistanceMeters <= m.cfg.ColdStartStopMeters {
			break
		}
	}
	return best, nil
}

func facilityQuery(f *entities.Facility) string {
	if f.Address != "" {
		return f.Address
	}
	if f.Subregion != "" {
		return f.Name + ", " + f.Subregion
	}
	return f.Name
}

func newMatch(f *entities.Facility, c entities.Coordinate, d float64) *entities.FacilityMatch {
	return &entities.FacilityMatch{Facility: f, Coordinate: c, DistanceMeters: d}
}
