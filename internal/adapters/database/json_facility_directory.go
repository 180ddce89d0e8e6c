package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bloodconnect/backend/internal/domain/entities"
	"github.com/bloodconnect/backend/internal/domain/repositories"
	apperrors "github.com/bloodconnect/backend/pkg/errors"
	"github.com/bloodconnect/backend/pkg/utils"
)

// directoryEntry is one blood bank as it appears in the static directory
type directoryEntry struct {
	Name                 string   `json:"name"`
	State                string   `json:"state"`
	District             string   `json:"district"`
	Location             string   `json:"location"`
	Phone                string   `json:"phone"`
	BloodGroupsAvailable []string `json:"blood_groups_available"`
	Availability         string   `json:"availability"`
	LastUpdated          string   `json:"last_updated"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// JSONFacilityDirectory is the read-only facility directory loaded once from
// a JSON document grouped by region.
type JSONFacilityDirectory struct {
	facilities []*entities.Facility
	byID       map[string]*entities.Facility
}

// LoadJSONFacilityDirectory reads the directory file at path
func LoadJSONFacilityDirectory(path string) (*JSONFacilityDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facility directory: %w", err)
	}
	return ParseJSONFacilityDirectory(raw)
}

// ParseJSONFacilityDirectory builds a directory from raw JSON
func ParseJSONFacilityDirectory(raw []byte) (*JSONFacilityDirectory, error) {
	var grouped map[string][]directoryEntry
	if err := json.Unmarshal(raw, &grouped); err != nil {
		return nil, fmt.Errorf("failed to parse facility directory: %w", err)
	}

	regions := make([]string, 0, len(grouped))
	for region := range grouped {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	dir := &JSONFacilityDirectory{byID: make(map[string]*entities.Facility)}
	for _, region := range regions {
		for _, entry := range grouped[region] {
			f := entry.toFacility(region)
			if _, dup := dir.byID[f.ID]; dup {
				f.ID = fmt.Sprintf("%s-%d", f.ID, len(dir.facilities))
			}
			dir.facilities = append(dir.facilities, f)
			dir.byID[f.ID] = f
		}
	}
	return dir, nil
}

func (e directoryEntry) toFacility(region string) *entities.Facility {
	if e.State != "" {
		region = e.State
	}
	categories := make([]string, 0, len(e.BloodGroupsAvailable))
	for _, g := range e.BloodGroupsAvailable {
		if n := utils.NormalizeBloodGroup(g); n != "" {
			categories = append(categories, n)
		}
	}
	var lastUpdated time.Time
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, e.LastUpdated); err == nil {
			lastUpdated = t
			break
		}
	}
	return &entities.Facility{
		ID:                slug(region) + "/" + slug(e.Name),
		Name:              e.Name,
		Region:            region,
		Subregion:         e.District,
		Address:           e.Location,
		Phone:             e.Phone,
		OfferedCategories: categories,
		Availability:      entities.ParseAvailability(e.Availability),
		LastUpdated:       lastUpdated,
	}
}

func slug(s string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

var _ repositories.FacilityRepository = (*JSONFacilityDirectory)(nil)

// List returns every facility in directory order
func (d *JSONFacilityDirectory) List(_ context.Context) ([]*entities.Facility, error) {
	out := make([]*entities.Facility, len(d.facilities))
	copy(out, d.facilities)
	return out, nil
}

// ListEligible returns facilities offering category that are not Critical
func (d *JSONFacilityDirectory) ListEligible(_ context.Context, category string) ([]*entities.Facility, error) {
	var out []*entities.Facility
	for _, f := range d.facilities {
		if f.Eligible(category) {
			out = append(out, f)
		}
	}
	return out, nil
}

// GetByID retrieves a facility by ID
func (d *JSONFacilityDirectory) GetByID(_ context.Context, id string) (*entities.Facility, error) {
	f, ok := d.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("facility with id %s not found", id))
	}
	return f, nil
}
