package entities

import (
	"strings"
	"time"
)

// AvailabilityState is the stock level a blood bank reports
type AvailabilityState string

const (
	AvailabilityAvailable AvailabilityState = "Available"
	AvailabilityLowStock  AvailabilityState = "Low Stock"
	AvailabilityCritical  AvailabilityState = "Critical"
)

// ParseAvailability maps the directory spelling onto AvailabilityState.
// Unknown values are treated as Available.
func ParseAvailability(s string) AvailabilityState {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "critical":
		return AvailabilityCritical
	case "low stock", "lowstock", "low":
		return AvailabilityLowStock
	default:
		return AvailabilityAvailable
	}
}

// Facility represents a blood bank in the directory
type Facility struct {
	ID                string            `json:"id" db:"id"`
	Name              string            `json:"name" db:"name"`
	Region            string            `json:"region" db:"region"`
	Subregion         string            `json:"subregion" db:"subregion"`
	Address           string            `json:"address" db:"address"`
	Phone             string            `json:"phone" db:"phone"`
	OfferedCategories []string          `json:"offered_categories" db:"-"`
	Availability      AvailabilityState `json:"availability" db:"availability"`
	LastUpdated       time.Time         `json:"last_updated" db:"last_updated"`
}

// Offers reports whether the facility stocks category
func (f *Facility) Offers(category string) bool {
	for _, c := range f.OfferedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Eligible reports whether the facility may be matched for category
func (f *Facility) Eligible(category string) bool {
	return f.Availability != AvailabilityCritical && f.Offers(category)
}

// FacilityMatch is a facility chosen for a request together with its
// resolved coordinate and exact distance from the origin.
type FacilityMatch struct {
	Facility       *Facility  `json:"facility"`
	Coordinate     Coordinate `json:"coordinate"`
	DistanceMeters float64    `json:"distance_meters"`
}
