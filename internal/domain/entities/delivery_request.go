package entities

import (
	"strings"
	"time"
)

// DeliveryStatus is the lifecycle state of a delivery request
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusAccepted  DeliveryStatus = "accepted"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

// CanTransitionTo reports whether next is a legal successor of s.
// accepted -> delivered is allowed so operators can skip in_transit.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	switch s {
	case DeliveryStatusPending:
		return next == DeliveryStatusAccepted
	case DeliveryStatusAccepted:
		return next == DeliveryStatusInTransit || next == DeliveryStatusDelivered
	case DeliveryStatusInTransit:
		return next == DeliveryStatusDelivered
	default:
		return false
	}
}

// Urgency of a request
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// ParseUrgency is case-insensitive; anything unrecognised is Medium.
func ParseUrgency(s string) Urgency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return UrgencyLow
	case "high", "critical", "urgent":
		return UrgencyHigh
	default:
		return UrgencyMedium
	}
}

// RequesterKind discriminates the DeliveryRequest payload
type RequesterKind string

const (
	RequesterUser     RequesterKind = "user"
	RequesterHospital RequesterKind = "hospital"
)

// UserDetails is the payload of an individual's request
type UserDetails struct {
	NationalID string `json:"national_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// HospitalDetails is the payload of a hospital's request
type HospitalDetails struct {
	Department string `json:"department,omitempty"`
}

// DeliveryRequest is a request for blood to be delivered to a requester.
// Exactly one of User and Hospital is set, matching Kind.
type DeliveryRequest struct {
	ID                 string           `json:"id"`
	Kind               RequesterKind    `json:"kind"`
	RequesterName      string           `json:"requester_name"`
	Phone              string           `json:"phone,omitempty"`
	RequiredCategory   string           `json:"required_category"`
	Urgency            Urgency          `json:"urgency"`
	Quantity           int              `json:"quantity"`
	OriginLocationText string           `json:"origin_location_text"`
	AcceptedAt         *time.Time       `json:"accepted_at,omitempty"`
	Status             DeliveryStatus   `json:"status"`
	ResolvedOrigin     *Coordinate      `json:"resolved_origin,omitempty"`
	OriginResolution   ResolutionKind   `json:"origin_resolution,omitempty"`
	MatchedFacility    *FacilityMatch   `json:"matched_facility,omitempty"`
	Route              *RoutePlan       `json:"route,omitempty"`
	RouteError         string           `json:"route_error,omitempty"`
	AgentID            string           `json:"agent_id,omitempty"`
	User               *UserDetails     `json:"user,omitempty"`
	Hospital           *HospitalDetails `json:"hospital,omitempty"`
}

// Clone returns a copy that is safe to hand out while the original keeps
// being updated. Nested pointers are shared because their targets are
// replaced, never mutated.
func (r *DeliveryRequest) Clone() *DeliveryRequest {
	c := *r
	return &c
}
