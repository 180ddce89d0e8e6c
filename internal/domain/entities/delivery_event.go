package entities

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryEventType represents the type of delivery event
type DeliveryEventType string

const (
	DeliveryEventAccepted    DeliveryEventType = "delivery_accepted"
	DeliveryEventRouteReady  DeliveryEventType = "route_ready"
	DeliveryEventRouteFailed DeliveryEventType = "route_failed"
	DeliveryEventInTransit   DeliveryEventType = "delivery_in_transit"
	DeliveryEventDelivered   DeliveryEventType = "delivery_delivered"
	DeliveryEventRejected    DeliveryEventType = "delivery_rejected"
	DeliveryEventNoFacility  DeliveryEventType = "no_facility_in_range"
)

// DeliveryEvent is published whenever a delivery request changes
type DeliveryEvent struct {
	ID         string            `json:"id"`
	RequestID  string            `json:"request_id"`
	EventType  DeliveryEventType `json:"event_type"`
	Status     DeliveryStatus    `json:"status"`
	FacilityID string            `json:"facility_id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Details    map[string]any    `json:"details,omitempty"`
}

// NewDeliveryEvent creates a new delivery event for req
func NewDeliveryEvent(req *DeliveryRequest, eventType DeliveryEventType, details map[string]any) *DeliveryEvent {
	event := &DeliveryEvent{
		ID:        uuid.NewString(),
		RequestID: req.ID,
		EventType: eventType,
		Status:    req.Status,
		Timestamp: time.Now(),
		Details:   details,
	}
	if req.MatchedFacility != nil && req.MatchedFacility.Facility != nil {
		event.FacilityID = req.MatchedFacility.Facility.ID
	}
	return event
}
