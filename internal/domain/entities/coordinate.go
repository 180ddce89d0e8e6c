package entities

// Coordinate is a resolved geographic point. It is a value type and is never
// mutated after it has been produced.
type Coordinate struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	DisplayAddress string  `json:"display_address,omitempty"`
}

// ResolutionKind discriminates LocationResolution
type ResolutionKind string

const (
	ResolutionResolved  ResolutionKind = "resolved"
	ResolutionDefaulted ResolutionKind = "defaulted"
	ResolutionFailed    ResolutionKind = "failed"
)

// LocationResolution is the outcome of resolving free text with fallbacks.
// Coordinate is set for Resolved and Defaulted, Reason for Defaulted and Failed.
type LocationResolution struct {
	Kind       ResolutionKind `json:"kind"`
	Coordinate *Coordinate    `json:"coordinate,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Query      string         `json:"query,omitempty"`
}

// Resolved builds a genuine resolution obtained with query
func Resolved(c Coordinate, query string) LocationResolution {
	return LocationResolution{Kind: ResolutionResolved, Coordinate: &c, Query: query}
}

// Defaulted builds a fallback resolution
func Defaulted(c Coordinate, reason string) LocationResolution {
	return LocationResolution{Kind: ResolutionDefaulted, Coordinate: &c, Reason: reason}
}

// Failed builds a resolution without any coordinate
func Failed(reason string) LocationResolution {
	return LocationResolution{Kind: ResolutionFailed, Reason: reason}
}

// OK reports whether the resolution carries a coordinate
func (r LocationResolution) OK() bool {
	return r.Coordinate != nil && r.Kind != ResolutionFailed
}
