package entities

// TravelMode is a transport mode the route planner estimates
type TravelMode string

const (
	TravelModeCar  TravelMode = "car"
	TravelModeBike TravelMode = "bike"
	TravelModeAir  TravelMode = "air"
)

// RouteEstimate is the distance and duration for one mode. Synthesized is set
// when the figures were derived locally instead of returned by the routing
// service.
type RouteEstimate struct {
	Mode           TravelMode `json:"mode"`
	DistanceMeters float64    `json:"distance_meters"`
	DurationMillis float64    `json:"duration_millis"`
	Synthesized    bool       `json:"synthesized"`
}

// RoutePlan holds the three estimates plus the car path geometry
type RoutePlan struct {
	Car  RouteEstimate `json:"car"`
	Bike RouteEstimate `json:"bike"`
	Air  RouteEstimate `json:"air"`
	Path []Coordinate  `json:"path,omitempty"`
}

// RouteSummary is the human readable rendering of a RoutePlan
type RouteSummary struct {
	CarDistance  string `json:"car_distance"`
	CarDuration  string `json:"car_duration"`
	BikeDistance string `json:"bike_distance"`
	BikeDuration string `json:"bike_duration"`
	AirDistance  string `json:"air_distance"`
	AirDuration  string `json:"air_duration"`
}
