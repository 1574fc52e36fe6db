package activity

import "strings"

// TransportMode is the travel mode used for routing.
type TransportMode string

const (
	ModeCar     TransportMode = "Car"
	ModeWalking TransportMode = "Walking"
	ModeTransit TransportMode = "Transit"
)

// ModeFromDescription infers a transport mode from an activity's free-text
// description by keyword match. The data model carries no normalized mode
// field, so this narrow match (with Car as the documented default) is the
// only coupling between description text and routing.
func ModeFromDescription(description string) TransportMode {
	lower := strings.ToLower(description)
	switch {
	case strings.Contains(lower, "car") || strings.Contains(lower, "driving"):
		return ModeCar
	case strings.Contains(lower, "walk"):
		return ModeWalking
	case strings.Contains(lower, "transit") || strings.Contains(lower, "bus"):
		return ModeTransit
	default:
		return ModeCar
	}
}
