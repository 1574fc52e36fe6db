package activity

import "time"

// PlaceholderID is the client-side id carried by records that have not been
// persisted yet; the store assigns the real id on creation.
const PlaceholderID = 1

// apiTimeLayout is the wire format for activity timestamps (ISO-8601 with
// milliseconds, UTC).
const apiTimeLayout = "2006-01-02T15:04:05.000Z"

// Activity is the persisted record of one planned or in-progress journey.
// While a trip is active, Arrive doubles as the live ETA.
type Activity struct {
	ID          int    `json:"ActivityID"`
	Name        string `json:"ActivityName"`
	UserID      int    `json:"ActivityUserID"`
	Username    string `json:"ActivityUsername,omitempty"`
	Description string `json:"ActivityDescription"`
	FromID      int    `json:"ActivityFromID"`
	FromName    string `json:"ActivityFromName,omitempty"`
	Leave       string `json:"ActivityLeave"`
	ToID        int    `json:"ActivityToID"`
	ToName      string `json:"ActivityToName,omitempty"`
	Arrive      string `json:"ActivityArrive"`
	StatusID    Status `json:"ActivityStatusID"`
	StatusName  string `json:"ActivityStatusName,omitempty"`
}

// SetStatus updates the ordinal and regenerates the denormalized display name.
func (a *Activity) SetStatus(s Status) {
	a.StatusID = s
	a.StatusName = s.Name()
}

func (a Activity) IsCurrent() bool    { return a.StatusID.IsCurrent() }
func (a Activity) HasStarted() bool   { return a.StatusID.HasStarted() }
func (a Activity) IsPaused() bool     { return a.StatusID.IsPaused() }
func (a Activity) IsTerminated() bool { return a.StatusID.IsTerminated() }

// Position is one timestamped GPS sample tied to an activity. Positions are
// append-only; the client never mutates or deletes them.
type Position struct {
	ID           int     `json:"PositionID"`
	ActivityID   int     `json:"PositionActivityID"`
	ActivityName string  `json:"PositionActivityName,omitempty"`
	Latitude     float64 `json:"PositionLatitude"`
	Longitude    float64 `json:"PositionLongitude"`
	Timestamp    int64   `json:"PositionTimestamp"`
}

// Location resolves a location id to a named coordinate.
type Location struct {
	ID          int     `json:"LocationID"`
	Name        string  `json:"LocationName"`
	Description string  `json:"LocationDescription,omitempty"`
	Address     string  `json:"LocationAddress,omitempty"`
	Latitude    float64 `json:"LocationLatitude"`
	Longitude   float64 `json:"LocationLongitude"`
}

// FormatTime renders a timestamp in the wire format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(apiTimeLayout)
}

// ParseTime parses a wire-format timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(apiTimeLayout, s)
}
