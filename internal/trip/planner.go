package trip

import (
	"context"
	"time"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/location"
	"backend-staysafe/internal/route"
	"backend-staysafe/internal/shared/geo"
	"backend-staysafe/internal/store"
)

// fallbackOrigin stands in when planning happens before the device has a
// location fix.
var fallbackOrigin = geo.Point{Lat: 51.4014, Lng: -0.3046}

const (
	maxTripNameLen = 60
	// defaultTripSpan pads the arrival when no route estimate is available.
	defaultTripSpan = time.Hour
)

// PlanRequest describes a trip to be created.
type PlanRequest struct {
	UserID      int
	Destination string
	DestLat     float64
	DestLng     float64
	Address     string
	Mode        activity.TransportMode
	Departure   time.Time
	// Arrival is optional; when zero the planner estimates it from the route.
	Arrival time.Time
	// Origin is optional; when nil the device's current fix is used, then a
	// fixed fallback.
	Origin     *geo.Point
	OriginName string
}

// Planner turns a plan request into a persisted activity with its origin and
// destination location records.
type Planner struct {
	st     store.Store
	eta    *route.Engine
	source location.Source
	now    func() time.Time
}

func NewPlanner(st store.Store, eta *route.Engine, source location.Source) *Planner {
	return &Planner{st: st, eta: eta, source: source, now: time.Now}
}

// Plan validates the departure, persists both endpoints and creates the
// activity. A departure within the start window comes back already Started;
// the caller is responsible for beginning tracking in that case.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (activity.Activity, error) {
	now := p.now()
	status, err := activity.StatusForDeparture(req.Departure, now)
	if err != nil {
		return activity.Activity{}, err
	}

	origin := p.resolveOrigin(req)
	originName := req.OriginName
	if originName == "" {
		originName = "Current location"
	}
	from, err := p.st.CreateLocation(ctx, activity.Location{
		ID:        activity.PlaceholderID,
		Name:      originName,
		Latitude:  origin.Lat,
		Longitude: origin.Lng,
	})
	if err != nil {
		return activity.Activity{}, err
	}

	to, err := p.st.CreateLocation(ctx, activity.Location{
		ID:        activity.PlaceholderID,
		Name:      req.Destination,
		Address:   req.Address,
		Latitude:  req.DestLat,
		Longitude: req.DestLng,
	})
	if err != nil {
		return activity.Activity{}, err
	}

	mode := req.Mode
	if mode == "" {
		mode = activity.ModeCar
	}

	act := activity.Activity{
		ID:          activity.PlaceholderID,
		Name:        tripName(req.Destination),
		UserID:      req.UserID,
		Description: "Trip using " + string(mode),
		FromID:      from.ID,
		ToID:        to.ID,
		Leave:       activity.FormatTime(req.Departure),
		Arrive:      activity.FormatTime(p.arrival(ctx, req, origin, mode)),
	}
	act.SetStatus(status)

	return p.st.CreateActivity(ctx, act)
}

func (p *Planner) resolveOrigin(req PlanRequest) geo.Point {
	if req.Origin != nil {
		return *req.Origin
	}
	if p.source != nil {
		if fix, ok := p.source.Current(); ok {
			return fix.Point
		}
	}
	return fallbackOrigin
}

// arrival prefers the requested time, then a route estimate, then a fixed
// span past departure.
func (p *Planner) arrival(ctx context.Context, req PlanRequest, origin geo.Point, mode activity.TransportMode) time.Time {
	if !req.Arrival.IsZero() {
		return req.Arrival
	}
	if p.eta != nil {
		dest := geo.Point{Lat: req.DestLat, Lng: req.DestLng}
		if r, err := p.eta.ComputeETA(ctx, origin, dest, mode); err == nil {
			return req.Departure.Add(r.Duration)
		}
	}
	return req.Departure.Add(defaultTripSpan)
}

func tripName(destination string) string {
	name := "Trip to " + destination
	if len(name) > maxTripNameLen {
		name = name[:maxTripNameLen]
	}
	return name
}
