package activity

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle ordinal of an activity. The stored ordinal is the
// single source of truth; every derived predicate is computed from it.
type Status int

const (
	Planned   Status = 1
	Started   Status = 2
	Paused    Status = 3
	Cancelled Status = 4
	Completed Status = 5
)

const (
	// departurePastTolerance is the UX buffer for "leave now" trips whose
	// departure already slipped slightly into the past.
	departurePastTolerance = time.Minute
	// departureStartWindow is how far ahead a departure may be while still
	// counting as leaving right now.
	departureStartWindow = 5 * time.Minute
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
)

func (s Status) Valid() bool {
	return s >= Planned && s <= Completed
}

func (s Status) Name() string {
	switch s {
	case Planned:
		return "Planned"
	case Started:
		return "Started"
	case Paused:
		return "Paused"
	case Cancelled:
		return "Cancelled"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}

// IsCurrent reports whether the activity is an active, trackable trip.
func (s Status) IsCurrent() bool {
	return s == Started || s == Paused
}

// IsActive is the UI-facing alias of IsCurrent.
func (s Status) IsActive() bool {
	return s.IsCurrent()
}

func (s Status) HasStarted() bool {
	return s == Started
}

func (s Status) IsPaused() bool {
	return s == Paused
}

// IsTerminated reports whether the activity reached a terminal state.
func (s Status) IsTerminated() bool {
	return s == Cancelled || s == Completed
}

// CanTransitionTo reports whether a transition from s to next is allowed.
// Planned may start or be cancelled outright; Started and Paused may swap
// or terminate; terminal states accept nothing.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case Planned:
		return next == Started || next == Cancelled
	case Started:
		return next == Paused || next == Cancelled || next == Completed
	case Paused:
		return next == Started || next == Cancelled || next == Completed
	default:
		return false
	}
}

// StatusForDeparture assigns the creation-time status from the requested
// departure. Departures more than a minute in the past are rejected; a
// departure within the next five minutes means the trip starts immediately.
func StatusForDeparture(departure, now time.Time) (Status, error) {
	if departure.Before(now.Add(-departurePastTolerance)) {
		return Planned, fmt.Errorf("%w: departure time cannot be in the past", ErrValidation)
	}
	if !departure.After(now.Add(departureStartWindow)) {
		return Started, nil
	}
	return Planned, nil
}
