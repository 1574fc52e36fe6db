// Package store defines the activity/location/position persistence contract
// consumed by the tracking engine. Implementations live in the rest and
// postgres subpackages and are interchangeable.
package store

import (
	"context"
	"errors"
	"fmt"

	"backend-staysafe/internal/activity"
)

var (
	// ErrNetwork means the request never completed.
	ErrNetwork = errors.New("network failure")
	// ErrRejected means the store answered with a non-success status.
	ErrRejected = errors.New("server rejected request")
	// ErrDecode means the store answered with a malformed payload.
	ErrDecode = errors.New("malformed response")
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")
)

// Store is the backing service for activities, locations and positions.
// Every method is a suspension point; callers must tolerate any of the
// sentinel errors above.
type Store interface {
	GetActivity(ctx context.Context, id int) (activity.Activity, error)
	CreateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error)
	UpdateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error)
	ListUserActivities(ctx context.Context, userID int) ([]activity.Activity, error)

	GetLocation(ctx context.Context, id int) (activity.Location, error)
	CreateLocation(ctx context.Context, loc activity.Location) (activity.Location, error)

	CreatePosition(ctx context.Context, pos activity.Position) (activity.Position, error)
	// ListPositions returns the samples for an activity in non-decreasing
	// timestamp order regardless of how the backend returns them.
	ListPositions(ctx context.Context, activityID int) ([]activity.Position, error)
}

// RejectedError wraps ErrRejected with the offending status code.
func RejectedError(status int) error {
	return fmt.Errorf("%w: status %d", ErrRejected, status)
}
