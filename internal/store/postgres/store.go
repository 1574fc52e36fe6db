// Package postgres implements the store contract on a local database for
// self-hosted deployments.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/db"
	"backend-staysafe/internal/store"

	"github.com/jackc/pgx/v5"
)

type Store struct {
	db db.Querier
}

func New(q db.Querier) *Store {
	return &Store{db: q}
}

const activityColumns = `
	SELECT a.id, a.name, a.user_id, COALESCE(a.username,''), a.description,
	       a.from_id, COALESCE(lf.name,''), a.leave_time,
	       a.to_id, COALESCE(lt.name,''), a.arrive_time, a.status_id
	FROM activities a
	LEFT JOIN locations lf ON lf.id = a.from_id
	LEFT JOIN locations lt ON lt.id = a.to_id`

func (s *Store) GetActivity(ctx context.Context, id int) (activity.Activity, error) {
	row := s.db.QueryRow(ctx, activityColumns+` WHERE a.id=$1`, id)
	return scanActivity(row)
}

func (s *Store) CreateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO activities (name, user_id, username, description, from_id, to_id, leave_time, arrive_time, status_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, act.Name, act.UserID, act.Username, act.Description, act.FromID, act.ToID, act.Leave, act.Arrive, int(act.StatusID))
	if err := row.Scan(&act.ID); err != nil {
		return activity.Activity{}, fmt.Errorf("create activity: %w", err)
	}
	act.SetStatus(act.StatusID)
	return act, nil
}

func (s *Store) UpdateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE activities
		SET name=$2, description=$3, from_id=$4, to_id=$5, leave_time=$6, arrive_time=$7, status_id=$8
		WHERE id=$1
	`, act.ID, act.Name, act.Description, act.FromID, act.ToID, act.Leave, act.Arrive, int(act.StatusID))
	if err != nil {
		return activity.Activity{}, fmt.Errorf("update activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return activity.Activity{}, fmt.Errorf("%w: activity %d", store.ErrNotFound, act.ID)
	}
	return s.GetActivity(ctx, act.ID)
}

func (s *Store) ListUserActivities(ctx context.Context, userID int) ([]activity.Activity, error) {
	rows, err := s.db.Query(ctx, activityColumns+` WHERE a.user_id=$1 ORDER BY a.leave_time`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []activity.Activity
	for rows.Next() {
		act, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, act)
	}
	return activities, nil
}

func (s *Store) GetLocation(ctx context.Context, id int) (activity.Location, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, COALESCE(description,''), COALESCE(address,''), latitude, longitude
		FROM locations WHERE id=$1
	`, id)
	var loc activity.Location
	if err := row.Scan(&loc.ID, &loc.Name, &loc.Description, &loc.Address, &loc.Latitude, &loc.Longitude); err != nil {
		return activity.Location{}, mapScanErr(err)
	}
	return loc, nil
}

func (s *Store) CreateLocation(ctx context.Context, loc activity.Location) (activity.Location, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO locations (name, description, address, latitude, longitude)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, loc.Name, loc.Description, loc.Address, loc.Latitude, loc.Longitude)
	if err := row.Scan(&loc.ID); err != nil {
		return activity.Location{}, fmt.Errorf("create location: %w", err)
	}
	return loc, nil
}

func (s *Store) CreatePosition(ctx context.Context, pos activity.Position) (activity.Position, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO positions (activity_id, latitude, longitude, recorded_at)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, pos.ActivityID, pos.Latitude, pos.Longitude, pos.Timestamp)
	if err := row.Scan(&pos.ID); err != nil {
		return activity.Position{}, fmt.Errorf("create position: %w", err)
	}
	return pos, nil
}

func (s *Store) ListPositions(ctx context.Context, activityID int) ([]activity.Position, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, activity_id, latitude, longitude, recorded_at
		FROM positions WHERE activity_id=$1
		ORDER BY recorded_at
	`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []activity.Position
	for rows.Next() {
		var pos activity.Position
		if err := rows.Scan(&pos.ID, &pos.ActivityID, &pos.Latitude, &pos.Longitude, &pos.Timestamp); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

func scanActivity(row pgx.Row) (activity.Activity, error) {
	var act activity.Activity
	var statusID int
	err := row.Scan(&act.ID, &act.Name, &act.UserID, &act.Username, &act.Description,
		&act.FromID, &act.FromName, &act.Leave,
		&act.ToID, &act.ToName, &act.Arrive, &statusID)
	if err != nil {
		return activity.Activity{}, mapScanErr(err)
	}
	act.SetStatus(activity.Status(statusID))
	return act, nil
}

func mapScanErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	return err
}
