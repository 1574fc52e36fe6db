// Package rest implements the store contract against the hosted StaySafe
// REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/store"
)

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) GetActivity(ctx context.Context, id int) (activity.Activity, error) {
	var act activity.Activity
	err := c.do(ctx, http.MethodGet, "/activities/"+strconv.Itoa(id), nil, &act)
	return act, err
}

func (c *Client) CreateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	var created activity.Activity
	err := c.do(ctx, http.MethodPost, "/activities", act, &created)
	return created, err
}

func (c *Client) UpdateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	var updated activity.Activity
	err := c.do(ctx, http.MethodPut, "/activities/"+strconv.Itoa(act.ID), act, &updated)
	return updated, err
}

func (c *Client) ListUserActivities(ctx context.Context, userID int) ([]activity.Activity, error) {
	var activities []activity.Activity
	err := c.do(ctx, http.MethodGet, "/activities/users/"+strconv.Itoa(userID), nil, &activities)
	return activities, err
}

func (c *Client) GetLocation(ctx context.Context, id int) (activity.Location, error) {
	var loc activity.Location
	err := c.do(ctx, http.MethodGet, "/locations/"+strconv.Itoa(id), nil, &loc)
	return loc, err
}

func (c *Client) CreateLocation(ctx context.Context, loc activity.Location) (activity.Location, error) {
	var created activity.Location
	err := c.do(ctx, http.MethodPost, "/locations", loc, &created)
	return created, err
}

func (c *Client) CreatePosition(ctx context.Context, pos activity.Position) (activity.Position, error) {
	var created activity.Position
	err := c.do(ctx, http.MethodPost, "/positions", pos, &created)
	return created, err
}

func (c *Client) ListPositions(ctx context.Context, activityID int) ([]activity.Position, error) {
	var positions []activity.Position
	err := c.do(ctx, http.MethodGet, "/positions/activities/"+strconv.Itoa(activityID), nil, &positions)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].Timestamp < positions[j].Timestamp
	})
	return positions, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", store.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", store.ErrNotFound, method, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return store.RejectedError(resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", store.ErrDecode, method, path, err)
	}
	return nil
}
