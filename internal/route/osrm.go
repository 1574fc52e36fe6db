package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"backend-staysafe/internal/activity"
	"backend-staysafe/internal/shared/geo"
)

// OSRMClient implements Directions against an OSRM routing server.
type OSRMClient struct {
	base string
	http *http.Client
}

func NewOSRMClient(baseURL string) *OSRMClient {
	return &OSRMClient{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

func (c *OSRMClient) Route(ctx context.Context, origin, dest geo.Point, mode activity.TransportMode) (Route, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full",
		c.base, osrmProfile(mode), origin.Lng, origin.Lat, dest.Lng, dest.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Route{}, fmt.Errorf("build directions request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Route{}, fmt.Errorf("directions request: status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Route{}, fmt.Errorf("decode directions response: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return Route{}, ErrRouteUnavailable
	}

	best := body.Routes[0]
	return Route{
		Duration: time.Duration(best.Duration * float64(time.Second)),
		Polyline: best.Geometry,
	}, nil
}

// osrmProfile maps transport modes onto OSRM profiles. OSRM has no transit
// profile, so transit trips fall back to driving estimates.
func osrmProfile(mode activity.TransportMode) string {
	switch mode {
	case activity.ModeWalking:
		return "foot"
	case activity.ModeTransit:
		return "driving"
	default:
		return "driving"
	}
}
