package assignment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"tiffin/internal/config"
)

// Waypoint is one stop on a rider's route.
type Waypoint struct {
	DeliveryID uint    `json:"delivery_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// RoutePlanner reorders a rider's stops using an external directions
// service. Any failure falls back to the input order; route optimization
// is best-effort and must never block dispatch.
type RoutePlanner struct {
	baseURL string
	client  *http.Client
}

func NewRoutePlanner() *RoutePlanner {
	return &RoutePlanner{
		baseURL: config.GetEnv("ROUTE_SERVICE_URL", "https://router.project-osrm.org"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type tripResponse struct {
	Code      string `json:"code"`
	Waypoints []struct {
		WaypointIndex int `json:"waypoint_index"`
	} `json:"waypoints"`
}

// Optimize returns the waypoints in visiting order. The first waypoint is
// pinned as the start of the trip.
func (p *RoutePlanner) Optimize(ctx context.Context, waypoints []Waypoint) []Waypoint {
	if len(waypoints) < 3 {
		return waypoints
	}

	coords := make([]string, 0, len(waypoints))
	for _, w := range waypoints {
		coords = append(coords, fmt.Sprintf("%f,%f", w.Longitude, w.Latitude))
	}
	url := fmt.Sprintf("%s/trip/v1/driving/%s?source=first&roundtrip=false", p.baseURL, strings.Join(coords, ";"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return waypoints
	}
	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("Route optimization unavailable, keeping input order: %v", err)
		return waypoints
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return waypoints
	}

	var trip tripResponse
	if err := json.NewDecoder(resp.Body).Decode(&trip); err != nil || trip.Code != "Ok" {
		return waypoints
	}
	if len(trip.Waypoints) != len(waypoints) {
		return waypoints
	}

	ordered := make([]Waypoint, len(waypoints))
	for i, w := range trip.Waypoints {
		if w.WaypointIndex < 0 || w.WaypointIndex >= len(waypoints) {
			return waypoints
		}
		ordered[w.WaypointIndex] = waypoints[i]
	}
	return ordered
}
