package api

import "github.com/pump1090/pump1090/pkg/types"

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	// State is "ok" once a snapshot has been accepted and "waiting" before.
	State         string  `json:"state"`
	AircraftCount int     `json:"aircraft_count"`
	Now           float64 `json:"now"`
	AgeSeconds    float64 `json:"age_seconds,omitempty"`
}

// AircraftResponse is one aircraft together with when it was last received.
type AircraftResponse struct {
	types.Aircraft
	LastSeen string `json:"last_seen,omitempty"`
}

// ExcludedResponse is one entry of GET /aircraft/excluded.
type ExcludedResponse struct {
	types.Aircraft
	Reasons []string `json:"reasons"`
}

// CountResponse is the payload for GET /aircraft/count.
type CountResponse struct {
	Count int `json:"count"`
}

// Picture is the full aircraft picture pushed to UI clients.
type Picture struct {
	Now         float64            `json:"now"`
	Messages    int64              `json:"messages"`
	Aircraft    []AircraftResponse `json:"aircraft"`
	GeneratedAt string             `json:"generated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}
