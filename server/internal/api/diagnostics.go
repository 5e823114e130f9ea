package api

import (
	"github.com/pump1090/pump1090/pkg/types"
	"github.com/pump1090/pump1090/server/internal/store"
)

// Exclusion reasons reported by GET /aircraft/excluded.
const (
	ReasonNoPosition = "no_position"
	ReasonNoCallsign = "no_callsign"
	ReasonNoSeen     = "no_seen"
	ReasonNotRecent  = "not_recent"
)

// exclusionReasons lists why a fails store.IsValid, in a stable order.
// A valid aircraft yields an empty, non-nil slice.
func exclusionReasons(a types.Aircraft) []string {
	reasons := []string{}
	if a.Lat == nil || a.Lon == nil {
		reasons = append(reasons, ReasonNoPosition)
	}
	if a.Flight == nil {
		reasons = append(reasons, ReasonNoCallsign)
	}
	switch {
	case a.Seen == nil:
		reasons = append(reasons, ReasonNoSeen)
	case *a.Seen >= store.FlightTimeout:
		reasons = append(reasons, ReasonNotRecent)
	}
	return reasons
}
