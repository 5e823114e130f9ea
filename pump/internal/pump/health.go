package pump

import (
	"sync/atomic"
	"time"
)

// Health is a lock-free view of the pump's state for the /healthz probe.
type Health struct {
	connected  atomic.Bool
	lastSendAt atomic.Int64
	runCount   atomic.Int64
	session    atomic.Value // string
}

func (h *Health) setConnected(ok bool, session string) {
	h.connected.Store(ok)
	h.session.Store(session)
	if ok {
		h.runCount.Store(0)
	}
}

func (h *Health) markSent(ts time.Time, runCount int) {
	h.lastSendAt.Store(ts.UnixNano())
	h.runCount.Store(int64(runCount))
}

// Connected reports whether a connection is currently live.
func (h *Health) Connected() bool { return h.connected.Load() }

// Snapshot returns the state as a JSON-ready map.
func (h *Health) Snapshot() map[string]any {
	out := map[string]any{
		"connected": h.connected.Load(),
		"run_count": h.runCount.Load(),
	}
	if s, _ := h.session.Load().(string); s != "" {
		out["session"] = s
	}
	if v := h.lastSendAt.Load(); v > 0 {
		out["last_send_at"] = time.Unix(0, v).UTC()
	}
	return out
}
