package receiver

import "github.com/prometheus/client_golang/prometheus"

// Frame results used as the "result" label.
const (
	ResultAccepted  = "accepted"
	ResultIgnored   = "ignored"
	ResultMalformed = "malformed"
	ResultSchema    = "schema"
	ResultSecret    = "secret"
	ResultStale     = "stale"
)

// Metrics counts received frames by transport and result.
type Metrics struct {
	Frames *prometheus.CounterVec
}

// NewMetrics creates the receiver metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "serve1090_frames_total",
			Help: "Pump frames received, by transport and result.",
		}, []string{"transport", "result"}),
	}
	reg.MustRegister(m.Frames)
	return m
}

func (m *Metrics) observe(transport, result string) {
	if m == nil {
		return
	}
	m.Frames.WithLabelValues(transport, result).Inc()
}
