package pump

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names, shared with the status command.
const (
	MetricConnectAttempts      = "pump1090_connect_attempts_total"
	MetricConnections          = "pump1090_connections_total"
	MetricConnected            = "pump1090_connected"
	MetricCycles               = "pump1090_cycles_total"
	MetricPayloadsSent         = "pump1090_payloads_sent_total"
	MetricPayloadBytes         = "pump1090_payload_bytes_total"
	MetricReadFailures         = "pump1090_read_failures_total"
	MetricSendFailures         = "pump1090_send_failures_total"
	MetricTriggersDeduplicated = "pump1090_triggers_deduplicated_total"
	MetricRunCount             = "pump1090_run_count"
	MetricTriggerFailures      = "pump1090_trigger_start_failures_total"
)

// Metrics holds the pump's instruments.
type Metrics struct {
	reg *prometheus.Registry

	ConnectAttempts      prometheus.Counter
	Connections          prometheus.Counter
	Connected            prometheus.Gauge
	Cycles               prometheus.Counter
	PayloadsSent         prometheus.Counter
	PayloadBytes         prometheus.Counter
	ReadFailures         *prometheus.CounterVec
	SendFailures         *prometheus.CounterVec
	TriggersDeduplicated prometheus.Counter
	RunCount             prometheus.Gauge
	TriggerFailures      prometheus.Counter
}

// NewMetrics creates the instruments on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		ConnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricConnectAttempts,
			Help: "Connection attempts, successful or not.",
		}),
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricConnections,
			Help: "Connections established.",
		}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricConnected,
			Help: "1 while a connection is live.",
		}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCycles,
			Help: "Read/send cycles started.",
		}),
		PayloadsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPayloadsSent,
			Help: "Payloads delivered.",
		}),
		PayloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPayloadBytes,
			Help: "Bytes of payload delivered.",
		}),
		ReadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricReadFailures,
			Help: "Cycles skipped because the file could not be read or parsed.",
		}, []string{"kind"}),
		SendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSendFailures,
			Help: "Sends that failed and ended a session.",
		}, []string{"stage"}),
		TriggersDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricTriggersDeduplicated,
			Help: "Trigger events ignored because their token was already seen.",
		}),
		RunCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricRunCount,
			Help: "Payloads delivered on the current connection.",
		}),
		TriggerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricTriggerFailures,
			Help: "Failed attempts to start the trigger source.",
		}),
	}
	m.reg.MustRegister(
		m.ConnectAttempts,
		m.Connections,
		m.Connected,
		m.Cycles,
		m.PayloadsSent,
		m.PayloadBytes,
		m.ReadFailures,
		m.SendFailures,
		m.TriggersDeduplicated,
		m.RunCount,
		m.TriggerFailures,
	)
	return m
}

// Registry returns the registry the instruments are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
