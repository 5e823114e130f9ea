package status

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/pump1090/pump1090/pump/internal/pump"
)

const defaultTimeout = 5 * time.Second

// Report is a point-in-time summary of a pump's counters.
type Report struct {
	Connected       bool
	ConnectAttempts float64
	Connections     float64
	Cycles          float64
	PayloadsSent    float64
	PayloadBytes    float64
	Deduplicated    float64
	RunCount        float64

	// ReadFailures and SendFailures are keyed by their kind/stage label.
	ReadFailures map[string]float64
	SendFailures map[string]float64
}

// Fetch scrapes addr, which is host:port or a full /metrics URL.
func Fetch(ctx context.Context, client *http.Client, addr string) (*Report, error) {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	mfs, err := fetchMetrics(ctx, client, metricsURL(addr))
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return fromFamilies(mfs), nil
}

func metricsURL(addr string) string {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	if !strings.HasSuffix(addr, "/metrics") {
		addr = strings.TrimSuffix(addr, "/") + "/metrics"
	}
	return addr
}

func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a text exposition. A partial parse still counts as
// success.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse metrics text: %w", err)
	}
	return mfs, nil
}

func fromFamilies(mfs map[string]*dto.MetricFamily) *Report {
	return &Report{
		Connected:       sumFamily(mfs[pump.MetricConnected]) > 0,
		ConnectAttempts: sumFamily(mfs[pump.MetricConnectAttempts]),
		Connections:     sumFamily(mfs[pump.MetricConnections]),
		Cycles:          sumFamily(mfs[pump.MetricCycles]),
		PayloadsSent:    sumFamily(mfs[pump.MetricPayloadsSent]),
		PayloadBytes:    sumFamily(mfs[pump.MetricPayloadBytes]),
		Deduplicated:    sumFamily(mfs[pump.MetricTriggersDeduplicated]),
		RunCount:        sumFamily(mfs[pump.MetricRunCount]),
		ReadFailures:    byLabel(mfs[pump.MetricReadFailures], "kind"),
		SendFailures:    byLabel(mfs[pump.MetricSendFailures], "stage"),
	}
}

// sumFamily adds up every counter, gauge or untyped sample in mf. A missing
// family sums to 0.
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		total += value(m)
	}
	return total
}

func byLabel(mf *dto.MetricFamily, label string) map[string]float64 {
	out := make(map[string]float64)
	if mf == nil {
		return out
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label {
				out[lp.GetValue()] += value(m)
			}
		}
	}
	return out
}

func value(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	}
	return 0
}

// Write prints the report as aligned key/value lines.
func (r *Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	state := "disconnected"
	if r.Connected {
		state = "connected"
	}
	fmt.Fprintf(tw, "state\t%s\n", state)
	fmt.Fprintf(tw, "connect attempts\t%.0f\n", r.ConnectAttempts)
	fmt.Fprintf(tw, "connections\t%.0f\n", r.Connections)
	fmt.Fprintf(tw, "cycles\t%.0f\n", r.Cycles)
	fmt.Fprintf(tw, "payloads sent\t%.0f\n", r.PayloadsSent)
	fmt.Fprintf(tw, "bytes sent\t%.0f\n", r.PayloadBytes)
	fmt.Fprintf(tw, "sent on this connection\t%.0f\n", r.RunCount)
	fmt.Fprintf(tw, "duplicate triggers\t%.0f\n", r.Deduplicated)
	writeLabelled(tw, "read failures", r.ReadFailures)
	writeLabelled(tw, "send failures", r.SendFailures)
	return tw.Flush()
}

func writeLabelled(w io.Writer, name string, m map[string]float64) {
	keys := make([]string, 0, len(m))
	var total float64
	for k, v := range m {
		keys = append(keys, k)
		total += v
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "%s\t%.0f", name, total)
	for _, k := range keys {
		fmt.Fprintf(w, " %s=%.0f", k, m[k])
	}
	fmt.Fprintln(w)
}
