package conn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/pump1090/pump1090/pkg/types"
)

// maxResponseBody caps how much of a response is read.
const maxResponseBody = 64 << 10

type httpDialer struct {
	client *http.Client
	logger *slog.Logger
}

func newHTTPDialer(opts DialOptions) *httpDialer {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = opts.TLS
	return &httpDialer{
		client: &http.Client{Transport: tr},
		logger: opts.Logger,
	}
}

// Dial never touches the network: each Send is an independent request.
func (h *httpDialer) Dial(_ context.Context, ep Endpoint) (Connection, error) {
	return &httpConn{client: h.client, url: ep.URL.String(), logger: h.logger}, nil
}

type httpConn struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

func (h *httpConn) Ping(context.Context) error { return nil }

// Send POSTs payload. Only transport and body-read errors are failures. Any
// response that arrives counts as delivered; its {"status": ...} body is
// logged, at warn level when the status code is not 2xx.
func (h *httpConn) Send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("conn: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("conn: post %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("conn: read response: %w", err)
	}

	var pr types.PumpResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		h.logger.Warn("conn: unparsable response body", "url", h.url, "code", resp.StatusCode, "err", err)
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Warn("conn: server rejected payload", "url", h.url, "code", resp.StatusCode, "status", pr.Status)
		return nil
	}
	h.logger.Debug("conn: server response", "code", resp.StatusCode, "status", pr.Status)
	return nil
}

func (h *httpConn) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
