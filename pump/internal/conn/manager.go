package conn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultBackoff is the fixed wait between connection attempts.
	DefaultBackoff = 5 * time.Second
	// DefaultWriteTimeout bounds each probe and each transmission.
	DefaultWriteTimeout = 10 * time.Second
)

// Send stages reported in SendError.Stage.
const (
	StageProbe    = "probe"
	StageTransmit = "transmit"
)

// ErrSendFailed is wrapped by every SendError.
var ErrSendFailed = errors.New("conn: send failed")

// SendError reports a failed Send. The connection it was issued on has been
// closed. Probe and transmit failures are handled the same way.
type SendError struct {
	Stage string
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("conn: send failed at %s: %v", e.Stage, e.Err)
}

func (e *SendError) Unwrap() []error { return []error{ErrSendFailed, e.Err} }

// Connection is one live link to the endpoint.
type Connection interface {
	// Ping checks that the peer is still reachable.
	Ping(ctx context.Context) error
	// Send transmits one payload.
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Dialer opens connections to an endpoint.
type Dialer interface {
	Dial(ctx context.Context, ep Endpoint) (Connection, error)
}

// Options configures a Manager. Zero values take the package defaults.
type Options struct {
	Backoff      time.Duration
	WriteTimeout time.Duration
	// TLS is used for the certificate check on secure endpoints.
	TLS    *tls.Config
	Logger *slog.Logger
	// OnAttempt is called after every connection attempt with its number
	// and the dial error, nil on success.
	OnAttempt func(attempt int, err error)
}

// Manager establishes connections and sends payloads over them.
type Manager struct {
	ep           Endpoint
	dialer       Dialer
	backoff      time.Duration
	writeTimeout time.Duration
	tlsConfig    *tls.Config
	logger       *slog.Logger
	onAttempt    func(int, error)

	// wait sleeps between attempts; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
	// checkCert inspects the peer certificate after a secure connect.
	checkCert func(ctx context.Context, ep Endpoint, cfg *tls.Config) *CertStatus
}

// NewManager returns a Manager for ep using d.
func NewManager(ep Endpoint, d Dialer, opts Options) *Manager {
	m := &Manager{
		ep:           ep,
		dialer:       d,
		backoff:      opts.Backoff,
		writeTimeout: opts.WriteTimeout,
		tlsConfig:    opts.TLS,
		logger:       opts.Logger,
		onAttempt:    opts.OnAttempt,
		wait:         sleep,
		checkCert:    CheckCert,
	}
	if m.backoff <= 0 {
		m.backoff = DefaultBackoff
	}
	if m.writeTimeout <= 0 {
		m.writeTimeout = DefaultWriteTimeout
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.onAttempt == nil {
		m.onAttempt = func(int, error) {}
	}
	return m
}

// Endpoint returns the endpoint this manager connects to.
func (m *Manager) Endpoint() Endpoint { return m.ep }

// Connect dials until a connection is established. Failures are logged and
// retried after the fixed backoff, without limit. The only error returned is
// ctx.Err() once the context is done.
func (m *Manager) Connect(ctx context.Context) (Connection, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, err := m.dialer.Dial(ctx, m.ep)
		m.onAttempt(attempt, err)
		if err == nil {
			m.logger.Info("conn: connected", "endpoint", m.ep.Raw, "transport", m.ep.Transport, "attempt", attempt)
			m.logCert(ctx)
			return c, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		m.logger.Error("conn: connect failed, will retry",
			"endpoint", m.ep.Raw,
			"attempt", attempt,
			"err", err,
			"retry_in", m.backoff)
		if err := m.wait(ctx, m.backoff); err != nil {
			return nil, err
		}
	}
}

// Send probes c and then transmits payload, each within the write timeout.
// On success the same connection is returned. On failure c is closed and a
// *SendError is returned.
func (m *Manager) Send(ctx context.Context, c Connection, payload []byte) (Connection, error) {
	if err := m.bounded(ctx, c.Ping); err != nil {
		return nil, m.fail(c, StageProbe, err)
	}
	send := func(ctx context.Context) error { return c.Send(ctx, payload) }
	if err := m.bounded(ctx, send); err != nil {
		return nil, m.fail(c, StageTransmit, err)
	}
	return c, nil
}

func (m *Manager) bounded(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.writeTimeout)
	defer cancel()
	return fn(ctx)
}

func (m *Manager) fail(c Connection, stage string, err error) error {
	if cerr := c.Close(); cerr != nil {
		m.logger.Debug("conn: close after failed send", "err", cerr)
	}
	return &SendError{Stage: stage, Err: err}
}

func (m *Manager) logCert(ctx context.Context) {
	cs := m.checkCert(ctx, m.ep, m.tlsConfig)
	if cs == nil {
		return
	}
	level := slog.LevelInfo
	if cs.Status != CertValid {
		level = slog.LevelWarn
	}
	m.logger.Log(ctx, level, "conn: peer certificate",
		"endpoint", cs.Endpoint,
		"status", cs.Status,
		"issuer", cs.Issuer,
		"not_after", cs.NotAfter,
		"days_left", cs.DaysLeft)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
