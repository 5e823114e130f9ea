package pump

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pump1090/pump1090/pump/internal/config"
	"github.com/pump1090/pump1090/pump/internal/conn"
	"github.com/pump1090/pump1090/pump/internal/source"
	"github.com/pump1090/pump1090/pump/internal/trigger"
)

// Connector is the part of conn.Manager the pump depends on.
type Connector interface {
	Connect(ctx context.Context) (conn.Connection, error)
	Send(ctx context.Context, c conn.Connection, payload []byte) (conn.Connection, error)
}

// Reader produces the payload for one cycle.
type Reader interface {
	Read(path string) (source.Payload, error)
}

// TriggerFunc starts the trigger source for a run.
type TriggerFunc func(ctx context.Context) (trigger.Source, error)

// Pump forwards the data file to the endpoint until its context ends.
type Pump struct {
	path       string
	connector  Connector
	reader     Reader
	newTrigger TriggerFunc
	retry      time.Duration
	logger     *slog.Logger
	metrics    *Metrics
	health     *Health
}

// New builds a pump from a validated configuration. Errors are configuration
// failures.
func New(cfg *config.Config, logger *slog.Logger) (*Pump, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ep, err := conn.ParseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	tc, err := conn.TLSConfig(cfg.TLS.CAFile, cfg.TLS.InsecureSkipVerify)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	connLogger := logger.With("component", "conn")
	dialer, err := conn.NewDialer(ep, conn.DialOptions{
		TLS:    tc,
		Secret: cfg.Secret,
		Logger: connLogger,
	})
	if err != nil {
		return nil, err
	}

	reader, err := source.NewReader(source.Mode(cfg.Mode), cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	metrics := NewMetrics()
	mgr := conn.NewManager(ep, dialer, conn.Options{
		Backoff:      cfg.Backoff,
		WriteTimeout: cfg.WriteTimeout,
		TLS:          tc,
		Logger:       connLogger,
		OnAttempt:    func(int, error) { metrics.ConnectAttempts.Inc() },
	})

	triggerLogger := logger.With("component", "trigger")
	newTrigger := func(ctx context.Context) (trigger.Source, error) {
		if cfg.Trigger == config.TriggerWatch {
			return trigger.NewWatcher(ctx, cfg.Path, triggerLogger)
		}
		return trigger.NewTicker(ctx, cfg.Interval)
	}

	p := newPump(cfg.Path, mgr, reader, newTrigger, logger.With("component", "pump"), metrics)
	p.retry = cfg.Backoff
	return p, nil
}

func newPump(path string, c Connector, r Reader, t TriggerFunc, logger *slog.Logger, m *Metrics) *Pump {
	if m == nil {
		m = NewMetrics()
	}
	return &Pump{
		path:       path,
		connector:  c,
		reader:     r,
		newTrigger: t,
		retry:      conn.DefaultBackoff,
		logger:     logger,
		metrics:    m,
		health:     &Health{},
	}
}

// Metrics returns the pump's instruments.
func (p *Pump) Metrics() *Metrics { return p.metrics }

// Health returns the pump's health view.
func (p *Pump) Health() *Health { return p.health }

// Run connects, runs a session until the connection is lost, and repeats.
// A trigger source that cannot start yet, such as a watch on a directory
// that does not exist, is retried at the backoff interval. Run returns nil
// when ctx is cancelled and an error only if the trigger source stops on
// its own.
func (p *Pump) Run(ctx context.Context) error {
	src, err := p.startTrigger(ctx)
	if err != nil {
		p.logger.Info("pump: stopped")
		return nil
	}
	defer src.Close()

	p.logger.Info("pump: started", "path", p.path)

	for {
		c, err := p.connector.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("pump: connect: %w", err)
		}

		// Triggers that fired while disconnected are not replayed.
		drain(src.Events())

		s := p.newSession(c)
		p.metrics.Connections.Inc()
		p.metrics.Connected.Set(1)
		p.metrics.RunCount.Set(0)
		p.health.setConnected(true, s.id)
		s.logger.Info("pump: session started")

		err = p.runSession(ctx, s, src.Events())

		p.metrics.Connected.Set(0)
		p.health.setConnected(false, "")

		if ctx.Err() != nil {
			break
		}
		if errors.Is(err, ErrTriggerClosed) {
			return err
		}
		s.logger.Warn("pump: session ended, reconnecting", "runs", s.runCount, "err", err)
	}

	p.logger.Info("pump: stopped")
	return nil
}

// startTrigger creates the trigger source, retrying until it starts or ctx
// ends. The only error it returns is the context's.
func (p *Pump) startTrigger(ctx context.Context) (trigger.Source, error) {
	for attempt := 1; ; attempt++ {
		src, err := p.newTrigger(ctx)
		if err == nil {
			return src, nil
		}
		p.metrics.TriggerFailures.Inc()
		p.logger.Warn("pump: trigger unavailable, retrying",
			"attempt", attempt, "retry_in", p.retry, "err", err)
		if err := sleep(ctx, p.retry); err != nil {
			return nil, err
		}
	}
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

func drain(ch <-chan trigger.Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
