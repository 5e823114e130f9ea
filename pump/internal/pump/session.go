package pump

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pump1090/pump1090/pump/internal/conn"
	"github.com/pump1090/pump1090/pump/internal/source"
	"github.com/pump1090/pump1090/pump/internal/trigger"
)

var (
	// ErrConnectionLost ends a session after a failed send.
	ErrConnectionLost = errors.New("pump: connection lost")
	// ErrTriggerClosed ends a session when its trigger source stops.
	ErrTriggerClosed = errors.New("pump: trigger source closed")
)

// session is one connected period. It owns c until it returns.
type session struct {
	id        string
	c         conn.Connection
	runCount  int
	lastToken string
	logger    *slog.Logger
}

func (p *Pump) newSession(c conn.Connection) *session {
	id := uuid.NewString()
	return &session{id: id, c: c, logger: p.logger.With("session", id)}
}

// runSession processes events until a send fails, the trigger closes or ctx ends.
// The connection is closed on every exit path.
func (p *Pump) runSession(ctx context.Context, s *session, events <-chan trigger.Event) error {
	defer func() {
		if s.c != nil {
			s.c.Close()
			s.c = nil
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return ErrTriggerClosed
			}
			if err := p.cycle(ctx, s, ev); err != nil {
				return err
			}
		}
	}
}

// cycle handles a single trigger event. It returns an error only when the
// connection has been lost.
func (p *Pump) cycle(ctx context.Context, s *session, ev trigger.Event) error {
	if ev.Token != "" && ev.Token == s.lastToken {
		p.metrics.TriggersDeduplicated.Inc()
		s.logger.Debug("pump: duplicate trigger ignored", "token", ev.Token, "op", ev.Op)
		return nil
	}
	s.lastToken = ev.Token
	p.metrics.Cycles.Inc()

	payload, err := p.reader.Read(p.path)
	if err != nil {
		kind := "read"
		if errors.Is(err, source.ErrParse) {
			kind = "parse"
		}
		p.metrics.ReadFailures.WithLabelValues(kind).Inc()
		s.logger.Warn("pump: read failed, skipping cycle", "path", p.path, "kind", kind, "err", err)
		return nil
	}

	next, err := p.connector.Send(ctx, s.c, payload.Data)
	if err != nil {
		s.c = nil
		stage := "unknown"
		var se *conn.SendError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		p.metrics.SendFailures.WithLabelValues(stage).Inc()
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	s.c = next
	s.runCount++

	p.metrics.PayloadsSent.Inc()
	p.metrics.PayloadBytes.Add(float64(len(payload.Data)))
	p.metrics.RunCount.Set(float64(s.runCount))
	p.health.markSent(time.Now(), s.runCount)
	s.logger.Debug("pump: payload sent", "run", s.runCount, "bytes", len(payload.Data), "op", ev.Op)
	return nil
}
