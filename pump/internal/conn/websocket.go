package conn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type wsDialer struct {
	d      *websocket.Dialer
	logger *slog.Logger
}

func newWSDialer(opts DialOptions) *wsDialer {
	return &wsDialer{
		d: &websocket.Dialer{
			HandshakeTimeout: opts.DialTimeout,
			TLSClientConfig:  opts.TLS,
		},
		logger: opts.Logger,
	}
}

func (w *wsDialer) Dial(ctx context.Context, ep Endpoint) (Connection, error) {
	c, resp, err := w.d.DialContext(ctx, ep.Raw, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("conn: websocket dial %s: %w (status %d)", ep.Raw, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("conn: websocket dial %s: %w", ep.Raw, err)
	}
	wc := &wsConn{c: c, logger: w.logger, gone: make(chan struct{})}
	go wc.readLoop()
	return wc, nil
}

// wsConn is a websocket connection. The pump never expects application
// messages back; readLoop exists so control frames are processed and a close
// from the peer is noticed.
type wsConn struct {
	c      *websocket.Conn
	logger *slog.Logger

	gone    chan struct{}
	readErr error
	once    sync.Once
}

func (w *wsConn) readLoop() {
	defer close(w.gone)
	for {
		if _, _, err := w.c.NextReader(); err != nil {
			w.readErr = err
			return
		}
	}
}

// Ping writes a ping control frame. It fails once the peer has gone away.
func (w *wsConn) Ping(ctx context.Context) error {
	select {
	case <-w.gone:
		return fmt.Errorf("conn: websocket peer gone: %w", w.readErr)
	default:
	}
	if err := w.c.WriteControl(websocket.PingMessage, nil, deadline(ctx)); err != nil {
		return fmt.Errorf("conn: websocket ping: %w", err)
	}
	return nil
}

// Send writes payload as a single text frame.
func (w *wsConn) Send(ctx context.Context, payload []byte) error {
	if err := w.c.SetWriteDeadline(deadline(ctx)); err != nil {
		return fmt.Errorf("conn: websocket deadline: %w", err)
	}
	if err := w.c.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("conn: websocket write: %w", err)
	}
	return nil
}

func (w *wsConn) Close() error {
	var err error
	w.once.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := w.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); werr != nil {
			w.logger.Debug("conn: websocket close frame", "err", werr)
		}
		err = w.c.Close()
	})
	return err
}

// deadline returns ctx's deadline, or the default write timeout from now.
func deadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Now().Add(DefaultWriteTimeout)
}
