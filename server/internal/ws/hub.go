package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pump1090/pump1090/server/internal/api"
	"github.com/pump1090/pump1090/server/internal/store"
)

// EventPicture names every message the hub pushes.
const EventPicture = "picture"

const (
	writeTimeout = 10 * time.Second

	// A UI that has not answered a ping for idleLimit is gone.
	idleLimit    = time.Minute
	pingInterval = idleLimit * 9 / 10

	// Pictures queued per UI before it counts as slow.
	queueDepth = 8

	// UIs only send control frames.
	maxInbound = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  maxInbound,
	WriteBufferSize: 16 << 10,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Message is the envelope of a pushed picture.
type Message struct {
	Event string      `json:"event"`
	Data  api.Picture `json:"data"`
}

// Hub pushes the aircraft picture to every connected UI on a fixed interval.
type Hub struct {
	store    *store.Store
	interval time.Duration
	logger   *slog.Logger

	mu  sync.RWMutex
	uis map[*ui]struct{}
}

// ui is one browser connection and its outgoing queue. The queue is closed
// exactly once, by whoever removes the ui from the hub.
type ui struct {
	conn  *websocket.Conn
	queue chan []byte
}

// New returns a hub over st. A nil logger uses slog.Default.
func New(st *store.Store, interval time.Duration, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		store:    st,
		interval: interval,
		logger:   logger,
		uis:      make(map[*ui]struct{}),
	}
}

// Run pushes a picture each interval. When ctx ends every UI is sent a close
// frame and Run returns.
func (h *Hub) Run(ctx context.Context) {
	tick := time.NewTicker(h.interval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			h.push()
		case <-ctx.Done():
			h.dropAll()
			return
		}
	}
}

// ServeHTTP upgrades r and holds the connection until the UI leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	u := &ui{conn: conn, queue: make(chan []byte, queueDepth)}
	h.add(u, h.encodeOrLog())
	defer h.remove(u)
	h.logger.Debug("ws: ui connected", "remote", r.RemoteAddr)

	go u.writeLoop()
	u.readLoop()
}

// Count reports how many UIs are connected.
func (h *Hub) Count() int {
	h.mu.RLock()
	n := len(h.uis)
	h.mu.RUnlock()
	return n
}

// add registers u with the current picture already queued.
func (h *Hub) add(u *ui, current []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current != nil {
		u.queue <- current
	}
	h.uis[u] = struct{}{}
}

func (h *Hub) remove(u *ui) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.uis[u]; !ok {
		return
	}
	delete(h.uis, u)
	close(u.queue)
}

// push queues one picture for every UI. Queues are only closed under the
// write lock, so holding the read lock here keeps them open.
func (h *Hub) push() {
	msg := h.encodeOrLog()
	if msg == nil {
		return
	}

	h.mu.RLock()
	var lagging []*ui
	for u := range h.uis {
		select {
		case u.queue <- msg:
		default:
			lagging = append(lagging, u)
		}
	}
	h.mu.RUnlock()

	for _, u := range lagging {
		h.logger.Warn("ws: ui fell behind, disconnecting", "remote", u.conn.RemoteAddr().String())
		h.remove(u)
	}
}

func (h *Hub) encodeOrLog() []byte {
	b, err := json.Marshal(Message{Event: EventPicture, Data: api.BuildPicture(h.store)})
	if err != nil {
		h.logger.Error("ws: encode picture", "err", err)
		return nil
	}
	return b
}

func (h *Hub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for u := range h.uis {
		delete(h.uis, u)
		close(u.queue)
	}
}

func (u *ui) write(kind int, data []byte) error {
	if err := u.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return u.conn.WriteMessage(kind, data)
}

// writeLoop owns all writes to the connection. A closed queue ends it with a
// close frame.
func (u *ui) writeLoop() {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer u.conn.Close()

	for {
		var err error
		select {
		case msg, open := <-u.queue:
			if !open {
				u.write(websocket.CloseMessage, nil) //nolint:errcheck
				return
			}
			err = u.write(websocket.TextMessage, msg)
		case <-ping.C:
			err = u.write(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}

// readLoop returns when the connection fails. Oversized frames and missed
// pongs count as failures.
func (u *ui) readLoop() {
	defer u.conn.Close()
	u.conn.SetReadLimit(maxInbound)
	extend := func(string) error { return u.conn.SetReadDeadline(time.Now().Add(idleLimit)) }
	if extend("") != nil {
		return
	}
	u.conn.SetPongHandler(extend)
	for {
		if _, _, err := u.conn.ReadMessage(); err != nil {
			return
		}
	}
}
