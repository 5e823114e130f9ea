package receiver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"google.golang.org/grpc"

	"github.com/pump1090/pump1090/pkg/types"
)

// Transport names used in logs and the "transport" metrics label.
const (
	TransportWebSocket = "websocket"
	TransportHTTP      = "http"
	TransportGRPC      = "grpc"
)

// maxFrameBytes bounds a single aircraft.json frame.
const maxFrameBytes = 4 << 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	// Pumps are not browsers; origin checks do not apply.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// receive runs accept and records the outcome.
func (r *Receiver) receive(logger *slog.Logger, transport string, raw []byte, authenticated bool) (types.PumpResponse, error) {
	resp, err := r.accept(raw, authenticated)
	r.metrics.observe(transport, resultOf(resp, err))
	if err != nil {
		logger.Warn("receiver: frame rejected", "transport", transport, "bytes", len(raw), "err", err)
		return resp, err
	}
	logger.Debug("receiver: frame received", "transport", transport, "status", resp.Status)
	return resp, nil
}

// WebSocketHandler serves the persistent pump connection. Each text or
// binary message is one frame; rejected frames are logged and the connection
// stays open. Pings from the pump are answered by the websocket library
// while the read loop runs.
func (r *Receiver) WebSocketHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			// Upgrade has already written an error response.
			return
		}
		defer conn.Close()
		conn.SetReadLimit(maxFrameBytes)

		logger := r.logger.With("conn", uuid.NewString(), "remote", req.RemoteAddr)
		logger.Info("receiver: pump connected")

		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warn("receiver: pump connection lost", "err", err)
				} else {
					logger.Info("receiver: pump disconnected")
				}
				return
			}
			if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
				continue
			}
			_, _ = r.receive(logger, TransportWebSocket, data, false)
		}
	})
}

// HTTPHandler serves single-shot POSTs. The body is one frame; the response
// is a PumpResponse whose status is "ok", "ignored" or the rejection reason.
func (r *Receiver) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeResponse(w, http.StatusMethodNotAllowed, types.PumpResponse{Status: "method not allowed"})
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxFrameBytes))
		if err != nil {
			writeResponse(w, http.StatusRequestEntityTooLarge, types.PumpResponse{Status: err.Error()})
			return
		}

		logger := r.logger.With("remote", req.RemoteAddr)
		resp, err := r.receive(logger, TransportHTTP, body, false)
		if err != nil {
			writeResponse(w, statusCode(err), types.PumpResponse{Status: err.Error()})
			return
		}
		writeResponse(w, http.StatusOK, resp)
	})
}

// HandleFrame implements pumpgrpc.FrameHandler. The stream was authenticated
// by its metadata before the first frame arrived. Rejections are logged by
// the stream handler.
func (r *Receiver) HandleFrame(stream grpc.ServerStream, frame json.RawMessage) error {
	resp, err := r.accept(frame, true)
	r.metrics.observe(TransportGRPC, resultOf(resp, err))
	return err
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, ErrSecret):
		return http.StatusUnauthorized
	case errors.Is(err, ErrMalformed):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeResponse(w http.ResponseWriter, code int, resp types.PumpResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
