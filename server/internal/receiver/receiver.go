package receiver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pump1090/pump1090/pkg/types"
	"github.com/pump1090/pump1090/server/internal/auth"
	"github.com/pump1090/pump1090/server/internal/store"
)

// Response statuses.
const (
	StatusOK      = "ok"
	StatusIgnored = "ignored"
)

var (
	// ErrMalformed means the frame is not a JSON document.
	ErrMalformed = errors.New("receiver: malformed json")
	// ErrSchema means the frame is JSON but not an aircraft.json document.
	ErrSchema = errors.New("receiver: schema violation")
	// ErrSecret means the frame's secret does not match the configured one.
	ErrSecret = errors.New("receiver: invalid secret")
	// ErrStale means the frame's now is older than MaxDataAge.
	ErrStale = errors.New("receiver: stale data")
)

// Options configures a Receiver.
type Options struct {
	// Secret is the expected device secret. Empty accepts every pump.
	Secret string
	// MaxDataAge rejects snapshots older than this. 0 disables the check.
	MaxDataAge time.Duration
	Logger     *slog.Logger
	// Metrics is optional.
	Metrics *Metrics
}

// Receiver validates pump frames and stores the snapshots they carry.
type Receiver struct {
	store   *store.Store
	schema  *gojsonschema.Schema
	secret  string
	maxAge  time.Duration
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time // injectable for deterministic tests
}

// New creates a Receiver that writes accepted snapshots to st.
func New(st *store.Store, opts Options) (*Receiver, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Receiver{
		store:   st,
		schema:  schema,
		secret:  opts.Secret,
		maxAge:  opts.MaxDataAge,
		logger:  logger,
		metrics: opts.Metrics,
		now:     time.Now,
	}, nil
}

// Accept validates raw and stores the snapshot it holds. The returned
// response has status "ok" when the snapshot was stored and "ignored" when a
// newer one is already held.
func (r *Receiver) Accept(raw []byte) (types.PumpResponse, error) {
	return r.accept(raw, false)
}

// accept skips the payload secret check when the transport has already
// authenticated the pump.
func (r *Receiver) accept(raw []byte, authenticated bool) (types.PumpResponse, error) {
	if !json.Valid(raw) {
		return types.PumpResponse{}, ErrMalformed
	}
	if err := validate(r.schema, raw); err != nil {
		return types.PumpResponse{}, err
	}

	var snap types.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return types.PumpResponse{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	if !authenticated && !auth.CheckSecret(r.secret, snap.Secret) {
		return types.PumpResponse{}, ErrSecret
	}
	// The secret identifies the device; it is not part of the picture.
	snap.Secret = ""

	if r.maxAge > 0 {
		age := r.now().Sub(unixSeconds(snap.Now))
		if age > r.maxAge {
			return types.PumpResponse{}, fmt.Errorf("%w: %s old", ErrStale, age.Truncate(time.Millisecond))
		}
	}

	if !r.store.PutSnapshot(&snap) {
		return types.PumpResponse{Status: StatusIgnored}, nil
	}
	return types.PumpResponse{Status: StatusOK}, nil
}

// unixSeconds converts dump1090's fractional epoch seconds to a time.Time.
func unixSeconds(s float64) time.Time {
	return time.UnixMilli(int64(s * 1000))
}

// resultOf maps an Accept outcome to its metrics label.
func resultOf(resp types.PumpResponse, err error) string {
	switch {
	case err == nil && resp.Status == StatusIgnored:
		return ResultIgnored
	case err == nil:
		return ResultAccepted
	case errors.Is(err, ErrMalformed):
		return ResultMalformed
	case errors.Is(err, ErrSchema):
		return ResultSchema
	case errors.Is(err, ErrSecret):
		return ResultSecret
	case errors.Is(err, ErrStale):
		return ResultStale
	}
	return ResultMalformed
}
