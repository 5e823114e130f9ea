package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pump1090/pump1090/server/internal/store"
)

// Handler is the HTTP handler for the /aircraft and /health endpoints.
type Handler struct {
	store *store.Store
	mux   *http.ServeMux
	now   func() time.Time
}

// New creates a Handler wired to the given aircraft store and registers all routes.
func New(st *store.Store) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux(), now: time.Now}

	h.mux.HandleFunc("GET /health", h.health)
	h.mux.HandleFunc("GET /aircraft/all", h.all)
	h.mux.HandleFunc("GET /aircraft/raw", h.raw)
	h.mux.HandleFunc("GET /aircraft/valid", h.valid)
	h.mux.HandleFunc("GET /aircraft/excluded", h.excluded)
	h.mux.HandleFunc("GET /aircraft/count", h.count)
	h.mux.HandleFunc("GET /aircraft/{hex}", h.aircraft)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	raw := h.store.Raw()
	resp := HealthResponse{
		State:         "waiting",
		AircraftCount: len(h.store.List()),
		Now:           raw.Now,
	}
	if raw.Now >= 0 {
		resp.State = "ok"
		resp.AgeSeconds = h.now().Sub(time.UnixMilli(int64(raw.Now * 1000))).Seconds()
	}
	jsonResp(w, http.StatusOK, resp)
}

func (h *Handler) all(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, BuildPicture(h.store).Aircraft)
}

func (h *Handler) raw(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.store.Raw())
}

func (h *Handler) valid(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.store.Valid())
}

func (h *Handler) excluded(w http.ResponseWriter, r *http.Request) {
	excluded := h.store.Excluded()
	out := make([]ExcludedResponse, 0, len(excluded))
	for _, a := range excluded {
		out = append(out, ExcludedResponse{Aircraft: a, Reasons: exclusionReasons(a)})
	}
	jsonResp(w, http.StatusOK, out)
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, CountResponse{Count: len(h.store.List())})
}

// aircraft returns a single aircraft by ICAO hex; stale entries count as
// not found.
func (h *Handler) aircraft(w http.ResponseWriter, r *http.Request) {
	e, ok := h.store.Get(r.PathValue("hex"))
	if !ok || h.now().Sub(e.UpdatedAt) > h.store.TTL() {
		jsonErr(w, http.StatusNotFound, "aircraft not found")
		return
	}
	jsonResp(w, http.StatusOK, toAircraftResponse(e))
}

// --- helpers ----------------------------------------------------------------

// BuildPicture assembles the current picture from the TTL-held aircraft and
// the latest snapshot's header fields.
func BuildPicture(st *store.Store) Picture {
	raw := st.Raw()
	entries := st.List()
	aircraft := make([]AircraftResponse, 0, len(entries))
	for _, e := range entries {
		aircraft = append(aircraft, toAircraftResponse(e))
	}
	return Picture{
		Now:         raw.Now,
		Messages:    raw.Messages,
		Aircraft:    aircraft,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func toAircraftResponse(e *store.Entry) AircraftResponse {
	return AircraftResponse{
		Aircraft: e.Aircraft,
		LastSeen: e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
