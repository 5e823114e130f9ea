// Package api implements the HTTP REST API of the aircraft server.
//
// New(store) returns an http.Handler that serves:
//
//	GET /aircraft/all       every aircraft seen within the TTL, ordered by hex
//	GET /aircraft/raw       the latest accepted aircraft.json snapshot as received
//	GET /aircraft/valid     aircraft of the latest snapshot that pass store.IsValid
//	GET /aircraft/excluded  the rest, each with the reasons it was excluded
//	GET /aircraft/count     {"count": n} over the TTL-held aircraft
//	GET /aircraft/{hex}     a single aircraft; 404 if unknown or stale
//	GET /health             whether a snapshot has arrived and how old it is
//
// All endpoints respond with Content-Type: application/json. Other methods
// get 405 from the mux's method patterns.
package api
