// Package types defines the shared Go types used by both the pump and the
// server: the dump1090 snapshot document, its aircraft records, and the
// status body the server returns to single-shot (HTTP) pumps.
//
// The pump itself treats snapshots as opaque JSON and only injects the
// secret field; these types are the server's typed view of the same document.
package types
