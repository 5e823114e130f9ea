// Package receiver accepts aircraft.json frames from pumps and records them
// in the aircraft store.
//
// Every frame goes through Receiver.Accept:
//  1. JSON parse (ErrMalformed)
//  2. schema validation of now, messages and aircraft (ErrSchema)
//  3. secret check against the top-level "secret" field (ErrSecret)
//  4. staleness check of now against MaxDataAge (ErrStale)
//  5. store.PutSnapshot; a snapshot that is not newer than the stored one is
//     answered with status "ignored"
//
// Three transports feed Accept: a websocket handler, a single-shot HTTP POST
// handler and the gRPC PumpService stream. gRPC streams are authenticated by
// metadata in package auth, so their frames skip the payload secret check.
// A rejected frame never closes the websocket or gRPC stream it arrived on.
package receiver
