// Package pump runs the delivery pipeline.
//
// Run is the supervisor: it asks the connection manager for a connection,
// runs a session on it until a send fails, and starts over. A session reads
// the data file on every trigger and sends the result; read failures skip
// the cycle and leave the connection alone, send failures end the session.
//
// Metrics for every stage are registered on a private prometheus.Registry
// and, when configured, served with a health snapshot by Serve.
package pump
