// Package config loads the serve1090 receiver configuration from the
// `server:` section of a YAML file.
//
// Config fields:
//   - HTTPPort: websocket/HTTP pump endpoint, REST API and UI hub (default 3000)
//   - GRPCPort: gRPC pump endpoint; 0 disables it (default 50051)
//   - SecretEnv: environment variable holding the expected pump secret
//     (default SERVE1090_SECRET); an empty secret accepts every pump
//   - MaxDataAge: snapshots whose `now` is older than this are rejected (default 10s)
//   - AircraftTTL: aircraft not seen in a snapshot for this long are evicted (default 60s)
//   - BroadcastInterval: how often the UI hub pushes the picture (default 1s)
//
// Load(path) applies defaults before unmarshalling, then validates. An empty
// path yields the defaults.
package config
