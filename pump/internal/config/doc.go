// Package config resolves the pump configuration.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file, the environment (optionally seeded from a .env file), and
// command-line flags. Load applies all four and validates the result; any
// failure wraps ErrInvalid and is fatal at startup.
//
// Watch re-runs Load whenever the YAML file changes so the log level can be
// adjusted on a running pump.
package config
