// Package status reads a running pump's /metrics endpoint and summarises it
// for the `pump status` command.
package status
