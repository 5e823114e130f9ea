// Package store keeps the receiver's aircraft picture in memory.
//
// The latest accepted snapshot is held verbatim and partitioned into valid
// and excluded aircraft. Individual aircraft are also tracked by ICAO hex so
// that a target dropping out of one snapshot lingers until its TTL lapses.
// Run evicts lapsed aircraft in the background.
package store
