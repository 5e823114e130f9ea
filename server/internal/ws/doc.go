// Package ws implements the WebSocket hub that feeds UI clients.
//
// Hub manages a set of connected clients and pushes the current aircraft
// picture to all of them on a configurable interval (1s by default).
//
// New(store, interval, logger) creates a Hub. Hub.Run(ctx) drives the
// broadcast ticker and closes every client when ctx is cancelled.
// Hub.ServeHTTP upgrades a request, sends the picture immediately, then
// streams updates on each tick. The server mounts it at /aircraft/stream.
//
// Message format sent to clients:
//
//	{
//	  "event": "picture",
//	  "data":  { "now": ..., "messages": ..., "aircraft": [...], "generated_at": "..." }
//	}
//
// A UI whose queue is full when a picture is pushed is disconnected; the
// others keep receiving on schedule. Frames from a UI are limited to 512 bytes.
package ws
