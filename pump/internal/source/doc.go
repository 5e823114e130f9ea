// Package source reads the watched dump file into a Payload.
//
// Two modes exist:
//   - ModeRaw forwards the file bytes verbatim. Empty or half-written files
//     are forwarded as-is.
//   - ModeStructured parses the file as one JSON object, injects the device
//     secret as the top-level "secret" field, and re-serializes it. Every
//     other top-level value is carried through as raw JSON.
//
// Failures are classified as *ReadError (file could not be opened or read)
// or *ParseError (structured mode only, content is not a JSON object). Both
// are local to one cycle; the caller logs them and waits for the next trigger.
package source
