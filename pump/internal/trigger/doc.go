// Package trigger produces the events that start one read/send cycle.
//
// Two sources implement Source:
//   - Ticker fires on a fixed interval (the polling variant). Its events carry
//     no token and are never deduplicated.
//   - Watcher uses fsnotify on the dump file's parent directory, so atomic
//     rename-over replacement is observed and the file need not exist when
//     watching starts. Each event carries a fingerprint token (size and
//     modification time at delivery); two notifications for one logical
//     change carry the same token, and the delivery loop drops the repeat.
//
// Both sources deliver on a channel with capacity one and never block: while
// a cycle is in flight at most one further event is held, and any more are
// coalesced into it. A coalesced event still reads the newest file content.
package trigger
