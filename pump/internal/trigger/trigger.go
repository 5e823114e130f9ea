package trigger

import (
	"fmt"
	"os"
	"time"
)

// Operations reported in Event.Op.
const (
	OpTick   = "tick"
	OpWrite  = "write"
	OpCreate = "create"
)

// Event starts one read/send cycle.
type Event struct {
	// Token correlates notifications that describe the same change. Empty
	// means the event cannot be correlated and is always processed.
	Token string
	Op    string
	At    time.Time
}

// Source delivers trigger events until it is closed or its context ends,
// after which the Events channel is closed.
type Source interface {
	Events() <-chan Event
	Close() error
}

// Fingerprint identifies the current version of the file at path by size and
// modification time.
func Fingerprint(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d", fi.Size(), fi.ModTime().UnixNano()), nil
}

// offer delivers ev without blocking. It reports false when an undelivered
// event is already pending.
func offer(ch chan Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}
