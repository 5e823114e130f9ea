package trigger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("no trigger event within 3s")
	}
	return Event{}
}

func TestWatcher_WriteProducesFingerprintedEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aircraft.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w, err := NewWatcher(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close() //nolint:errcheck

	if err := os.WriteFile(path, []byte(`{"now":1}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ev := waitEvent(t, w.Events())
	if ev.Op != OpWrite && ev.Op != OpCreate {
		t.Errorf("Op = %q, want write or create", ev.Op)
	}
	if ev.Token == "" {
		t.Error("event token is empty")
	}
}

func TestWatcher_AtomicRenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aircraft.json")

	// The target does not exist yet; only the directory is watched.
	w, err := NewWatcher(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close() //nolint:errcheck

	tmp := filepath.Join(dir, "aircraft.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"now":2}`), 0o600); err != nil {
		t.Fatalf("write tmp: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}

	ev := waitEvent(t, w.Events())
	if ev.Op != OpCreate {
		t.Errorf("Op = %q, want %q", ev.Op, OpCreate)
	}
	want, err := Fingerprint(path)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if ev.Token != want {
		t.Errorf("Token = %q, want %q", ev.Token, want)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aircraft.json")

	w, err := NewWatcher(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close() //nolint:errcheck

	if err := os.WriteFile(filepath.Join(dir, "receiver.json"), []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event for unrelated file: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "aircraft.json")
	if _, err := NewWatcher(context.Background(), path, nil); err == nil {
		t.Fatal("expected error for missing parent directory, got nil")
	}
}

func TestWatcher_CloseEndsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aircraft.json")
	w, err := NewWatcher(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events channel still open after Close")
	}
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aircraft.json")
	if err := os.WriteFile(path, []byte(`{"now":1}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	a, err := Fingerprint(path)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	b, _ := Fingerprint(path)
	if a != b {
		t.Errorf("fingerprint unstable: %q vs %q", a, b)
	}
	if err := os.WriteFile(path, []byte(`{"now":12}`), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	c, _ := Fingerprint(path)
	if c == a {
		t.Errorf("fingerprint unchanged after size change: %q", c)
	}
}
