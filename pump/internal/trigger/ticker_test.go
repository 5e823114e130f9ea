package trigger

import (
	"context"
	"testing"
	"time"
)

func TestTicker_EmitsUntilClosed(t *testing.T) {
	tk, err := NewTicker(context.Background(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewTicker: %v", err)
	}

	for i := 0; i < 3; i++ {
		select {
		case ev := <-tk.Events():
			if ev.Op != OpTick {
				t.Errorf("Op = %q, want %q", ev.Op, OpTick)
			}
			if ev.Token != "" {
				t.Errorf("tick token = %q, want empty", ev.Token)
			}
		case <-time.After(time.Second):
			t.Fatalf("tick %d not received", i)
		}
	}

	if err := tk.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Drain a possibly pending tick, then expect the channel to be closed.
	for range tk.Events() {
	}
}

func TestTicker_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tk, err := NewTicker(ctx, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewTicker: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		for range tk.Events() {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("events channel not closed after context cancellation")
	}
	tk.Close() //nolint:errcheck
}

func TestTicker_CoalescesWhileNobodyReads(t *testing.T) {
	tk, err := NewTicker(context.Background(), time.Millisecond)
	if err != nil {
		t.Fatalf("NewTicker: %v", err)
	}
	defer tk.Close() //nolint:errcheck

	time.Sleep(30 * time.Millisecond)
	if n := len(tk.Events()); n > 1 {
		t.Errorf("pending events = %d, want at most 1", n)
	}
}

func TestNewTicker_RejectsNonPositiveInterval(t *testing.T) {
	if _, err := NewTicker(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero interval, got nil")
	}
}
