package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pump1090/pump1090/pkg/types"
)

func ptr[T any](v T) *T { return &v }

func aircraft(hex string) types.Aircraft {
	return types.Aircraft{Hex: hex}
}

func tracked(hex, flight string, seen float64) types.Aircraft {
	return types.Aircraft{
		Hex:    hex,
		Flight: ptr(flight),
		Lat:    ptr(38.85),
		Lon:    ptr(-77.03),
		Seen:   ptr(seen),
	}
}

func snapshot(now float64, ac ...types.Aircraft) *types.Snapshot {
	return &types.Snapshot{Now: now, Messages: 100, Aircraft: ac}
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPutSnapshotAndGet(t *testing.T) {
	st := New(time.Minute)
	if !st.PutSnapshot(snapshot(1000, aircraft("a1b2c3"))) {
		t.Fatal("PutSnapshot: first snapshot was not accepted")
	}

	e, ok := st.Get("a1b2c3")
	if !ok {
		t.Fatal("Get: expected entry, got none")
	}
	if e.Aircraft.Hex != "a1b2c3" {
		t.Errorf("Hex: got %q, want a1b2c3", e.Aircraft.Hex)
	}
}

func TestGet_Missing(t *testing.T) {
	st := New(time.Minute)
	if _, ok := st.Get("unknown"); ok {
		t.Fatal("Get on empty store: expected false, got true")
	}
}

func TestPutSnapshot_OnlyNewer(t *testing.T) {
	st := New(time.Minute)
	st.PutSnapshot(snapshot(1000, aircraft("aaaaaa")))

	if st.PutSnapshot(snapshot(1000, aircraft("bbbbbb"))) {
		t.Error("same now: accepted, want ignored")
	}
	if st.PutSnapshot(snapshot(999.5, aircraft("cccccc"))) {
		t.Error("older now: accepted, want ignored")
	}
	if _, ok := st.Get("bbbbbb"); ok {
		t.Error("aircraft from an ignored snapshot was stored")
	}
	if got := st.Raw().Now; got != 1000 {
		t.Errorf("Raw().Now: got %v, want 1000", got)
	}

	if !st.PutSnapshot(snapshot(1000.1, aircraft("dddddd"))) {
		t.Error("newer now: ignored, want accepted")
	}
}

func TestRaw_Empty(t *testing.T) {
	raw := New(time.Minute).Raw()
	if raw.Now != -1 {
		t.Errorf("Now: got %v, want -1", raw.Now)
	}
	if raw.Aircraft == nil || len(raw.Aircraft) != 0 {
		t.Errorf("Aircraft: got %v, want empty non-nil", raw.Aircraft)
	}
}

func TestIsValid(t *testing.T) {
	noPos := tracked("a", "UAL1", 1)
	noPos.Lat = nil
	noFlight := tracked("b", "", 1)
	noFlight.Flight = nil
	noSeen := tracked("c", "UAL3", 1)
	noSeen.Seen = nil

	tests := []struct {
		name string
		a    types.Aircraft
		want bool
	}{
		{"complete and recent", tracked("d", "UAL4", 3.2), true},
		{"seen at timeout", tracked("e", "UAL5", FlightTimeout), false},
		{"seen past timeout", tracked("f", "UAL6", 45), false},
		{"missing position", noPos, false},
		{"missing flight", noFlight, false},
		{"missing seen", noSeen, false},
		{"bare hex", aircraft("g"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.a); got != tt.want {
				t.Errorf("IsValid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidAndExcluded(t *testing.T) {
	st := New(time.Minute)
	st.PutSnapshot(snapshot(1000,
		tracked("aaaaaa", "UAL1", 1),
		aircraft("bbbbbb"),
		tracked("cccccc", "DAL2", 2),
		tracked("dddddd", "AAL3", 60),
	))

	valid := st.Valid()
	if len(valid) != 2 || valid[0].Hex != "aaaaaa" || valid[1].Hex != "cccccc" {
		t.Errorf("Valid: got %v", valid)
	}
	excluded := st.Excluded()
	if len(excluded) != 2 || excluded[0].Hex != "bbbbbb" || excluded[1].Hex != "dddddd" {
		t.Errorf("Excluded: got %v", excluded)
	}

	// The partition follows the latest snapshot only.
	st.PutSnapshot(snapshot(1001, aircraft("eeeeee")))
	if n := len(st.Valid()); n != 0 {
		t.Errorf("Valid after update: got %d, want 0", n)
	}
	if n := len(st.Excluded()); n != 1 {
		t.Errorf("Excluded after update: got %d, want 1", n)
	}
}

func TestPutSnapshot_SkipsEmptyHex(t *testing.T) {
	st := New(time.Minute)
	st.PutSnapshot(snapshot(1, aircraft(""), aircraft("abc123")))
	if n := st.Count(); n != 1 {
		t.Errorf("Count: got %d, want 1", n)
	}
}

func TestList_ExcludesStaleAndSorts(t *testing.T) {
	base := time.Now()
	st := New(time.Minute)

	st.now = fixedClock(base.Add(-2 * time.Minute))
	st.PutSnapshot(snapshot(1, aircraft("000old")))

	st.now = fixedClock(base)
	st.PutSnapshot(snapshot(2, aircraft("ffffff"), aircraft("aaaaaa")))

	entries := st.List()
	if len(entries) != 2 {
		t.Fatalf("List: got %d entries, want 2", len(entries))
	}
	if entries[0].Aircraft.Hex != "aaaaaa" || entries[1].Aircraft.Hex != "ffffff" {
		t.Errorf("List order: got %s, %s", entries[0].Aircraft.Hex, entries[1].Aircraft.Hex)
	}
}

func TestAircraftLingersAcrossSnapshots(t *testing.T) {
	st := New(time.Minute)
	st.PutSnapshot(snapshot(1, aircraft("aaaaaa")))
	st.PutSnapshot(snapshot(2, aircraft("bbbbbb")))

	if n := len(st.List()); n != 2 {
		t.Errorf("List: got %d, want 2 (aaaaaa still within TTL)", n)
	}
}

func TestCount_IncludesStale(t *testing.T) {
	base := time.Now()
	st := New(time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.PutSnapshot(snapshot(1, aircraft("old")))

	st.now = fixedClock(base)
	st.PutSnapshot(snapshot(2, aircraft("new")))

	if n := st.Count(); n != 2 {
		t.Errorf("Count: got %d, want 2", n)
	}
}

func TestEvict_RemovesStale(t *testing.T) {
	base := time.Now()
	st := New(time.Minute)

	st.now = fixedClock(base.Add(-10 * time.Minute))
	st.PutSnapshot(snapshot(1, aircraft("old1"), aircraft("old2")))

	st.now = fixedClock(base)
	st.PutSnapshot(snapshot(2, aircraft("live")))

	if removed := st.Evict(base); removed != 2 {
		t.Errorf("Evict: removed %d, want 2", removed)
	}
	if st.Count() != 1 {
		t.Errorf("Count after evict: got %d, want 1", st.Count())
	}
}

func TestEvict_NoOp_AllLive(t *testing.T) {
	base := time.Now()
	st := New(time.Minute)
	st.now = fixedClock(base)
	st.PutSnapshot(snapshot(1, aircraft("live")))

	if removed := st.Evict(base); removed != 0 {
		t.Errorf("Evict on live entry: removed %d, want 0", removed)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := New(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			st.PutSnapshot(snapshot(float64(n), aircraft("src-a")))
		}(i)
		go func() {
			defer wg.Done()
			st.List()
		}()
		go func() {
			defer wg.Done()
			st.Valid()
			st.Raw()
		}()
	}
	wg.Wait()

	if st.Count() != 1 {
		t.Errorf("Count: got %d, want 1", st.Count())
	}
	if got := st.Raw().Now; got != 49 {
		t.Errorf("Raw().Now: got %v, want 49", got)
	}
}

func TestGet_CaseInsensitive(t *testing.T) {
	st := New(time.Minute)
	st.PutSnapshot(snapshot(1, aircraft("A1B2C3")))
	if _, ok := st.Get("a1b2c3"); !ok {
		t.Error("Get(lower): not found")
	}
	if _, ok := st.Get("A1b2C3"); !ok {
		t.Error("Get(mixed): not found")
	}
}
