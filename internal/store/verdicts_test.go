package store

import (
	"context"
	"sync"
	"testing"

	"github.com/roach88/sluicewatch/internal/telemetry"
)

func TestAppendVerdict_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	in := telemetry.Verdict{Timestamp: "10:00:00", RawID: 3, IsPollution: true, GateOpen: true}
	id, err := s.AppendVerdict(ctx, in)
	if err != nil {
		t.Fatalf("AppendVerdict() failed: %v", err)
	}
	if id != 1 {
		t.Errorf("AppendVerdict() id = %d, want 1", id)
	}

	got, ok, err := s.GetVerdict(ctx, id)
	if err != nil || !ok {
		t.Fatalf("GetVerdict() = ok:%v err:%v", ok, err)
	}
	want := in
	want.ID = id
	if got != want {
		t.Errorf("GetVerdict() = %+v, want %+v", got, want)
	}
}

func TestAppendVerdict_DanglingRawIDAccepted(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// raw_id is not a foreign key.
	if _, err := s.AppendVerdict(ctx, createTestVerdict(12345, false)); err != nil {
		t.Fatalf("AppendVerdict() with unknown raw id failed: %v", err)
	}
}

func TestAppendVerdict_GateIndependentOfPollution(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.AppendVerdict(ctx, telemetry.Verdict{Timestamp: "t", RawID: 1, IsPollution: true, GateOpen: false})
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := s.GetVerdict(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsPollution || got.GateOpen {
		t.Errorf("GetVerdict() = %+v, want is_pollution=true gate_open=false", got)
	}
}

func TestAppendVerdict_ConcurrentIDsAreDense(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	const total = 200
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]bool)

	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(raw int64) {
			defer wg.Done()
			id, err := s.AppendVerdict(ctx, createTestVerdict(raw, raw%2 == 0))
			if err != nil {
				t.Errorf("AppendVerdict() failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[id] {
				t.Errorf("duplicate id %d", id)
			}
			seen[id] = true
		}(int64(i + 1))
	}
	wg.Wait()

	for id := int64(1); id <= total; id++ {
		if !seen[id] {
			t.Errorf("missing id %d", id)
		}
	}
}

func TestLatestVerdict_Empty(t *testing.T) {
	s := createTestStore(t)

	_, ok, err := s.LatestVerdict(context.Background())
	if err != nil {
		t.Fatalf("LatestVerdict() failed: %v", err)
	}
	if ok {
		t.Error("LatestVerdict() ok = true on empty store")
	}
}

func TestLatestVerdict_ReturnsHighestID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for raw := int64(1); raw <= 3; raw++ {
		if _, err := s.AppendVerdict(ctx, createTestVerdict(raw, false)); err != nil {
			t.Fatal(err)
		}
	}

	latest, ok, err := s.LatestVerdict(ctx)
	if err != nil || !ok {
		t.Fatalf("LatestVerdict() = ok:%v err:%v", ok, err)
	}
	if latest.ID != 3 || latest.RawID != 3 {
		t.Errorf("LatestVerdict() = %+v, want id=3 raw_id=3", latest)
	}
}

func TestVerdictsForReading(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, raw := range []int64{1, 2, 1} {
		if _, err := s.AppendVerdict(ctx, createTestVerdict(raw, false)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.VerdictsForReading(ctx, 1)
	if err != nil {
		t.Fatalf("VerdictsForReading() failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("VerdictsForReading(1) = %+v, want verdict ids [1 3]", got)
	}

	none, err := s.VerdictsForReading(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("VerdictsForReading(9) = %#v, want empty non-nil slice", none)
	}
}

func TestCountVerdicts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	n, err := s.CountVerdicts(ctx)
	if err != nil || n != 0 {
		t.Fatalf("CountVerdicts() = %d, %v; want 0, nil", n, err)
	}

	for i := 0; i < 4; i++ {
		if _, err := s.AppendVerdict(ctx, createTestVerdict(int64(i), false)); err != nil {
			t.Fatal(err)
		}
	}

	n, err = s.CountVerdicts(ctx)
	if err != nil || n != 4 {
		t.Errorf("CountVerdicts() = %d, %v; want 4, nil", n, err)
	}
}
