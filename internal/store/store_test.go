package store

import (
	"os"
	"testing"

	"neon-rush/internal/game/drift"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func testRecording(total float64) *drift.Recording {
	return &drift.Recording{
		TrackID: "neon-oval",
		Total:   total,
		Frames: []drift.GhostFrame{
			{X: 10, Y: 20, Angle: 0.5, T: 0},
			{X: 12, Y: 21, Angle: 0.6, T: total},
		},
	}
}

func TestGhostRoundTrip(t *testing.T) {
	s := newTestStore(t)

	s.SaveGhost(testRecording(42.5))
	s.Flush()

	got, ok := s.BestGhost("neon-oval")
	if !ok {
		t.Fatal("saved ghost not found")
	}
	if got.Total != 42.5 || len(got.Frames) != 2 {
		t.Errorf("ghost = %+v", got)
	}
	if got.Frames[1].X != 12 || got.Frames[1].T != 42.5 {
		t.Errorf("frame data lost: %+v", got.Frames[1])
	}
}

func TestGhostSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.SaveGhost(testRecording(30))
	s.Flush()
	s.Close()

	// A fresh store over the same directory reads the ghost from disk.
	s2, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s2.Close()

	got, ok := s2.BestGhost("neon-oval")
	if !ok || got.Total != 30 {
		t.Fatalf("ghost not recovered from disk: ok=%v", ok)
	}
}

func TestSlowerGhostDoesNotDisplace(t *testing.T) {
	s := newTestStore(t)

	s.SaveGhost(testRecording(30))
	s.SaveGhost(testRecording(45)) // slower, must be ignored
	s.Flush()

	got, ok := s.BestGhost("neon-oval")
	if !ok || got.Total != 30 {
		t.Errorf("best = %v, want the 30s run kept", got.Total)
	}

	s.SaveGhost(testRecording(25)) // faster, promotes
	if got, _ := s.BestGhost("neon-oval"); got.Total != 25 {
		t.Errorf("best = %v, want 25", got.Total)
	}
}

func TestMissingGhostIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.BestGhost("nowhere"); ok {
		t.Error("unknown track must yield no ghost")
	}
}

func TestCorruptGhostFallsBack(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.ghostPath("neon-oval"), []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.BestGhost("neon-oval"); ok {
		t.Error("corrupt blob must read as no ghost, not an error")
	}
}

func TestResultLog(t *testing.T) {
	s := newTestStore(t)

	s.SubmitResult(ResultRecord{Mode: "runner", Player: "dash", Score: 1200})
	s.SubmitResult(ResultRecord{Mode: "drift", Player: "volt", Score: 88.4})
	s.Flush()

	results, err := s.Results()
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Mode != "runner" || results[0].Score != 1200 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Player != "volt" {
		t.Errorf("results[1] = %+v", results[1])
	}
	if results[0].Time.IsZero() {
		t.Error("submit must stamp the record")
	}

	// An empty store has an empty history.
	s2 := newTestStore(t)
	if rs, err := s2.Results(); err != nil || len(rs) != 0 {
		t.Errorf("fresh store results = %v, %v", rs, err)
	}
}
