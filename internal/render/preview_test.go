package render

import (
	"bytes"
	"testing"

	"neon-rush/internal/game"
	"neon-rush/internal/game/drift"
	"neon-rush/internal/game/elimination"
	"neon-rush/internal/game/runner"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func assertPNG(t *testing.T, data []byte, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Fatal("output is not a PNG")
	}
}

func TestRunnerPreview(t *testing.T) {
	r := New(480, 270)

	snap := runner.Snapshot{
		State:   "running",
		Score:   1200,
		Level:   3,
		PlayerX: 120,
		PlayerY: 300,
		Player:  game.DefaultRoster[0],
		Entities: []runner.EntitySnapshot{
			{Kind: "obstacle", X: 600, Y: 290, W: 46, H: 58, Color: "#d63031"},
			{Kind: "coin", X: 700, Y: 400, W: 26, H: 26, Color: "#fdcb6e"},
		},
	}
	png, err := r.Runner(snap)
	assertPNG(t, png, err)
}

func TestEliminationPreview(t *testing.T) {
	r := New(480, 270)

	snap := elimination.Snapshot{
		State:     "running",
		SpeedMult: 1.2,
		Active:    2,
		Combatants: []elimination.CombatantSnapshot{
			{Name: "Dash", Color: "#ff6b6b", X: 200, Y: 200, Radius: 26},
			{Name: "Volt", Color: "#4ecdc4", X: 500, Y: 300, Radius: 26, Flash: true},
			{Name: "Nova", Color: "#45b7d1", X: 700, Y: 400, Radius: 26, Eliminated: true},
		},
	}
	png, err := r.Elimination(snap)
	assertPNG(t, png, err)
}

func TestDriftPreview(t *testing.T) {
	r := New(480, 270)
	track := &drift.BuiltinTracks[0]

	snap := drift.Snapshot{
		TrackID:   track.ID,
		State:     "racing",
		X:         track.Start.X,
		Y:         track.Start.Y,
		Lap:       1,
		TotalLaps: track.Laps,
		Passed:    make([]bool, len(track.Checkpoints)),
		Ghost:     &drift.GhostFrame{X: 100, Y: 100},
	}
	snap.Passed[0] = true

	png, err := r.Drift(snap, track)
	assertPNG(t, png, err)
}

func TestBounds(t *testing.T) {
	r := New(960, 540)
	b := r.Bounds()
	if b.Dx() != 960 || b.Dy() != 540 {
		t.Fatalf("bounds = %v", b)
	}
}
