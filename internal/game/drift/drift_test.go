package drift

import (
	"math/rand"
	"testing"

	"neon-rush/internal/geom"
	"neon-rush/internal/sim"
)

func testTrack() *Track {
	return &Track{
		ID:     "test-loop",
		Name:   "Test Loop",
		Width:  500,
		Height: 500,
		Laps:   2,
		Start:  geom.Vec2{X: 250, Y: 250},
		Checkpoints: []Checkpoint{
			{Pos: geom.Vec2{X: 100, Y: 100}, Radius: 50, PerfectRadius: 20},
		},
		Hazards: []geom.Rect{{X: 300, Y: 300, W: 150, H: 150}},
	}
}

// newTestEngine builds a racing engine without starting the frame loop.
func newTestEngine(t *testing.T, track *Track, input *sim.Input) *Engine {
	t.Helper()
	if input == nil {
		input = sim.NewInput()
	}
	e, err := New(Options{TickRate: 60, Track: track}, input, Callbacks{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.resetLocked()
	e.raceID = "test-race"
	e.state = StateRacing
	return e
}

func TestTrackValidation(t *testing.T) {
	base := func() *Track { return testTrack() }

	tests := []struct {
		name    string
		mutate  func(*Track)
		wantErr bool
	}{
		{"valid", func(*Track) {}, false},
		{"no checkpoints", func(tr *Track) { tr.Checkpoints = nil }, true},
		{"zero laps", func(tr *Track) { tr.Laps = 0 }, true},
		{"negative width", func(tr *Track) { tr.Width = -10 }, true},
		{"zero height", func(tr *Track) { tr.Height = 0 }, true},
		{"perfect equals radius", func(tr *Track) { tr.Checkpoints[0].PerfectRadius = 50 }, true},
		{"perfect exceeds radius", func(tr *Track) { tr.Checkpoints[0].PerfectRadius = 60 }, true},
		{"zero capture radius", func(tr *Track) { tr.Checkpoints[0].Radius = 0 }, true},
		{"checkpoint off track", func(tr *Track) { tr.Checkpoints[0].Pos.X = 900 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := base()
			tt.mutate(tr)
			err := tr.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// The stock circuits must all pass their own validation.
	for _, tr := range BuiltinTracks {
		if err := tr.Validate(); err != nil {
			t.Errorf("builtin %s: %v", tr.ID, err)
		}
	}
}

func TestToroidalWrap(t *testing.T) {
	input := sim.NewInput()
	e := newTestEngine(t, testTrack(), input)
	input.Press(sim.KeyUp) // hold full throttle so speed stays pinned

	e.vehicle.Speed = MaxSpeed
	e.vehicle.Angle = 0
	e.vehicle.Pos = geom.Vec2{X: e.track.Width - 10.5, Y: 250}

	e.Step(1)

	// Crossing to width+0.5 must re-map to 0.5, never clamp at the edge.
	if got := e.vehicle.Pos.X; got != 0.5 {
		t.Errorf("x = %v after crossing the seam, want 0.5", got)
	}

	// Symmetric: driving off the left edge re-enters from the right.
	e.vehicle.Angle = 3.14159265358979
	e.vehicle.Pos = geom.Vec2{X: 5, Y: 250}
	e.Step(1)
	if got := e.vehicle.Pos.X; got < e.track.Width-10 || got >= e.track.Width {
		t.Errorf("x = %v after left exit, want near the right edge", got)
	}
}

func TestBoostMeterBoundedUnderRandomInput(t *testing.T) {
	input := sim.NewInput()
	e := newTestEngine(t, testTrack(), input)
	rng := rand.New(rand.NewSource(99))

	keys := []sim.Key{sim.KeyUp, sim.KeyDown, sim.KeyLeft, sim.KeyRight, sim.KeySpace}
	for i := 0; i < 3000; i++ {
		k := keys[rng.Intn(len(keys))]
		if rng.Intn(2) == 0 {
			input.Press(k)
		} else {
			input.Release(k)
		}
		e.Step(1)
		if m := e.vehicle.Meter; m < 0 || m > MeterMax {
			t.Fatalf("meter %v out of [0,%v] at frame %d", m, MeterMax, i+1)
		}
		if e.state == StateFinished {
			break
		}
	}
}

func TestDriftChargesAndBoostArms(t *testing.T) {
	input := sim.NewInput()
	e := newTestEngine(t, testTrack(), input)

	// Get up to speed, then hold drift.
	input.Press(sim.KeyUp)
	e.Step(120)
	if e.vehicle.Speed <= MinDriftSpeed {
		t.Fatalf("speed %v too low for the scenario", e.vehicle.Speed)
	}
	input.Press(sim.KeySpace)
	e.Step(60)

	if !e.vehicle.Drifting {
		t.Fatal("drift hold above the speed floor must set the drifting flag")
	}
	if e.vehicle.Meter < BoostMinArm {
		t.Fatalf("meter %v after 60 drift frames, want at least %v", e.vehicle.Meter, BoostMinArm)
	}

	// Release: the charged meter arms the boost, which drains back to zero.
	input.Release(sim.KeySpace)
	e.Step(1)
	if e.vehicle.Drifting || !e.vehicle.Boosting {
		t.Fatalf("release should end the drift and arm the boost: drifting=%v boosting=%v",
			e.vehicle.Drifting, e.vehicle.Boosting)
	}
	e.Step(200)
	if e.vehicle.Boosting {
		t.Error("boost must end once the meter is spent")
	}
	if e.vehicle.Meter != 0 {
		t.Errorf("meter = %v after the boost drained, want 0", e.vehicle.Meter)
	}
}

func TestEffectiveSpeedComposesMultiplicatively(t *testing.T) {
	e := newTestEngine(t, testTrack(), nil)
	v := &e.vehicle
	v.Speed = 10

	if eff := effectiveSpeed(v); eff != 10 {
		t.Errorf("plain eff = %v", eff)
	}
	v.Drifting = true
	if eff := effectiveSpeed(v); eff != 10*DriftSpeedMult {
		t.Errorf("drift eff = %v", eff)
	}
	v.Boosting = true
	if eff := effectiveSpeed(v); eff != 10*DriftSpeedMult*BoostSpeedMult {
		t.Errorf("drift+boost eff = %v", eff)
	}
}

func TestCheckpointCaptureIdempotent(t *testing.T) {
	track := testTrack()
	track.Checkpoints = append(track.Checkpoints, Checkpoint{
		Pos: geom.Vec2{X: 400, Y: 100}, Radius: 50, PerfectRadius: 20,
	})
	e := newTestEngine(t, track, nil)

	// Enter the first gate inside the perfect window.
	e.vehicle.Pos = geom.Vec2{X: 105, Y: 100}
	e.captureCheckpoints()
	if !e.passed[0] || !e.perfect[0] {
		t.Fatalf("gate not captured: passed=%v perfect=%v", e.passed[0], e.perfect[0])
	}
	if len(e.laps) != 0 {
		t.Fatal("lap must not complete with a gate outstanding")
	}

	// Re-entry on the same lap is a no-op.
	e.captureCheckpoints()
	if len(e.laps) != 0 || !e.passed[0] {
		t.Error("re-entering a passed gate must change nothing")
	}

	// Capture the second gate outside the perfect window; lap completes,
	// imperfect, and the sets reset.
	e.vehicle.Pos = geom.Vec2{X: 440, Y: 100}
	e.captureCheckpoints()
	if len(e.laps) != 1 {
		t.Fatalf("laps = %d, want 1", len(e.laps))
	}
	if e.laps[0].Perfect {
		t.Error("lap with one wide capture must not be perfect")
	}
	if e.passed[0] || e.passed[1] || e.perfect[0] {
		t.Error("gate sets must reset on lap completion")
	}
	if e.lap != 2 {
		t.Errorf("lap = %d, want 2", e.lap)
	}
}

func TestRaceFinishPromotesGhost(t *testing.T) {
	var lapsSeen []LapTime
	var result *Result
	e := newTestEngine(t, testTrack(), nil)
	e.cb.OnLap = func(lt LapTime) { lapsSeen = append(lapsSeen, lt) }
	e.cb.OnFinish = func(res Result) { result = &res }

	// Park the vehicle inside the only gate: each frame captures it and
	// completes a lap. Two laps ends the race.
	e.vehicle.Pos = geom.Vec2{X: 100, Y: 100}
	e.Step(1)
	if len(lapsSeen) != 1 || e.state != StateRacing {
		t.Fatalf("after lap 1: laps=%d state=%v", len(lapsSeen), e.state)
	}
	e.vehicle.Pos = geom.Vec2{X: 100, Y: 100}
	e.Step(1)

	if e.state != StateFinished {
		t.Fatalf("state = %v, want finished", e.state)
	}
	if result == nil || len(result.Laps) != 2 {
		t.Fatal("finish result missing laps")
	}
	if !result.NewRecord || result.Ghost == nil {
		t.Error("first finish must establish the record and carry the ghost")
	}
	if result.Ghost.Total != result.TotalSeconds {
		t.Error("ghost total must match the race total")
	}

	// A slower second race must not displace the record.
	best := e.bestTime
	e.resetLocked()
	e.raceID = "test-race-2"
	e.state = StateRacing
	e.raceFrame = 6000 // already a minute in, hopeless pace
	e.vehicle.Pos = geom.Vec2{X: 100, Y: 100}
	e.Step(1)
	e.vehicle.Pos = geom.Vec2{X: 100, Y: 100}
	e.Step(1)
	if e.bestTime != best {
		t.Errorf("record moved from %v to %v on a slower run", best, e.bestTime)
	}
}

func TestHazardPenalty(t *testing.T) {
	e := newTestEngine(t, testTrack(), nil)
	e.vehicle.Pos = geom.Vec2{X: 350, Y: 350} // inside the hazard
	e.vehicle.Angle = 0
	e.vehicle.Speed = 10
	e.vehicle.Meter = 50

	e.Step(1)

	wantSpeed := 10.0
	wantSpeed *= Friction
	wantSpeed *= HazardSpeedCut
	if got := e.vehicle.Speed; got != wantSpeed {
		t.Errorf("speed = %v after hazard, want %v", got, wantSpeed)
	}
	// The idle meter decay lands first, then the hazard cut.
	if got := e.vehicle.Meter; got != 50-MeterIdleDecay-HazardBoostCut {
		t.Errorf("meter = %v after hazard, want %v", got, 50-MeterIdleDecay-HazardBoostCut)
	}

	// Cooldown: the next frame inside the hazard does not cut again.
	speed := e.vehicle.Speed
	e.Step(1)
	if e.vehicle.Speed < speed*Friction-1e-9 {
		t.Error("hazard must not punish again during its cooldown")
	}
}

func TestCountdownFreezesVehicle(t *testing.T) {
	input := sim.NewInput()
	e, err := New(Options{TickRate: 60, Track: testTrack()}, input, Callbacks{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.resetLocked()
	input.Press(sim.KeyUp)

	e.Step(CountdownFrames - 1)
	if e.state != StateCountdown {
		t.Fatalf("state = %v mid-countdown", e.state)
	}
	if e.vehicle.Speed != 0 || e.raceFrame != 0 {
		t.Error("vehicle must stay frozen during the countdown")
	}

	e.Step(1)
	if e.state != StateRacing {
		t.Fatalf("state = %v after countdown, want racing", e.state)
	}
}

func TestPauseSuppressesUpdate(t *testing.T) {
	e := newTestEngine(t, testTrack(), nil)
	e.vehicle.Speed = 8
	e.TogglePause()

	e.Step(30)
	if e.raceFrame != 0 || e.vehicle.Speed != 8 {
		t.Error("paused race must not mutate")
	}

	e.TogglePause()
	e.Step(1)
	if e.raceFrame != 1 {
		t.Error("unpause must resume the race clock")
	}
}

func TestGhostRecordingAndBracketing(t *testing.T) {
	e := newTestEngine(t, testTrack(), nil)
	e.Step(10)
	if len(e.recording.Frames) != 10 {
		t.Fatalf("recorded %d frames over 10 steps", len(e.recording.Frames))
	}

	rec := &Recording{Frames: []GhostFrame{
		{X: 1, T: 0}, {X: 2, T: 1}, {X: 3, T: 2},
	}}
	tests := []struct {
		elapsed float64
		wantX   float64
	}{
		{-0.5, 1}, // before the first frame
		{0, 1},
		{0.5, 1}, // bracketed by frames 0 and 1
		{1, 2},
		{1.99, 2},
		{7, 3}, // past the end
	}
	for _, tt := range tests {
		f, ok := rec.FrameAt(tt.elapsed)
		if !ok || f.X != tt.wantX {
			t.Errorf("FrameAt(%v) = %v x=%v, want x=%v", tt.elapsed, ok, f.X, tt.wantX)
		}
	}

	if _, ok := (&Recording{}).FrameAt(1); ok {
		t.Error("empty recording must report no frame")
	}
}
