// Package drift implements the drift time-attack race: a single vehicle on
// a toroidal track chasing lap times through checkpoint gates, with a
// drift-charged boost meter and a ghost of the personal-best run.
package drift

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/segmentio/ksuid"

	"neon-rush/internal/geom"
	"neon-rush/internal/sim"
	"neon-rush/internal/sim/journal"
)

type State int

const (
	StateCountdown State = iota
	StateRacing
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateCountdown:
		return "countdown"
	case StateRacing:
		return "racing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// LapTime is one completed lap. Immutable once appended.
type LapTime struct {
	Lap     int     `json:"lap"`
	Seconds float64 `json:"seconds"` // Elapsed since race start
	Perfect bool    `json:"perfect"` // Every gate captured in its perfect window
}

// Result summarizes a finished race.
type Result struct {
	RaceID       string     `json:"raceId"`
	TrackID      string     `json:"trackId"`
	TotalSeconds float64    `json:"totalSeconds"`
	Laps         []LapTime  `json:"laps"`
	NewRecord    bool       `json:"newRecord"`
	Ghost        *Recording `json:"-"` // Set only on a new record
}

// Callbacks are the presentation sinks, called synchronously mid-frame.
type Callbacks struct {
	OnLap    func(lt LapTime)
	OnFinish func(res Result)
}

// Options configures a race.
type Options struct {
	TickRate int
	Track    *Track
	Best     *Recording // Prior personal best for ghost playback, may be nil
	Journal  *journal.Journal
}

// Engine owns all race state. A single loop goroutine mutates it; external
// readers go through Snapshot.
type Engine struct {
	mu    sync.Mutex
	loop  *sim.Loop
	input *sim.Input
	jrnl  *journal.Journal
	cb    Callbacks

	raceID   string
	track    *Track
	tickRate int

	state  State
	paused bool

	frame         uint64
	raceFrame     uint64 // Frames since racing began, drives the race clock
	countdownLeft int

	vehicle Vehicle

	lap     int
	passed  []bool
	perfect []bool
	laps    []LapTime

	hazardCooldown []int

	recording *Recording
	bestGhost *Recording
	bestTime  float64
}

// New creates a race engine. Track data is validated fail-fast; a malformed
// track is a construction error, not a mid-race surprise.
func New(opts Options, input *sim.Input, cb Callbacks) (*Engine, error) {
	if opts.Track == nil {
		return nil, fmt.Errorf("drift: no track")
	}
	if err := opts.Track.Validate(); err != nil {
		return nil, fmt.Errorf("drift: %w", err)
	}
	if opts.TickRate == 0 {
		opts.TickRate = 60
	}

	e := &Engine{
		loop:           sim.NewLoop(opts.TickRate),
		input:          input,
		jrnl:           opts.Journal,
		cb:             cb,
		track:          opts.Track,
		tickRate:       opts.TickRate,
		state:          StateCountdown,
		passed:         make([]bool, len(opts.Track.Checkpoints)),
		perfect:        make([]bool, len(opts.Track.Checkpoints)),
		hazardCooldown: make([]int, len(opts.Track.Hazards)),
		bestGhost:      opts.Best,
	}
	if opts.Best != nil {
		e.bestTime = opts.Best.Total
	}
	e.input.OnPress(sim.KeyEscape, func() { e.TogglePause() })
	return e, nil
}

// Start begins the countdown and the frame loop.
func (e *Engine) Start() {
	e.mu.Lock()
	e.resetLocked()
	e.raceID = ksuid.New().String()
	e.mu.Unlock()

	e.input.Reset()
	e.loop.Start(e.tick)
	log.Printf("🏎️ Drift race started (race %s, track %s, %d laps)",
		e.RaceID(), e.track.ID, e.track.Laps)
}

// Stop cancels the frame loop. Idempotent.
func (e *Engine) Stop() {
	e.loop.Stop()
}

// RaceID returns the current race identity.
func (e *Engine) RaceID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.raceID
}

func (e *Engine) resetLocked() {
	e.state = StateCountdown
	e.paused = false
	e.frame = 0
	e.raceFrame = 0
	e.countdownLeft = CountdownFrames
	e.vehicle.reset(e.track)
	e.lap = 1
	e.passed = make([]bool, len(e.track.Checkpoints))
	e.perfect = make([]bool, len(e.track.Checkpoints))
	e.laps = e.laps[:0]
	e.hazardCooldown = make([]int, len(e.track.Hazards))
	e.recording = &Recording{TrackID: e.track.ID}
}

// TogglePause flips the paused suppressor. Only meaningful while racing;
// the toggle key itself stays live while paused.
func (e *Engine) TogglePause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRacing {
		e.paused = !e.paused
	}
}

func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLocked()
}

// Step advances n frames synchronously. Test hook for deterministic runs.
func (e *Engine) Step(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < n; i++ {
		e.stepLocked()
	}
}

func (e *Engine) stepLocked() {
	if e.state == StateFinished || e.paused {
		return
	}

	e.frame++

	if e.state == StateCountdown {
		e.countdownLeft--
		if e.countdownLeft <= 0 {
			e.state = StateRacing
		}
		return
	}

	e.raceFrame++
	v := &e.vehicle

	// 1. Held intents
	accel := e.input.IsHeld(sim.KeyUp)
	brake := e.input.IsHeld(sim.KeyDown)
	steer := 0.0
	if e.input.IsHeld(sim.KeyLeft) {
		steer -= 1
	}
	if e.input.IsHeld(sim.KeyRight) {
		steer += 1
	}
	driftHeld := e.input.IsHeld(sim.KeySpace)

	// 2. Drift hold and the boost meter
	if driftHeld && v.Speed > MinDriftSpeed {
		v.Drifting = true
		v.chargeMeter(DriftChargeRate)
	} else if v.Drifting {
		v.Drifting = false
		if v.Meter >= BoostMinArm {
			v.Boosting = true
		}
	}
	if v.Boosting {
		v.chargeMeter(-BoostDrainRate)
		if v.Meter <= 0 {
			v.Boosting = false
		}
	} else if !v.Drifting {
		v.chargeMeter(-MeterIdleDecay)
	}

	// 3. Speed integration
	switch {
	case accel:
		v.Speed = math.Min(v.Speed+AccelStep, MaxSpeed)
	case brake:
		v.Speed = math.Max(0, v.Speed-BrakeStep)
	default:
		v.Speed *= Friction
	}

	// 4. Effective speed: the factors compose multiplicatively.
	eff := effectiveSpeed(v)

	// 5. Steering scales with speed; drifting loosens the handling. The
	// drift-angle offset is display only and never feeds the velocity.
	turn := TurnRate
	if v.Drifting {
		turn = DriftTurnRate
	}
	v.Angle = geom.NormalizeAngle(v.Angle + turn*(v.Speed/MaxSpeed)*steer)

	target := 0.0
	if v.Drifting && steer != 0 {
		target = DriftAngleMax * steer
	}
	v.DriftAngle += (target - v.DriftAngle) * DriftAngleSnap

	// 6. Position integrates and wraps toroidally, never clamps.
	v.Pos.X = geom.Wrap(v.Pos.X+math.Cos(v.Angle)*eff, e.track.Width)
	v.Pos.Y = geom.Wrap(v.Pos.Y+math.Sin(v.Angle)*eff, e.track.Height)

	// 7. Ghost frame, every simulated frame, unconditionally.
	e.recording.append(GhostFrame{X: v.Pos.X, Y: v.Pos.Y, Angle: v.Angle, T: e.elapsedSeconds()})

	// 8. Checkpoint capture
	e.captureCheckpoints()

	// 9. Hazards
	e.applyHazards()
}

// captureCheckpoints marks gates on first entry this lap and completes the
// lap once every gate is passed. Re-entering a passed gate is a no-op.
func (e *Engine) captureCheckpoints() {
	v := &e.vehicle
	all := true
	for i := range e.track.Checkpoints {
		if e.passed[i] {
			continue
		}
		cp := &e.track.Checkpoints[i]
		d := geom.Dist(v.Pos.X, v.Pos.Y, cp.Pos.X, cp.Pos.Y)
		if d < cp.Radius {
			e.passed[i] = true
			if d < cp.PerfectRadius {
				e.perfect[i] = true
			}
		}
		if !e.passed[i] {
			all = false
		}
	}
	if all {
		e.completeLap()
	}
}

func (e *Engine) completeLap() {
	perfectLap := true
	for _, p := range e.perfect {
		perfectLap = perfectLap && p
	}
	lt := LapTime{Lap: e.lap, Seconds: e.elapsedSeconds(), Perfect: perfectLap}
	e.laps = append(e.laps, lt)
	log.Printf("🏁 Lap %d/%d in %.2fs (perfect=%v)", lt.Lap, e.track.Laps, lt.Seconds, lt.Perfect)

	if e.cb.OnLap != nil {
		e.cb.OnLap(lt)
	}
	if e.jrnl != nil {
		e.jrnl.RecordSimple(journal.EntryLap, e.frame, e.raceID, journal.LapPayload{
			Lap: lt.Lap, Seconds: lt.Seconds, Perfect: lt.Perfect,
		})
	}

	for i := range e.passed {
		e.passed[i] = false
		e.perfect[i] = false
	}

	if e.lap >= e.track.Laps {
		e.finishLocked()
		return
	}
	e.lap++
}

// applyHazards penalizes contact with a multiplicative speed cut and a
// meter cut. A short cooldown keeps one pass from punishing every frame.
func (e *Engine) applyHazards() {
	v := &e.vehicle
	for i := range e.track.Hazards {
		if e.hazardCooldown[i] > 0 {
			e.hazardCooldown[i]--
			continue
		}
		if e.track.Hazards[i].Contains(v.Pos.X, v.Pos.Y) {
			v.Speed *= HazardSpeedCut
			v.chargeMeter(-HazardBoostCut)
			e.hazardCooldown[i] = HazardCooldown
		}
	}
}

// effectiveSpeed composes the drift and boost factors multiplicatively on
// top of the scalar speed.
func effectiveSpeed(v *Vehicle) float64 {
	eff := v.Speed
	if v.Drifting {
		eff *= DriftSpeedMult
	}
	if v.Boosting {
		eff *= BoostSpeedMult
	}
	return eff
}

func (e *Engine) elapsedSeconds() float64 {
	return float64(e.raceFrame) / float64(e.tickRate)
}

// finishLocked ends the race and promotes the recording to personal best
// when the total time improves on (or first establishes) the record.
func (e *Engine) finishLocked() {
	e.state = StateFinished
	total := e.elapsedSeconds()
	e.recording.Total = total

	newRecord := e.bestTime == 0 || total < e.bestTime
	if newRecord {
		e.bestTime = total
		e.bestGhost = e.recording
	}

	res := Result{
		RaceID:       e.raceID,
		TrackID:      e.track.ID,
		TotalSeconds: total,
		Laps:         append([]LapTime(nil), e.laps...),
		NewRecord:    newRecord,
	}
	if newRecord {
		res.Ghost = e.recording
	}

	log.Printf("🏆 Drift race finished (race %s, %.2fs, record=%v)", e.raceID, total, newRecord)

	if e.cb.OnFinish != nil {
		e.cb.OnFinish(res)
	}
	if e.jrnl != nil {
		e.jrnl.RecordSimple(journal.EntryRaceEnd, e.frame, e.raceID, res)
	}
	e.loop.Stop()
}

// GhostAt exposes the personal-best echo for the current race clock. Pure
// read-side query over the immutable best recording.
func (e *Engine) GhostAt() (GhostFrame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bestGhost == nil {
		return GhostFrame{}, false
	}
	return e.bestGhost.FrameAt(e.elapsedSeconds())
}
