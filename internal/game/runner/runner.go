// Package runner implements the endless lane-runner simulation: a
// lane-discretized player dodging scrolling obstacles, collecting coins and
// power-ups, with combo scoring and level/speed progression.
package runner

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"neon-rush/internal/game"
	"neon-rush/internal/geom"
	"neon-rush/internal/sim"
	"neon-rush/internal/sim/journal"
)

// State is the engine's top-level lifecycle state. Paused is orthogonal: a
// transient suppression of the update phase while Running, not a state of
// its own.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Callbacks are the score/event sinks consumed by presentation. Called
// synchronously from within a frame's update phase; implementations must be
// cheap and defer any I/O.
type Callbacks struct {
	OnScoreUpdate    func(score int)
	OnLevelUpdate    func(level int)
	OnGameOver       func(finalScore int, elapsedSeconds float64)
	OnLifetimePoints func(gameScore int)
	OnNotice         func(text string)
}

// Options configures an engine instance.
type Options struct {
	TickRate int
	Seed     int64              // 0 means time-derived
	Player   game.Character     // Selected character (display identity)
	Journal  *journal.Journal   // Optional diagnostics journal
}

// Engine owns all runner simulation state. A single loop goroutine mutates
// it; external readers go through Snapshot.
type Engine struct {
	mu    sync.Mutex
	loop  *sim.Loop
	input *sim.Input
	jrnl  *journal.Journal
	rng   *rand.Rand
	seed  int64
	cb    Callbacks

	runID  string
	player game.Character

	state  State
	paused bool

	frame     uint64
	startedAt time.Time

	// Player movement
	lane       int
	playerY    float64
	tilt       float64
	laneOffset float64
	airborne   bool
	jumpOffset float64
	jumpVY     float64

	// Active modifiers
	shield     bool
	slowFrames int

	// Scoring
	score       int
	level       int
	comboCount  int
	comboFrames int
	speed       float64

	// Spawning
	framesSinceSpawn int
	rivalsSeen       map[string]bool

	entities []*Entity
	effects  *game.Effects
}

// New creates a runner engine. The input object is shared with the transport
// layer, which feeds it key events.
func New(opts Options, input *sim.Input, cb Callbacks) *Engine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.TickRate == 0 {
		opts.TickRate = 60
	}

	e := &Engine{
		loop:       sim.NewLoop(opts.TickRate),
		input:      input,
		jrnl:       opts.Journal,
		rng:        rand.New(rand.NewSource(seed)),
		seed:       seed,
		cb:         cb,
		player:     opts.Player,
		state:      StateIdle,
		lane:       1,
		playerY:    laneCenter(1),
		level:      1,
		speed:      InitialSpeed,
		rivalsSeen: make(map[string]bool),
		effects:    game.NewEffects(MaxParticles, MaxTexts),
	}
	e.bindInput()
	return e
}

// bindInput registers the edge-triggered handlers. The handlers live for the
// engine's lifetime and read current state under the lock, so there is no
// stale-closure capture.
func (e *Engine) bindInput() {
	e.input.OnPress(sim.KeyUp, func() { e.changeLane(-1) })
	e.input.OnPress(sim.KeyDown, func() { e.changeLane(+1) })
	e.input.OnPress(sim.KeySpace, func() { e.jump() })
	e.input.OnPress(sim.KeyEscape, func() { e.TogglePause() })
}

// Start begins a fresh run. A run already in progress is reset.
func (e *Engine) Start() {
	e.mu.Lock()
	e.resetLocked()
	e.state = StateRunning
	e.startedAt = time.Now()
	e.runID = ksuid.New().String()
	e.mu.Unlock()

	e.input.Reset()
	e.loop.Start(e.tick)
	log.Printf("🏃 Runner started (run %s)", e.RunID())
}

// Stop cancels the frame loop. Idempotent.
func (e *Engine) Stop() {
	e.loop.Stop()
}

// RunID returns the current run's identity.
func (e *Engine) RunID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runID
}

func (e *Engine) resetLocked() {
	e.state = StateIdle
	e.paused = false
	e.frame = 0
	e.lane = 1
	e.playerY = laneCenter(1)
	e.tilt = 0
	e.laneOffset = 0
	e.airborne = false
	e.jumpOffset = 0
	e.jumpVY = 0
	e.shield = false
	e.slowFrames = 0
	e.score = 0
	e.level = 1
	e.comboCount = 0
	e.comboFrames = 0
	e.speed = InitialSpeed
	e.framesSinceSpawn = 0
	e.rivalsSeen = make(map[string]bool)
	e.entities = e.entities[:0]
	e.effects.Reset()
}

// TogglePause flips the paused suppressor. Only meaningful while running;
// the toggle key itself stays live while paused.
func (e *Engine) TogglePause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRunning {
		e.paused = !e.paused
	}
}

func (e *Engine) changeLane(dir int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning || e.paused {
		return
	}
	next := e.lane + dir
	if next < 0 || next >= LaneCount {
		return
	}
	e.lane = next
	// Visual dash: a small intra-lane kick that decays back to center.
	e.laneOffset = 18 * float64(dir)
}

// jump is a one-shot: the airborne flag gates re-triggering while held.
func (e *Engine) jump() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateRunning || e.paused || e.airborne {
		return
	}
	e.airborne = true
	e.jumpVY = JumpVelocity
}

// tick runs one simulation frame.
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
	if e.state != StateRunning || e.paused {
		return
	}

	e.frame++

	// 1. Combo timer decay
	if e.comboFrames > 0 {
		e.comboFrames--
		if e.comboFrames == 0 && e.comboCount > 0 {
			e.comboCount = 0
		}
	}

	// 2. Distance scoring
	if e.frame%ScoreInterval == 0 {
		e.score += ScoreAward
		e.emitScore()
	}

	// 3. Level-up
	if e.score >= e.level*LevelThreshold {
		e.level++
		e.speed = math.Min(e.speed+SpeedIncrement, MaxSpeed)
		if e.cb.OnLevelUpdate != nil {
			e.cb.OnLevelUpdate(e.level)
		}
		e.notice(fmt.Sprintf("Level %d!", e.level))
		if e.jrnl != nil {
			e.jrnl.RecordSimple(journal.EntryLevelUp, e.frame, e.runID, nil)
		}
	}

	// 4. Lane smoothing + tilt
	target := laneCenter(e.lane)
	residual := target - e.playerY
	e.playerY += residual * LaneLerpRate
	if math.Abs(residual) > TiltEpsilon {
		if residual > 0 {
			e.tilt = 1
		} else {
			e.tilt = -1
		}
	} else {
		e.tilt = 0
	}

	// 5. Jump physics
	if e.airborne {
		e.jumpVY += Gravity
		e.jumpOffset += e.jumpVY
		if e.jumpOffset >= 0 {
			e.jumpOffset = 0
			e.jumpVY = 0
			e.airborne = false
		}
	}

	// 6. Intra-lane offset decay, never overshooting past 0
	if e.laneOffset > 0 {
		e.laneOffset = math.Max(0, e.laneOffset-LaneOffsetDecay)
	} else if e.laneOffset < 0 {
		e.laneOffset = math.Min(0, e.laneOffset+LaneOffsetDecay)
	}

	// 11 (computed early: spawn and scroll both use it). Effective speed.
	eff := e.speed
	if e.slowFrames > 0 {
		e.slowFrames--
		eff = e.speed / 2
	}

	// 7+8. Spawn scheduling
	e.framesSinceSpawn++
	interval := math.Max(SpawnFloor, SpawnBase/(eff*SpawnScale+SpawnOffset))
	if float64(e.framesSinceSpawn) >= interval {
		e.framesSinceSpawn = 0
		e.spawn()
	}

	// 9. Scroll and prune (in-place filtering, zero allocation)
	n := 0
	for _, ent := range e.entities {
		ent.X -= eff
		if ent.X+ent.W > DespawnX {
			e.entities[n] = ent
			n++
		}
	}
	e.entities = e.entities[:n]

	// 10. Collisions
	e.resolveCollisions()

	// 12. Ephemeral effects decay. Runs even on the game-over frame so the
	// final burst still animates out.
	e.effects.Update()

	// 13. Periodic state sample, taken after the frame settles so the
	// entity count reflects this frame's spawns and prunes.
	if e.jrnl != nil && e.frame%FrameSampleInterval == 0 {
		e.jrnl.RecordSimple(journal.EntryFrame, e.frame, e.runID, journal.FramePayload{
			RNGSeed:     e.seed,
			EntityCount: len(e.entities),
			DtNs:        int64(time.Second) / int64(e.loop.TickRate()),
		})
	}
}

// spawn creates one entity with the weighted kind draw, lane-gap rejection,
// and rival substitution.
func (e *Engine) spawn() {
	kind := Kind(game.WeightedChoice(e.rng, spawnWeights))
	lane := e.rng.Intn(LaneCount)

	// Reject a spawn that would stack unfairly behind an existing same-lane
	// entity.
	for _, ent := range e.entities {
		if ent.Lane == lane && ent.X > SpawnX-MinLaneGap {
			return
		}
	}

	ent := newEntity(kind, lane)

	// A share of obstacle spawns wear a rival identity once the level allows.
	if kind == KindObstacle && e.level >= RivalMinimum && e.rng.Float64() < RivalChance {
		pool := e.rivalPool()
		if len(pool) > 0 {
			rival := pool[e.rng.Intn(len(pool))]
			ent.Rival = &rival
			if !e.rivalsSeen[rival.ID] {
				e.rivalsSeen[rival.ID] = true
				e.notice(fmt.Sprintf("%s joins the chase!", rival.Name))
			}
		}
	}

	e.entities = append(e.entities, ent)

	if e.jrnl != nil {
		payload := journal.SpawnPayload{EntityID: ent.ID, Kind: kind.String(), Lane: lane}
		if ent.Rival != nil {
			payload.Rival = ent.Rival.ID
		}
		e.jrnl.RecordSimple(journal.EntrySpawn, e.frame, e.runID, payload)
	}
}

// rivalPool returns the roster slice unlocked at the current level: one more
// rival every two levels.
func (e *Engine) rivalPool() []game.Character {
	size := e.level / 2
	if size > len(game.DefaultRoster) {
		size = len(game.DefaultRoster)
	}
	return game.DefaultRoster[:size]
}

func (e *Engine) playerBox() geom.Rect {
	return geom.Rect{
		X: PlayerX + e.laneOffset,
		Y: e.playerY - PlayerHeight/2 + e.jumpOffset,
		W: PlayerWidth,
		H: PlayerHeight,
	}.Shrink(HitboxInset)
}

func (e *Engine) resolveCollisions() {
	hitbox := e.playerBox()
	fatal := false

	// A blast collected this frame resolves after the sweep: it must not
	// compact the entity list mid-iteration.
	var blastPickup *Entity

	n := 0
	for _, ent := range e.entities {
		if !hitbox.Intersects(ent.Box()) {
			e.entities[n] = ent
			n++
			continue
		}

		switch ent.Kind {
		case KindObstacle:
			// Jump-over rule: a high enough jump clears the obstacle with no
			// effect at all. The threshold is a tuned constant, not derived
			// from obstacle height.
			if -e.jumpOffset > JumpClearance {
				e.entities[n] = ent
				n++
				continue
			}
			if e.shield {
				// Shield absorbs the hit: obstacle destroyed, shield broken,
				// combo reset, run continues.
				e.shield = false
				e.comboCount = 0
				e.comboFrames = 0
				e.effects.Burst(e.rng, ent.X, ent.Y, 12, "#55efc4")
				e.effects.AddText(ent.X, ent.Y, "Shield!", "#55efc4")
				continue
			}
			fatal = true
			e.entities[n] = ent
			n++

		case KindCoin:
			e.collectCoin(ent)

		case KindShieldPickup:
			e.shield = true
			e.effects.AddText(ent.X, ent.Y, "Shield up", "#55efc4")

		case KindSlowPickup:
			e.slowFrames = SlowMoFrames
			e.effects.AddText(ent.X, ent.Y, "Slow-mo", "#74b9ff")

		case KindBlastPickup:
			blastPickup = ent
		}
	}
	e.entities = e.entities[:n]

	if blastPickup != nil {
		// The blast destroys every obstacle, including one hit this frame.
		e.blast(blastPickup)
		fatal = false
	}

	// Terminal check runs last within the frame.
	if fatal {
		e.gameOver()
	}
}

func (e *Engine) collectCoin(ent *Entity) {
	e.comboCount++
	e.comboFrames = ComboWindowFrames
	mult := ComboMultiplier(e.comboCount)
	points := CoinValue * mult
	e.score += points
	e.emitScore()

	e.effects.Burst(e.rng, ent.X, ent.Y, 6, "#ffd166")
	label := fmt.Sprintf("+%d", points)
	if mult > 1 {
		label = fmt.Sprintf("+%d x%d", points, mult)
	}
	e.effects.AddText(ent.X, ent.Y, label, "#ffd166")

	if e.jrnl != nil {
		e.jrnl.RecordSimple(journal.EntryPickup, e.frame, e.runID, journal.PickupPayload{
			EntityID: ent.ID, Kind: "coin", Points: points, Combo: e.comboCount,
		})
	}
}

// blast destroys every live obstacle and awards a bonus per kill.
func (e *Engine) blast(pickup *Entity) {
	cleared := 0
	n := 0
	for _, ent := range e.entities {
		if ent.Kind == KindObstacle {
			cleared++
			e.effects.Burst(e.rng, ent.X, ent.Y, 8, "#ff7675")
			continue
		}
		e.entities[n] = ent
		n++
	}
	e.entities = e.entities[:n]

	bonus := cleared * BlastBonus
	e.score += bonus
	e.emitScore()
	e.effects.AddText(pickup.X, pickup.Y, fmt.Sprintf("BLAST +%d", bonus), "#ff7675")
}

func (e *Engine) gameOver() {
	e.state = StateGameOver
	elapsed := time.Since(e.startedAt).Seconds()

	log.Printf("💥 Runner over: score=%d level=%d elapsed=%.1fs", e.score, e.level, elapsed)

	if e.cb.OnGameOver != nil {
		e.cb.OnGameOver(e.score, elapsed)
	}
	if e.cb.OnLifetimePoints != nil {
		e.cb.OnLifetimePoints(e.score)
	}
	if e.jrnl != nil {
		e.jrnl.RecordSimple(journal.EntryGameOver, e.frame, e.runID, journal.GameOverPayload{
			Score: e.score, Level: e.level, Seconds: elapsed,
		})
	}
	e.loop.Stop()
}

func (e *Engine) emitScore() {
	if e.cb.OnScoreUpdate != nil {
		e.cb.OnScoreUpdate(e.score)
	}
}

func (e *Engine) notice(text string) {
	e.effects.AddText(PlayerX+120, e.playerY-60, text, "#ffffff")
	if e.cb.OnNotice != nil {
		e.cb.OnNotice(text)
	}
}
