// Package elimination implements the physics battle royale: N free-moving
// combatants bounce around a closed arena under a monotonically climbing
// speed multiplier, losing one life per contact, until a single survivor
// (or a simultaneous final knockout) ends the match.
package elimination

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

type State int

const (
	StateSetup State = iota
	StateRunning
	StateCelebrating
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateRunning:
		return "running"
	case StateCelebrating:
		return "celebrating"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Standing is one combatant's final result line.
type Standing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Placement   int     `json:"placement"`
	ElimOrder   int     `json:"elimOrder,omitempty"`
	SurvivedSec float64 `json:"survivedSec"`
	Winner      bool    `json:"winner"`
}

// Result summarizes a finished match.
type Result struct {
	MatchID         string     `json:"matchId"`
	Mode            string     `json:"mode"`
	Tie             bool       `json:"tie"`
	Winners         []string   `json:"winners"` // Combatant IDs, >1 on a tie
	PlayerPlacement int        `json:"playerPlacement"`
	PlayerScore     int        `json:"playerScore"`
	Standings       []Standing `json:"standings"`
}

// Callbacks are the presentation sinks, called synchronously mid-frame.
type Callbacks struct {
	OnScoreUpdate func(score int)
	OnWin         func()
	OnFinish      func(res Result)
}

// Options configures a match.
type Options struct {
	TickRate int
	Seed     int64 // 0 means time-derived
	Mode     Mode
	Player   game.Character
	Journal  *journal.Journal
}

// Engine owns all match state. A single loop goroutine mutates it; external
// readers go through Snapshot.
type Engine struct {
	mu   sync.Mutex
	loop *sim.Loop
	jrnl *journal.Journal
	rng  *rand.Rand
	cb   Callbacks

	matchID  string
	mode     Mode
	tickRate int

	state State
	frame uint64

	speedMult       float64
	elimCounter     int
	celebrationLeft int

	combatants []*Combatant
	player     *Combatant

	lastScore int
	winFired  bool

	effects *game.Effects
}

// New creates an engine in the setup state. Start spawns the field and
// begins the frame loop.
func New(opts Options, cb Callbacks) *Engine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.TickRate == 0 {
		opts.TickRate = 60
	}
	if opts.Mode.Fighters == 0 {
		opts.Mode = ModeByName("standard")
	}
	if opts.Player.ID == "" {
		opts.Player = game.DefaultRoster[0]
	}

	e := &Engine{
		loop:      sim.NewLoop(opts.TickRate),
		jrnl:      opts.Journal,
		rng:       rand.New(rand.NewSource(seed)),
		cb:        cb,
		mode:      opts.Mode,
		tickRate:  opts.TickRate,
		state:     StateSetup,
		speedMult: 1,
		effects:   game.NewEffects(MaxParticles, MaxTexts),
	}
	e.spawnField(opts.Player)
	return e
}

// spawnField creates the full roster of combatants at non-overlapping random
// positions with random headings. The count is fixed for the match.
func (e *Engine) spawnField(playerChar game.Character) {
	chars := make([]game.Character, 0, e.mode.Fighters)
	chars = append(chars, playerChar)
	for i := 0; len(chars) < e.mode.Fighters; i++ {
		c := game.DefaultRoster[i%len(game.DefaultRoster)]
		if c.ID == playerChar.ID && i < len(game.DefaultRoster) {
			continue
		}
		chars = append(chars, c)
	}

	for i, char := range chars {
		c := newCombatant(char, e.mode.Lives, i == 0)
		c.Pos = e.openPosition()
		heading := e.rng.Float64() * 2 * math.Pi
		c.Vel = geom.Vec2{X: math.Cos(heading), Y: math.Sin(heading)}.Scale(BaseSpeed)
		e.combatants = append(e.combatants, c)
		if c.IsPlayer {
			e.player = c
		}
	}
}

// openPosition rejection-samples a spawn point clear of the walls and of
// every already-placed combatant.
func (e *Engine) openPosition() geom.Vec2 {
	for attempt := 0; attempt < 64; attempt++ {
		p := geom.Vec2{
			X: SpawnMargin + e.rng.Float64()*(ArenaWidth-2*SpawnMargin),
			Y: SpawnMargin + e.rng.Float64()*(ArenaHeight-2*SpawnMargin),
		}
		clear := true
		for _, other := range e.combatants {
			if p.Sub(other.Pos).Len() < 3*CombatantRadius {
				clear = false
				break
			}
		}
		if clear {
			return p
		}
	}
	// Crowded arena: accept the last sample rather than spin forever.
	return geom.Vec2{X: ArenaWidth / 2, Y: ArenaHeight / 2}
}

// Start begins the match immediately; there is no countdown.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state != StateSetup {
		e.mu.Unlock()
		return
	}
	e.state = StateRunning
	e.matchID = ksuid.New().String()
	e.mu.Unlock()

	e.loop.Start(e.tick)
	log.Printf("⚔️ Elimination started (match %s, mode %s, %d fighters)",
		e.MatchID(), e.mode.Name, e.mode.Fighters)
}

// Stop cancels the frame loop. Idempotent.
func (e *Engine) Stop() {
	e.loop.Stop()
}

// MatchID returns the current match identity.
func (e *Engine) MatchID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matchID
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
	if e.state != StateRunning && e.state != StateCelebrating {
		return
	}

	e.frame++

	// 1. Speed ratchet: monotonic, never resets mid-match.
	if e.mode.RampInterval > 0 && e.frame%uint64(e.mode.RampInterval) == 0 {
		e.speedMult = math.Min(e.speedMult+e.mode.RampStep, e.mode.MaxMult)
	}

	// 2. Integrate active combatants and reflect off the walls. Eliminated
	// combatants freeze in place.
	for _, c := range e.combatants {
		if !c.Active() {
			continue
		}
		c.Pos = c.Pos.Add(c.Vel.Scale(e.speedMult))
		e.bounceWalls(c)
		if c.FlashFrames > 0 {
			c.FlashFrames--
		}
	}

	// 3. Pairwise collision sweep over active combatants.
	for i := 0; i < len(e.combatants); i++ {
		a := e.combatants[i]
		if !a.Active() {
			continue
		}
		for j := i + 1; j < len(e.combatants); j++ {
			b := e.combatants[j]
			if !b.Active() {
				continue
			}
			if a.Pos.Sub(b.Pos).Len() < a.Radius+b.Radius {
				e.collide(a, b)
			}
			if !a.Active() {
				break
			}
		}
	}

	// 5. Placement scoring, recomputed continuously.
	e.updatePlayerScore()

	// Ephemeral effects decay before the terminal check.
	e.effects.Update()

	switch e.state {
	case StateRunning:
		switch e.activeCount() {
		case 0:
			// Simultaneous final knockout: no celebration, straight to a
			// tie result.
			e.finishLocked(true)
		case 1:
			e.state = StateCelebrating
			e.celebrationLeft = CelebrationFrames
			if w := e.soleSurvivor(); w != nil {
				e.effects.AddText(w.Pos.X, w.Pos.Y-40, fmt.Sprintf("%s wins!", w.Character.Name), w.Character.Color)
			}
		}
	case StateCelebrating:
		e.celebrationLeft--
		if e.celebrationLeft <= 0 {
			e.finishLocked(false)
		}
	}
}

// bounceWalls clamps the position to the arena and flips the offending
// axis's velocity. No energy loss; never wraps.
func (e *Engine) bounceWalls(c *Combatant) {
	if c.Pos.X < c.Radius {
		c.Pos.X = c.Radius
		c.Vel.X = -c.Vel.X
	} else if c.Pos.X > ArenaWidth-c.Radius {
		c.Pos.X = ArenaWidth - c.Radius
		c.Vel.X = -c.Vel.X
	}
	if c.Pos.Y < c.Radius {
		c.Pos.Y = c.Radius
		c.Vel.Y = -c.Vel.Y
	} else if c.Pos.Y > ArenaHeight-c.Radius {
		c.Pos.Y = ArenaHeight - c.Radius
		c.Vel.Y = -c.Vel.Y
	}
}

// collide applies the full contact response to a touching active pair: one
// life each, half-overlap separation, and an elastic swap of the velocity
// components along the collision normal (equal mass for everyone).
func (e *Engine) collide(a, b *Combatant) {
	delta := b.Pos.Sub(a.Pos)
	dist := delta.Len()
	n := delta.Normalize()
	if n == (geom.Vec2{}) {
		// Perfectly coincident centers: pick an arbitrary normal.
		n = geom.Vec2{X: 1}
	}

	// Separate by half the overlap each so the pair cannot double-count on
	// the next frame.
	overlap := a.Radius + b.Radius - dist
	a.Pos = a.Pos.Sub(n.Scale(overlap / 2))
	b.Pos = b.Pos.Add(n.Scale(overlap / 2))

	// Rotate into the collision frame, swap the normal components, rotate
	// back. The tangential components are untouched.
	t := geom.Vec2{X: -n.Y, Y: n.X}
	an, at := a.Vel.Dot(n), a.Vel.Dot(t)
	bn, bt := b.Vel.Dot(n), b.Vel.Dot(t)
	a.Vel = n.Scale(bn).Add(t.Scale(at))
	b.Vel = n.Scale(an).Add(t.Scale(bt))

	a.Life--
	b.Life--
	a.FlashFrames = FlashFrames
	b.FlashFrames = FlashFrames

	mid := a.Pos.Add(b.Pos).Scale(0.5)
	e.effects.Burst(e.rng, mid.X, mid.Y, 6, "#fdcb6e")

	if e.jrnl != nil {
		e.jrnl.RecordSimple(journal.EntryCollision, e.frame, e.matchID, journal.CollisionPayload{
			A: a.ID, B: b.ID, LivesAfter: [2]int{a.Life, b.Life},
		})
	}

	// Eliminations from one collision event share a single order tag, so a
	// dual knockout is a tie for that placement.
	aDead := a.Life <= 0
	bDead := b.Life <= 0
	if !aDead && !bDead {
		return
	}
	e.elimCounter++
	tag := e.elimCounter
	tied := aDead && bDead
	if aDead {
		e.eliminate(a, tag, tied)
	}
	if bDead {
		e.eliminate(b, tag, tied)
	}
}

func (e *Engine) eliminate(c *Combatant, tag int, tied bool) {
	c.Eliminated = true
	c.ElimOrder = tag
	c.ElimAt = e.elapsedSeconds()
	c.Vel = geom.Vec2{}

	e.effects.Burst(e.rng, c.Pos.X, c.Pos.Y, 14, c.Character.Color)
	e.effects.AddText(c.Pos.X, c.Pos.Y, fmt.Sprintf("%s is out!", c.Character.Name), "#ff7675")
	log.Printf("☠️ %s eliminated (order %d)", c.Character.Name, tag)

	if e.jrnl != nil {
		e.jrnl.RecordSimple(journal.EntryElimination, e.frame, e.matchID, journal.EliminationPayload{
			CombatantID: c.ID, Order: tag, Tied: tied,
		})
	}
}

func (e *Engine) activeCount() int {
	n := 0
	for _, c := range e.combatants {
		if c.Active() {
			n++
		}
	}
	return n
}

func (e *Engine) soleSurvivor() *Combatant {
	for _, c := range e.combatants {
		if c.Active() {
			return c
		}
	}
	return nil
}

func (e *Engine) elapsedSeconds() float64 {
	return float64(e.frame) / float64(e.tickRate)
}

// placement derives a combatant's rank. While alive it is the optimistic
// count of remaining survivors; once eliminated it freezes to the rank the
// elimination order implies.
func (e *Engine) placement(c *Combatant) int {
	if c.Eliminated {
		return len(e.combatants) - c.ElimOrder + 1
	}
	return e.activeCount()
}

func (e *Engine) scoreFor(c *Combatant) int {
	place := e.placement(c)
	survived := e.elapsedSeconds()
	if c.Eliminated {
		survived = c.ElimAt
	}
	score := (len(e.combatants)-place+1)*PlacementValue + int(math.Floor(survived*float64(SurvivalRate)))
	if place == 1 {
		score += WinnerBonus
	}
	return score
}

func (e *Engine) updatePlayerScore() {
	if e.player == nil {
		return
	}
	score := e.scoreFor(e.player)
	if score != e.lastScore {
		e.lastScore = score
		if e.cb.OnScoreUpdate != nil {
			e.cb.OnScoreUpdate(score)
		}
	}
}

// finishLocked transitions to the terminal state and reports the result. On
// a tie the winner set is everyone holding the maximal elimination order.
func (e *Engine) finishLocked(tie bool) {
	e.state = StateFinished

	res := Result{
		MatchID: e.matchID,
		Mode:    e.mode.Name,
		Tie:     tie,
	}

	maxOrder := 0
	for _, c := range e.combatants {
		if c.ElimOrder > maxOrder {
			maxOrder = c.ElimOrder
		}
	}

	for _, c := range e.combatants {
		winner := false
		if tie {
			winner = c.ElimOrder == maxOrder
		} else {
			winner = c.Active()
		}
		if winner {
			res.Winners = append(res.Winners, c.ID)
		}

		place := e.placement(c)
		if winner {
			place = 1
		}
		survived := e.elapsedSeconds()
		if c.Eliminated {
			survived = c.ElimAt
		}
		res.Standings = append(res.Standings, Standing{
			ID:          c.ID,
			Name:        c.Character.Name,
			Placement:   place,
			ElimOrder:   c.ElimOrder,
			SurvivedSec: survived,
			Winner:      winner,
		})

		if c.IsPlayer {
			res.PlayerPlacement = place
			res.PlayerScore = e.scoreFor(c)
			if winner {
				res.PlayerScore = (len(e.combatants))*PlacementValue +
					int(math.Floor(survived*float64(SurvivalRate))) + WinnerBonus
			}
		}
	}

	log.Printf("🏆 Elimination finished (match %s, tie=%v, player placement %d)",
		e.matchID, tie, res.PlayerPlacement)

	if res.PlayerPlacement > 0 && res.PlayerPlacement <= WinPlacementCutoff &&
		!e.winFired && e.cb.OnWin != nil {
		e.winFired = true
		e.cb.OnWin()
	}
	if e.cb.OnFinish != nil {
		e.cb.OnFinish(res)
	}
	if e.jrnl != nil {
		e.jrnl.RecordSimple(journal.EntryRaceEnd, e.frame, e.matchID, res)
	}
	e.loop.Stop()
}
