package elimination

import (
	"sort"
	"testing"

	"neon-rush/internal/game"
	"neon-rush/internal/geom"
)

// newTestEngine builds an engine in the running state without starting the
// frame loop, so tests can step deterministically.
func newTestEngine(t *testing.T, mode Mode, seed int64) *Engine {
	t.Helper()
	e := New(Options{TickRate: 60, Seed: seed, Mode: mode}, Callbacks{})
	e.state = StateRunning
	e.matchID = "test-match"
	return e
}

// newDuel replaces the spawned field with two hand-placed combatants on a
// head-on collision course.
func newDuel(t *testing.T, livesA, livesB int) (*Engine, *Combatant, *Combatant) {
	t.Helper()
	e := newTestEngine(t, Mode{Name: "duel", Fighters: 2, Lives: 1, RampInterval: 0}, 1)

	a := newCombatant(game.DefaultRoster[0], livesA, true)
	a.Pos = geom.Vec2{X: 100, Y: 300}
	a.Vel = geom.Vec2{X: 2}
	b := newCombatant(game.DefaultRoster[1], livesB, false)
	b.Pos = geom.Vec2{X: 150, Y: 300}
	b.Vel = geom.Vec2{X: -2}

	e.combatants = []*Combatant{a, b}
	e.player = a
	return e, a, b
}

func TestCollisionLifeAndVelocitySwap(t *testing.T) {
	e, a, b := newDuel(t, 5, 5)

	e.Step(1)

	if a.Life != 4 || b.Life != 4 {
		t.Errorf("lives = %d,%d; exactly one each must be lost", a.Life, b.Life)
	}
	// Head-on along x: the normal components swap outright.
	if a.Vel.X != -2 || b.Vel.X != 2 {
		t.Errorf("velocities not swapped: a=%v b=%v", a.Vel, b.Vel)
	}
	if a.Vel.Y != 0 || b.Vel.Y != 0 {
		t.Errorf("tangential components must be untouched: a=%v b=%v", a.Vel, b.Vel)
	}
	// Separated to at least the contact distance.
	if gap := b.Pos.Sub(a.Pos).Len(); gap < a.Radius+b.Radius-1e-9 {
		t.Errorf("pair still overlapping after separation: gap %.3f", gap)
	}
	if a.FlashFrames == 0 || b.FlashFrames == 0 {
		t.Error("flash timers must be set on both")
	}
}

func TestSimultaneousKnockoutIsTie(t *testing.T) {
	var result *Result
	e, a, b := newDuel(t, 1, 1)
	e.cb.OnFinish = func(res Result) { result = &res }

	e.Step(1)

	if a.ElimOrder != b.ElimOrder || a.ElimOrder != 1 {
		t.Fatalf("tie must share one order tag, got %d and %d", a.ElimOrder, b.ElimOrder)
	}
	if e.state != StateFinished {
		t.Fatal("double knockout must skip the celebration window")
	}
	if result == nil || !result.Tie {
		t.Fatal("result must be a tie")
	}
	if len(result.Winners) != 2 {
		t.Errorf("winner set = %v, want both", result.Winners)
	}
	for _, s := range result.Standings {
		if s.Placement != 1 || !s.Winner {
			t.Errorf("tied standing %+v, want shared first place", s)
		}
	}
}

func TestSoleSurvivorCelebratesThenFinishes(t *testing.T) {
	var result *Result
	e, a, b := newDuel(t, 1, 5)
	e.cb.OnFinish = func(res Result) { result = &res }

	e.Step(1)

	if !a.Eliminated || b.Eliminated {
		t.Fatalf("only a should be out: a=%v b=%v", a.Eliminated, b.Eliminated)
	}
	if e.state != StateCelebrating {
		t.Fatalf("state = %v, want celebrating", e.state)
	}

	// The survivor keeps moving during the celebration window.
	before := b.Pos
	e.Step(1)
	if b.Pos == before {
		t.Error("survivor froze during celebration")
	}

	e.Step(CelebrationFrames)
	if e.state != StateFinished {
		t.Fatal("celebration window must end in finished")
	}
	if result == nil || result.Tie {
		t.Fatal("expected a non-tie result")
	}
	if len(result.Winners) != 1 || result.Winners[0] != b.ID {
		t.Errorf("winners = %v, want just %s", result.Winners, b.ID)
	}
}

func TestWallClampAndReflect(t *testing.T) {
	e := newTestEngine(t, Mode{Name: "solo", Fighters: 2, Lives: 10, RampInterval: 0}, 1)
	c := newCombatant(game.DefaultRoster[0], 10, true)
	c.Pos = geom.Vec2{X: ArenaWidth - c.Radius - 1, Y: 300}
	c.Vel = geom.Vec2{X: 5, Y: 0}
	e.combatants = []*Combatant{c}
	e.player = c

	e.Step(1)

	if c.Pos.X != ArenaWidth-c.Radius {
		t.Errorf("position must clamp to the wall, got %.2f", c.Pos.X)
	}
	if c.Vel.X != -5 {
		t.Errorf("velocity must reflect, got %.2f", c.Vel.X)
	}

	// Never wraps: many more frames stay inside the arena.
	for i := 0; i < 500; i++ {
		e.Step(1)
		if c.Pos.X < c.Radius || c.Pos.X > ArenaWidth-c.Radius {
			t.Fatalf("escaped the arena at x=%.2f", c.Pos.X)
		}
	}
}

func TestEliminatedCombatantFreezes(t *testing.T) {
	e := newTestEngine(t, ModeByName("quick"), 3)
	victim := e.combatants[1]
	victim.Eliminated = true
	victim.ElimOrder = 1
	victim.Vel = geom.Vec2{}
	pos := victim.Pos

	e.Step(30)

	if victim.Pos != pos {
		t.Error("eliminated combatant must stop integrating")
	}
	if victim.Life < 0 {
		t.Error("life decremented after elimination")
	}
}

func TestSpeedRatchetMonotonicAndCapped(t *testing.T) {
	mode := Mode{Name: "ramp", Fighters: 2, Lives: 100, RampInterval: 10, RampStep: 0.5, MaxMult: 2.0}
	e := newTestEngine(t, mode, 1)
	// Park the combatants so nothing collides.
	e.combatants[0].Pos = geom.Vec2{X: 100, Y: 100}
	e.combatants[1].Pos = geom.Vec2{X: 800, Y: 500}
	e.combatants[0].Vel = geom.Vec2{}
	e.combatants[1].Vel = geom.Vec2{}

	prev := e.speedMult
	for i := 0; i < 50; i++ {
		e.Step(1)
		if e.speedMult < prev {
			t.Fatalf("multiplier decreased %.2f -> %.2f at frame %d", prev, e.speedMult, i+1)
		}
		prev = e.speedMult
	}
	if e.speedMult != mode.MaxMult {
		t.Errorf("multiplier = %.2f after 50 frames, want capped %.2f", e.speedMult, mode.MaxMult)
	}
}

func TestPlacementScoring(t *testing.T) {
	e := newTestEngine(t, Mode{Name: "four", Fighters: 4, Lives: 10, RampInterval: 0}, 5)
	e.frame = 600 // 10 seconds at 60 fps

	// One combatant already out: player placement is the optimistic
	// survivor count.
	e.combatants[1].Eliminated = true
	e.combatants[1].ElimOrder = 1
	e.combatants[1].ElimAt = 4

	if p := e.placement(e.player); p != 3 {
		t.Fatalf("placement = %d, want 3", p)
	}
	want := (4-3+1)*PlacementValue + 10*SurvivalRate
	if got := e.scoreFor(e.player); got != want {
		t.Errorf("score = %d, want %d", got, want)
	}

	// Frozen once eliminated: placement derives from the order tag and the
	// survival clock stops at the elimination time.
	out := e.combatants[1]
	if p := e.placement(out); p != 4 {
		t.Errorf("frozen placement = %d, want 4", p)
	}
	wantOut := (4-4+1)*PlacementValue + 4*SurvivalRate
	if got := e.scoreFor(out); got != wantOut {
		t.Errorf("frozen score = %d, want %d", got, wantOut)
	}

	// Sole survivor earns the winner bonus.
	for _, c := range e.combatants[1:] {
		c.Eliminated = true
	}
	wantWin := 4*PlacementValue + 10*SurvivalRate + WinnerBonus
	if got := e.scoreFor(e.player); got != wantWin {
		t.Errorf("winner score = %d, want %d", got, wantWin)
	}
}

func TestFullMatchEliminationOrders(t *testing.T) {
	var result *Result
	e := newTestEngine(t, ModeByName("standard"), 42)
	e.cb.OnFinish = func(res Result) { result = &res }

	for i := 0; i < 20000 && e.state != StateFinished; i++ {
		e.Step(100)
	}
	if e.state != StateFinished {
		t.Fatal("match did not finish")
	}
	if result == nil {
		t.Fatal("no result delivered")
	}

	orders := []int{}
	active := 0
	for _, c := range e.combatants {
		if c.Eliminated {
			orders = append(orders, c.ElimOrder)
		} else {
			active++
		}
	}

	if result.Tie {
		if active != 0 {
			t.Errorf("tie result with %d survivors", active)
		}
	} else {
		if active != 1 {
			t.Errorf("%d survivors, want exactly 1", active)
		}
		if len(orders) != e.mode.Fighters-1 {
			t.Errorf("%d eliminations, want %d", len(orders), e.mode.Fighters-1)
		}
	}

	// Order tags are contiguous from 1 with no gaps; duplicates only ever
	// come in tied pairs from one collision.
	sort.Ints(orders)
	maxOrder := orders[len(orders)-1]
	seen := map[int]int{}
	for _, o := range orders {
		seen[o]++
	}
	for tag := 1; tag <= maxOrder; tag++ {
		if seen[tag] == 0 {
			t.Errorf("gap in elimination orders at %d: %v", tag, orders)
		}
		if seen[tag] > 2 {
			t.Errorf("order %d assigned %d times", tag, seen[tag])
		}
	}
	if len(result.Standings) != e.mode.Fighters {
		t.Errorf("standings = %d entries, want %d", len(result.Standings), e.mode.Fighters)
	}
}
