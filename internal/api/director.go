package api

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"neon-rush/internal/game"
	"neon-rush/internal/game/drift"
	"neon-rush/internal/game/elimination"
	"neon-rush/internal/game/runner"
	"neon-rush/internal/leaderboard"
	"neon-rush/internal/render"
	"neon-rush/internal/sim"
	"neon-rush/internal/sim/journal"
	"neon-rush/internal/store"
)

// Mode names used in routes, leaderboards, and metric labels.
const (
	ModeRunner      = "runner"
	ModeElimination = "elimination"
	ModeDrift       = "drift"
)

// Preview canvas size. Snapshots are scaled to fit regardless of arena size.
const (
	previewWidth  = 960
	previewHeight = 540
)

// DirectorConfig holds the shared services every run is wired to.
type DirectorConfig struct {
	TickRate int
	Seed     int64 // 0 means time-derived per run
	Journal  *journal.Journal
	Store    *store.Store
	Boards   *leaderboard.Set
}

// StartRequest carries the client's run parameters. Fields are used per
// mode: Character for runner/elimination, Mode for elimination, Track for
// drift. Player names the leaderboard entry.
type StartRequest struct {
	Player    string `json:"player"`
	Character string `json:"character"`
	Mode      string `json:"mode"`
	Track     string `json:"track"`
}

// StartResponse identifies the run that was created.
type StartResponse struct {
	ID     string `json:"id"`
	Mode   string `json:"mode"`
	Player string `json:"player"`
}

// Director owns at most one live engine per mode and routes transport-level
// commands to it. Engines run their own loop goroutines; the director only
// holds references and swaps them atomically under its lock, so a slow HTTP
// handler can never stall a frame.
type Director struct {
	mu  sync.Mutex
	cfg DirectorConfig

	runnerEngine *runner.Engine
	runnerInput  *sim.Input
	runnerPlayer string

	elimEngine *elimination.Engine
	elimPlayer string

	driftEngine *drift.Engine
	driftInput  *sim.Input
	driftPlayer string

	renderer *render.Renderer
	hub      *WebSocketHub

	// Lifetime points accumulate across runs per player. Guarded by its own
	// mutex because the crediting callback runs while the engine lock is
	// held; it must never touch d.mu.
	lifetimeMu sync.Mutex
	lifetime   map[string]int
}

// NewDirector creates a director with no active runs.
func NewDirector(cfg DirectorConfig) *Director {
	if cfg.TickRate == 0 {
		cfg.TickRate = 60
	}
	return &Director{
		cfg:      cfg,
		renderer: render.New(previewWidth, previewHeight),
		lifetime: make(map[string]int),
	}
}

// AttachHub wires the websocket hub for push events. Called once at startup,
// before the router starts serving.
func (d *Director) AttachHub(hub *WebSocketHub) {
	d.hub = hub
}

func (d *Director) push(event string, data interface{}) {
	if d.hub != nil {
		d.hub.Broadcast(event, data)
	}
}

func playerName(name string) string {
	if name == "" {
		return "player"
	}
	return name
}

func resolveCharacter(id string) game.Character {
	if c, ok := game.RosterByID(id); ok {
		return c
	}
	return game.DefaultRoster[0]
}

// StartRunner replaces any active runner session with a fresh one.
func (d *Director) StartRunner(req StartRequest) (StartResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.runnerEngine != nil {
		d.runnerEngine.Stop()
	}

	player := playerName(req.Player)
	input := sim.NewInput()
	eng := runner.New(runner.Options{
		TickRate: d.cfg.TickRate,
		Seed:     d.cfg.Seed,
		Player:   resolveCharacter(req.Character),
		Journal:  d.cfg.Journal,
	}, input, runner.Callbacks{
		OnScoreUpdate: func(score int) {
			d.push("runner:score", map[string]int{"score": score})
		},
		OnLevelUpdate: func(level int) {
			d.push("runner:level", map[string]int{"level": level})
		},
		OnNotice: func(text string) {
			d.push("runner:notice", map[string]string{"text": text})
		},
		OnGameOver: func(finalScore int, elapsedSeconds float64) {
			d.finishRun(ModeRunner, player, float64(finalScore), map[string]interface{}{
				"score":      finalScore,
				"elapsedSec": elapsedSeconds,
			})
		},
		OnLifetimePoints: func(points int) {
			d.creditLifetime(player, points)
		},
	})

	d.runnerEngine = eng
	d.runnerInput = input
	d.runnerPlayer = player
	eng.Start()

	RecordRunStarted(ModeRunner)
	SetRunActive(ModeRunner, true)
	log.Printf("🏃 Runner started: run=%s player=%s", eng.RunID(), player)
	return StartResponse{ID: eng.RunID(), Mode: ModeRunner, Player: player}, nil
}

// StartElimination replaces any active match with a fresh one.
func (d *Director) StartElimination(req StartRequest) (StartResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.elimEngine != nil {
		d.elimEngine.Stop()
	}

	player := playerName(req.Player)
	eng := elimination.New(elimination.Options{
		TickRate: d.cfg.TickRate,
		Seed:     d.cfg.Seed,
		Mode:     elimination.ModeByName(req.Mode),
		Player:   resolveCharacter(req.Character),
		Journal:  d.cfg.Journal,
	}, elimination.Callbacks{
		OnScoreUpdate: func(score int) {
			d.push("elimination:score", map[string]int{"score": score})
		},
		OnWin: func() {
			d.push("elimination:win", nil)
		},
		OnFinish: func(res elimination.Result) {
			d.finishRun(ModeElimination, player, float64(res.PlayerScore), res)
		},
	})

	d.elimEngine = eng
	d.elimPlayer = player
	eng.Start()

	RecordRunStarted(ModeElimination)
	SetRunActive(ModeElimination, true)
	log.Printf("⚔️ Elimination started: match=%s mode=%s player=%s", eng.MatchID(), req.Mode, player)
	return StartResponse{ID: eng.MatchID(), Mode: ModeElimination, Player: player}, nil
}

// StartDrift replaces any active race with a fresh one on the given track,
// seeding ghost playback from the stored personal best.
func (d *Director) StartDrift(req StartRequest) (StartResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	track, err := drift.TrackByID(req.Track)
	if err != nil {
		return StartResponse{}, err
	}

	if d.driftEngine != nil {
		d.driftEngine.Stop()
	}

	player := playerName(req.Player)
	var best *drift.Recording
	if d.cfg.Store != nil {
		if g, ok := d.cfg.Store.BestGhost(track.ID); ok {
			best = g
		}
	}

	input := sim.NewInput()
	eng, err := drift.New(drift.Options{
		TickRate: d.cfg.TickRate,
		Track:    track,
		Best:     best,
		Journal:  d.cfg.Journal,
	}, input, drift.Callbacks{
		OnLap: func(lt drift.LapTime) {
			d.push("drift:lap", lt)
		},
		OnFinish: func(res drift.Result) {
			if res.NewRecord && res.Ghost != nil && d.cfg.Store != nil {
				d.cfg.Store.SaveGhost(res.Ghost)
			}
			d.finishRun(ModeDrift, player, res.TotalSeconds, res)
		},
	})
	if err != nil {
		return StartResponse{}, err
	}

	d.driftEngine = eng
	d.driftInput = input
	d.driftPlayer = player
	eng.Start()

	RecordRunStarted(ModeDrift)
	SetRunActive(ModeDrift, true)
	log.Printf("🏎️ Drift started: race=%s track=%s player=%s", eng.RaceID(), track.ID, player)
	return StartResponse{ID: eng.RaceID(), Mode: ModeDrift, Player: player}, nil
}

// finishRun is the shared end-of-run sink: leaderboard submit, result
// persistence, websocket push. Called from inside an engine frame, so
// everything here must stay cheap; the store defers its own I/O.
func (d *Director) finishRun(mode, player string, score float64, detail interface{}) {
	rank := 0
	if board, ok := d.cfg.Boards.Get(mode); ok {
		board.Submit(player, score)
		rank = board.Rank(player)
	}
	if d.cfg.Store != nil {
		detailJSON, err := json.Marshal(detail)
		if err != nil {
			detailJSON = nil
		}
		d.cfg.Store.SubmitResult(store.ResultRecord{
			Time:   time.Now(),
			Mode:   mode,
			Player: player,
			Score:  score,
			Detail: string(detailJSON),
		})
	}
	SetRunActive(mode, false)
	d.push(mode+":finish", map[string]interface{}{
		"player": player,
		"score":  score,
		"rank":   rank,
		"detail": detail,
	})
	log.Printf("🏁 %s finished: player=%s score=%.1f rank=%d", mode, player, score, rank)
}

// creditLifetime adds a finished run's score to the player's running total.
// Called from inside the engine's game-over path, so it stays off d.mu.
func (d *Director) creditLifetime(player string, points int) {
	d.lifetimeMu.Lock()
	d.lifetime[player] += points
	total := d.lifetime[player]
	d.lifetimeMu.Unlock()

	d.push("runner:lifetime", map[string]interface{}{
		"player": player,
		"total":  total,
	})
}

// LifetimePoints reports the cross-run point total for a player.
func (d *Director) LifetimePoints(player string) int {
	d.lifetimeMu.Lock()
	defer d.lifetimeMu.Unlock()
	return d.lifetime[player]
}

// Input routes a key event to the mode's live engine. Elimination is a
// spectator mode once started and accepts no input.
func (d *Director) Input(mode, key string, pressed bool) error {
	d.mu.Lock()
	var input *sim.Input
	switch mode {
	case ModeRunner:
		input = d.runnerInput
	case ModeDrift:
		input = d.driftInput
	case ModeElimination:
		d.mu.Unlock()
		return fmt.Errorf("mode %q does not accept input", mode)
	default:
		d.mu.Unlock()
		return fmt.Errorf("unknown mode %q", mode)
	}
	d.mu.Unlock()

	if input == nil {
		return fmt.Errorf("no active %s run", mode)
	}
	k := sim.Key(key)
	switch k {
	case sim.KeyUp, sim.KeyDown, sim.KeyLeft, sim.KeyRight, sim.KeySpace, sim.KeyEscape:
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	if pressed {
		input.Press(k)
	} else {
		input.Release(k)
	}
	return nil
}

// Tap routes a touch event to the runner's lane-hop mapping.
func (d *Director) Tap(mode string, y float64) error {
	d.mu.Lock()
	input := d.runnerInput
	d.mu.Unlock()

	if mode != ModeRunner {
		return fmt.Errorf("mode %q does not accept taps", mode)
	}
	if input == nil {
		return fmt.Errorf("no active runner run")
	}
	input.Tap(y)
	return nil
}

// State returns the mode's current snapshot for JSON encoding.
func (d *Director) State(mode string) (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch mode {
	case ModeRunner:
		if d.runnerEngine == nil {
			return nil, fmt.Errorf("no active runner run")
		}
		return d.runnerEngine.Snapshot(), nil
	case ModeElimination:
		if d.elimEngine == nil {
			return nil, fmt.Errorf("no active elimination match")
		}
		return d.elimEngine.Snapshot(), nil
	case ModeDrift:
		if d.driftEngine == nil {
			return nil, fmt.Errorf("no active drift race")
		}
		return d.driftEngine.Snapshot(), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// Preview renders the mode's current state as a PNG.
func (d *Director) Preview(mode string) ([]byte, error) {
	d.mu.Lock()
	rEng, eEng, dEng := d.runnerEngine, d.elimEngine, d.driftEngine
	d.mu.Unlock()

	start := time.Now()
	defer func() { RecordPreview(time.Since(start)) }()

	switch mode {
	case ModeRunner:
		if rEng == nil {
			return nil, fmt.Errorf("no active runner run")
		}
		return d.renderer.Runner(rEng.Snapshot())
	case ModeElimination:
		if eEng == nil {
			return nil, fmt.Errorf("no active elimination match")
		}
		return d.renderer.Elimination(eEng.Snapshot())
	case ModeDrift:
		if dEng == nil {
			return nil, fmt.Errorf("no active drift race")
		}
		snap := dEng.Snapshot()
		track, err := drift.TrackByID(snap.TrackID)
		if err != nil {
			return nil, err
		}
		return d.renderer.Drift(snap, track)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// Stop halts every live engine. Used on shutdown.
func (d *Director) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.runnerEngine != nil {
		d.runnerEngine.Stop()
	}
	if d.elimEngine != nil {
		d.elimEngine.Stop()
	}
	if d.driftEngine != nil {
		d.driftEngine.Stop()
	}
}
