package runner

import (
	"time"

	"neon-rush/internal/game"
)

// Snapshot is an immutable copy of the runner state for rendering and API
// responses. Value types throughout so consumers cannot alias the hot-path
// state.
type Snapshot struct {
	RunID   string  `json:"runId"`
	State   string  `json:"state"`
	Paused  bool    `json:"paused"`
	Frame   uint64  `json:"frame"`
	Elapsed float64 `json:"elapsed"`

	Score      int     `json:"score"`
	Level      int     `json:"level"`
	Combo      int     `json:"combo"`
	Multiplier int     `json:"multiplier"`
	Speed      float64 `json:"speed"`
	SlowMotion bool    `json:"slowMotion"`

	Lane       int            `json:"lane"`
	PlayerX    float64        `json:"playerX"`
	PlayerY    float64        `json:"playerY"`
	JumpOffset float64        `json:"jumpOffset"`
	Tilt       float64        `json:"tilt"`
	Shield     bool           `json:"shield"`
	Player     game.Character `json:"player"`

	Entities  []EntitySnapshot        `json:"entities"`
	Particles []game.ParticleSnapshot `json:"particles"`
	Texts     []game.TextSnapshot     `json:"texts"`
}

// Snapshot copies the current state. Safe to call from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := 0.0
	if e.state != StateIdle {
		elapsed = time.Since(e.startedAt).Seconds()
	}

	snap := Snapshot{
		RunID:      e.runID,
		State:      e.state.String(),
		Paused:     e.paused,
		Frame:      e.frame,
		Elapsed:    elapsed,
		Score:      e.score,
		Level:      e.level,
		Combo:      e.comboCount,
		Multiplier: ComboMultiplier(e.comboCount),
		Speed:      e.speed,
		SlowMotion: e.slowFrames > 0,
		Lane:       e.lane,
		PlayerX:    PlayerX + e.laneOffset,
		PlayerY:    e.playerY,
		JumpOffset: e.jumpOffset,
		Tilt:       e.tilt,
		Shield:     e.shield,
		Player:     e.player,
		Entities:   make([]EntitySnapshot, 0, len(e.entities)),
	}
	for _, ent := range e.entities {
		snap.Entities = append(snap.Entities, ent.snapshot())
	}
	snap.Particles = e.effects.SnapshotParticles(nil)
	snap.Texts = e.effects.SnapshotTexts(nil)
	return snap
}
