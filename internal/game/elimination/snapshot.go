package elimination

import "neon-rush/internal/game"

// Snapshot is an immutable copy of the match state for rendering and API
// responses.
type Snapshot struct {
	MatchID   string  `json:"matchId"`
	State     string  `json:"state"`
	Mode      string  `json:"mode"`
	Frame     uint64  `json:"frame"`
	Elapsed   float64 `json:"elapsed"`
	SpeedMult float64 `json:"speedMult"`
	Active    int     `json:"active"`

	PlayerScore     int `json:"playerScore"`
	PlayerPlacement int `json:"playerPlacement"`

	Combatants []CombatantSnapshot     `json:"combatants"`
	Particles  []game.ParticleSnapshot `json:"particles"`
	Texts      []game.TextSnapshot     `json:"texts"`
}

// Snapshot copies the current state. Safe to call from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		MatchID:    e.matchID,
		State:      e.state.String(),
		Mode:       e.mode.Name,
		Frame:      e.frame,
		Elapsed:    e.elapsedSeconds(),
		SpeedMult:  e.speedMult,
		Active:     e.activeCount(),
		Combatants: make([]CombatantSnapshot, 0, len(e.combatants)),
	}
	if e.player != nil {
		snap.PlayerScore = e.scoreFor(e.player)
		snap.PlayerPlacement = e.placement(e.player)
	}
	for _, c := range e.combatants {
		snap.Combatants = append(snap.Combatants, c.snapshot())
	}
	snap.Particles = e.effects.SnapshotParticles(nil)
	snap.Texts = e.effects.SnapshotTexts(nil)
	return snap
}
