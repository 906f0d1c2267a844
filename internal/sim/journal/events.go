// Package journal provides bounded, rate-limited diagnostics journaling for
// the arcade engines. Entries describe what the simulation did each frame
// (spawns, pickups, collisions, eliminations, laps) and are flushed to disk
// asynchronously so the tick path never blocks.
package journal

import (
	"encoding/json"
	"time"
)

// EntryType classifies a journal entry.
type EntryType uint8

const (
	EntryUnknown EntryType = iota
	EntryFrame             // Frame boundary with RNG seed for replay
	EntrySpawn
	EntryPickup
	EntryCollision
	EntryElimination
	EntryLevelUp
	EntryLap
	EntryRaceEnd
	EntryGameOver
)

// EntryVersion guards backwards compatibility when replaying old journals.
const EntryVersion uint8 = 1

// Entry is one journal record. Payload holds the type-specific details as
// encoded JSON so the writer loop stays allocation-predictable.
type Entry struct {
	Version   uint8     `json:"version"`
	Type      EntryType `json:"type"`
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic
	Frame     uint64    `json:"frame"`     // Simulation frame this occurred in
	RunID     string    `json:"runId"`     // Owning run/match/race
	Payload   []byte    `json:"payload"`
}

func (t EntryType) String() string {
	switch t {
	case EntryFrame:
		return "frame"
	case EntrySpawn:
		return "spawn"
	case EntryPickup:
		return "pickup"
	case EntryCollision:
		return "collision"
	case EntryElimination:
		return "elimination"
	case EntryLevelUp:
		return "level_up"
	case EntryLap:
		return "lap"
	case EntryRaceEnd:
		return "race_end"
	case EntryGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// FramePayload marks a frame boundary with the RNG seed in effect, enabling
// deterministic replay of a run from its journal.
type FramePayload struct {
	RNGSeed     int64 `json:"rngSeed"`
	EntityCount int   `json:"entityCount"`
	DtNs        int64 `json:"dtNs"`
}

// SpawnPayload records an entity spawn in the runner.
type SpawnPayload struct {
	EntityID string `json:"entityId"`
	Kind     string `json:"kind"`
	Lane     int    `json:"lane"`
	Rival    string `json:"rival,omitempty"`
}

// PickupPayload records a coin or power-up pickup.
type PickupPayload struct {
	EntityID string `json:"entityId"`
	Kind     string `json:"kind"`
	Points   int    `json:"points"`
	Combo    int    `json:"combo"`
}

// CollisionPayload records a combatant-pair collision.
type CollisionPayload struct {
	A          string `json:"a"`
	B          string `json:"b"`
	LivesAfter [2]int `json:"livesAfter"`
}

// EliminationPayload records a combatant dropping out.
type EliminationPayload struct {
	CombatantID string `json:"combatantId"`
	Order       int    `json:"order"`
	Tied        bool   `json:"tied"`
}

// LapPayload records a completed lap.
type LapPayload struct {
	Lap     int     `json:"lap"`
	Seconds float64 `json:"seconds"`
	Perfect bool    `json:"perfect"`
}

// GameOverPayload records a terminal runner state.
type GameOverPayload struct {
	Score   int     `json:"score"`
	Level   int     `json:"level"`
	Seconds float64 `json:"seconds"`
}

// encodePayload marshals a payload; a failed marshal yields a nil payload
// rather than an error since journaling is best-effort diagnostics.
func encodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEntry creates an entry stamped with the current time.
func NewEntry(entryType EntryType, frame uint64, runID string, payload interface{}) Entry {
	return Entry{
		Version:   EntryVersion,
		Type:      entryType,
		Timestamp: time.Now().UnixNano(),
		Frame:     frame,
		RunID:     runID,
		Payload:   encodePayload(payload),
	}
}
