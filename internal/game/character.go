// Package game holds the simulation vocabulary shared by the three arcade
// engines: character descriptors, ephemeral visual-feedback entities, and
// weighted random draws.
package game

import "math/rand"

// Character describes a selectable identity. Engines treat it as immutable
// for the duration of a match; color and avatar are opaque tokens consumed by
// the render boundary.
type Character struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Accent string `json:"accent"`
	Avatar string `json:"avatar"`
}

// DefaultRoster is the built-in character pool. Runner rivals are drawn from
// it in order, unlocking one pair every two levels.
var DefaultRoster = []Character{
	{ID: "dash", Name: "Dash", Color: "#ff6b6b", Accent: "#ffeaa7", Avatar: "🏎️"},
	{ID: "volt", Name: "Volt", Color: "#4ecdc4", Accent: "#dfe6e9", Avatar: "⚡"},
	{ID: "nova", Name: "Nova", Color: "#45b7d1", Accent: "#fd79a8", Avatar: "🌟"},
	{ID: "jinx", Name: "Jinx", Color: "#96ceb4", Accent: "#6c5ce7", Avatar: "🃏"},
	{ID: "rex", Name: "Rex", Color: "#fdcb6e", Accent: "#e17055", Avatar: "🦖"},
	{ID: "echo", Name: "Echo", Color: "#00b894", Accent: "#00cec9", Avatar: "🔊"},
	{ID: "fang", Name: "Fang", Color: "#6c5ce7", Accent: "#ff6b6b", Avatar: "🐺"},
	{ID: "blip", Name: "Blip", Color: "#fd79a8", Accent: "#4ecdc4", Avatar: "👾"},
}

// RosterByID returns the character with the given ID, or (zero, false).
func RosterByID(id string) (Character, bool) {
	for _, c := range DefaultRoster {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

// RandomCharacter picks a roster member using the injected RNG.
func RandomCharacter(rng *rand.Rand) Character {
	return DefaultRoster[rng.Intn(len(DefaultRoster))]
}

// WeightedChoice draws an index from weights using the injected RNG.
// Weights need not sum to anything particular; negative weights count as 0.
// Returns len(weights)-1 as the default bucket when all weights are zero.
func WeightedChoice(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return len(weights) - 1
	}

	roll := rng.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}
