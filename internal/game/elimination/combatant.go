package elimination

import (
	"github.com/segmentio/ksuid"

	"neon-rush/internal/game"
	"neon-rush/internal/geom"
)

// Combatant is one fighter in the arena. Created once at match start and
// never removed; elimination is a logical flag that freezes integration.
type Combatant struct {
	ID        string
	Character game.Character

	Pos    geom.Vec2
	Vel    geom.Vec2
	Radius float64

	Life       int
	Eliminated bool
	ElimOrder  int // Monotonic tag, 0 while alive
	ElimAt     float64

	FlashFrames int

	IsPlayer bool
}

func newCombatant(char game.Character, lives int, isPlayer bool) *Combatant {
	return &Combatant{
		ID:        ksuid.New().String(),
		Character: char,
		Radius:    CombatantRadius,
		Life:      lives,
		IsPlayer:  isPlayer,
	}
}

// Active reports whether the combatant still participates in physics.
func (c *Combatant) Active() bool {
	return !c.Eliminated
}

// CombatantSnapshot is the render-facing copy.
type CombatantSnapshot struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Avatar     string  `json:"avatar"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	Life       int     `json:"life"`
	Eliminated bool    `json:"eliminated"`
	ElimOrder  int     `json:"elimOrder,omitempty"`
	Flash      bool    `json:"flash"`
	IsPlayer   bool    `json:"isPlayer"`
}

func (c *Combatant) snapshot() CombatantSnapshot {
	return CombatantSnapshot{
		ID:         c.ID,
		Name:       c.Character.Name,
		Color:      c.Character.Color,
		Avatar:     c.Character.Avatar,
		X:          c.Pos.X,
		Y:          c.Pos.Y,
		Radius:     c.Radius,
		Life:       c.Life,
		Eliminated: c.Eliminated,
		ElimOrder:  c.ElimOrder,
		Flash:      c.FlashFrames > 0,
		IsPlayer:   c.IsPlayer,
	}
}
