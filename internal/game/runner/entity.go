package runner

import (
	"github.com/segmentio/ksuid"

	"neon-rush/internal/game"
	"neon-rush/internal/geom"
)

// Kind tags a scrolling entity.
type Kind int

const (
	KindObstacle Kind = iota
	KindCoin
	KindShieldPickup
	KindSlowPickup
	KindBlastPickup
)

func (k Kind) String() string {
	switch k {
	case KindObstacle:
		return "obstacle"
	case KindCoin:
		return "coin"
	case KindShieldPickup:
		return "shield"
	case KindSlowPickup:
		return "slow"
	case KindBlastPickup:
		return "blast"
	default:
		return "unknown"
	}
}

// Entity is a scrolling obstacle, coin, or power-up. Exclusively owned by
// the engine's entity list; destroyed when consumed or scrolled past the
// rearward cutoff.
type Entity struct {
	ID    string
	Kind  Kind
	Lane  int
	X, Y  float64
	W, H  float64
	Color string

	// Rival identity: an obstacle wearing a character's skin. Display-only,
	// collision behaves exactly like a plain obstacle.
	Rival *game.Character
}

// newEntity creates an entity of the given kind centered in the lane.
func newEntity(kind Kind, lane int) *Entity {
	size := EntityBoxSize
	color := "#e74c3c"
	switch kind {
	case KindCoin:
		size = PowerupBoxSize
		color = "#ffd166"
	case KindShieldPickup:
		size = PowerupBoxSize
		color = "#55efc4"
	case KindSlowPickup:
		size = PowerupBoxSize
		color = "#74b9ff"
	case KindBlastPickup:
		size = PowerupBoxSize
		color = "#ff7675"
	}

	return &Entity{
		ID:    ksuid.New().String(),
		Kind:  kind,
		Lane:  lane,
		X:     SpawnX,
		Y:     laneCenter(lane) - size/2,
		W:     size,
		H:     size,
		Color: color,
	}
}

// Box returns the entity's full-size bounding box.
func (e *Entity) Box() geom.Rect {
	return geom.Rect{X: e.X, Y: e.Y, W: e.W, H: e.H}
}

// laneCenter returns the vertical center of a lane.
func laneCenter(lane int) float64 {
	laneHeight := LaneBand / LaneCount
	return LaneTop + laneHeight*float64(lane) + laneHeight/2
}

// EntitySnapshot is an immutable entity copy for rendering.
type EntitySnapshot struct {
	ID    string  `json:"id"`
	Kind  string  `json:"kind"`
	Lane  int     `json:"lane"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Color string  `json:"color"`

	RivalName   string `json:"rivalName,omitempty"`
	RivalAvatar string `json:"rivalAvatar,omitempty"`
}

func (e *Entity) snapshot() EntitySnapshot {
	s := EntitySnapshot{
		ID:    e.ID,
		Kind:  e.Kind.String(),
		Lane:  e.Lane,
		X:     e.X,
		Y:     e.Y,
		W:     e.W,
		H:     e.H,
		Color: e.Color,
	}
	if e.Rival != nil {
		s.RivalName = e.Rival.Name
		s.RivalAvatar = e.Rival.Avatar
		s.Color = e.Rival.Color
	}
	return s
}
