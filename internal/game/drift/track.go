package drift

import (
	"fmt"

	"neon-rush/internal/geom"
)

// Checkpoint is a capture gate on the track. The perfect radius is a
// strictly smaller window inside the full capture radius.
type Checkpoint struct {
	Pos           geom.Vec2 `json:"pos"`
	Radius        float64   `json:"radius"`
	PerfectRadius float64   `json:"perfectRadius"`
}

// Track is static race data, immutable for the duration of a race.
type Track struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Laps        int          `json:"laps"`
	Start       geom.Vec2    `json:"start"`
	StartAngle  float64      `json:"startAngle"`
	Checkpoints []Checkpoint `json:"checkpoints"`
	Hazards     []geom.Rect  `json:"hazards"`
	RacingLine  []geom.Vec2  `json:"racingLine"`
	Theme       string       `json:"theme"`
}

// Validate fails fast on malformed track data. A track that passes is safe
// for the engine to consume without further guards.
func (t *Track) Validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("track %q: non-positive dimensions %gx%g", t.ID, t.Width, t.Height)
	}
	if t.Laps < 1 {
		return fmt.Errorf("track %q: lap count %d, need at least 1", t.ID, t.Laps)
	}
	if len(t.Checkpoints) == 0 {
		return fmt.Errorf("track %q: no checkpoints", t.ID)
	}
	for i, cp := range t.Checkpoints {
		if cp.Radius <= 0 {
			return fmt.Errorf("track %q: checkpoint %d has non-positive radius", t.ID, i)
		}
		if cp.PerfectRadius <= 0 || cp.PerfectRadius >= cp.Radius {
			return fmt.Errorf("track %q: checkpoint %d perfect radius %g must sit inside capture radius %g",
				t.ID, i, cp.PerfectRadius, cp.Radius)
		}
		if cp.Pos.X < 0 || cp.Pos.X > t.Width || cp.Pos.Y < 0 || cp.Pos.Y > t.Height {
			return fmt.Errorf("track %q: checkpoint %d outside track bounds", t.ID, i)
		}
	}
	return nil
}

// BuiltinTracks are the stock circuits.
var BuiltinTracks = []Track{
	{
		ID:         "neon-oval",
		Name:       "Neon Oval",
		Width:      1200,
		Height:     800,
		Laps:       3,
		Start:      geom.Vec2{X: 200, Y: 400},
		StartAngle: -1.2,
		Checkpoints: []Checkpoint{
			{Pos: geom.Vec2{X: 600, Y: 120}, Radius: 90, PerfectRadius: 36},
			{Pos: geom.Vec2{X: 1050, Y: 400}, Radius: 90, PerfectRadius: 36},
			{Pos: geom.Vec2{X: 600, Y: 680}, Radius: 90, PerfectRadius: 36},
			{Pos: geom.Vec2{X: 150, Y: 400}, Radius: 90, PerfectRadius: 36},
		},
		RacingLine: []geom.Vec2{
			{X: 200, Y: 400}, {X: 600, Y: 120}, {X: 1050, Y: 400}, {X: 600, Y: 680},
		},
		Theme: "cyan",
	},
	{
		ID:         "scrapyard",
		Name:       "Scrapyard Sprint",
		Width:      1400,
		Height:     900,
		Laps:       2,
		Start:      geom.Vec2{X: 160, Y: 760},
		StartAngle: 0,
		Checkpoints: []Checkpoint{
			{Pos: geom.Vec2{X: 700, Y: 760}, Radius: 80, PerfectRadius: 30},
			{Pos: geom.Vec2{X: 1240, Y: 520}, Radius: 80, PerfectRadius: 30},
			{Pos: geom.Vec2{X: 900, Y: 160}, Radius: 80, PerfectRadius: 30},
			{Pos: geom.Vec2{X: 340, Y: 280}, Radius: 80, PerfectRadius: 30},
			{Pos: geom.Vec2{X: 120, Y: 560}, Radius: 80, PerfectRadius: 30},
		},
		Hazards: []geom.Rect{
			{X: 620, Y: 400, W: 160, H: 120},
			{X: 1040, Y: 720, W: 140, H: 100},
		},
		RacingLine: []geom.Vec2{
			{X: 160, Y: 760}, {X: 700, Y: 760}, {X: 1240, Y: 520},
			{X: 900, Y: 160}, {X: 340, Y: 280}, {X: 120, Y: 560},
		},
		Theme: "amber",
	},
}

// TrackByID returns a validated stock track.
func TrackByID(id string) (*Track, error) {
	for i := range BuiltinTracks {
		if BuiltinTracks[i].ID == id {
			t := BuiltinTracks[i]
			if err := t.Validate(); err != nil {
				return nil, err
			}
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unknown track %q", id)
}
