// Package render draws diagnostic PNG previews of live simulation state.
// Consumes snapshots only; it never touches engine internals and is served
// from an admin endpoint, not the gameplay path.
package render

import (
	"bytes"
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"neon-rush/internal/game"
	"neon-rush/internal/game/drift"
	"neon-rush/internal/game/elimination"
	"neon-rush/internal/game/runner"
)

// Renderer owns a reusable drawing context per canvas size.
type Renderer struct {
	width, height int
}

func New(width, height int) *Renderer {
	return &Renderer{width: width, height: height}
}

// PNG encodes a context to PNG bytes.
func (r *Renderer) encode(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) newContext() *gg.Context {
	dc := gg.NewContext(r.width, r.height)
	dc.SetHexColor("#10131c")
	dc.DrawRectangle(0, 0, float64(r.width), float64(r.height))
	dc.Fill()
	return dc
}

// Runner draws the lane runner: lane bands, the player square, and every
// live entity at its scaled position.
func (r *Renderer) Runner(snap runner.Snapshot) ([]byte, error) {
	dc := r.newContext()
	sx := float64(r.width) / runner.ArenaWidth
	sy := float64(r.height) / runner.ArenaHeight

	// Lane separators
	dc.SetHexColor("#1f2533")
	laneHeight := runner.LaneBand / runner.LaneCount
	for lane := 0; lane <= runner.LaneCount; lane++ {
		y := (runner.LaneTop + laneHeight*float64(lane)) * sy
		dc.DrawLine(0, y, float64(r.width), y)
		dc.Stroke()
	}

	for _, ent := range snap.Entities {
		dc.SetHexColor(ent.Color)
		dc.DrawRectangle(ent.X*sx, ent.Y*sy, ent.W*sx, ent.H*sy)
		dc.Fill()
	}

	dc.SetHexColor(playerColor(snap.Player))
	dc.DrawRectangle(snap.PlayerX*sx,
		(snap.PlayerY-runner.PlayerHeight/2+snap.JumpOffset)*sy,
		runner.PlayerWidth*sx, runner.PlayerHeight*sy)
	dc.Fill()

	r.drawEffects(dc, snap.Particles, sx, sy)
	r.drawHUD(dc, fmt.Sprintf("score %d  lvl %d  combo x%d  %s",
		snap.Score, snap.Level, snap.Multiplier, snap.State))
	return r.encode(dc)
}

// Elimination draws the arena as circles, dimming the fallen.
func (r *Renderer) Elimination(snap elimination.Snapshot) ([]byte, error) {
	dc := r.newContext()
	sx := float64(r.width) / elimination.ArenaWidth
	sy := float64(r.height) / elimination.ArenaHeight

	for _, c := range snap.Combatants {
		if c.Eliminated {
			dc.SetHexColor("#2a2f3d")
		} else {
			dc.SetHexColor(c.Color)
		}
		dc.DrawCircle(c.X*sx, c.Y*sy, c.Radius*sx)
		dc.Fill()
		if c.Flash {
			dc.SetHexColor("#ffffff")
			dc.DrawCircle(c.X*sx, c.Y*sy, c.Radius*sx+3)
			dc.Stroke()
		}
	}

	r.drawEffects(dc, snap.Particles, sx, sy)
	r.drawHUD(dc, fmt.Sprintf("%s  x%.2f  %d standing  score %d",
		snap.State, snap.SpeedMult, snap.Active, snap.PlayerScore))
	return r.encode(dc)
}

// Drift draws the track gates, hazards, the vehicle, and the ghost echo.
func (r *Renderer) Drift(snap drift.Snapshot, track *drift.Track) ([]byte, error) {
	dc := r.newContext()
	sx := float64(r.width) / track.Width
	sy := float64(r.height) / track.Height

	for _, hz := range track.Hazards {
		dc.SetHexColor("#3d2a2a")
		dc.DrawRectangle(hz.X*sx, hz.Y*sy, hz.W*sx, hz.H*sy)
		dc.Fill()
	}
	for i, cp := range track.Checkpoints {
		if i < len(snap.Passed) && snap.Passed[i] {
			dc.SetHexColor("#2e7d5b")
		} else {
			dc.SetHexColor("#27314a")
		}
		dc.DrawCircle(cp.Pos.X*sx, cp.Pos.Y*sy, cp.Radius*sx)
		dc.Stroke()
		dc.DrawCircle(cp.Pos.X*sx, cp.Pos.Y*sy, cp.PerfectRadius*sx)
		dc.Stroke()
	}

	if snap.Ghost != nil {
		dc.SetHexColor("#4a5066")
		dc.DrawCircle(snap.Ghost.X*sx, snap.Ghost.Y*sy, 8)
		dc.Fill()
	}

	dc.SetHexColor("#55efc4")
	dc.DrawCircle(snap.X*sx, snap.Y*sy, 9)
	dc.Fill()

	r.drawHUD(dc, fmt.Sprintf("%s  lap %d/%d  %.1fs  boost %.0f",
		snap.State, snap.Lap, snap.TotalLaps, snap.Elapsed, snap.Meter))
	return r.encode(dc)
}

func (r *Renderer) drawEffects(dc *gg.Context, particles []game.ParticleSnapshot, sx, sy float64) {
	for _, p := range particles {
		dc.SetHexColor(p.Color)
		dc.DrawCircle(p.X*sx, p.Y*sy, 2)
		dc.Fill()
	}
}

func (r *Renderer) drawHUD(dc *gg.Context, text string) {
	dc.SetHexColor("#e6e8f0")
	dc.DrawStringAnchored(text, 12, 18, 0, 0.5)
}

func playerColor(c game.Character) string {
	if c.Color != "" {
		return c.Color
	}
	return "#74b9ff"
}

// Bounds reports the canvas size, mostly for tests.
func (r *Renderer) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}
