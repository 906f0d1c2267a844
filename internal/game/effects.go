package game

import (
	"math"
	"math/rand"
)

// Particle is a decaying visual-feedback entity. Rendering is out of scope
// for the engines, but particle creation and decay are part of the simulation
// contract (collisions, combos, eliminations all spawn them).
type Particle struct {
	X, Y   float64
	VX, VY float64
	Color  string
	Alpha  float64
	Life   float64
}

// FloatingText is a rising score/notification text with a decaying alpha.
type FloatingText struct {
	X, Y  float64
	VY    float64
	Text  string
	Color string
	Alpha float64
}

// Effects owns an engine's ephemeral entities with hard caps. Overflow is
// silently dropped; effects are feedback, not state.
type Effects struct {
	particles []*Particle
	texts     []*FloatingText

	maxParticles int
	maxTexts     int
}

// NewEffects creates an effect set with the given caps.
func NewEffects(maxParticles, maxTexts int) *Effects {
	return &Effects{
		particles:    make([]*Particle, 0, maxParticles),
		texts:        make([]*FloatingText, 0, maxTexts),
		maxParticles: maxParticles,
		maxTexts:     maxTexts,
	}
}

// Burst spawns count particles radiating from (x, y).
func (e *Effects) Burst(rng *rand.Rand, x, y float64, count int, color string) {
	for i := 0; i < count; i++ {
		if len(e.particles) >= e.maxParticles {
			return
		}
		angle := rng.Float64() * math.Pi * 2
		speed := rng.Float64()*3 + 1
		e.particles = append(e.particles, &Particle{
			X:     x,
			Y:     y,
			VX:    math.Cos(angle) * speed,
			VY:    math.Sin(angle) * speed,
			Color: color,
			Alpha: 1.0,
			Life:  1.0,
		})
	}
}

// AddText spawns a floating text rising from (x, y).
func (e *Effects) AddText(x, y float64, text, color string) {
	if len(e.texts) >= e.maxTexts {
		return
	}
	e.texts = append(e.texts, &FloatingText{
		X:     x,
		Y:     y - 30,
		VY:    -2,
		Text:  text,
		Color: color,
		Alpha: 1.0,
	})
}

// Update advances and prunes all effects. In-place filtering keeps this
// zero-allocation on the hot path.
func (e *Effects) Update() {
	n := 0
	for _, p := range e.particles {
		p.X += p.VX
		p.Y += p.VY
		p.Life -= 0.02
		p.Alpha = p.Life

		if p.Life > 0 {
			e.particles[n] = p
			n++
		}
	}
	e.particles = e.particles[:n]

	n = 0
	for _, t := range e.texts {
		t.Y += t.VY
		t.Alpha -= 0.02

		if t.Alpha > 0 {
			e.texts[n] = t
			n++
		}
	}
	e.texts = e.texts[:n]
}

// Reset drops all live effects.
func (e *Effects) Reset() {
	e.particles = e.particles[:0]
	e.texts = e.texts[:0]
}

// Particles returns the live particles. Callers must not retain the slice
// across an Update.
func (e *Effects) Particles() []*Particle {
	return e.particles
}

// Texts returns the live floating texts.
func (e *Effects) Texts() []*FloatingText {
	return e.texts
}

// ParticleSnapshot is an immutable particle copy for rendering.
type ParticleSnapshot struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
}

// TextSnapshot is an immutable floating-text copy for rendering.
type TextSnapshot struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
}

// SnapshotParticles copies live particles into dst (reusing capacity).
func (e *Effects) SnapshotParticles(dst []ParticleSnapshot) []ParticleSnapshot {
	dst = dst[:0]
	for _, p := range e.particles {
		dst = append(dst, ParticleSnapshot{X: p.X, Y: p.Y, Color: p.Color, Alpha: p.Alpha})
	}
	return dst
}

// SnapshotTexts copies live texts into dst (reusing capacity).
func (e *Effects) SnapshotTexts(dst []TextSnapshot) []TextSnapshot {
	dst = dst[:0]
	for _, t := range e.texts {
		dst = append(dst, TextSnapshot{X: t.X, Y: t.Y, Text: t.Text, Color: t.Color, Alpha: t.Alpha})
	}
	return dst
}
