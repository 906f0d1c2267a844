package drift

import "neon-rush/internal/geom"

// Vehicle is the one racing body. Reset on the countdown of every race.
// The meter holds the [0,100] bound as an invariant; every mutation clamps.
type Vehicle struct {
	Pos        geom.Vec2
	Angle      float64 // Heading, radians
	Speed      float64 // Scalar, direction comes from Angle
	Drifting   bool
	DriftAngle float64 // Cosmetic heading offset, display only
	Boosting   bool
	Meter      float64
}

func (v *Vehicle) reset(t *Track) {
	v.Pos = t.Start
	v.Angle = t.StartAngle
	v.Speed = 0
	v.Drifting = false
	v.DriftAngle = 0
	v.Boosting = false
	v.Meter = 0
}

func (v *Vehicle) chargeMeter(amount float64) {
	v.Meter = geom.Clamp(v.Meter+amount, 0, MeterMax)
}
