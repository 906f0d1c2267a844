package drift

// Handling and economy constants. Effective speed composes the drift and
// boost factors multiplicatively; the meter is a hard [0,100] bound.
const (
	CountdownFrames = 180

	// Speed integration
	AccelStep     = 0.22
	BrakeStep     = 0.45
	Friction      = 0.975 // Multiplicative decay when neither pedal is held
	MaxSpeed      = 11.0
	MinDriftSpeed = 4.0 // Drift hold below this speed does nothing

	// Boost meter
	MeterMax        = 100.0
	DriftChargeRate = 0.9  // Per frame while drifting
	BoostDrainRate  = 1.6  // Per frame while boosting
	MeterIdleDecay  = 0.25 // Per frame otherwise
	BoostMinArm     = 30.0 // Release below this arms nothing

	// Multiplicative speed factors
	DriftSpeedMult = 0.85
	BoostSpeedMult = 1.45

	// Steering
	TurnRate       = 0.055 // Radians per frame at full speed
	DriftTurnRate  = 0.085 // Looser handling while drifting
	DriftAngleMax  = 0.45  // Cosmetic heading offset magnitude
	DriftAngleSnap = 0.12  // Per-frame approach toward the offset target

	// Hazards
	HazardSpeedCut = 0.55 // Multiplicative speed cut on contact
	HazardBoostCut = 20.0 // Meter penalty on contact
	HazardCooldown = 30   // Frames before the same hazard can punish again

	GhostSampleCap = 60 * 60 * 20 // Frames kept per recording (20 minutes)
)
