package runner

// Balance constants for the lane runner. These are server-authoritative and
// tuned as a set; the scoring and unlock economy depends on the literal
// values, so change them together or not at all.
const (
	// Arena
	LaneCount    = 3
	ArenaWidth   = 1280.0
	ArenaHeight  = 720.0
	LaneTop      = 180.0 // Top of the lane band
	LaneBand     = 440.0 // Height covered by all lanes
	PlayerX      = 200.0
	PlayerWidth  = 52.0
	PlayerHeight = 52.0
	SpawnX       = ArenaWidth + 60.0 // Entities enter just off-screen
	DespawnX     = -80.0             // Rearward cutoff

	// Speed and levels
	InitialSpeed   = 6.0
	MaxSpeed       = 13.0
	SpeedIncrement = 0.5
	LevelThreshold = 500 // Level-up at score >= level * threshold

	// Distance scoring
	ScoreInterval = 20 // Frames between distance awards
	ScoreAward    = 10

	// Combo
	ComboWindowFrames = 180 // Frames before an idle combo expires
	CoinValue         = 50

	// Jump physics. Offset is negative while airborne; gravity pulls it back
	// toward zero.
	JumpVelocity  = -16.0
	Gravity       = 1.1
	JumpClearance = 30.0 // Obstacle passes harmlessly beyond this offset

	// Lane movement
	LaneLerpRate    = 0.18
	TiltEpsilon     = 0.5
	LaneOffsetDecay = 0.8 // Fixed per-frame step toward 0

	// Spawning. Interval shrinks as effective speed grows:
	// max(SpawnFloor, SpawnBase/(speed*SpawnScale+SpawnOffset)).
	SpawnFloor   = 26.0
	SpawnBase    = 2600.0
	SpawnScale   = 8.0
	SpawnOffset  = 10.0
	MinLaneGap   = 180.0 // Same-lane trailing distance below which a spawn is rejected
	RivalChance  = 0.35  // Fraction of obstacle spawns replaced by a rival
	RivalMinimum = 2     // Rivals appear from this level on

	// Power-ups
	SlowMoFrames   = 300 // Slow-motion duration
	BlastBonus     = 30  // Points per obstacle cleared by a blast
	HitboxInset    = 8.0 // Player hitbox shrink for forgiving collisions
	EntityBoxSize  = 48.0
	PowerupBoxSize = 40.0

	// Effects caps
	MaxParticles = 200
	MaxTexts     = 30

	// Journal
	FrameSampleInterval = 300 // Frames between periodic state samples
)

// Spawn weights per entity kind: obstacles default, coins uncommon,
// power-ups rarest.
var spawnWeights = []float64{
	KindObstacle:     62,
	KindCoin:         26,
	KindShieldPickup: 5,
	KindSlowPickup:   4,
	KindBlastPickup:  3,
}

// ComboMultiplier is the deterministic step function of the combo count.
func ComboMultiplier(comboCount int) int {
	switch {
	case comboCount >= 20:
		return 5
	case comboCount >= 10:
		return 3
	case comboCount >= 5:
		return 2
	default:
		return 1
	}
}
