package elimination

// Arena and tuning constants. The placement economy is tuned against the
// literal scoring constants; change them together or not at all.
const (
	ArenaWidth  = 900.0
	ArenaHeight = 640.0

	CombatantRadius = 26.0
	BaseSpeed       = 3.2  // Initial velocity magnitude at spawn
	SpawnMargin     = 60.0 // Keep-out band along the walls at spawn

	FlashFrames       = 12  // Post-collision feedback timer
	CelebrationFrames = 180 // Survivor victory lap before finishing

	// Placement scoring
	PlacementValue = 100 // Per rank above last place
	SurvivalRate   = 10  // Points per survived second
	WinnerBonus    = 500

	WinPlacementCutoff = 5 // OnWin fires at this placement or better

	MaxParticles = 160
	MaxTexts     = 24
)

// Mode is a difficulty preset: fighter count, starting lives, and the speed
// ratchet shape. The multiplier climbs by RampStep every RampInterval frames
// and never resets mid-match.
type Mode struct {
	Name         string  `json:"name"`
	Fighters     int     `json:"fighters"`
	Lives        int     `json:"lives"`
	RampInterval int     `json:"rampInterval"` // Frames between ratchet steps
	RampStep     float64 `json:"rampStep"`
	MaxMult      float64 `json:"maxMult"` // Ratchet ceiling
}

var Modes = []Mode{
	{Name: "quick", Fighters: 6, Lives: 3, RampInterval: 600, RampStep: 0.05, MaxMult: 2.0},
	{Name: "standard", Fighters: 8, Lives: 10, RampInterval: 600, RampStep: 0.05, MaxMult: 2.5},
	{Name: "chaos", Fighters: 12, Lives: 5, RampInterval: 300, RampStep: 0.08, MaxMult: 3.0},
}

// ModeByName returns the preset, falling back to standard.
func ModeByName(name string) Mode {
	for _, m := range Modes {
		if m.Name == name {
			return m
		}
	}
	return Modes[1]
}
