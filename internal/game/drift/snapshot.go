package drift

// Snapshot is an immutable copy of race state for rendering and API
// responses. The ghost echo, when a personal best exists, is resolved at
// snapshot time against the current race clock.
type Snapshot struct {
	RaceID    string  `json:"raceId"`
	TrackID   string  `json:"trackId"`
	State     string  `json:"state"`
	Paused    bool    `json:"paused"`
	Countdown int     `json:"countdown"`
	Elapsed   float64 `json:"elapsed"`

	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Angle      float64 `json:"angle"`
	DriftAngle float64 `json:"driftAngle"` // Added to heading for display only
	Speed      float64 `json:"speed"`
	Drifting   bool    `json:"drifting"`
	Boosting   bool    `json:"boosting"`
	Meter      float64 `json:"meter"`

	Lap       int         `json:"lap"`
	TotalLaps int         `json:"totalLaps"`
	Passed    []bool      `json:"passed"`
	Laps      []LapTime   `json:"laps"`
	BestTime  float64     `json:"bestTime,omitempty"`
	Ghost     *GhostFrame `json:"ghost,omitempty"`
}

// Snapshot copies the current state. Safe to call from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := &e.vehicle
	snap := Snapshot{
		RaceID:     e.raceID,
		TrackID:    e.track.ID,
		State:      e.state.String(),
		Paused:     e.paused,
		Countdown:  e.countdownLeft,
		Elapsed:    e.elapsedSeconds(),
		X:          v.Pos.X,
		Y:          v.Pos.Y,
		Angle:      v.Angle,
		DriftAngle: v.DriftAngle,
		Speed:      v.Speed,
		Drifting:   v.Drifting,
		Boosting:   v.Boosting,
		Meter:      v.Meter,
		Lap:        e.lap,
		TotalLaps:  e.track.Laps,
		Passed:     append([]bool(nil), e.passed...),
		Laps:       append([]LapTime(nil), e.laps...),
		BestTime:   e.bestTime,
	}
	if e.bestGhost != nil {
		if f, ok := e.bestGhost.FrameAt(e.elapsedSeconds()); ok {
			snap.Ghost = &f
		}
	}
	return snap
}
