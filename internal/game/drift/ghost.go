package drift

import "sort"

// GhostFrame is one sample of a recorded run. Timestamps are seconds since
// race start and strictly increase within a recording.
type GhostFrame struct {
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	Angle float64 `json:"a" msgpack:"a"`
	T     float64 `json:"t" msgpack:"t"`
}

// Recording is an append-only ghost-frame sequence for one run. It becomes
// immutable once the race ends.
type Recording struct {
	TrackID string       `json:"trackId" msgpack:"track_id"`
	Total   float64      `json:"total" msgpack:"total"`
	Frames  []GhostFrame `json:"frames" msgpack:"frames"`
}

func (r *Recording) append(f GhostFrame) {
	if len(r.Frames) >= GhostSampleCap {
		return
	}
	r.Frames = append(r.Frames, f)
}

// FrameAt returns the recorded frame whose timestamp bracket contains the
// elapsed time. A pure read-side query for rendering the translucent echo;
// never part of the authoritative step.
func (r *Recording) FrameAt(elapsed float64) (GhostFrame, bool) {
	if len(r.Frames) == 0 {
		return GhostFrame{}, false
	}
	if elapsed <= r.Frames[0].T {
		return r.Frames[0], true
	}
	last := r.Frames[len(r.Frames)-1]
	if elapsed >= last.T {
		return last, true
	}
	// First frame strictly after elapsed; its predecessor opens the bracket.
	i := sort.Search(len(r.Frames), func(i int) bool {
		return r.Frames[i].T > elapsed
	})
	return r.Frames[i-1], true
}
