package sim

import "sync"

// Key is a logical input key. Engines read logical keys so the transport
// (browser key events over the websocket, touch taps) stays at the boundary.
type Key string

const (
	KeyUp     Key = "up"
	KeyDown   Key = "down"
	KeyLeft   Key = "left"
	KeyRight  Key = "right"
	KeySpace  Key = "space"
	KeyEscape Key = "escape"
)

// Input tracks currently-held keys and dispatches edge-triggered press
// events. It is the stable object engines read every frame; listeners update
// it from the outside, which decouples listener lifetime from simulation
// state.
//
// Two models per the engines' needs:
//   - held-set: IsHeld, read each frame for continuous forces
//   - edge events: OnPress handlers fire once per physical key-down; a held
//     key does not re-fire until released
type Input struct {
	mu       sync.Mutex
	held     map[Key]bool
	handlers map[Key][]func()
}

// NewInput creates an empty input state.
func NewInput() *Input {
	return &Input{
		held:     make(map[Key]bool),
		handlers: make(map[Key][]func()),
	}
}

// Press records a key-down. The first Press of a held key dispatches the
// registered edge handlers; repeats while held are ignored.
func (in *Input) Press(k Key) {
	in.mu.Lock()
	if in.held[k] {
		in.mu.Unlock()
		return
	}
	in.held[k] = true
	handlers := in.handlers[k]
	in.mu.Unlock()

	// Dispatch outside the lock: handlers may read input state.
	for _, h := range handlers {
		h()
	}
}

// Release records a key-up, re-arming the edge trigger for that key.
func (in *Input) Release(k Key) {
	in.mu.Lock()
	delete(in.held, k)
	in.mu.Unlock()
}

// IsHeld reports whether the key is currently depressed.
func (in *Input) IsHeld(k Key) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.held[k]
}

// OnPress registers an edge-triggered handler for a key. Handlers run
// synchronously on the Press call, in registration order.
func (in *Input) OnPress(k Key, h func()) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.handlers[k] = append(in.handlers[k], h)
}

// Reset clears all held keys. Handlers stay registered; used when an engine
// restarts so stale holds from the previous run cannot leak in.
func (in *Input) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.held = make(map[Key]bool)
}

// Tap maps a pointer/touch at the given viewport-relative vertical position
// (0 = top, 1 = bottom) to a lane-hop key press-and-release. Upper half moves
// up a lane, lower half moves down.
func (in *Input) Tap(relativeY float64) {
	k := KeyUp
	if relativeY >= 0.5 {
		k = KeyDown
	}
	in.Press(k)
	in.Release(k)
}
