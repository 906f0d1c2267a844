// Package sim provides the shared scheduling and input primitives the arcade
// engines are built on: a cancellable fixed-rate frame loop and a
// listener-decoupled input state.
package sim

import (
	"log"
	"sync"
	"time"
)

// Loop invokes a callback once per tick at a fixed rate until stopped.
//
// Cancellation is race-free: each Start bumps a generation counter and every
// queued tick re-checks it before firing, so a callback never runs after its
// matching Stop even if the ticker had already signalled.
type Loop struct {
	mu         sync.Mutex
	tickRate   int
	generation uint64
	stopChan   chan struct{}
	running    bool
}

// NewLoop creates a loop at the given ticks-per-second rate.
func NewLoop(tickRate int) *Loop {
	if tickRate <= 0 {
		tickRate = 60
	}
	return &Loop{tickRate: tickRate}
}

// TickRate returns the configured ticks per second.
func (l *Loop) TickRate() int {
	return l.tickRate
}

// Dt returns the fixed timestep in seconds.
func (l *Loop) Dt() float64 {
	return 1.0 / float64(l.tickRate)
}

// Start begins invoking callback once per tick. If a previous registration is
// active it is cancelled first; the loop never runs two callbacks
// concurrently for the same registration.
func (l *Loop) Start(callback func()) {
	l.mu.Lock()
	if l.running {
		// Cancel the prior registration before installing the new one.
		l.generation++
		close(l.stopChan)
	}
	l.running = true
	l.generation++
	gen := l.generation
	stop := make(chan struct{})
	l.stopChan = stop
	l.mu.Unlock()

	ticker := time.NewTicker(time.Second / time.Duration(l.tickRate))

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// A tick may have been queued while Stop ran. Re-check the
				// generation under the lock before firing.
				l.mu.Lock()
				live := l.running && l.generation == gen
				l.mu.Unlock()
				if !live {
					return
				}
				callback()
			case <-stop:
				return
			}
		}
	}()
}

// Stop cancels the active registration. Safe to call multiple times and from
// any goroutine; after Stop returns no further callback fires.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}
	l.running = false
	l.generation++
	close(l.stopChan)
}

// Running reports whether a registration is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// RunFor is a test helper: runs callback for n synchronous steps without the
// ticker. Engines use it for deterministic frame stepping in tests.
func RunFor(n int, callback func()) {
	for i := 0; i < n; i++ {
		callback()
	}
}

// LogRate logs the configured rate. Called once at engine startup.
func (l *Loop) LogRate(name string) {
	log.Printf("🎮 %s loop at %d TPS", name, l.tickRate)
}
