package sim

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopStartStop(t *testing.T) {
	loop := NewLoop(120)

	var ticks int64
	loop.Start(func() { atomic.AddInt64(&ticks, 1) })

	time.Sleep(100 * time.Millisecond)
	loop.Stop()

	if atomic.LoadInt64(&ticks) == 0 {
		t.Error("callback never fired")
	}

	// No callback may fire after Stop
	settled := atomic.LoadInt64(&ticks)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt64(&ticks); got != settled {
		t.Errorf("callback fired after Stop: %d -> %d", settled, got)
	}

	// Double stop must not panic
	loop.Stop()
}

func TestLoopOverlappingStart(t *testing.T) {
	loop := NewLoop(200)

	var first, second int64
	loop.Start(func() { atomic.AddInt64(&first, 1) })
	time.Sleep(30 * time.Millisecond)

	// Second Start must cancel the first registration
	loop.Start(func() { atomic.AddInt64(&second, 1) })
	firstAtSwap := atomic.LoadInt64(&first)
	time.Sleep(50 * time.Millisecond)
	loop.Stop()

	if atomic.LoadInt64(&second) == 0 {
		t.Error("second callback never fired")
	}
	// The old registration may have had one queued tick at most; it must not
	// keep running alongside the new one.
	if drift := atomic.LoadInt64(&first) - firstAtSwap; drift > 1 {
		t.Errorf("first callback kept firing after restart (%d extra ticks)", drift)
	}
}

func TestLoopDt(t *testing.T) {
	if dt := NewLoop(60).Dt(); dt != 1.0/60.0 {
		t.Errorf("Dt = %v", dt)
	}
	if NewLoop(0).TickRate() != 60 {
		t.Error("zero tick rate should default to 60")
	}
}

func TestLoopRunning(t *testing.T) {
	loop := NewLoop(60)
	if loop.Running() {
		t.Error("new loop should not be running")
	}
	loop.Start(func() {})
	if !loop.Running() {
		t.Error("loop should report running after Start")
	}
	loop.Stop()
	if loop.Running() {
		t.Error("loop should not report running after Stop")
	}
}
