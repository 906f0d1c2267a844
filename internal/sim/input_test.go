package sim

import "testing"

func TestInputHeld(t *testing.T) {
	in := NewInput()

	if in.IsHeld(KeyUp) {
		t.Error("fresh input should hold nothing")
	}

	in.Press(KeyUp)
	if !in.IsHeld(KeyUp) {
		t.Error("KeyUp should be held after Press")
	}

	in.Release(KeyUp)
	if in.IsHeld(KeyUp) {
		t.Error("KeyUp should be released")
	}
}

func TestInputEdgeTrigger(t *testing.T) {
	in := NewInput()

	fired := 0
	in.OnPress(KeySpace, func() { fired++ })

	// A held key must not re-trigger the one-shot
	in.Press(KeySpace)
	in.Press(KeySpace)
	in.Press(KeySpace)
	if fired != 1 {
		t.Errorf("handler fired %d times while held, want 1", fired)
	}

	// Full key-up/key-down cycle re-arms it
	in.Release(KeySpace)
	in.Press(KeySpace)
	if fired != 2 {
		t.Errorf("handler fired %d times after re-press, want 2", fired)
	}
}

func TestInputMultipleHandlers(t *testing.T) {
	in := NewInput()

	var order []int
	in.OnPress(KeyEscape, func() { order = append(order, 1) })
	in.OnPress(KeyEscape, func() { order = append(order, 2) })

	in.Press(KeyEscape)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("handlers ran in order %v", order)
	}
}

func TestInputReset(t *testing.T) {
	in := NewInput()

	fired := 0
	in.OnPress(KeyUp, func() { fired++ })

	in.Press(KeyUp)
	in.Reset()

	if in.IsHeld(KeyUp) {
		t.Error("Reset should clear held keys")
	}

	// Handlers survive Reset and the edge trigger is re-armed
	in.Press(KeyUp)
	if fired != 2 {
		t.Errorf("handler fired %d times, want 2", fired)
	}
}

func TestInputTap(t *testing.T) {
	in := NewInput()

	ups, downs := 0, 0
	in.OnPress(KeyUp, func() { ups++ })
	in.OnPress(KeyDown, func() { downs++ })

	in.Tap(0.2) // upper half
	in.Tap(0.8) // lower half
	in.Tap(0.5) // boundary counts as lower

	if ups != 1 || downs != 2 {
		t.Errorf("ups=%d downs=%d, want 1 and 2", ups, downs)
	}

	// Tap releases: keys must not remain held
	if in.IsHeld(KeyUp) || in.IsHeld(KeyDown) {
		t.Error("Tap should not leave keys held")
	}
}
