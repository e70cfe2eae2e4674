package bloom

import (
	"math"
	"testing"
)

func TestNewScaleDefault(t *testing.T) {
	s := NewScale()
	if got := s.Value(); got != 1.00 {
		t.Errorf("NewScale().Value() = %v, want 1.00", got)
	}
	if s.IsCustom() {
		t.Error("NewScale() should not be custom")
	}
}

func TestScaleStepUpDown(t *testing.T) {
	s := NewScale()
	s.StepUp()
	if got := s.Value(); got != 1.25 {
		t.Errorf("after StepUp from 1.00, Value() = %v, want 1.25", got)
	}
	s.StepDown()
	s.StepDown()
	if got := s.Value(); got != 0.90 {
		t.Errorf("after StepDown twice from 1.25, Value() = %v, want 0.90", got)
	}
}

func TestScaleStepReturnsPreviousValue(t *testing.T) {
	s := NewScale()
	if prev := s.StepUp(); prev != 1.00 {
		t.Errorf("StepUp() = %v, want previous value 1.00", prev)
	}
	if prev := s.StepDown(); prev != 1.25 {
		t.Errorf("StepDown() = %v, want previous value 1.25", prev)
	}
	s.SetCustom(0.37)
	if prev := s.StepUp(); prev != 0.37 {
		t.Errorf("StepUp() from custom 0.37 = %v, want 0.37", prev)
	}
	s.SetCustom(0.37)
	if prev := s.StepDown(); prev != 0.37 {
		t.Errorf("StepDown() from custom 0.37 = %v, want 0.37", prev)
	}
}

func TestScaleClampAtEnds(t *testing.T) {
	s := NewScale()
	for range len(zoomSteps) * 2 {
		s.StepUp()
	}
	if got := s.Value(); got != 35 {
		t.Errorf("Value() after saturating StepUp = %v, want 35", got)
	}
	s.StepUp()
	if got := s.Value(); got != 35 {
		t.Errorf("StepUp at max should be a no-op, got %v", got)
	}

	for range len(zoomSteps) * 2 {
		s.StepDown()
	}
	if got := s.Value(); got != 0.01 {
		t.Errorf("Value() after saturating StepDown = %v, want 0.01", got)
	}
	s.StepDown()
	if got := s.Value(); got != 0.01 {
		t.Errorf("StepDown at min should be a no-op, got %v", got)
	}
}

func TestScaleStepUpMonotonic(t *testing.T) {
	// Repeated StepUp must be non-decreasing from any starting point and
	// reach the top of the table.
	starts := []float64{0.015, 0.37, 1.0, 4.2, 33, 35}
	for _, start := range starts {
		s := NewScale()
		s.SetCustom(start)
		prev := s.Value()
		for range len(zoomSteps) + 2 {
			s.StepUp()
			v := s.Value()
			if v < prev {
				t.Fatalf("start %v: StepUp went from %v to %v", start, prev, v)
			}
			prev = v
		}
		if prev != 35 {
			t.Errorf("start %v: repeated StepUp ended at %v, want 35", start, prev)
		}
	}
}

func TestScaleCustomSnap(t *testing.T) {
	s := NewScale()
	s.SetCustom(0.37)
	if !s.IsCustom() {
		t.Fatal("SetCustom(0.37) should enter custom state")
	}
	if got := s.Value(); got != 0.37 {
		t.Errorf("Value() = %v, want 0.37", got)
	}

	s.StepUp()
	if got := s.Value(); got != 0.40 {
		t.Errorf("StepUp from custom 0.37 = %v, want 0.40", got)
	}
	if s.IsCustom() {
		t.Error("StepUp should discard the custom factor")
	}

	s.SetCustom(0.37)
	s.StepDown()
	if got := s.Value(); got != 0.30 {
		t.Errorf("StepDown from custom 0.37 = %v, want 0.30", got)
	}
}

func TestScaleCustomDiscardedPermanently(t *testing.T) {
	s := NewScale()
	s.SetCustom(0.37)
	s.StepUp()   // 0.40
	s.StepDown() // must go to 0.30, not back to 0.37
	if got := s.Value(); got != 0.30 {
		t.Errorf("Value() = %v, want 0.30 (custom must not resurface)", got)
	}
}

func TestScaleSetCustomOnStep(t *testing.T) {
	s := NewScale()
	s.SetCustom(2.50)
	if s.IsCustom() {
		t.Error("SetCustom on an exact step should adopt the step index")
	}
	s.StepUp()
	if got := s.Value(); got != 3.00 {
		t.Errorf("StepUp after SetCustom(2.50) = %v, want 3.00", got)
	}

	// Within epsilon of a step counts as that step.
	s.SetCustom(1.25 + 1e-9)
	if s.IsCustom() {
		t.Error("SetCustom within epsilon of a step should adopt the step")
	}
}

func TestScaleSetCustomOutOfRange(t *testing.T) {
	// Custom factors may exceed the table (e.g. fit on a tiny or huge
	// image); stepping snaps back onto the ladder.
	s := NewScale()
	s.SetCustom(50)
	if got := s.Value(); got != 50 {
		t.Errorf("SetCustom(50) = %v, want 50", got)
	}
	s.StepDown()
	if got := s.Value(); got != 35 {
		t.Errorf("StepDown from custom 50 = %v, want 35", got)
	}

	s.SetCustom(0.0001)
	s.StepUp()
	if got := s.Value(); got != 0.01 {
		t.Errorf("StepUp from custom 0.0001 = %v, want 0.01", got)
	}
}

func TestSnapUpDown(t *testing.T) {
	cases := []struct {
		v        float64
		up, down float64
	}{
		{0.37, 0.40, 0.30},
		{1.00, 1.25, 0.90}, // exact step snaps strictly past itself
		{0.005, 0.01, 0.01}, // below table: both clamp to the bottom rung
		{50, 35, 35},        // above table: both clamp to the top rung
	}
	for _, c := range cases {
		if got := SnapUp(c.v); math.Abs(got-c.up) > 1e-12 {
			t.Errorf("SnapUp(%v) = %v, want %v", c.v, got, c.up)
		}
		if got := SnapDown(c.v); math.Abs(got-c.down) > 1e-12 {
			t.Errorf("SnapDown(%v) = %v, want %v", c.v, got, c.down)
		}
	}
}

func TestZoomStepsSorted(t *testing.T) {
	for i := 1; i < len(zoomSteps); i++ {
		if zoomSteps[i] <= zoomSteps[i-1] {
			t.Fatalf("zoomSteps not strictly increasing at %d: %v <= %v",
				i, zoomSteps[i], zoomSteps[i-1])
		}
	}
	if zoomSteps[defaultStepIndex] != 1.00 {
		t.Errorf("defaultStepIndex points at %v, want 1.00", zoomSteps[defaultStepIndex])
	}
}
