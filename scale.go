package bloom

import "sort"

// zoomSteps is the fixed ladder of zoom factors the UI stops at.
// Stepping always lands on one of these; a custom factor (e.g. from
// fit-to-window) lives between two rungs until the next step.
var zoomSteps = []float64{
	0.01, 0.02, 0.03, 0.05, 0.10, 0.15, 0.20, 0.30, 0.40, 0.50,
	0.60, 0.70, 0.80, 0.90, 1.00, 1.25, 1.50, 1.75, 2.00, 2.50,
	3.00, 3.50, 4.00, 5.00, 6.00, 7.00, 8.00, 10, 12, 15,
	18, 21, 25, 30, 35,
}

// defaultStepIndex is the index of 1.00 in zoomSteps.
const defaultStepIndex = 14

// scaleEpsilon absorbs float noise when comparing a custom factor
// against the step table.
const scaleEpsilon = 1e-6

// Scale tracks the current zoom factor: either a rung of the step
// table, or a transient custom value that the next step discards.
//
// The zero value is not ready to use; call NewScale.
type Scale struct {
	index  int
	custom float64
	// hasCustom distinguishes "custom set to a real factor" from the
	// table-indexed state.
	hasCustom bool
}

// NewScale returns a Scale at 1.00.
func NewScale() Scale {
	return Scale{index: defaultStepIndex}
}

// Value returns the current zoom factor.
func (s *Scale) Value() float64 {
	if s.hasCustom {
		return s.custom
	}
	return zoomSteps[s.index]
}

// Reset returns to the default 1.00 step, discarding any custom factor.
func (s *Scale) Reset() {
	s.index = defaultStepIndex
	s.hasCustom = false
}

// StepUp advances to the next larger step and returns the factor that
// was current before the step, which zoom anchoring needs. From a
// custom factor it snaps to the nearest step strictly above it and the
// custom factor is discarded. At the top of the table StepUp is a
// no-op.
func (s *Scale) StepUp() float64 {
	prev := s.Value()
	if s.hasCustom {
		s.index = snapUpIndex(s.custom)
		s.hasCustom = false
		return prev
	}
	if s.index < len(zoomSteps)-1 {
		s.index++
	}
	return prev
}

// StepDown advances to the next smaller step and returns the factor
// that was current before the step. From a custom factor it snaps to
// the nearest step strictly below it and the custom factor is
// discarded. At the bottom of the table StepDown is a no-op.
func (s *Scale) StepDown() float64 {
	prev := s.Value()
	if s.hasCustom {
		s.index = snapDownIndex(s.custom)
		s.hasCustom = false
		return prev
	}
	if s.index > 0 {
		s.index--
	}
	return prev
}

// SetCustom sets a transient custom zoom factor. The value may fall
// outside the table's range (fit-to-window on a huge image does); the
// next step snaps back onto the ladder. A value within epsilon of an
// existing step adopts that step instead of entering the custom state.
func (s *Scale) SetCustom(v float64) {
	if i, ok := stepIndexOf(v); ok {
		s.index = i
		s.hasCustom = false
		return
	}
	s.custom = v
	s.hasCustom = true
}

// IsCustom reports whether the current factor is a transient custom
// value rather than a table step.
func (s *Scale) IsCustom() bool { return s.hasCustom }

// SnapUp returns the smallest step factor strictly greater than v,
// clamped to the top of the table.
func SnapUp(v float64) float64 { return zoomSteps[snapUpIndex(v)] }

// SnapDown returns the largest step factor strictly smaller than v,
// clamped to the bottom of the table.
func SnapDown(v float64) float64 { return zoomSteps[snapDownIndex(v)] }

// stepIndexOf returns the index of the step equal to v within epsilon.
func stepIndexOf(v float64) (int, bool) {
	i := sort.SearchFloat64s(zoomSteps, v-scaleEpsilon)
	if i < len(zoomSteps) && zoomSteps[i] <= v+scaleEpsilon {
		return i, true
	}
	return 0, false
}

// snapUpIndex returns the index of the first step strictly above v,
// treating values within epsilon of a step as equal to it.
func snapUpIndex(v float64) int {
	i := sort.Search(len(zoomSteps), func(i int) bool {
		return zoomSteps[i] > v+scaleEpsilon
	})
	if i >= len(zoomSteps) {
		return len(zoomSteps) - 1
	}
	return i
}

// snapDownIndex returns the index of the last step strictly below v,
// treating values within epsilon of a step as equal to it.
func snapDownIndex(v float64) int {
	i := sort.Search(len(zoomSteps), func(i int) bool {
		return zoomSteps[i] >= v-scaleEpsilon
	})
	if i <= 0 {
		return 0
	}
	return i - 1
}
