package media

import (
	"testing"
	"time"
)

func frameFixture(t *testing.T, delays ...time.Duration) []Frame {
	t.Helper()
	frames := make([]Frame, len(delays))
	for i, d := range delays {
		data, err := NewImageData(&IDAllocator{}, 1, 1, []byte{byte(i), 0, 0, 255})
		if err != nil {
			t.Fatal(err)
		}
		frames[i] = Frame{Data: data, Delay: d}
	}
	return frames
}

func TestAnimationTickBeforeDeadline(t *testing.T) {
	start := time.Now()
	a := NewAnimation(frameFixture(t, 100*time.Millisecond), start)
	if got := a.Tick(start.Add(50 * time.Millisecond)); got != nil {
		t.Error("Tick before the deadline should return nil")
	}
	if a.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", a.CurrentIndex())
	}
}

func TestAnimationAdvance(t *testing.T) {
	start := time.Now()
	a := NewAnimation(frameFixture(t, 100*time.Millisecond, 100*time.Millisecond), start)
	got := a.Tick(start.Add(100 * time.Millisecond))
	if got == nil {
		t.Fatal("Tick at the deadline should advance")
	}
	if a.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", a.CurrentIndex())
	}
	if got != a.CurrentImage() {
		t.Error("Tick should return the newly current frame")
	}
}

func TestAnimationCatchUp(t *testing.T) {
	// Frames of 100/50/200ms; a tick 340ms in lands inside frame 2's
	// window (which spans 150..350ms).
	start := time.Now()
	a := NewAnimation(frameFixture(t,
		100*time.Millisecond,
		50*time.Millisecond,
		200*time.Millisecond,
	), start)

	got := a.Tick(start.Add(340 * time.Millisecond))
	if got == nil {
		t.Fatal("late Tick should advance")
	}
	if a.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() after catch-up = %d, want 2", a.CurrentIndex())
	}
	// Deadline lands at 350ms; 10ms remain.
	if d := a.TimeUntilNext(start.Add(340 * time.Millisecond)); d != 10*time.Millisecond {
		t.Errorf("TimeUntilNext() = %v, want 10ms", d)
	}
}

func TestAnimationWrapsAround(t *testing.T) {
	start := time.Now()
	a := NewAnimation(frameFixture(t, 100*time.Millisecond, 100*time.Millisecond), start)
	now := start
	for i := range 5 {
		now = now.Add(100 * time.Millisecond)
		a.Tick(now)
		want := (i + 1) % 2
		if a.CurrentIndex() != want {
			t.Fatalf("tick %d: CurrentIndex() = %d, want %d", i, a.CurrentIndex(), want)
		}
	}
}

func TestAnimationTimeUntilNextClamped(t *testing.T) {
	start := time.Now()
	a := NewAnimation(frameFixture(t, 100*time.Millisecond), start)
	if d := a.TimeUntilNext(start.Add(time.Second)); d != 0 {
		t.Errorf("TimeUntilNext() past the deadline = %v, want 0", d)
	}
	if d := a.TimeUntilNext(start); d != 100*time.Millisecond {
		t.Errorf("TimeUntilNext() at start = %v, want 100ms", d)
	}
}

func TestNewAnimationEmpty(t *testing.T) {
	if a := NewAnimation(nil, time.Now()); a != nil {
		t.Error("NewAnimation(nil) should return nil")
	}
}

func TestNormalizeDelay(t *testing.T) {
	cases := []struct {
		in, want time.Duration
	}{
		{0, 100 * time.Millisecond},
		{10 * time.Millisecond, 100 * time.Millisecond},
		{19 * time.Millisecond, 100 * time.Millisecond},
		{20 * time.Millisecond, 20 * time.Millisecond},
		{500 * time.Millisecond, 500 * time.Millisecond},
	}
	for _, c := range cases {
		if got := NormalizeDelay(c.in); got != c.want {
			t.Errorf("NormalizeDelay(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
