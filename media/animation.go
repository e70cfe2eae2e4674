package media

import "time"

// minFrameDelay is the floor below which a frame delay is considered
// bogus. GIFs commonly encode 0 or 10ms delays expecting the decades-old
// browser behavior of slowing them to 100ms; we follow that convention.
const minFrameDelay = 20 * time.Millisecond

// defaultFrameDelay replaces delays under the floor.
const defaultFrameDelay = 100 * time.Millisecond

// NormalizeDelay applies the short-delay convention to a raw frame
// delay.
func NormalizeDelay(d time.Duration) time.Duration {
	if d < minFrameDelay {
		return defaultFrameDelay
	}
	return d
}

// Frame is a single animation frame with its display duration.
type Frame struct {
	Data  *ImageData
	Delay time.Duration
}

// Animation plays a sequence of frames on a deadline clock. The clock
// never drifts: each tick advances the deadline by whole frame delays,
// and a late tick (the app was busy or occluded) skips frames to catch
// up rather than stretching them.
type Animation struct {
	frames   []Frame
	current  int
	deadline time.Time
}

// NewAnimation starts an animation at frame 0, with the first
// deadline one frame delay from now.
func NewAnimation(frames []Frame, now time.Time) *Animation {
	if len(frames) == 0 {
		return nil
	}
	return &Animation{
		frames:   frames,
		deadline: now.Add(frames[0].Delay),
	}
}

// CurrentImage returns the frame image currently on display.
func (a *Animation) CurrentImage() *ImageData {
	return a.frames[a.current].Data
}

// CurrentIndex returns the index of the current frame.
func (a *Animation) CurrentIndex() int { return a.current }

// FrameCount returns the number of frames.
func (a *Animation) FrameCount() int { return len(a.frames) }

// TimeUntilNext returns how long until the next frame is due, zero if
// it is already due.
func (a *Animation) TimeUntilNext(now time.Time) time.Duration {
	d := a.deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Tick advances the animation if the deadline has passed, skipping
// frames whose whole display window is already behind now. It returns
// the newly current frame image, or nil if the current frame is still
// on display.
func (a *Animation) Tick(now time.Time) *ImageData {
	if now.Before(a.deadline) {
		return nil
	}

	a.current = (a.current + 1) % len(a.frames)
	a.deadline = a.deadline.Add(a.frames[a.current].Delay)
	for !a.deadline.After(now) {
		a.current = (a.current + 1) % len(a.frames)
		a.deadline = a.deadline.Add(a.frames[a.current].Delay)
	}

	return a.frames[a.current].Data
}
