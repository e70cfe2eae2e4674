package bloom

// pointerPhase is the interaction state of the pointer.
type pointerPhase int

const (
	pointerIdle pointerPhase = iota
	pointerPanning
)

// View holds the CPU-side viewing state of an image: zoom factor, pan
// offset, viewport bounds and the pointer state machine. It knows
// nothing about the GPU; the render package consumes its Transform and
// PanNDC outputs.
type View struct {
	scale     Scale
	offset    Vec2
	imageSize Vec2
	bounds    Vec2

	phase       pointerPhase
	lastPointer Vec2
}

// NewView returns a View at 1.00 zoom with no image.
func NewView() *View {
	return &View{scale: NewScale()}
}

// SetBounds updates the viewport size in logical pixels and re-clamps
// the pan offset against it.
func (v *View) SetBounds(width, height float32) {
	v.bounds = Vec2{width, height}
	v.clampOffset()
}

// SetImageSize records the displayed image's dimensions.
func (v *View) SetImageSize(width, height float32) {
	v.imageSize = Vec2{width, height}
}

// Bounds returns the current viewport size.
func (v *View) Bounds() Vec2 { return v.bounds }

// ImageSize returns the displayed image's dimensions.
func (v *View) ImageSize() Vec2 { return v.imageSize }

// Offset returns the current pan offset.
func (v *View) Offset() Vec2 { return v.offset }

// Scale returns the current zoom factor.
func (v *View) Scale() float64 { return v.scale.Value() }

// ViewportCenter returns the center of the viewport, the anchor used
// for keyboard-driven zooming.
func (v *View) ViewportCenter() Vec2 {
	return Vec2{v.bounds.X * 0.5, v.bounds.Y * 0.5}
}

// Fit sets the zoom factor so the whole image fits the viewport and
// centers it. The resulting factor is a transient custom scale.
func (v *View) Fit() {
	if v.imageSize.X <= 0 || v.imageSize.Y <= 0 {
		return
	}
	fx := float64(v.bounds.X) / float64(v.imageSize.X)
	fy := float64(v.bounds.Y) / float64(v.imageSize.Y)
	v.scale.SetCustom(min(fx, fy))
	v.offset = Vec2{}
	Logger().Debug("fit", "scale", v.scale.Value())
}

// Pan moves the image by a pointer delta given in logical pixels with
// y pointing up. The displacement is scale-compensated so the image
// tracks the pointer exactly at any zoom.
func (v *View) Pan(dx, dy float32) {
	s := float32(v.scale.Value())
	v.offset = v.offset.Add(Vec2{dx, dy}.Mul(2 / s))
	v.clampOffset()
}

// ZoomIn steps the zoom up one rung, keeping the image point under
// cursor fixed on screen.
func (v *View) ZoomIn(cursor Vec2) {
	prev := v.scale.StepUp()
	v.anchorZoom(cursor, prev)
	v.clampOffset()
}

// ZoomOut steps the zoom down one rung, keeping the image point under
// cursor fixed on screen.
func (v *View) ZoomOut(cursor Vec2) {
	prev := v.scale.StepDown()
	v.anchorZoom(cursor, prev)
	v.clampOffset()
}

// SetZoom sets an explicit zoom factor anchored at cursor.
func (v *View) SetZoom(factor float64, cursor Vec2) {
	prev := v.scale.Value()
	v.scale.SetCustom(factor)
	v.anchorZoom(cursor, prev)
	v.clampOffset()
}

// anchorZoom adjusts the pan offset after a zoom change so the image
// point under the cursor stays put. cursor is in viewport pixels with
// the origin at the top-left.
func (v *View) anchorZoom(cursor Vec2, prev float64) {
	if v.bounds.X <= 0 || v.bounds.Y <= 0 {
		return
	}
	ndc := Vec2{
		(cursor.X/v.bounds.X)*2 - 1,
		1 - (cursor.Y/v.bounds.Y)*2,
	}
	factor := float32(1/v.scale.Value() - 1/prev)
	v.offset = v.offset.Add(v.bounds.MulV(ndc).Mul(factor))
}

// clampOffset keeps each offset axis within the image's extent, so the
// image can never be panned fully out of view.
func (v *View) clampOffset() {
	v.offset.X = clamp(v.offset.X, -v.imageSize.X, v.imageSize.X)
	v.offset.Y = clamp(v.offset.Y, -v.imageSize.Y, v.imageSize.Y)
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// PointerDown begins a pan gesture at the given viewport position.
func (v *View) PointerDown(x, y float32) {
	v.phase = pointerPanning
	v.lastPointer = Vec2{x, y}
}

// PointerMove pans the image if a gesture is in progress. The vertical
// delta is inverted so dragging down moves the image down in a y-up
// coordinate system.
func (v *View) PointerMove(x, y float32) {
	if v.phase != pointerPanning {
		return
	}
	v.Pan(x-v.lastPointer.X, v.lastPointer.Y-y)
	v.lastPointer = Vec2{x, y}
}

// PointerUp ends a pan gesture.
func (v *View) PointerUp() {
	v.phase = pointerIdle
}

// IsPanning reports whether a pan gesture is in progress, e.g. to show
// a grabbing cursor.
func (v *View) IsPanning() bool { return v.phase == pointerPanning }

// PanNDC returns the pan offset in normalized device coordinates.
func (v *View) PanNDC() Vec2 {
	if v.bounds.X <= 0 || v.bounds.Y <= 0 {
		return Vec2{}
	}
	return Vec2{v.offset.X / v.bounds.X, v.offset.Y / v.bounds.Y}
}

// Transform returns the full display transform for the image quad:
// zoom, then pan, then the image's aspect relative to the viewport.
func (v *View) Transform() Mat4 {
	if v.bounds.X <= 0 || v.bounds.Y <= 0 {
		return Mat4Identity()
	}
	s := float32(v.scale.Value())
	aspect := Vec2{v.imageSize.X / v.bounds.X, v.imageSize.Y / v.bounds.Y}
	pan := v.PanNDC()
	return Mat4Scale(s, s).
		Mul(Mat4Translate(pan.X, pan.Y)).
		Mul(Mat4Scale(aspect.X, aspect.Y))
}
