// Package bloom implements the CPU side of an incremental,
// multi-resolution tiled image viewer: the zoom step model, the
// pan/zoom interaction state machine, and the small geometry types
// shared with the GPU layer.
//
// # Overview
//
// An image is displayed through three cooperating layers:
//
//   - bloom (this package) tracks the view: a discrete zoom ladder
//     with a transient custom scale, a pixel-space pan offset, and a
//     pointer state machine for drag panning and cursor-anchored zoom.
//   - media decodes files into tightly packed RGBA8 frames and drives
//     animation timing.
//   - render uploads frames as a grid of GPU tiles, builds Lanczos
//     minification pyramids incrementally, and draws the view.
//
// # Quick Start
//
//	v := bloom.NewView()
//	v.SetBounds(1920, 1080)
//	v.SetImageSize(9000, 4000)
//	v.Fit()
//
//	// Per frame:
//	pipeline.Update(float32(v.Scale()), 1, v.Transform(),
//	    v.PanNDC(), v.Bounds(), true)
//
// The view produces plain transforms and never touches the GPU, so it
// can be tested and reused without a device.
package bloom
