// Package media holds the CPU side of the pipeline: decoded pixel
// buffers, animation timing and format loading. Nothing in this
// package touches the GPU.
package media

import (
	"fmt"
	"image"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// ImageID identifies a decoded image buffer. IDs from one allocator
// increase monotonically and are never reused, so a consumer can tell
// "same image re-uploaded" from "new image" by comparing them, and a
// smaller id always means an older decode.
type ImageID uint64

// IDAllocator hands out ImageIDs. Each decoding pipeline owns one and
// threads it through its decode calls; there is no process-global
// generator. Safe for concurrent use.
type IDAllocator struct {
	last atomic.Uint64
}

// Next returns a fresh id, larger than every id returned before it.
func (a *IDAllocator) Next() ImageID {
	return ImageID(a.last.Add(1))
}

// ImageDataMismatchError reports a pixel buffer whose length cannot
// cover the claimed dimensions.
type ImageDataMismatchError struct {
	Expected int // bytes required by Width*Height*4
	Actual   int // bytes provided
}

func (e *ImageDataMismatchError) Error() string {
	return fmt.Sprintf("media: image data mismatch: expected %d bytes, got %d", e.Expected, e.Actual)
}

// ImageData is a decoded image: tightly packed RGBA8 rows, no stride
// padding.
type ImageData struct {
	ID     ImageID
	Width  int
	Height int
	Pixels []byte
}

// NewImageData wraps a pixel buffer, validating that it covers
// width*height RGBA8 pixels.
func NewImageData(ids *IDAllocator, width, height int, pixels []byte) (*ImageData, error) {
	need := width * height * 4
	if len(pixels) < need {
		return nil, &ImageDataMismatchError{Expected: need, Actual: len(pixels)}
	}
	return &ImageData{
		ID:     ids.Next(),
		Width:  width,
		Height: height,
		Pixels: pixels,
	}, nil
}

// SizeBytes returns the byte size of the pixel payload implied by the
// dimensions.
func (d *ImageData) SizeBytes() int {
	return d.Width * d.Height * 4
}

// FromImage converts any image.Image into tightly packed RGBA8.
// Images that are already *image.RGBA with a tight stride are wrapped
// without copying.
func FromImage(ids *IDAllocator, img image.Image) *ImageData {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == w*4 && b.Min == (image.Point{}) {
		return &ImageData{ID: ids.Next(), Width: w, Height: h, Pixels: rgba.Pix}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &ImageData{ID: ids.Next(), Width: w, Height: h, Pixels: dst.Pix}
}
