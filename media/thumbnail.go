package media

import (
	"image"

	"github.com/nfnt/resize"
)

// Thumbnail downscales an image on the CPU so its longest side is at
// most maxDim, preserving aspect ratio, using a Lanczos3 filter.
// Images already within maxDim are converted without resampling.
// Intended for gallery previews; the GPU pyramid handles the actual
// display path.
func Thumbnail(ids *IDAllocator, img image.Image, maxDim int) *ImageData {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return FromImage(ids, img)
	}

	var tw, th uint
	if w >= h {
		tw = uint(maxDim)
	} else {
		th = uint(maxDim)
	}
	small := resize.Resize(tw, th, img, resize.Lanczos3)
	return FromImage(ids, small)
}

// ThumbnailData is a convenience wrapper over Thumbnail for
// already-decoded RGBA8 buffers.
func ThumbnailData(ids *IDAllocator, d *ImageData, maxDim int) *ImageData {
	rgba := &image.RGBA{
		Pix:    d.Pixels,
		Stride: d.Width * 4,
		Rect:   image.Rect(0, 0, d.Width, d.Height),
	}
	return Thumbnail(ids, rgba, maxDim)
}
