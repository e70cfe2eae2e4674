package media

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Register the still-image formats Decode can detect.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNoFrames is returned for an animated file containing no frames.
var ErrNoFrames = errors.New("media: animation has no frames")

// Media is a decoded file: either a still image or an animation.
// Exactly one field is non-nil.
type Media struct {
	Image     *ImageData
	Animation *Animation
}

// Load decodes a still image file into tightly packed RGBA8.
func Load(ids *IDAllocator, path string) (*ImageData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("media: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("media: decode %s: %w", path, err)
	}
	return FromImage(ids, img), nil
}

// LoadMedia decodes a file, returning an animation for animated GIFs
// and a still image otherwise.
func LoadMedia(ids *IDAllocator, path string, now time.Time) (*Media, error) {
	if strings.EqualFold(filepath.Ext(path), ".gif") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("media: open %s: %w", path, err)
		}
		defer f.Close()

		anim, err := DecodeGIF(ids, f, now)
		if err != nil {
			return nil, err
		}
		if anim.FrameCount() == 1 {
			return &Media{Image: anim.CurrentImage()}, nil
		}
		return &Media{Animation: anim}, nil
	}

	img, err := Load(ids, path)
	if err != nil {
		return nil, err
	}
	return &Media{Image: img}, nil
}

// DecodeGIF decodes all frames of a GIF, compositing each onto the
// logical screen with the frame's disposal method, and returns the
// resulting animation. Frame delays below 20ms are normalized to
// 100ms.
func DecodeGIF(ids *IDAllocator, r io.Reader, now time.Time) (*Animation, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("media: decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, ErrNoFrames
	}

	w, h := g.Config.Width, g.Config.Height
	if w == 0 || h == 0 {
		b := g.Image[0].Bounds()
		w, h = b.Dx(), b.Dy()
	}

	screen := image.NewRGBA(image.Rect(0, 0, w, h))
	frames := make([]Frame, 0, len(g.Image))
	var prev *image.RGBA

	for i, src := range g.Image {
		if g.Disposal[i] == gif.DisposalPrevious {
			prev = cloneRGBA(screen)
		}

		draw.Draw(screen, src.Bounds(), src, src.Bounds().Min, draw.Over)

		data, err := NewImageData(ids, w, h, cloneRGBA(screen).Pix)
		if err != nil {
			return nil, err
		}
		delay := NormalizeDelay(time.Duration(g.Delay[i]) * 10 * time.Millisecond)
		frames = append(frames, Frame{Data: data, Delay: delay})

		switch g.Disposal[i] {
		case gif.DisposalBackground:
			draw.Draw(screen, src.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			if prev != nil {
				screen = prev
			}
		}
	}

	return NewAnimation(frames, now), nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
