package media

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestNewImageData(t *testing.T) {
	pix := make([]byte, 4*3*4)
	ids := &IDAllocator{}
	d, err := NewImageData(ids, 4, 3, pix)
	if err != nil {
		t.Fatalf("NewImageData() = %v", err)
	}
	if d.Width != 4 || d.Height != 3 {
		t.Errorf("dimensions = %dx%d, want 4x3", d.Width, d.Height)
	}
	if got := d.SizeBytes(); got != 48 {
		t.Errorf("SizeBytes() = %d, want 48", got)
	}
	if d.ID == 0 {
		t.Error("ID should be non-zero")
	}
}

func TestNewImageDataMismatch(t *testing.T) {
	_, err := NewImageData(&IDAllocator{}, 10, 10, make([]byte, 100))
	if err == nil {
		t.Fatal("NewImageData with short buffer should fail")
	}
	var mismatch *ImageDataMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error %T is not *ImageDataMismatchError", err)
	}
	if mismatch.Expected != 400 || mismatch.Actual != 100 {
		t.Errorf("mismatch = {%d %d}, want {400 100}", mismatch.Expected, mismatch.Actual)
	}
}

func TestIDAllocatorMonotonic(t *testing.T) {
	var ids IDAllocator
	var last ImageID
	for range 100 {
		id := ids.Next()
		if id <= last {
			t.Fatalf("id %d not greater than %d", id, last)
		}
		last = id
	}
}

func TestImageIDsUnique(t *testing.T) {
	var ids IDAllocator
	seen := make(map[ImageID]bool)
	for range 100 {
		id := ids.Next()
		if seen[id] {
			t.Fatalf("duplicate ImageID %d", id)
		}
		seen[id] = true
	}
}

func TestFromImageTightRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	src.SetRGBA(2, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	d := FromImage(&IDAllocator{}, src)
	if d.Width != 8 || d.Height != 8 {
		t.Fatalf("dimensions = %dx%d, want 8x8", d.Width, d.Height)
	}
	// Tight-stride RGBA must be wrapped, not copied.
	if &d.Pixels[0] != &src.Pix[0] {
		t.Error("FromImage copied a tight-stride RGBA buffer")
	}
}

func TestFromImageConverts(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	src.SetNRGBA(1, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	d := FromImage(&IDAllocator{}, src)
	if len(d.Pixels) != 100 {
		t.Fatalf("Pixels len = %d, want 100", len(d.Pixels))
	}
	off := (1*5 + 1) * 4
	if d.Pixels[off] != 200 || d.Pixels[off+1] != 100 || d.Pixels[off+2] != 50 {
		t.Errorf("pixel (1,1) = %v, want [200 100 50 255]", d.Pixels[off:off+4])
	}
}

func TestFromImageSubImage(t *testing.T) {
	// Non-zero origin bounds must be normalized away.
	base := image.NewRGBA(image.Rect(0, 0, 10, 10))
	base.SetRGBA(5, 5, color.RGBA{R: 42, A: 255})
	sub := base.SubImage(image.Rect(4, 4, 8, 8))
	d := FromImage(&IDAllocator{}, sub)
	if d.Width != 4 || d.Height != 4 {
		t.Fatalf("dimensions = %dx%d, want 4x4", d.Width, d.Height)
	}
	off := (1*4 + 1) * 4 // (5,5) in base is (1,1) in the sub-image
	if d.Pixels[off] != 42 {
		t.Errorf("pixel (1,1).R = %d, want 42", d.Pixels[off])
	}
}
