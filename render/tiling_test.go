package render

import "testing"

func TestTileRectsSingleTile(t *testing.T) {
	rects := tileRects(512, 512, 4096)
	if len(rects) != 1 {
		t.Fatalf("got %d tiles, want 1", len(rects))
	}
	if r := rects[0]; r != (tileRect{X: 0, Y: 0, W: 512, H: 512}) {
		t.Errorf("rect = %+v", r)
	}
}

func TestTileRectsExactFit(t *testing.T) {
	rects := tileRects(4096, 4096, 4096)
	if len(rects) != 1 {
		t.Fatalf("got %d tiles, want 1", len(rects))
	}
}

func TestTileRectsWideImage(t *testing.T) {
	rects := tileRects(9000, 4000, 4096)
	if len(rects) != 3 {
		t.Fatalf("got %d tiles, want 3", len(rects))
	}
	wantW := []uint32{4096, 4096, 808}
	for i, r := range rects {
		if r.W != wantW[i] {
			t.Errorf("tile %d width = %d, want %d", i, r.W, wantW[i])
		}
		if r.H != 4000 {
			t.Errorf("tile %d height = %d, want 4000", i, r.H)
		}
		if r.Y != 0 {
			t.Errorf("tile %d y = %d, want 0", i, r.Y)
		}
		if want := uint32(i) * 4096; r.X != want {
			t.Errorf("tile %d x = %d, want %d", i, r.X, want)
		}
	}
}

func TestTileRectsRowMajorOrder(t *testing.T) {
	rects := tileRects(300, 300, 128)
	if len(rects) != 9 {
		t.Fatalf("got %d tiles, want 9", len(rects))
	}
	// Second tile continues the first row.
	if rects[1].X != 128 || rects[1].Y != 0 {
		t.Errorf("tile 1 at (%d,%d), want (128,0)", rects[1].X, rects[1].Y)
	}
	// Fourth tile starts the second row.
	if rects[3].X != 0 || rects[3].Y != 128 {
		t.Errorf("tile 3 at (%d,%d), want (0,128)", rects[3].X, rects[3].Y)
	}
	if last := rects[8]; last.W != 44 || last.H != 44 {
		t.Errorf("corner tile %dx%d, want 44x44", last.W, last.H)
	}
}

func TestTileRectsCoverWithoutOverlap(t *testing.T) {
	sizes := []struct{ w, h, maxDim uint32 }{
		{9000, 4000, 4096},
		{4097, 4096, 4096},
		{1, 1, 4096},
		{300, 300, 128},
		{1000, 3000, 999},
	}
	for _, s := range sizes {
		rects := tileRects(s.w, s.h, s.maxDim)
		var area uint64
		for i, r := range rects {
			if r.W == 0 || r.H == 0 {
				t.Errorf("%dx%d: empty tile %d", s.w, s.h, i)
			}
			if r.W > s.maxDim || r.H > s.maxDim {
				t.Errorf("%dx%d: tile %d exceeds max dim: %dx%d", s.w, s.h, i, r.W, r.H)
			}
			if r.X+r.W > s.w || r.Y+r.H > s.h {
				t.Errorf("%dx%d: tile %d out of bounds: %+v", s.w, s.h, i, r)
			}
			area += uint64(r.W) * uint64(r.H)
			for _, other := range rects[:i] {
				if r.X < other.X+other.W && other.X < r.X+r.W &&
					r.Y < other.Y+other.H && other.Y < r.Y+r.H {
					t.Errorf("%dx%d: tiles overlap: %+v and %+v", s.w, s.h, r, other)
				}
			}
		}
		if want := uint64(s.w) * uint64(s.h); area != want {
			t.Errorf("%dx%d: tiles cover %d px, want %d", s.w, s.h, area, want)
		}
	}
}
