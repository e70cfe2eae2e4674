package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/nnmarcoo/bloom"
	"github.com/nnmarcoo/bloom/media"
)

// tileRect is the placement of one tile within the full image, in
// pixels.
type tileRect struct {
	X, Y, W, H uint32
}

// tileRects splits a w x h image into a row-major grid of tiles no
// larger than maxDim on either side. Edge tiles shrink to fit.
func tileRects(w, h, maxDim uint32) []tileRect {
	cols := (w + maxDim - 1) / maxDim
	rows := (h + maxDim - 1) / maxDim
	rects := make([]tileRect, 0, cols*rows)
	for row := uint32(0); row < rows; row++ {
		for col := uint32(0); col < cols; col++ {
			tx := col * maxDim
			ty := row * maxDim
			rects = append(rects, tileRect{
				X: tx,
				Y: ty,
				W: min(w-tx, maxDim),
				H: min(h-ty, maxDim),
			})
		}
	}
	return rects
}

// Tile is one texture-sized region of the source image with its GPU
// resources. hwMipBindGroup samples the hardware mip chain with
// trilinear filtering, nearestBindGroup samples mip 0 unfiltered, and
// lanczosBindGroup (set once the Lanczos pyramid is built) samples the
// filtered pyramid.
type Tile struct {
	Rect tileRect

	sourceTexture hal.Texture
	sourceView    hal.TextureView
	uniformBuffer hal.Buffer

	hwMipBindGroup   hal.BindGroup
	nearestBindGroup hal.BindGroup

	lanczosTexture   hal.Texture
	lanczosView      hal.TextureView
	lanczosBindGroup hal.BindGroup

	// Cached per-tile uniform state so unchanged frames skip the
	// buffer write.
	lastTransform *bloom.Mat4
	lastNDCRect   *bloom.Rect
}

// TiledSource is an uploaded image split into GPU tiles, each with a
// full hardware mip chain.
type TiledSource struct {
	Tiles      []*Tile
	ImageID    media.ImageID
	FullWidth  uint32
	FullHeight uint32

	// PhysicalScale is the effective on-screen scale of one source
	// pixel (zoom times window scale factor), updated every frame by
	// the view pipeline.
	PhysicalScale float32

	device hal.Device
	queue  hal.Queue
}

const tileTextureUsage = gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageRenderAttachment

// NewTiledSource uploads img into a grid of tiles no larger than
// maxDim, generating hardware mipmaps for each tile.
func NewTiledSource(dev *Device, img *media.ImageData, maxDim uint32, display *DisplayPass, blit *blitPipeline, trilinear, nearest hal.Sampler) (*TiledSource, error) {
	if got, want := len(img.Pixels), img.SizeBytes(); got < want {
		return nil, &media.ImageDataMismatchError{Expected: want, Actual: got}
	}

	src := &TiledSource{
		ImageID:       img.ID,
		FullWidth:     uint32(img.Width),
		FullHeight:    uint32(img.Height),
		PhysicalScale: 1.0,
		device:        dev.HAL,
		queue:         dev.Queue,
	}

	stride := uint32(img.Width) * 4
	for _, rect := range tileRects(src.FullWidth, src.FullHeight, maxDim) {
		tile, err := newTile(dev, rect, maxDim, display, trilinear, nearest)
		if err != nil {
			src.Destroy()
			return nil, err
		}
		src.Tiles = append(src.Tiles, tile)

		if err := tile.upload(dev.Queue, img.Pixels, stride, blit, trilinear); err != nil {
			src.Destroy()
			return nil, err
		}
	}

	slogger().Debug("render: image tiled",
		"width", img.Width, "height", img.Height, "tiles", len(src.Tiles))
	return src, nil
}

func newTile(dev *Device, rect tileRect, maxDim uint32, display *DisplayPass, trilinear, nearest hal.Sampler) (*Tile, error) {
	label := fmt.Sprintf("tile[%d,%d]", rect.X/maxDim, rect.Y/maxDim)
	mips := hwMipCount(rect.W, rect.H)

	tex, err := texture2DMipmapped(dev.HAL, rect.W, rect.H, mips,
		gputypes.TextureFormatRGBA8Unorm, tileTextureUsage, label)
	if err != nil {
		return nil, fmt.Errorf("render: %s texture: %w", label, err)
	}

	tile := &Tile{Rect: rect, sourceTexture: tex}

	tile.sourceView, err = dev.HAL.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + " view"})
	if err != nil {
		tile.destroy(dev.HAL)
		return nil, fmt.Errorf("render: %s view: %w", label, err)
	}

	tile.uniformBuffer, err = uniformBuffer(dev.HAL, 64, label+" uniforms")
	if err != nil {
		tile.destroy(dev.HAL)
		return nil, fmt.Errorf("render: %s uniforms: %w", label, err)
	}

	tile.hwMipBindGroup, err = display.CreateBindGroup(tile.uniformBuffer, tile.sourceView, trilinear, label+" trilinear")
	if err != nil {
		tile.destroy(dev.HAL)
		return nil, fmt.Errorf("render: %s bind group: %w", label, err)
	}
	tile.nearestBindGroup, err = display.CreateBindGroup(tile.uniformBuffer, tile.sourceView, nearest, label+" nearest")
	if err != nil {
		tile.destroy(dev.HAL)
		return nil, fmt.Errorf("render: %s bind group: %w", label, err)
	}

	return tile, nil
}

// upload copies this tile's region out of the full-image pixel slab
// and regenerates the hardware mip chain. The copy addresses the
// source with the full image stride so no repacking is needed.
func (t *Tile) upload(queue hal.Queue, pixels []byte, stride uint32, blit *blitPipeline, sampler hal.Sampler) error {
	offset := uint64(t.Rect.Y)*uint64(stride) + uint64(t.Rect.X)*4
	queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.sourceTexture,
			MipLevel: 0,
			Origin:   hal.Origin3D{},
		},
		pixels[offset:],
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  stride,
			RowsPerImage: t.Rect.H,
		},
		&hal.Extent3D{Width: t.Rect.W, Height: t.Rect.H, DepthOrArrayLayers: 1},
	)

	return blit.generateMipmaps(queue, t.sourceTexture, hwMipCount(t.Rect.W, t.Rect.H), sampler)
}

// setLanczosResult installs a completed Lanczos pyramid on the tile,
// replacing any previous one.
func (t *Tile) setLanczosResult(device hal.Device, tex hal.Texture, view hal.TextureView, bg hal.BindGroup) {
	t.dropLanczosResult(device)
	t.lanczosTexture = tex
	t.lanczosView = view
	t.lanczosBindGroup = bg
}

func (t *Tile) dropLanczosResult(device hal.Device) {
	if t.lanczosBindGroup != nil {
		device.DestroyBindGroup(t.lanczosBindGroup)
		t.lanczosBindGroup = nil
	}
	if t.lanczosView != nil {
		t.lanczosView.Destroy()
		t.lanczosView = nil
	}
	if t.lanczosTexture != nil {
		t.lanczosTexture.Destroy()
		t.lanczosTexture = nil
	}
}

func (t *Tile) destroy(device hal.Device) {
	t.dropLanczosResult(device)
	if t.nearestBindGroup != nil {
		device.DestroyBindGroup(t.nearestBindGroup)
	}
	if t.hwMipBindGroup != nil {
		device.DestroyBindGroup(t.hwMipBindGroup)
	}
	if t.uniformBuffer != nil {
		device.DestroyBuffer(t.uniformBuffer)
	}
	if t.sourceView != nil {
		t.sourceView.Destroy()
	}
	if t.sourceTexture != nil {
		t.sourceTexture.Destroy()
	}
	*t = Tile{Rect: t.Rect}
}

// UploadFrame replaces the pixel contents of every tile with a new
// frame of the same dimensions. Used for animation playback; the
// existing textures, mip chains and bind groups are reused, but any
// Lanczos pyramids are dropped since they no longer match the pixels.
func (s *TiledSource) UploadFrame(img *media.ImageData, blit *blitPipeline, sampler hal.Sampler) error {
	if uint32(img.Width) != s.FullWidth || uint32(img.Height) != s.FullHeight {
		return fmt.Errorf("render: frame size %dx%d does not match source %dx%d",
			img.Width, img.Height, s.FullWidth, s.FullHeight)
	}
	if got, want := len(img.Pixels), img.SizeBytes(); got < want {
		return &media.ImageDataMismatchError{Expected: want, Actual: got}
	}

	s.invalidateLanczos()

	stride := uint32(img.Width) * 4
	for _, tile := range s.Tiles {
		if err := tile.upload(s.queue, img.Pixels, stride, blit, sampler); err != nil {
			return err
		}
	}
	s.ImageID = img.ID
	return nil
}

// invalidateLanczos drops every tile's Lanczos pyramid. Uploading a
// new frame rewrites the pixels the pyramids were filtered from, so
// keeping them would minify the previous frame's content.
func (s *TiledSource) invalidateLanczos() {
	for _, tile := range s.Tiles {
		tile.dropLanczosResult(s.device)
	}
}

// LanczosAllReady reports whether every tile has a completed Lanczos
// pyramid.
func (s *TiledSource) LanczosAllReady() bool {
	for _, tile := range s.Tiles {
		if tile.lanczosBindGroup == nil {
			return false
		}
	}
	return len(s.Tiles) > 0
}

func (s *TiledSource) Destroy() {
	for i := len(s.Tiles) - 1; i >= 0; i-- {
		s.Tiles[i].destroy(s.device)
	}
	s.Tiles = nil
}
