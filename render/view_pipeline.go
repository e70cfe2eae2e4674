package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/nnmarcoo/bloom"
	"github.com/nnmarcoo/bloom/media"
)

const scaleNearestEpsilon = 1e-6

// Options configures a ViewPipeline. The zero value is usable:
// Lanczos filtering off, window scale factor 1, tile size from the
// device limit.
type Options struct {
	// ScaleFactor is the window device pixel ratio; 0 means 1.
	ScaleFactor float32

	// LanczosEnabled turns on the Lanczos minification pyramid.
	LanczosEnabled bool

	// MaxTextureDim caps the tile edge length. 0 uses the device
	// limit; values above it are clamped to it.
	MaxTextureDim uint32
}

// ViewPipeline owns the GPU resources for displaying one image: the
// display and filter pipelines, the current tiled source, and the
// in-progress Lanczos build if any. It decides per frame which mip
// strategy each tile is sampled with.
type ViewPipeline struct {
	dev     *Device
	display *DisplayPass
	hPass   *LanczosPass
	vPass   *LanczosPass
	blit    *blitPipeline

	trilinear hal.Sampler
	nearest   hal.Sampler

	placeholderTexture hal.Texture
	placeholderView    hal.TextureView
	placeholderBuf     hal.Buffer
	placeholderBG      hal.BindGroup

	source *TiledSource
	build  *LanczosBuild

	lanczosEnabled bool
	scaleFactor    float32
	maxTextureDim  uint32
}

// NewViewPipeline builds all pipelines targeting the given surface
// format.
func NewViewPipeline(dev *Device, format gputypes.TextureFormat, opts Options) (*ViewPipeline, error) {
	p := &ViewPipeline{
		dev:            dev,
		lanczosEnabled: opts.LanczosEnabled,
		scaleFactor:    opts.ScaleFactor,
		maxTextureDim:  dev.MaxTextureDim(),
	}
	if p.scaleFactor == 0 {
		p.scaleFactor = 1
	}
	if opts.MaxTextureDim != 0 && opts.MaxTextureDim < p.maxTextureDim {
		p.maxTextureDim = opts.MaxTextureDim
	}

	var err error
	p.display, err = NewDisplayPass(dev.HAL, format)
	if err != nil {
		return nil, err
	}
	p.hPass, err = NewLanczosPass(dev.HAL, lanczosHShaderSource, "lanczos horizontal")
	if err != nil {
		p.Destroy()
		return nil, err
	}
	p.vPass, err = NewLanczosPass(dev.HAL, lanczosVShaderSource, "lanczos vertical")
	if err != nil {
		p.Destroy()
		return nil, err
	}
	p.blit, err = newBlitPipeline(dev.HAL, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		p.Destroy()
		return nil, err
	}

	p.trilinear, err = dev.HAL.CreateSampler(&hal.SamplerDescriptor{
		Label:        "trilinear sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("render: trilinear sampler: %w", err)
	}
	p.nearest, err = dev.HAL.CreateSampler(&hal.SamplerDescriptor{
		Label:        "nearest sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("render: nearest sampler: %w", err)
	}

	if err := p.initPlaceholder(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

// initPlaceholder builds a 1x1 mid-gray quad drawn while no image is
// loaded.
func (p *ViewPipeline) initPlaceholder() error {
	tex, err := texture2D(p.dev.HAL, 1, 1, gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst, "placeholder")
	if err != nil {
		return fmt.Errorf("render: placeholder: %w", err)
	}
	p.placeholderTexture = tex

	p.dev.Queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex},
		[]byte{128, 128, 128, 255},
		&hal.ImageDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)

	p.placeholderView, err = p.dev.HAL.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "placeholder view"})
	if err != nil {
		return fmt.Errorf("render: placeholder view: %w", err)
	}

	p.placeholderBuf, err = uniformBuffer(p.dev.HAL, 64, "placeholder uniforms")
	if err != nil {
		return fmt.Errorf("render: placeholder uniforms: %w", err)
	}
	p.dev.Queue.WriteBuffer(p.placeholderBuf, 0, packMat4(bloom.Mat4Identity()))

	p.placeholderBG, err = p.display.CreateBindGroup(p.placeholderBuf, p.placeholderView, p.trilinear, "placeholder bind group")
	if err != nil {
		return fmt.Errorf("render: placeholder bind group: %w", err)
	}
	return nil
}

// NeedsUpload reports whether the given image is not the one currently
// resident on the GPU.
func (p *ViewPipeline) NeedsUpload(id media.ImageID) bool {
	return p.source == nil || p.source.ImageID != id
}

// UploadImage replaces the current source with img, dropping any
// in-progress build, and starts a fresh Lanczos build if enabled.
// Image ids increase monotonically, so a result older than the
// resident source is a stale decode that lost the race and is
// discarded.
func (p *ViewPipeline) UploadImage(img *media.ImageData) error {
	if p.source != nil && img.ID < p.source.ImageID {
		slogger().Debug("render: stale upload discarded", "id", img.ID, "resident", p.source.ImageID)
		return nil
	}
	if p.build != nil {
		p.build.Discard()
		p.build = nil
	}
	if p.source != nil {
		p.source.Destroy()
		p.source = nil
	}

	source, err := NewTiledSource(p.dev, img, p.maxTextureDim, p.display, p.blit, p.trilinear, p.nearest)
	if err != nil {
		return err
	}
	p.source = source

	if p.lanczosEnabled {
		p.build = NewLanczosBuild(p.dev, source, p.hPass, p.vPass, p.display, p.trilinear)
	}
	return nil
}

// UploadFrame swaps in a new animation frame with the same dimensions,
// reusing the existing tile textures. The resident Lanczos pyramids
// were filtered from the previous frame's pixels, so they are dropped
// along with any in-progress build before the rewrite; a fresh build
// starts if the filter is enabled.
func (p *ViewPipeline) UploadFrame(img *media.ImageData) error {
	if p.source == nil {
		return p.UploadImage(img)
	}
	if p.build != nil {
		p.build.Discard()
		p.build = nil
	}
	if err := p.source.UploadFrame(img, p.blit, p.trilinear); err != nil {
		return err
	}
	if p.lanczosEnabled {
		p.build = NewLanczosBuild(p.dev, p.source, p.hPass, p.vPass, p.display, p.trilinear)
	}
	return nil
}

// SetLanczosEnabled toggles the Lanczos minification strategy. Turning
// it on starts a build if the current source has no finished pyramids;
// turning it off abandons an in-progress build but keeps finished
// pyramids around.
func (p *ViewPipeline) SetLanczosEnabled(enabled bool) {
	if enabled == p.lanczosEnabled {
		return
	}
	p.lanczosEnabled = enabled
	if !enabled {
		if p.build != nil {
			p.build.Discard()
			p.build = nil
		}
		return
	}
	if p.source != nil && !p.source.LanczosAllReady() && p.build == nil {
		p.build = NewLanczosBuild(p.dev, p.source, p.hPass, p.vPass, p.display, p.trilinear)
	}
}

// Update advances per-frame state: steps the Lanczos build by one
// tile, records the physical scale used for strategy selection, and
// writes per-tile transform uniforms, skipping tiles whose transform
// is unchanged.
//
// scale is the current zoom value, scaleFactor the window device pixel
// ratio, transform the full-image transform, panNDC the pan offset in
// NDC units and viewport the window size in logical pixels.
func (p *ViewPipeline) Update(scale, scaleFactor float32, transform bloom.Mat4, panNDC, viewport bloom.Vec2, lanczosEnabled bool) error {
	if scaleFactor > 0 {
		p.scaleFactor = scaleFactor
	}
	p.SetLanczosEnabled(lanczosEnabled)

	if p.source == nil {
		return nil
	}
	p.source.PhysicalScale = scale * p.scaleFactor

	if p.build != nil {
		done, err := p.build.Step()
		if err != nil {
			return err
		}
		if done {
			p.build = nil
		}
	}

	if len(p.source.Tiles) == 1 {
		p.writeTileUniforms(p.source.Tiles[0], transform)
		return nil
	}

	for _, tile := range p.source.Tiles {
		m := tileTransform(scale, panNDC, viewport, tile.Rect, p.source.FullWidth, p.source.FullHeight)
		p.writeTileUniforms(tile, m)
	}
	return nil
}

// tileTransform places one tile's quad: the tile center is expressed
// relative to the image center in pixels with Y up, converted to NDC
// units of the viewport and folded into the pan offset, so all tiles
// of an image move as one surface.
func tileTransform(scale float32, panNDC, viewport bloom.Vec2, rect tileRect, fullW, fullH uint32) bloom.Mat4 {
	cx := float32(rect.X) + float32(rect.W)/2 - float32(fullW)/2
	cy := float32(fullH)/2 - (float32(rect.Y) + float32(rect.H)/2)
	tileOffset := bloom.V2(2*cx/viewport.X, 2*cy/viewport.Y)
	tileAspect := bloom.V2(float32(rect.W)/viewport.X, float32(rect.H)/viewport.Y)

	return bloom.Mat4Scale(scale, scale).
		Mul(bloom.Mat4Translate(panNDC.X+tileOffset.X, panNDC.Y+tileOffset.Y)).
		Mul(bloom.Mat4Scale(tileAspect.X, tileAspect.Y))
}

func (p *ViewPipeline) writeTileUniforms(tile *Tile, m bloom.Mat4) {
	if tile.lastTransform != nil && *tile.lastTransform == m {
		return
	}
	p.dev.Queue.WriteBuffer(tile.uniformBuffer, 0, packMat4(m))
	rect := bloom.NDCRect(m)
	tile.lastTransform = &m
	tile.lastNDCRect = &rect
}

// displayBindGroup picks the sampling strategy for a tile: nearest at
// or above 1:1 physical scale, the Lanczos pyramid when minifying with
// the filter enabled and built, hardware mips otherwise.
func (p *ViewPipeline) displayBindGroup(tile *Tile) hal.BindGroup {
	if p.source.PhysicalScale >= 1.0-scaleNearestEpsilon {
		return tile.nearestBindGroup
	}
	if p.lanczosEnabled && tile.lanczosBindGroup != nil {
		return tile.lanczosBindGroup
	}
	return tile.hwMipBindGroup
}

// RenderDisplay records the display pass onto target. bounds is the
// drawing area in logical pixels (scaled to physical by the window
// scale factor); clip is the scissor rectangle in physical pixels.
// Tiles entirely outside NDC space are skipped.
func (p *ViewPipeline) RenderDisplay(encoder hal.CommandEncoder, target hal.TextureView, bounds bloom.Rect, clipX, clipY, clipW, clipH uint32) {
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "display",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:    target,
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			},
		},
	})
	defer rp.End()

	sf := p.scaleFactor
	rp.SetViewport(bounds.Min.X*sf, bounds.Min.Y*sf,
		(bounds.Max.X-bounds.Min.X)*sf, (bounds.Max.Y-bounds.Min.Y)*sf, 0.0, 1.0)
	rp.SetScissorRect(clipX, clipY, clipW, clipH)

	if p.source == nil {
		p.display.Draw(rp, p.placeholderBG)
		return
	}

	for _, tile := range p.source.Tiles {
		if tile.lastNDCRect != nil && tile.lastNDCRect.OutsideNDC() {
			continue
		}
		p.display.Draw(rp, p.displayBindGroup(tile))
	}
}

// Destroy releases every GPU resource owned by the pipeline.
func (p *ViewPipeline) Destroy() {
	if p.build != nil {
		p.build.Discard()
		p.build = nil
	}
	if p.source != nil {
		p.source.Destroy()
		p.source = nil
	}
	if p.placeholderBG != nil {
		p.dev.HAL.DestroyBindGroup(p.placeholderBG)
		p.placeholderBG = nil
	}
	if p.placeholderBuf != nil {
		p.dev.HAL.DestroyBuffer(p.placeholderBuf)
		p.placeholderBuf = nil
	}
	if p.placeholderView != nil {
		p.placeholderView.Destroy()
		p.placeholderView = nil
	}
	if p.placeholderTexture != nil {
		p.placeholderTexture.Destroy()
		p.placeholderTexture = nil
	}
	if p.nearest != nil {
		p.dev.HAL.DestroySampler(p.nearest)
		p.nearest = nil
	}
	if p.trilinear != nil {
		p.dev.HAL.DestroySampler(p.trilinear)
		p.trilinear = nil
	}
	if p.blit != nil {
		p.blit.destroy()
		p.blit = nil
	}
	if p.vPass != nil {
		p.vPass.Destroy()
		p.vPass = nil
	}
	if p.hPass != nil {
		p.hPass.Destroy()
		p.hPass = nil
	}
	if p.display != nil {
		p.display.Destroy()
		p.display = nil
	}
}
