package render

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// lodScales are the pyramid level scales relative to the tile size.
// Each level is rendered directly from the one above with the
// separable Lanczos-3 filter, so quality does not degrade down the
// chain.
var lodScales = [...]float32{1.0, 0.5, 0.25, 0.125, 0.0625}

// lanczosMipCount returns how many pyramid levels a w x h tile gets:
// levels are added while the next halving stays at least 4px on both
// sides, capped by the scale table.
func lanczosMipCount(w, h uint32) uint32 {
	count := uint32(1)
	nw, nh := w, h
	for count < uint32(len(lodScales)) {
		nw = lodDim(nw, 0.5)
		nh = lodDim(nh, 0.5)
		if nw < 4 || nh < 4 {
			break
		}
		count++
	}
	return count
}

// lodDim scales a dimension, rounding to nearest with a 1px floor.
func lodDim(dim uint32, scale float32) uint32 {
	out := uint32(math.Round(float64(dim) * float64(scale)))
	if out < 1 {
		return 1
	}
	return out
}

// lanczosResult is a finished pyramid for one tile, staged until every
// tile is done.
type lanczosResult struct {
	texture   hal.Texture
	view      hal.TextureView
	bindGroup hal.BindGroup
}

// LanczosBuild incrementally filters each tile of a source into a
// multi-level Lanczos pyramid, one tile per Step call so a large image
// does not stall the frame loop. Finished pyramids are staged and
// installed on all tiles at once when the last tile completes, so the
// display never mixes freshly filtered tiles with stale ones.
type LanczosBuild struct {
	source   *TiledSource
	hPass    *LanczosPass
	vPass    *LanczosPass
	display  *DisplayPass
	sampler  hal.Sampler
	device   hal.Device
	queue    hal.Queue
	results  []*lanczosResult
	nextTile int
}

// NewLanczosBuild starts a build over every tile of source. The
// sampler is used for both filter sampling and the final display bind
// groups.
func NewLanczosBuild(dev *Device, source *TiledSource, hPass, vPass *LanczosPass, display *DisplayPass, sampler hal.Sampler) *LanczosBuild {
	return &LanczosBuild{
		source:  source,
		hPass:   hPass,
		vPass:   vPass,
		display: display,
		sampler: sampler,
		device:  dev.HAL,
		queue:   dev.Queue,
		results: make([]*lanczosResult, 0, len(source.Tiles)),
	}
}

// Step filters one tile and returns true once every tile's pyramid has
// been built and published. Calling Step after completion is a no-op
// returning true.
func (b *LanczosBuild) Step() (bool, error) {
	return b.step(b.buildTilePyramid)
}

// step drives the cursor and staging bookkeeping around buildTile.
// Results stay staged until the last tile finishes, then install on
// every tile at once.
func (b *LanczosBuild) step(buildTile func(*Tile) (*lanczosResult, error)) (bool, error) {
	if b.nextTile >= len(b.source.Tiles) {
		return true, nil
	}

	tile := b.source.Tiles[b.nextTile]
	result, err := buildTile(tile)
	if err != nil {
		return false, err
	}
	b.results = append(b.results, result)
	b.nextTile++

	if b.nextTile < len(b.source.Tiles) {
		return false, nil
	}

	// All tiles done: publish every pyramid in one pass.
	for i, res := range b.results {
		b.source.Tiles[i].setLanczosResult(b.device, res.texture, res.view, res.bindGroup)
	}
	b.results = nil
	slogger().Debug("render: lanczos pyramids ready", "tiles", len(b.source.Tiles))
	return true, nil
}

// Discard drops any staged pyramids that were never published.
func (b *LanczosBuild) Discard() {
	for _, res := range b.results {
		b.device.DestroyBindGroup(res.bindGroup)
		res.view.Destroy()
		res.texture.Destroy()
	}
	b.results = nil
	b.nextTile = len(b.source.Tiles)
}

const lanczosTextureUsage = gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageRenderAttachment

// buildTilePyramid renders the full pyramid for one tile: per level, a
// horizontal filter pass into an intermediate texture, then a vertical
// pass into the pyramid level. Level 0 runs both passes at scale 1.0,
// which the kernel reduces to the identity, converting the source into
// the float pyramid format.
func (b *LanczosBuild) buildTilePyramid(tile *Tile) (*lanczosResult, error) {
	tw, th := tile.Rect.W, tile.Rect.H
	mips := lanczosMipCount(tw, th)

	pyramid, err := texture2DMipmapped(b.device, tw, th, mips,
		gputypes.TextureFormatRGBA16Float, lanczosTextureUsage, "lanczos pyramid")
	if err != nil {
		return nil, fmt.Errorf("render: lanczos pyramid: %w", err)
	}

	allView, err := b.device.CreateTextureView(pyramid, &hal.TextureViewDescriptor{Label: "lanczos pyramid view"})
	if err != nil {
		pyramid.Destroy()
		return nil, fmt.Errorf("render: lanczos pyramid view: %w", err)
	}

	cleanup := newTransientSet(b.device)
	defer cleanup.destroyAll()

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "lanczos encoder"})
	if err != nil {
		allView.Destroy()
		pyramid.Destroy()
		return nil, fmt.Errorf("render: lanczos encoder: %w", err)
	}
	if err := encoder.BeginEncoding("lanczos build"); err != nil {
		allView.Destroy()
		pyramid.Destroy()
		return nil, fmt.Errorf("render: lanczos encoding: %w", err)
	}

	prevW, prevH := tw, th
	var prevLevel hal.TextureView
	for level := uint32(0); level < mips; level++ {
		outW := lodDim(tw, lodScales[level])
		outH := lodDim(th, lodScales[level])

		dst, err := mipLevelView(b.device, pyramid, level, fmt.Sprintf("lanczos level %d", level))
		if err != nil {
			encoder.DiscardEncoding()
			allView.Destroy()
			pyramid.Destroy()
			return nil, fmt.Errorf("render: lanczos level %d: %w", level, err)
		}
		cleanup.view(dst)

		src := tile.sourceView
		srcW, srcH := tw, th
		if level > 0 {
			src = prevLevel
			srcW, srcH = prevW, prevH
		}

		err = b.encodeLevel(encoder, cleanup, src, dst, srcW, srcH, outW, outH)
		if err != nil {
			encoder.DiscardEncoding()
			allView.Destroy()
			pyramid.Destroy()
			return nil, fmt.Errorf("render: lanczos level %d: %w", level, err)
		}

		prevLevel = dst
		prevW, prevH = outW, outH
	}

	if err := submitAndWait(b.device, b.queue, encoder); err != nil {
		allView.Destroy()
		pyramid.Destroy()
		return nil, err
	}

	bg, err := b.display.CreateBindGroup(tile.uniformBuffer, allView, b.sampler, "lanczos display bind group")
	if err != nil {
		allView.Destroy()
		pyramid.Destroy()
		return nil, fmt.Errorf("render: lanczos bind group: %w", err)
	}

	return &lanczosResult{texture: pyramid, view: allView, bindGroup: bg}, nil
}

// encodeLevel records the two filter passes producing one pyramid
// level: horizontal into a srcH-tall intermediate, then vertical into
// dst.
func (b *LanczosBuild) encodeLevel(encoder hal.CommandEncoder, cleanup *transientSet, src, dst hal.TextureView, srcW, srcH, outW, outH uint32) error {
	intermediate, err := texture2D(b.device, outW, srcH,
		gputypes.TextureFormatRGBA16Float, lanczosTextureUsage, "lanczos intermediate")
	if err != nil {
		return err
	}
	cleanup.texture(intermediate)

	interView, err := b.device.CreateTextureView(intermediate, &hal.TextureViewDescriptor{Label: "lanczos intermediate view"})
	if err != nil {
		return err
	}
	cleanup.view(interView)

	hScale := float32(outW) / float32(srcW)
	vScale := float32(outH) / float32(srcH)

	if err := b.encodePass(encoder, cleanup, b.hPass, src, interView,
		lanczosUniforms{SrcWidth: float32(srcW), SrcHeight: float32(srcH), Scale: hScale}); err != nil {
		return err
	}
	return b.encodePass(encoder, cleanup, b.vPass, interView, dst,
		lanczosUniforms{SrcWidth: float32(outW), SrcHeight: float32(srcH), Scale: vScale})
}

func (b *LanczosBuild) encodePass(encoder hal.CommandEncoder, cleanup *transientSet, pass *LanczosPass, src, dst hal.TextureView, u lanczosUniforms) error {
	buf, err := uniformBuffer(b.device, lanczosUniformsSize, "lanczos pass uniforms")
	if err != nil {
		return err
	}
	cleanup.buffer(buf)
	b.queue.WriteBuffer(buf, 0, packLanczosUniforms(u))

	bg, err := pass.CreateBindGroup(buf, src, b.sampler, "lanczos pass bind group")
	if err != nil {
		return err
	}
	cleanup.bindGroup(bg)

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "lanczos pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       dst,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	})
	pass.Draw(rp, bg)
	rp.End()
	return nil
}

// transientSet collects per-encoder resources so they are released in
// one place after submission.
type transientSet struct {
	device     hal.Device
	textures   []hal.Texture
	views      []hal.TextureView
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
}

func newTransientSet(device hal.Device) *transientSet { return &transientSet{device: device} }

func (s *transientSet) texture(t hal.Texture)      { s.textures = append(s.textures, t) }
func (s *transientSet) view(v hal.TextureView)     { s.views = append(s.views, v) }
func (s *transientSet) buffer(b hal.Buffer)        { s.buffers = append(s.buffers, b) }
func (s *transientSet) bindGroup(bg hal.BindGroup) { s.bindGroups = append(s.bindGroups, bg) }

func (s *transientSet) destroyAll() {
	for _, bg := range s.bindGroups {
		s.device.DestroyBindGroup(bg)
	}
	for _, b := range s.buffers {
		s.device.DestroyBuffer(b)
	}
	for _, v := range s.views {
		v.Destroy()
	}
	for _, t := range s.textures {
		t.Destroy()
	}
	*s = transientSet{device: s.device}
}
