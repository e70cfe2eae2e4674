package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// blitPipeline copies one mip level into the next with linear
// filtering. Used to populate hardware mip chains after upload.
type blitPipeline struct {
	pipeline   hal.RenderPipeline
	pipeLayout hal.PipelineLayout
	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	device     hal.Device
}

func newBlitPipeline(device hal.Device, format gputypes.TextureFormat) (*blitPipeline, error) {
	layout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "blit bind group layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler: &gputypes.SamplerBindingLayout{
					Type: gputypes.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render: blit layout: %w", err)
	}

	pipeline, pipeLayout, shader, err := fullscreenPipeline(device, blitShaderSource,
		"blit", gputypes.PrimitiveTopologyTriangleStrip, format, nil, layout)
	if err != nil {
		device.DestroyBindGroupLayout(layout)
		return nil, fmt.Errorf("render: blit pipeline: %w", err)
	}

	return &blitPipeline{
		pipeline:   pipeline,
		pipeLayout: pipeLayout,
		shader:     shader,
		layout:     layout,
		device:     device,
	}, nil
}

func (b *blitPipeline) createBindGroup(view hal.TextureView, sampler hal.Sampler, label string) (hal.BindGroup, error) {
	return b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label,
		Layout: b.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		},
	})
}

func (b *blitPipeline) destroy() {
	b.device.DestroyRenderPipeline(b.pipeline)
	b.device.DestroyPipelineLayout(b.pipeLayout)
	b.device.DestroyShaderModule(b.shader)
	b.device.DestroyBindGroupLayout(b.layout)
}

// generateMipmaps fills mip levels 1..mipCount-1 of tex by blitting
// each level from the one above it. Runs its own command encoder and
// waits for completion so the transient views can be destroyed before
// returning.
func (b *blitPipeline) generateMipmaps(queue hal.Queue, tex hal.Texture, mipCount uint32, sampler hal.Sampler) error {
	if mipCount <= 1 {
		return nil
	}

	type transient struct {
		src hal.TextureView
		dst hal.TextureView
		bg  hal.BindGroup
	}
	var transients []transient
	defer func() {
		for _, t := range transients {
			b.device.DestroyBindGroup(t.bg)
			t.dst.Destroy()
			t.src.Destroy()
		}
	}()

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "mip blit encoder"})
	if err != nil {
		return fmt.Errorf("render: mip encoder: %w", err)
	}
	if err := encoder.BeginEncoding("mip blit"); err != nil {
		return fmt.Errorf("render: mip encoding: %w", err)
	}

	for level := uint32(1); level < mipCount; level++ {
		src, err := mipLevelView(b.device, tex, level-1, fmt.Sprintf("mip src %d", level-1))
		if err != nil {
			encoder.DiscardEncoding()
			return fmt.Errorf("render: mip level %d: %w", level, err)
		}
		dst, err := mipLevelView(b.device, tex, level, fmt.Sprintf("mip dst %d", level))
		if err != nil {
			encoder.DiscardEncoding()
			src.Destroy()
			return fmt.Errorf("render: mip level %d: %w", level, err)
		}

		bg, err := b.createBindGroup(src, sampler, "mip blit bind group")
		if err != nil {
			encoder.DiscardEncoding()
			dst.Destroy()
			src.Destroy()
			return fmt.Errorf("render: mip level %d bind group: %w", level, err)
		}
		transients = append(transients, transient{src: src, dst: dst, bg: bg})

		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "mip blit",
			ColorAttachments: []hal.RenderPassColorAttachment{
				{
					View:       dst,
					LoadOp:     gputypes.LoadOpClear,
					StoreOp:    gputypes.StoreOpStore,
					ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
				},
			},
		})
		rp.SetPipeline(b.pipeline)
		rp.SetBindGroup(0, bg, nil)
		rp.Draw(4, 1, 0, 0)
		rp.End()
	}

	return submitAndWait(b.device, queue, encoder)
}
