package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DisplayPass draws a textured quad with a per-tile transform. The
// uniform buffer holds the mat4 transform and is visible to both
// stages so the vertex shader can place the quad.
type DisplayPass struct {
	pipeline   hal.RenderPipeline
	pipeLayout hal.PipelineLayout
	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	device     hal.Device
}

// NewDisplayPass builds the display pipeline targeting the given
// surface format with premultiplied alpha blending.
func NewDisplayPass(device hal.Device, format gputypes.TextureFormat) (*DisplayPass, error) {
	layout, err := standardBindGroupLayout(device,
		gputypes.ShaderStageVertex|gputypes.ShaderStageFragment, "display bind group layout")
	if err != nil {
		return nil, fmt.Errorf("render: display pass: %w", err)
	}

	blend := gputypes.BlendStatePremultiplied()
	pipeline, pipeLayout, shader, err := fullscreenPipeline(device, displayShaderSource,
		"display", gputypes.PrimitiveTopologyTriangleStrip, format, &blend, layout)
	if err != nil {
		device.DestroyBindGroupLayout(layout)
		return nil, fmt.Errorf("render: display pass: %w", err)
	}

	return &DisplayPass{
		pipeline:   pipeline,
		pipeLayout: pipeLayout,
		shader:     shader,
		layout:     layout,
		device:     device,
	}, nil
}

// Layout returns the bind group layout shared by all display bind
// groups.
func (p *DisplayPass) Layout() hal.BindGroupLayout { return p.layout }

// CreateBindGroup binds a uniform buffer, texture view and sampler for
// drawing one tile.
func (p *DisplayPass) CreateBindGroup(buf hal.Buffer, view hal.TextureView, sampler hal.Sampler, label string) (hal.BindGroup, error) {
	return standardBindGroup(p.device, p.layout, buf, view, sampler, label)
}

// Draw issues the quad draw with the given bind group. The render pass
// must already be begun by the caller.
func (p *DisplayPass) Draw(rp hal.RenderPassEncoder, bg hal.BindGroup) {
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bg, nil)
	rp.Draw(4, 1, 0, 0)
}

func (p *DisplayPass) Destroy() {
	p.device.DestroyRenderPipeline(p.pipeline)
	p.device.DestroyPipelineLayout(p.pipeLayout)
	p.device.DestroyShaderModule(p.shader)
	p.device.DestroyBindGroupLayout(p.layout)
}
