package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// lanczosUniforms matches the Uniforms struct in lanczos_h.wgsl and
// lanczos_v.wgsl: source extent, downscale factor, and padding to a
// 16-byte boundary.
type lanczosUniforms struct {
	SrcWidth  float32
	SrcHeight float32
	Scale     float32
}

const lanczosUniformsSize = 16

func packLanczosUniforms(u lanczosUniforms) []byte {
	out := make([]byte, lanczosUniformsSize)
	binary.LittleEndian.PutUint32(out[0:], math.Float32bits(u.SrcWidth))
	binary.LittleEndian.PutUint32(out[4:], math.Float32bits(u.SrcHeight))
	binary.LittleEndian.PutUint32(out[8:], math.Float32bits(u.Scale))
	return out
}

// LanczosPass runs one direction of the separable Lanczos-3 filter,
// rendering into an Rgba16Float attachment.
type LanczosPass struct {
	pipeline   hal.RenderPipeline
	pipeLayout hal.PipelineLayout
	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	device     hal.Device
}

// NewLanczosPass builds a filter pipeline from the given shader source
// (horizontal or vertical variant).
func NewLanczosPass(device hal.Device, wgslSource, label string) (*LanczosPass, error) {
	layout, err := standardBindGroupLayout(device, gputypes.ShaderStageFragment, label+" bind group layout")
	if err != nil {
		return nil, fmt.Errorf("render: lanczos pass: %w", err)
	}

	pipeline, pipeLayout, shader, err := fullscreenPipeline(device, wgslSource, label,
		gputypes.PrimitiveTopologyTriangleList, gputypes.TextureFormatRGBA16Float, nil, layout)
	if err != nil {
		device.DestroyBindGroupLayout(layout)
		return nil, fmt.Errorf("render: lanczos pass: %w", err)
	}

	return &LanczosPass{
		pipeline:   pipeline,
		pipeLayout: pipeLayout,
		shader:     shader,
		layout:     layout,
		device:     device,
	}, nil
}

// CreateBindGroup binds a uniform buffer, source texture view and
// sampler for one filter pass.
func (p *LanczosPass) CreateBindGroup(buf hal.Buffer, view hal.TextureView, sampler hal.Sampler, label string) (hal.BindGroup, error) {
	return standardBindGroup(p.device, p.layout, buf, view, sampler, label)
}

// Draw issues the two-triangle quad covering the whole attachment.
func (p *LanczosPass) Draw(rp hal.RenderPassEncoder, bg hal.BindGroup) {
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bg, nil)
	rp.Draw(6, 1, 0, 0)
}

func (p *LanczosPass) Destroy() {
	p.device.DestroyRenderPipeline(p.pipeline)
	p.device.DestroyPipelineLayout(p.pipeLayout)
	p.device.DestroyShaderModule(p.shader)
	p.device.DestroyBindGroupLayout(p.layout)
}
