package render

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// hwMipCount returns the full mip chain length for a w x h texture:
// floor(log2(max(w,h))) + 1, and 1 for a degenerate zero extent.
func hwMipCount(w, h uint32) uint32 {
	maxDim := max(w, h)
	if maxDim == 0 {
		return 1
	}
	return uint32(32 - bits.LeadingZeros32(maxDim))
}

// texture2D creates a single-mip 2D texture.
func texture2D(device hal.Device, w, h uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage, label string) (hal.Texture, error) {
	return texture2DMipmapped(device, w, h, 1, format, usage, label)
}

// texture2DMipmapped creates a 2D texture with the given mip chain
// length.
func texture2DMipmapped(device hal.Device, w, h, mipLevels uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage, label string) (hal.Texture, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              w,
			Height:             h,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: mipLevels,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", label, err)
	}
	return tex, nil
}

// mipLevelView creates a view over a single mip level of tex.
func mipLevelView(device hal.Device, tex hal.Texture, level uint32, label string) (hal.TextureView, error) {
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label,
		BaseMipLevel:  level,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create view %s: %w", label, err)
	}
	return view, nil
}

// uniformBuffer creates an empty uniform buffer of the given size.
func uniformBuffer(device hal.Device, size uint64, label string) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform buffer %s: %w", label, err)
	}
	return buf, nil
}

// standardBindGroupLayout is the layout shared by every pass in this
// package:
//
//	Binding 0: uniform buffer
//	Binding 1: sampled texture (fragment)
//	Binding 2: filtering sampler (fragment)
func standardBindGroupLayout(device hal.Device, uniformVisibility gputypes.ShaderStage, label string) (hal.BindGroupLayout, error) {
	layout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label,
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: uniformVisibility,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout %s: %w", label, err)
	}
	return layout, nil
}

// standardBindGroup binds a uniform buffer, texture view and sampler
// against the standard layout.
func standardBindGroup(device hal.Device, layout hal.BindGroupLayout, buf hal.Buffer, view hal.TextureView, sampler hal.Sampler, label string) (hal.BindGroup, error) {
	bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label,
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: 0, // whole buffer
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: view.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group %s: %w", label, err)
	}
	return bg, nil
}

// fullscreenPipeline builds a render pipeline for a vertex-bufferless
// fullscreen draw: the vertex shader derives positions from the vertex
// index.
func fullscreenPipeline(device hal.Device, wgslSource, label string, topology gputypes.PrimitiveTopology, format gputypes.TextureFormat, blend *gputypes.BlendState, layout hal.BindGroupLayout) (hal.RenderPipeline, hal.PipelineLayout, hal.ShaderModule, error) {
	shader, err := createShaderModule(device, label+"_shader", wgslSource)
	if err != nil {
		return nil, nil, nil, err
	}

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		device.DestroyShaderModule(shader)
		return nil, nil, nil, fmt.Errorf("create pipeline layout %s: %w", label, err)
	}

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: topology,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		device.DestroyPipelineLayout(pipeLayout)
		device.DestroyShaderModule(shader)
		return nil, nil, nil, fmt.Errorf("create pipeline %s: %w", label, err)
	}

	return pipeline, pipeLayout, shader, nil
}

// submitAndWait ends the encoder, submits the command buffer and
// blocks until the GPU is done with it.
func submitAndWait(device hal.Device, queue hal.Queue, encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("render: end encoding: %w", err)
	}

	fence, err := device.CreateFence()
	if err != nil {
		device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("render: create fence: %w", err)
	}
	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		device.FreeCommandBuffer(cmdBuf)
		device.DestroyFence(fence)
		return fmt.Errorf("render: submit: %w", err)
	}
	fenceOK, err := device.Wait(fence, 1, 5*time.Second)
	device.FreeCommandBuffer(cmdBuf)
	device.DestroyFence(fence)
	if err != nil || !fenceOK {
		return fmt.Errorf("render: wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// packMat4 serializes a row-major matrix into the column-major byte
// layout WGSL mat4x4 uniforms expect.
func packMat4(m [16]float32) []byte {
	out := make([]byte, 64)
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			binary.LittleEndian.PutUint32(
				out[(col*4+row)*4:],
				math.Float32bits(m[row*4+col]),
			)
		}
	}
	return out
}
