// Package render owns everything GPU-side: device bootstrap, shader
// compilation, the tiled image source with its mip pyramids, and the
// display and Lanczos passes that put pixels on screen.
package render

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/display.wgsl
var displayShaderSource string

//go:embed shaders/blit.wgsl
var blitShaderSource string

//go:embed shaders/lanczos_h.wgsl
var lanczosHShaderSource string

//go:embed shaders/lanczos_v.wgsl
var lanczosVShaderSource string

// compileShaderToSPIRV compiles WGSL source to a SPIR-V word slice.
func compileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return spirvCode, nil
}

// createShaderModule compiles WGSL via naga and wraps it in a hal
// shader module.
func createShaderModule(device hal.Device, label, wgslSource string) (hal.ShaderModule, error) {
	code, err := compileShaderToSPIRV(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %s: %w", label, err)
	}
	return module, nil
}
