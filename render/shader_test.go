package render

import "testing"

const spirvMagic = 0x07230203

func TestShadersCompile(t *testing.T) {
	shaders := map[string]string{
		"display":            displayShaderSource,
		"blit":               blitShaderSource,
		"lanczos horizontal": lanczosHShaderSource,
		"lanczos vertical":   lanczosVShaderSource,
	}
	for name, src := range shaders {
		t.Run(name, func(t *testing.T) {
			code, err := compileShaderToSPIRV(src)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if len(code) == 0 {
				t.Fatal("empty SPIR-V output")
			}
			if code[0] != spirvMagic {
				t.Fatalf("bad SPIR-V magic: %#x", code[0])
			}
		})
	}
}
