package renderer

import (
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
)

// spirvMagic is the first word of every SPIR-V binary.
const spirvMagic = 0x07230203

// LoadSPIRV reads a precompiled SPIR-V binary and returns it as the 32-bit
// words the pipeline builder consumes. The file is taken byte-exact; a size
// not divisible by four or a wrong magic number means the file is not SPIR-V.
func LoadSPIRV(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shader binary %s: %w", path, err)
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("shader binary %s has invalid size %d", path, len(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	if words[0] != spirvMagic {
		return nil, fmt.Errorf("shader binary %s is not SPIR-V", path)
	}

	return words, nil
}

// CompileShaderGLSL compiles GLSL source to SPIR-V using glslc or
// glslangValidator, whichever is on PATH. The stage ("vert", "frag") selects
// the shader stage via the temp file extension. Development convenience only;
// production builds ship precompiled binaries and go through LoadSPIRV.
func CompileShaderGLSL(source string, stage string) ([]uint32, error) {
	tmp, err := os.CreateTemp("", "shader-*."+stage)
	if err != nil {
		return nil, err
	}
	srcPath := tmp.Name()
	outPath := srcPath + ".spv"
	defer os.Remove(srcPath)
	defer os.Remove(outPath)

	if _, err := tmp.WriteString(source); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	var cmd *exec.Cmd
	if _, err := exec.LookPath("glslc"); err == nil {
		cmd = exec.Command("glslc", srcPath, "-o", outPath)
	} else if _, err := exec.LookPath("glslangValidator"); err == nil {
		cmd = exec.Command("glslangValidator", "-V", srcPath, "-o", outPath)
	} else {
		return nil, fmt.Errorf("no shader compiler found (glslc or glslangValidator)")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("shader compilation failed: %v\n%s", err, output)
	}

	return LoadSPIRV(outPath)
}

// TriangleVertexShaderGLSL generates the triangle from gl_VertexIndex; no
// vertex buffer is bound.
const TriangleVertexShaderGLSL = `
#version 450

layout(location = 0) out vec3 fragColor;

vec2 positions[3] = vec2[](
    vec2(0.0, -0.5),
    vec2(0.5, 0.5),
    vec2(-0.5, 0.5)
);

vec3 colors[3] = vec3[](
    vec3(1.0, 0.0, 0.0),
    vec3(0.0, 1.0, 0.0),
    vec3(0.0, 0.0, 1.0)
);

void main() {
    gl_Position = vec4(positions[gl_VertexIndex], 0.0, 1.0);
    fragColor = colors[gl_VertexIndex];
}
`

const TriangleFragmentShaderGLSL = `
#version 450

layout(location = 0) in vec3 fragColor;

layout(location = 0) out vec4 outColor;

void main() {
    outColor = vec4(fragColor, 1.0);
}
`
