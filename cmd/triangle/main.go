package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"render-host/core"
	"render-host/renderer"
	"render-host/vulkan"
)

var (
	width      = flag.Int("width", 800, "initial window width")
	height     = flag.Int("height", 600, "initial window height")
	vsync      = flag.Bool("vsync", false, "prefer FIFO presentation over mailbox")
	vertShader = flag.String("vert", "shaders/triangle.vert.spv", "path to vertex shader SPIR-V")
	fragShader = flag.String("frag", "shaders/triangle.frag.spv", "path to fragment shader SPIR-V")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	windowConfig := core.DefaultWindowConfig()
	windowConfig.Width = *width
	windowConfig.Height = *height
	windowConfig.Title = "Render Host - Triangle"

	window, err := core.NewWindow(windowConfig)
	if err != nil {
		return err
	}
	defer window.Destroy()

	rendererConfig := vulkan.DefaultRendererConfig()
	rendererConfig.AppName = windowConfig.Title
	rendererConfig.VSync = *vsync

	r, err := vulkan.NewRenderer(window, rendererConfig)
	if err != nil {
		return err
	}
	defer r.Destroy()

	vertCode, fragCode, err := loadShaders()
	if err != nil {
		return err
	}

	if err := r.CreatePipeline(vertCode, fragCode); err != nil {
		return err
	}

	frameCount := 0
	lastReport := time.Now()

	for !window.ShouldClose() {
		window.PollEvents()

		if window.IsKeyPressed(core.KeyEscape) {
			break
		}

		if err := r.DrawFrame(); err != nil {
			return err
		}

		frameCount++
		if elapsed := time.Since(lastReport); elapsed >= time.Second {
			fps := float64(frameCount) / elapsed.Seconds()
			window.SetTitle(fmt.Sprintf("%s - %.0f FPS", windowConfig.Title, fps))
			frameCount = 0
			lastReport = time.Now()
		}
	}

	r.WaitIdle()
	return nil
}

// loadShaders reads the precompiled SPIR-V binaries, falling back to
// compiling the built-in GLSL sources when the files are missing and a shader
// compiler is on PATH.
func loadShaders() ([]uint32, []uint32, error) {
	vertCode, vertErr := renderer.LoadSPIRV(*vertShader)
	fragCode, fragErr := renderer.LoadSPIRV(*fragShader)
	if vertErr == nil && fragErr == nil {
		return vertCode, fragCode, nil
	}

	fmt.Println("Precompiled shaders not found, compiling built-in sources")

	vertCode, err := renderer.CompileShaderGLSL(renderer.TriangleVertexShaderGLSL, "vert")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile vertex shader: %w", err)
	}
	fragCode, err = renderer.CompileShaderGLSL(renderer.TriangleFragmentShaderGLSL, "frag")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile fragment shader: %w", err)
	}

	return vertCode, fragCode, nil
}
