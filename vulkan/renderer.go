package vulkan

/*
#include <vulkan/vulkan.h>
*/
import "C"
import (
	"errors"
	"fmt"
	"unsafe"

	"render-host/core"
	"render-host/renderer"
)

// MaxFramesInFlight is the number of frames the CPU may record ahead of the
// GPU. Two keeps the CPU busy while the GPU draws without stacking up
// latency.
const MaxFramesInFlight = 2

// Renderer owns the whole Vulkan object graph for one window and drives the
// per-frame acquire/submit/present cycle. All methods must be called from the
// thread that owns the window.
type Renderer struct {
	Instance  *Instance
	Surface   C.VkSurfaceKHR
	Device    *Device
	SwapChain *SwapChain

	RenderPass     C.VkRenderPass
	Pipeline       *Pipeline
	CommandBuffers []CommandBuffer

	ImageAvailable []*Semaphore
	RenderFinished []*Semaphore
	InFlightFences []*Fence

	frames *renderer.FrameSync
	window *core.Window
	config RendererConfig

	vertCode []uint32
	fragCode []uint32

	resized bool
}

type RendererConfig struct {
	AppName           string
	EnableValidation  bool
	RequireValidation bool
	VSync             bool
	ClearColor        core.Color
	VertexCount       uint32
}

func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		AppName:          "Render Host",
		EnableValidation: true,
		VSync:            false,
		ClearColor:       core.ColorBlack,
		VertexCount:      3,
	}
}

// NewRenderer brings up everything that survives a resize: instance, surface,
// device, and the per-slot synchronization objects. The swap chain and
// pipeline follow in CreatePipeline once shader code is available.
func NewRenderer(window *core.Window, config RendererConfig) (*Renderer, error) {
	r := &Renderer{
		window: window,
		config: config,
	}

	instanceConfig := DefaultInstanceConfig()
	instanceConfig.AppName = config.AppName
	instanceConfig.EnableValidation = config.EnableValidation
	instanceConfig.RequireValidation = config.RequireValidation
	instanceConfig.RequiredExtensions = window.GetRequiredInstanceExtensions()

	instance, err := NewInstance(instanceConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}
	r.Instance = instance

	rawSurface, err := window.CreateWindowSurface(instance.Handle)
	if err != nil {
		r.Destroy()
		return nil, fmt.Errorf("failed to create window surface: %w", err)
	}
	r.Surface = *(*C.VkSurfaceKHR)(unsafe.Pointer(&rawSurface))

	device, err := PickPhysicalDevice(instance, r.Surface)
	if err != nil {
		r.Destroy()
		return nil, err
	}
	r.Device = device

	fmt.Printf("Selected GPU: %s (%s)\n", device.GetGPUName(), device.GetDeviceType())

	if err := device.CreateLogicalDevice(r.Surface); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("failed to create logical device: %w", err)
	}

	if err := r.createSyncObjects(); err != nil {
		r.Destroy()
		return nil, err
	}

	window.SetResizeCallback(func(width, height int) {
		r.resized = true
	})

	return r, nil
}

// createSyncObjects allocates one semaphore pair and one fence per in-flight
// slot. Fences start signaled so the first frame's wait returns immediately.
func (r *Renderer) createSyncObjects() error {
	fences := make([]renderer.Fence, MaxFramesInFlight)

	for i := 0; i < MaxFramesInFlight; i++ {
		imageAvailable, err := CreateSemaphore(r.Device)
		if err != nil {
			return fmt.Errorf("failed to create image-available semaphore: %w", err)
		}
		r.ImageAvailable = append(r.ImageAvailable, imageAvailable)

		renderFinished, err := CreateSemaphore(r.Device)
		if err != nil {
			return fmt.Errorf("failed to create render-finished semaphore: %w", err)
		}
		r.RenderFinished = append(r.RenderFinished, renderFinished)

		fence, err := CreateFence(r.Device, true)
		if err != nil {
			return fmt.Errorf("failed to create in-flight fence: %w", err)
		}
		r.InFlightFences = append(r.InFlightFences, fence)
		fences[i] = fence
	}

	r.frames = renderer.NewFrameSync(fences, 0)
	return nil
}

// CreatePipeline stores the shader code and builds the resize-dependent
// half of the renderer: swap chain, render pass, pipeline, framebuffers, and
// pre-recorded command buffers. The code is kept so a rebuild after a resize
// can recreate the pipeline without the caller's involvement.
func (r *Renderer) CreatePipeline(vertCode, fragCode []uint32) error {
	r.vertCode = vertCode
	r.fragCode = fragCode
	return r.buildSwapChain()
}

func (r *Renderer) buildSwapChain() error {
	width, height := r.window.GetFramebufferSize()

	swapchain, err := CreateSwapChain(r.Device, r.Surface, SwapChainConfig{
		Width:  uint32(width),
		Height: uint32(height),
		VSync:  r.config.VSync,
	})
	if err != nil {
		return fmt.Errorf("failed to create swap chain: %w", err)
	}
	r.SwapChain = swapchain

	renderPass, err := CreateRenderPass(r.Device, swapchain.Format)
	if err != nil {
		return fmt.Errorf("failed to create render pass: %w", err)
	}
	r.RenderPass = renderPass

	pipelineConfig := DefaultPipelineConfig()
	pipelineConfig.VertexShaderCode = r.vertCode
	pipelineConfig.FragmentShaderCode = r.fragCode
	pipelineConfig.ViewportWidth = float32(swapchain.Extent.width)
	pipelineConfig.ViewportHeight = float32(swapchain.Extent.height)

	pipeline, err := CreateGraphicsPipeline(r.Device, renderPass, pipelineConfig)
	if err != nil {
		return fmt.Errorf("failed to create graphics pipeline: %w", err)
	}
	r.Pipeline = pipeline

	if err := swapchain.CreateFramebuffers(r.Device, renderPass); err != nil {
		return fmt.Errorf("failed to create framebuffers: %w", err)
	}

	if err := r.recordCommandBuffers(); err != nil {
		return err
	}

	r.frames.ResetImages(int(swapchain.ImageCount))
	return nil
}

// recordCommandBuffers allocates and records one command buffer per swap
// chain image. The scene is static, so recording happens once per build, not
// per frame.
func (r *Renderer) recordCommandBuffers() error {
	buffers, err := AllocateCommandBuffers(r.Device, r.SwapChain.ImageCount)
	if err != nil {
		return fmt.Errorf("failed to allocate command buffers: %w", err)
	}
	r.CommandBuffers = buffers

	for i, buffer := range buffers {
		if err := buffer.Begin(); err != nil {
			return fmt.Errorf("failed to begin command buffer %d: %w", i, err)
		}

		buffer.BeginRenderPass(r.RenderPass, r.SwapChain.Framebuffers[i], r.SwapChain.Extent, r.config.ClearColor)
		buffer.BindPipeline(r.Pipeline)
		buffer.Draw(r.config.VertexCount, 1)
		buffer.EndRenderPass()

		if err := buffer.End(); err != nil {
			return fmt.Errorf("failed to end command buffer %d: %w", i, err)
		}
	}

	return nil
}

func (r *Renderer) destroySwapChain() {
	FreeCommandBuffers(r.Device, r.CommandBuffers)
	r.CommandBuffers = nil

	if r.Pipeline != nil {
		r.Pipeline.Destroy(r.Device)
		r.Pipeline = nil
	}
	if r.RenderPass != nil {
		DestroyRenderPass(r.Device, r.RenderPass)
		r.RenderPass = nil
	}
	if r.SwapChain != nil {
		r.SwapChain.Destroy(r.Device)
		r.SwapChain = nil
	}
}

// recreateSwapChain drains the device and rebuilds everything that depends on
// the surface extent. A zero-area framebuffer (minimized window) leaves the
// resized flag set and returns without rebuilding; the next DrawFrame retries.
func (r *Renderer) recreateSwapChain() error {
	width, height := r.window.GetFramebufferSize()
	if width == 0 || height == 0 {
		r.resized = true
		return nil
	}

	r.Device.WaitIdle()
	r.destroySwapChain()
	r.resized = false
	return r.buildSwapChain()
}

// DrawFrame runs one iteration of the frame cycle: wait for the current
// slot's fence, acquire an image, resolve image ownership, submit, present,
// and advance the slot. An out-of-date swap chain at acquire skips the frame
// entirely; out-of-date or suboptimal at present (or a pending resize)
// rebuilds after the frame has been issued.
func (r *Renderer) DrawFrame() error {
	if r.SwapChain == nil {
		return fmt.Errorf("renderer has no swap chain; call CreatePipeline first")
	}

	if err := r.frames.WaitCurrent(); err != nil {
		return err
	}

	slot := r.frames.Current()

	imageIndex, err := r.SwapChain.AcquireNextImage(r.Device, r.ImageAvailable[slot].Handle)
	if errors.Is(err, ErrOutOfDate) {
		return r.recreateSwapChain()
	}
	if err != nil {
		return err
	}

	if err := r.frames.ClaimImage(imageIndex); err != nil {
		return err
	}

	if err := r.frames.BeginSubmit(); err != nil {
		return err
	}

	if err := SubmitDraw(r.Device.GraphicsQueue, r.CommandBuffers[imageIndex], r.ImageAvailable[slot], r.RenderFinished[slot], r.InFlightFences[slot]); err != nil {
		return fmt.Errorf("failed to submit draw: %w", err)
	}

	presentErr := Present(r.Device.PresentQueue, r.SwapChain, imageIndex, r.RenderFinished[slot])

	r.frames.Advance()

	if errors.Is(presentErr, ErrOutOfDate) || errors.Is(presentErr, ErrSuboptimal) || r.resized {
		return r.recreateSwapChain()
	}
	return presentErr
}

// WaitIdle drains the GPU. Call before tearing down or before destroying
// anything a frame in flight might still use.
func (r *Renderer) WaitIdle() {
	if r.Device != nil && r.Device.Device != nil {
		r.Device.WaitIdle()
	}
}

// Destroy tears everything down in reverse dependency order. Safe to call on
// a partially constructed renderer.
func (r *Renderer) Destroy() {
	r.WaitIdle()

	if r.Device != nil && r.Device.Device != nil {
		r.destroySwapChain()

		for _, semaphore := range r.ImageAvailable {
			semaphore.Destroy()
		}
		r.ImageAvailable = nil
		for _, semaphore := range r.RenderFinished {
			semaphore.Destroy()
		}
		r.RenderFinished = nil
		for _, fence := range r.InFlightFences {
			fence.Destroy()
		}
		r.InFlightFences = nil

		r.Device.Destroy()
	}

	if r.Instance != nil {
		if r.Surface != nil {
			C.vkDestroySurfaceKHR(r.Instance.Handle, r.Surface, nil)
			r.Surface = nil
		}
		r.Instance.Destroy()
		r.Instance = nil
	}
}
