// Package renderer holds the GPU-independent parts of the rendering host: the
// swap-chain settings selection, the frame synchronization state machine, and
// the shader binary loader. Nothing in this package touches the Vulkan API
// directly, so all of it is testable without a device.
package renderer

import "render-host/core"

// Surface format and color space values, matching the Vulkan enums so the
// vulkan package can convert without a lookup table.
const (
	FormatB8G8R8A8SRGB      uint32 = 50
	ColorSpaceSRGBNonlinear uint32 = 0
)

// PresentMode mirrors VkPresentModeKHR.
type PresentMode uint32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

// SurfaceFormat is a pixel format paired with a color space.
type SurfaceFormat struct {
	Format     uint32
	ColorSpace uint32
}

// SurfaceCapabilities is the capability triple queried from the presentation
// surface before building a swap chain.
type SurfaceCapabilities struct {
	MinImageCount uint32
	MaxImageCount uint32 // 0 means unbounded
	CurrentExtent core.Extent2D
	MinExtent     core.Extent2D
	MaxExtent     core.Extent2D
}

// extentUndefined in CurrentExtent.Width means the surface takes its size from
// the window rather than reporting a fixed extent.
const extentUndefined = ^uint32(0)

// ChooseSurfaceFormat prefers BGRA8 sRGB and falls back to the first format
// the surface supports.
func ChooseSurfaceFormat(formats []SurfaceFormat) SurfaceFormat {
	for _, f := range formats {
		if f.Format == FormatB8G8R8A8SRGB && f.ColorSpace == ColorSpaceSRGBNonlinear {
			return f
		}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox for its lower latency. FIFO is the only
// mode the surface is guaranteed to support, so it is both the fallback and
// the vsync choice.
func ChoosePresentMode(modes []PresentMode, vsync bool) PresentMode {
	if vsync {
		return PresentModeFIFO
	}
	for _, m := range modes {
		if m == PresentModeMailbox {
			return m
		}
	}
	return PresentModeFIFO
}

// ChooseExtent uses the surface's fixed extent when it reports one, otherwise
// clamps the window's framebuffer size into the supported bounds.
func ChooseExtent(caps SurfaceCapabilities, width, height uint32) core.Extent2D {
	if caps.CurrentExtent.Width != extentUndefined {
		return caps.CurrentExtent
	}
	return core.Extent2D{
		Width:  clamp(width, caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: clamp(height, caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

// ChooseImageCount requests one image more than the driver minimum so the
// renderer is not stalled waiting on internal driver work, clamped to the
// surface maximum when one exists.
func ChooseImageCount(caps SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
