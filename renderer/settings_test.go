package renderer

import (
	"testing"

	"render-host/core"
)

func TestChooseSurfaceFormatPreferred(t *testing.T) {
	formats := []SurfaceFormat{
		{Format: 44, ColorSpace: ColorSpaceSRGBNonlinear},
		{Format: FormatB8G8R8A8SRGB, ColorSpace: ColorSpaceSRGBNonlinear},
	}

	chosen := ChooseSurfaceFormat(formats)
	if chosen.Format != FormatB8G8R8A8SRGB {
		t.Errorf("expected preferred format %d, got %d", FormatB8G8R8A8SRGB, chosen.Format)
	}
}

func TestChooseSurfaceFormatFallback(t *testing.T) {
	// No entry matches the preferred format/color-space pair; the first
	// supported format must be selected rather than failing.
	formats := []SurfaceFormat{
		{Format: 37, ColorSpace: 1},
		{Format: 44, ColorSpace: ColorSpaceSRGBNonlinear},
	}

	chosen := ChooseSurfaceFormat(formats)
	if chosen != formats[0] {
		t.Errorf("expected first supported format %v, got %v", formats[0], chosen)
	}
}

func TestChoosePresentModeMailbox(t *testing.T) {
	modes := []PresentMode{PresentModeImmediate, PresentModeMailbox, PresentModeFIFO}

	if m := ChoosePresentMode(modes, false); m != PresentModeMailbox {
		t.Errorf("expected mailbox, got %d", m)
	}
}

func TestChoosePresentModeFIFOOnly(t *testing.T) {
	// FIFO is the only mode guaranteed present; a capability set containing
	// only FIFO must select it and must not fail.
	modes := []PresentMode{PresentModeFIFO}

	if m := ChoosePresentMode(modes, false); m != PresentModeFIFO {
		t.Errorf("expected FIFO, got %d", m)
	}
}

func TestChoosePresentModeVSync(t *testing.T) {
	modes := []PresentMode{PresentModeImmediate, PresentModeMailbox, PresentModeFIFO}

	if m := ChoosePresentMode(modes, true); m != PresentModeFIFO {
		t.Errorf("vsync must force FIFO, got %d", m)
	}
}

func TestChooseExtentFixed(t *testing.T) {
	caps := SurfaceCapabilities{
		CurrentExtent: core.Extent2D{Width: 1024, Height: 768},
	}

	extent := ChooseExtent(caps, 800, 600)
	if extent != caps.CurrentExtent {
		t.Errorf("expected surface-reported extent %v, got %v", caps.CurrentExtent, extent)
	}
}

func TestChooseExtentClamped(t *testing.T) {
	caps := SurfaceCapabilities{
		CurrentExtent: core.Extent2D{Width: ^uint32(0), Height: ^uint32(0)},
		MinExtent:     core.Extent2D{Width: 320, Height: 240},
		MaxExtent:     core.Extent2D{Width: 1920, Height: 1080},
	}

	extent := ChooseExtent(caps, 4000, 100)
	expected := core.Extent2D{Width: 1920, Height: 240}
	if extent != expected {
		t.Errorf("expected clamped extent %v, got %v", expected, extent)
	}

	extent = ChooseExtent(caps, 800, 600)
	expected = core.Extent2D{Width: 800, Height: 600}
	if extent != expected {
		t.Errorf("expected window extent %v, got %v", expected, extent)
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max uint32
		expected uint32
	}{
		{min: 1, max: 0, expected: 2}, // unbounded max: min+1
		{min: 2, max: 0, expected: 3},
		{min: 2, max: 3, expected: 3},
		{min: 3, max: 3, expected: 3}, // clamped to max
	}

	for _, tt := range tests {
		caps := SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		if count := ChooseImageCount(caps); count != tt.expected {
			t.Errorf("min=%d max=%d: expected %d images, got %d", tt.min, tt.max, tt.expected, count)
		}
	}
}
