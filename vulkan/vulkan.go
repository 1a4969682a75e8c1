// Package vulkan provides the Vulkan graphics API layer for the render host.
// This package uses CGO to interface with the Vulkan C API.
package vulkan

// #cgo windows LDFLAGS: -lvulkan-1
// #cgo linux LDFLAGS: -lvulkan
// #cgo darwin LDFLAGS: -framework MoltenVK
// #include <vulkan/vulkan.h>
import "C"
import (
	"errors"
	"fmt"
)

// Recoverable presentation-surface conditions. Everything else a Vulkan call
// reports is fatal.
var (
	// ErrOutOfDate means the surface no longer matches the window and the
	// swap chain must be rebuilt before rendering can continue.
	ErrOutOfDate = errors.New("presentation surface out of date")

	// ErrSuboptimal means presentation still succeeded but the swap chain no
	// longer matches the surface exactly; a rebuild is advisable.
	ErrSuboptimal = errors.New("presentation surface suboptimal")
)

// resultErr maps a VkResult to a Go error. Success maps to nil, the two
// surface conditions map to their sentinels, everything else to a fatal
// error carrying the raw result code.
func resultErr(op string, result C.VkResult) error {
	switch result {
	case C.VK_SUCCESS:
		return nil
	case C.VK_ERROR_OUT_OF_DATE_KHR:
		return fmt.Errorf("%s: %w", op, ErrOutOfDate)
	case C.VK_SUBOPTIMAL_KHR:
		return fmt.Errorf("%s: %w", op, ErrSuboptimal)
	default:
		return fmt.Errorf("%s failed: VkResult(%d)", op, int32(result))
	}
}

func makeVersion(major, minor, patch uint32) uint32 {
	return (major << 22) | (minor << 12) | patch
}
