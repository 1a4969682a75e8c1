package vulkan

/*
#include <vulkan/vulkan.h>
*/
import "C"
import (
	"fmt"
	"math"

	"render-host/core"
	"render-host/renderer"
)

// SwapChain owns the negotiated chain of presentable images: the images
// themselves, one 2D color view per image, and (once the render pass exists)
// one framebuffer per image. Extent and format are fixed for its lifetime;
// resize means teardown and rebuild, never mutation.
type SwapChain struct {
	Handle       C.VkSwapchainKHR
	Images       []C.VkImage
	ImageViews   []C.VkImageView
	Framebuffers []C.VkFramebuffer
	Format       C.VkFormat
	ColorSpace   C.VkColorSpaceKHR
	PresentMode  C.VkPresentModeKHR
	Extent       C.VkExtent2D
	ImageCount   uint32
}

type SwapChainConfig struct {
	Width  uint32
	Height uint32
	VSync  bool
}

type surfaceSupport struct {
	caps      renderer.SurfaceCapabilities
	formats   []renderer.SurfaceFormat
	modes     []renderer.PresentMode
	transform C.VkSurfaceTransformFlagBitsKHR
}

func querySurfaceSupport(device *Device, surface C.VkSurfaceKHR) (surfaceSupport, error) {
	var caps C.VkSurfaceCapabilitiesKHR
	if result := C.vkGetPhysicalDeviceSurfaceCapabilitiesKHR(device.PhysicalDevice, surface, &caps); result != C.VK_SUCCESS {
		return surfaceSupport{}, resultErr("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", result)
	}

	var formatCount C.uint32_t
	C.vkGetPhysicalDeviceSurfaceFormatsKHR(device.PhysicalDevice, surface, &formatCount, nil)
	formats := make([]C.VkSurfaceFormatKHR, formatCount)
	if formatCount > 0 {
		C.vkGetPhysicalDeviceSurfaceFormatsKHR(device.PhysicalDevice, surface, &formatCount, &formats[0])
	}

	var modeCount C.uint32_t
	C.vkGetPhysicalDeviceSurfacePresentModesKHR(device.PhysicalDevice, surface, &modeCount, nil)
	modes := make([]C.VkPresentModeKHR, modeCount)
	if modeCount > 0 {
		C.vkGetPhysicalDeviceSurfacePresentModesKHR(device.PhysicalDevice, surface, &modeCount, &modes[0])
	}

	support := surfaceSupport{
		caps: renderer.SurfaceCapabilities{
			MinImageCount: uint32(caps.minImageCount),
			MaxImageCount: uint32(caps.maxImageCount),
			CurrentExtent: core.Extent2D{Width: uint32(caps.currentExtent.width), Height: uint32(caps.currentExtent.height)},
			MinExtent:     core.Extent2D{Width: uint32(caps.minImageExtent.width), Height: uint32(caps.minImageExtent.height)},
			MaxExtent:     core.Extent2D{Width: uint32(caps.maxImageExtent.width), Height: uint32(caps.maxImageExtent.height)},
		},
		transform: caps.currentTransform,
	}

	support.formats = make([]renderer.SurfaceFormat, len(formats))
	for i, f := range formats {
		support.formats[i] = renderer.SurfaceFormat{Format: uint32(f.format), ColorSpace: uint32(f.colorSpace)}
	}

	support.modes = make([]renderer.PresentMode, len(modes))
	for i, m := range modes {
		support.modes[i] = renderer.PresentMode(m)
	}

	return support, nil
}

func CreateSwapChain(device *Device, surface C.VkSurfaceKHR, config SwapChainConfig) (*SwapChain, error) {
	support, err := querySurfaceSupport(device, surface)
	if err != nil {
		return nil, err
	}
	if len(support.formats) == 0 || len(support.modes) == 0 {
		return nil, fmt.Errorf("surface reports no formats or present modes")
	}

	surfaceFormat := renderer.ChooseSurfaceFormat(support.formats)
	presentMode := renderer.ChoosePresentMode(support.modes, config.VSync)
	extent := renderer.ChooseExtent(support.caps, config.Width, config.Height)
	imageCount := renderer.ChooseImageCount(support.caps)

	createInfo := C.VkSwapchainCreateInfoKHR{
		sType:            C.VK_STRUCTURE_TYPE_SWAPCHAIN_CREATE_INFO_KHR,
		surface:          surface,
		minImageCount:    C.uint32_t(imageCount),
		imageFormat:      C.VkFormat(surfaceFormat.Format),
		imageColorSpace:  C.VkColorSpaceKHR(surfaceFormat.ColorSpace),
		imageExtent:      C.VkExtent2D{width: C.uint32_t(extent.Width), height: C.uint32_t(extent.Height)},
		imageArrayLayers: 1,
		imageUsage:       C.VK_IMAGE_USAGE_COLOR_ATTACHMENT_BIT,
		preTransform:     support.transform,
		compositeAlpha:   C.VK_COMPOSITE_ALPHA_OPAQUE_BIT_KHR,
		presentMode:      C.VkPresentModeKHR(presentMode),
		clipped:          C.VK_TRUE,
		oldSwapchain:     nil,
	}

	// Differing queue families must share images concurrently; a single
	// family gets exclusive access, which needs no ownership transfer.
	queueFamilyIndices := []C.uint32_t{C.uint32_t(device.GraphicsFamily), C.uint32_t(device.PresentFamily)}
	if device.GraphicsFamily != device.PresentFamily {
		createInfo.imageSharingMode = C.VK_SHARING_MODE_CONCURRENT
		createInfo.queueFamilyIndexCount = 2
		createInfo.pQueueFamilyIndices = &queueFamilyIndices[0]
	} else {
		createInfo.imageSharingMode = C.VK_SHARING_MODE_EXCLUSIVE
	}

	sc := &SwapChain{
		Format:      C.VkFormat(surfaceFormat.Format),
		ColorSpace:  C.VkColorSpaceKHR(surfaceFormat.ColorSpace),
		PresentMode: C.VkPresentModeKHR(presentMode),
		Extent:      createInfo.imageExtent,
	}

	if result := C.vkCreateSwapchainKHR(device.Device, &createInfo, nil, &sc.Handle); result != C.VK_SUCCESS {
		return nil, resultErr("vkCreateSwapchainKHR", result)
	}

	// The driver may hand back more images than requested; the actual count
	// is what everything downstream sizes against.
	var actualImageCount C.uint32_t
	C.vkGetSwapchainImagesKHR(device.Device, sc.Handle, &actualImageCount, nil)
	sc.Images = make([]C.VkImage, actualImageCount)
	C.vkGetSwapchainImagesKHR(device.Device, sc.Handle, &actualImageCount, &sc.Images[0])
	sc.ImageCount = uint32(actualImageCount)

	sc.ImageViews = make([]C.VkImageView, len(sc.Images))
	for i, image := range sc.Images {
		viewInfo := C.VkImageViewCreateInfo{
			sType:    C.VK_STRUCTURE_TYPE_IMAGE_VIEW_CREATE_INFO,
			image:    image,
			viewType: C.VK_IMAGE_VIEW_TYPE_2D,
			format:   sc.Format,
			subresourceRange: C.VkImageSubresourceRange{
				aspectMask:     C.VK_IMAGE_ASPECT_COLOR_BIT,
				baseMipLevel:   0,
				levelCount:     1,
				baseArrayLayer: 0,
				layerCount:     1,
			},
		}

		if result := C.vkCreateImageView(device.Device, &viewInfo, nil, &sc.ImageViews[i]); result != C.VK_SUCCESS {
			sc.Destroy(device)
			return nil, resultErr("vkCreateImageView", result)
		}
	}

	return sc, nil
}

// CreateFramebuffers derives one framebuffer per image view, bound to the
// given render pass.
func (sc *SwapChain) CreateFramebuffers(device *Device, renderPass C.VkRenderPass) error {
	sc.Framebuffers = make([]C.VkFramebuffer, len(sc.ImageViews))

	for i := range sc.ImageViews {
		framebufferInfo := C.VkFramebufferCreateInfo{
			sType:           C.VK_STRUCTURE_TYPE_FRAMEBUFFER_CREATE_INFO,
			renderPass:      renderPass,
			attachmentCount: 1,
			pAttachments:    &sc.ImageViews[i],
			width:           sc.Extent.width,
			height:          sc.Extent.height,
			layers:          1,
		}

		if result := C.vkCreateFramebuffer(device.Device, &framebufferInfo, nil, &sc.Framebuffers[i]); result != C.VK_SUCCESS {
			return resultErr("vkCreateFramebuffer", result)
		}
	}

	return nil
}

// Destroy tears down in dependency order: framebuffers, image views, then
// the chain itself. The images belong to the chain and go with it.
func (sc *SwapChain) Destroy(device *Device) {
	for _, framebuffer := range sc.Framebuffers {
		C.vkDestroyFramebuffer(device.Device, framebuffer, nil)
	}
	sc.Framebuffers = nil
	for _, imageView := range sc.ImageViews {
		C.vkDestroyImageView(device.Device, imageView, nil)
	}
	sc.ImageViews = nil
	C.vkDestroySwapchainKHR(device.Device, sc.Handle, nil)
}

// AcquireNextImage requests the next presentable image index, signaling the
// given semaphore once the image is actually ready on the GPU. The call
// itself does not block the CPU. ErrOutOfDate means the chain must be
// rebuilt; a suboptimal result still delivers a usable image and is treated
// as success here, leaving the rebuild to the present step.
func (sc *SwapChain) AcquireNextImage(device *Device, semaphore C.VkSemaphore) (uint32, error) {
	var imageIndex C.uint32_t
	result := C.vkAcquireNextImageKHR(device.Device, sc.Handle, C.uint64_t(math.MaxUint64), semaphore, nil, &imageIndex)

	if result != C.VK_SUCCESS && result != C.VK_SUBOPTIMAL_KHR {
		return uint32(imageIndex), resultErr("vkAcquireNextImageKHR", result)
	}

	return uint32(imageIndex), nil
}
