package vulkan

/*
#include <vulkan/vulkan.h>
*/
import "C"
import (
	"math"
)

// Semaphore is a GPU-side ordering primitive; the CPU never observes it.
type Semaphore struct {
	device C.VkDevice
	Handle C.VkSemaphore
}

// Fence is a CPU-waitable GPU-completion signal. It satisfies the renderer
// package's Fence interface.
type Fence struct {
	device C.VkDevice
	Handle C.VkFence
}

func CreateSemaphore(device *Device) (*Semaphore, error) {
	semaphoreInfo := C.VkSemaphoreCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_SEMAPHORE_CREATE_INFO,
	}

	var semaphore C.VkSemaphore
	if result := C.vkCreateSemaphore(device.Device, &semaphoreInfo, nil, &semaphore); result != C.VK_SUCCESS {
		return nil, resultErr("vkCreateSemaphore", result)
	}

	return &Semaphore{device: device.Device, Handle: semaphore}, nil
}

func (s *Semaphore) Destroy() {
	C.vkDestroySemaphore(s.device, s.Handle, nil)
}

func CreateFence(device *Device, signaled bool) (*Fence, error) {
	flags := C.VkFenceCreateFlags(0)
	if signaled {
		flags = C.VK_FENCE_CREATE_SIGNALED_BIT
	}

	fenceInfo := C.VkFenceCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_FENCE_CREATE_INFO,
		flags: flags,
	}

	var fence C.VkFence
	if result := C.vkCreateFence(device.Device, &fenceInfo, nil, &fence); result != C.VK_SUCCESS {
		return nil, resultErr("vkCreateFence", result)
	}

	return &Fence{device: device.Device, Handle: fence}, nil
}

func (f *Fence) Destroy() {
	C.vkDestroyFence(f.device, f.Handle, nil)
}

// Wait blocks without timeout until the fence signals.
func (f *Fence) Wait() error {
	result := C.vkWaitForFences(f.device, 1, &f.Handle, C.VK_TRUE, C.uint64_t(math.MaxUint64))
	return resultErr("vkWaitForFences", result)
}

func (f *Fence) Reset() error {
	result := C.vkResetFences(f.device, 1, &f.Handle)
	return resultErr("vkResetFences", result)
}

// SubmitDraw submits one command buffer to the graphics queue. The GPU waits
// on waitSemaphore at the color-attachment-output stage only, so earlier
// pipeline stages run before the image is actually available; nothing before
// that stage touches the image. On completion it signals signalSemaphore and
// the fence.
func SubmitDraw(queue C.VkQueue, cmdBuffer CommandBuffer, waitSemaphore, signalSemaphore *Semaphore, fence *Fence) error {
	waitStage := C.VkPipelineStageFlags(C.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT)

	submitInfo := C.VkSubmitInfo{
		sType:                C.VK_STRUCTURE_TYPE_SUBMIT_INFO,
		waitSemaphoreCount:   1,
		pWaitSemaphores:      &waitSemaphore.Handle,
		pWaitDstStageMask:    &waitStage,
		commandBufferCount:   1,
		pCommandBuffers:      &cmdBuffer.Handle,
		signalSemaphoreCount: 1,
		pSignalSemaphores:    &signalSemaphore.Handle,
	}

	result := C.vkQueueSubmit(queue, 1, &submitInfo, fence.Handle)
	return resultErr("vkQueueSubmit", result)
}

// Present queues the image for display once waitSemaphore signals. Returns
// ErrOutOfDate or ErrSuboptimal when the swap chain needs a rebuild; the
// present request has still been issued in the suboptimal case.
func Present(queue C.VkQueue, swapchain *SwapChain, imageIndex uint32, waitSemaphore *Semaphore) error {
	index := C.uint32_t(imageIndex)
	presentInfo := C.VkPresentInfoKHR{
		sType:              C.VK_STRUCTURE_TYPE_PRESENT_INFO_KHR,
		waitSemaphoreCount: 1,
		pWaitSemaphores:    &waitSemaphore.Handle,
		swapchainCount:     1,
		pSwapchains:        &swapchain.Handle,
		pImageIndices:      &index,
	}

	result := C.vkQueuePresentKHR(queue, &presentInfo)
	return resultErr("vkQueuePresentKHR", result)
}
