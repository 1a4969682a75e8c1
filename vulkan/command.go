package vulkan

/*
#include <vulkan/vulkan.h>
#include <string.h>

// VkClearValue is a union, which cgo cannot populate field by field. Build it
// on the C side from the color components.
VkClearValue makeClearColorValue(float r, float g, float b, float a) {
    VkClearValue clearValue;
    memset(&clearValue, 0, sizeof(clearValue));
    clearValue.color.float32[0] = r;
    clearValue.color.float32[1] = g;
    clearValue.color.float32[2] = b;
    clearValue.color.float32[3] = a;
    return clearValue;
}
*/
import "C"
import (
	"render-host/core"
)

// CommandBuffer wraps a primary command buffer allocated from the device's
// command pool.
type CommandBuffer struct {
	Handle C.VkCommandBuffer
}

// AllocateCommandBuffers allocates count primary command buffers from the
// device's pool.
func AllocateCommandBuffers(device *Device, count uint32) ([]CommandBuffer, error) {
	handles := make([]C.VkCommandBuffer, count)

	allocInfo := C.VkCommandBufferAllocateInfo{
		sType:              C.VK_STRUCTURE_TYPE_COMMAND_BUFFER_ALLOCATE_INFO,
		commandPool:        device.CommandPool,
		level:              C.VK_COMMAND_BUFFER_LEVEL_PRIMARY,
		commandBufferCount: C.uint32_t(count),
	}

	if result := C.vkAllocateCommandBuffers(device.Device, &allocInfo, &handles[0]); result != C.VK_SUCCESS {
		return nil, resultErr("vkAllocateCommandBuffers", result)
	}

	buffers := make([]CommandBuffer, count)
	for i, handle := range handles {
		buffers[i] = CommandBuffer{Handle: handle}
	}

	return buffers, nil
}

// FreeCommandBuffers returns the buffers to the device's pool.
func FreeCommandBuffers(device *Device, buffers []CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	handles := make([]C.VkCommandBuffer, len(buffers))
	for i, buffer := range buffers {
		handles[i] = buffer.Handle
	}
	C.vkFreeCommandBuffers(device.Device, device.CommandPool, C.uint32_t(len(handles)), &handles[0])
}

func (cb CommandBuffer) Begin() error {
	beginInfo := C.VkCommandBufferBeginInfo{
		sType: C.VK_STRUCTURE_TYPE_COMMAND_BUFFER_BEGIN_INFO,
	}

	result := C.vkBeginCommandBuffer(cb.Handle, &beginInfo)
	return resultErr("vkBeginCommandBuffer", result)
}

func (cb CommandBuffer) End() error {
	result := C.vkEndCommandBuffer(cb.Handle)
	return resultErr("vkEndCommandBuffer", result)
}

// BeginRenderPass starts the render pass on the given framebuffer, clearing
// the color attachment to clearColor.
func (cb CommandBuffer) BeginRenderPass(renderPass C.VkRenderPass, framebuffer C.VkFramebuffer, extent C.VkExtent2D, clearColor core.Color) {
	clearValue := C.makeClearColorValue(C.float(clearColor.R), C.float(clearColor.G), C.float(clearColor.B), C.float(clearColor.A))

	renderPassInfo := C.VkRenderPassBeginInfo{
		sType:       C.VK_STRUCTURE_TYPE_RENDER_PASS_BEGIN_INFO,
		renderPass:  renderPass,
		framebuffer: framebuffer,
		renderArea: C.VkRect2D{
			offset: C.VkOffset2D{x: 0, y: 0},
			extent: extent,
		},
		clearValueCount: 1,
		pClearValues:    &clearValue,
	}

	C.vkCmdBeginRenderPass(cb.Handle, &renderPassInfo, C.VK_SUBPASS_CONTENTS_INLINE)
}

func (cb CommandBuffer) EndRenderPass() {
	C.vkCmdEndRenderPass(cb.Handle)
}

func (cb CommandBuffer) BindPipeline(pipeline *Pipeline) {
	C.vkCmdBindPipeline(cb.Handle, C.VK_PIPELINE_BIND_POINT_GRAPHICS, pipeline.Handle)
}

// Draw records a non-indexed draw without vertex buffers; the vertex stage
// derives its output from the vertex index.
func (cb CommandBuffer) Draw(vertexCount, instanceCount uint32) {
	C.vkCmdDraw(cb.Handle, C.uint32_t(vertexCount), C.uint32_t(instanceCount), 0, 0)
}
