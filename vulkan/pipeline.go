package vulkan

/*
#include <vulkan/vulkan.h>
#include <stdlib.h>
#include <string.h>

VkShaderModule createShaderModule(VkDevice device, const uint32_t* code, size_t size) {
    VkShaderModuleCreateInfo createInfo = {0};
    createInfo.sType = VK_STRUCTURE_TYPE_SHADER_MODULE_CREATE_INFO;
    createInfo.codeSize = size;
    createInfo.pCode = code;

    VkShaderModule shaderModule;
    if (vkCreateShaderModule(device, &createInfo, NULL, &shaderModule) != VK_SUCCESS) {
        return NULL;
    }
    return shaderModule;
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

// Pipeline is the immutable compiled description of how the fixed draw is
// rasterized. Rebuilt together with the swap chain because the static
// viewport references the chain's extent.
type Pipeline struct {
	Handle       C.VkPipeline
	Layout       C.VkPipelineLayout
	VertexShader C.VkShaderModule
	FragShader   C.VkShaderModule
}

type PipelineConfig struct {
	VertexShaderCode   []uint32
	FragmentShaderCode []uint32
	ViewportWidth      float32
	ViewportHeight     float32
	Topology           C.VkPrimitiveTopology
	PolygonMode        C.VkPolygonMode
	CullMode           C.VkCullModeFlags
	FrontFace          C.VkFrontFace
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Topology:    C.VK_PRIMITIVE_TOPOLOGY_TRIANGLE_LIST,
		PolygonMode: C.VK_POLYGON_MODE_FILL,
		CullMode:    C.VK_CULL_MODE_BACK_BIT,
		FrontFace:   C.VK_FRONT_FACE_CLOCKWISE,
	}
}

func CreateGraphicsPipeline(device *Device, renderPass C.VkRenderPass, config PipelineConfig) (*Pipeline, error) {
	p := &Pipeline{}

	if len(config.VertexShaderCode) == 0 || len(config.FragmentShaderCode) == 0 {
		return nil, fmt.Errorf("pipeline requires both vertex and fragment shader code")
	}

	p.VertexShader = C.createShaderModule(device.Device, (*C.uint32_t)(unsafe.Pointer(&config.VertexShaderCode[0])), C.size_t(len(config.VertexShaderCode)*4))
	if p.VertexShader == nil {
		return nil, fmt.Errorf("failed to create vertex shader module")
	}

	p.FragShader = C.createShaderModule(device.Device, (*C.uint32_t)(unsafe.Pointer(&config.FragmentShaderCode[0])), C.size_t(len(config.FragmentShaderCode)*4))
	if p.FragShader == nil {
		p.Destroy(device)
		return nil, fmt.Errorf("failed to create fragment shader module")
	}

	shaderStages := []C.VkPipelineShaderStageCreateInfo{
		{
			sType:  C.VK_STRUCTURE_TYPE_PIPELINE_SHADER_STAGE_CREATE_INFO,
			stage:  C.VK_SHADER_STAGE_VERTEX_BIT,
			module: p.VertexShader,
			pName:  C.CString("main"),
		},
		{
			sType:  C.VK_STRUCTURE_TYPE_PIPELINE_SHADER_STAGE_CREATE_INFO,
			stage:  C.VK_SHADER_STAGE_FRAGMENT_BIT,
			module: p.FragShader,
			pName:  C.CString("main"),
		},
	}
	defer C.free(unsafe.Pointer(shaderStages[0].pName))
	defer C.free(unsafe.Pointer(shaderStages[1].pName))

	// No vertex buffers: positions and colors come from gl_VertexIndex in
	// the vertex stage.
	vertexInputInfo := C.VkPipelineVertexInputStateCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_PIPELINE_VERTEX_INPUT_STATE_CREATE_INFO,
	}

	inputAssembly := C.VkPipelineInputAssemblyStateCreateInfo{
		sType:    C.VK_STRUCTURE_TYPE_PIPELINE_INPUT_ASSEMBLY_STATE_CREATE_INFO,
		topology: config.Topology,
	}

	viewport := C.VkViewport{
		x:        0,
		y:        0,
		width:    C.float(config.ViewportWidth),
		height:   C.float(config.ViewportHeight),
		minDepth: 0,
		maxDepth: 1,
	}

	scissor := C.VkRect2D{
		offset: C.VkOffset2D{x: 0, y: 0},
		extent: C.VkExtent2D{width: C.uint32_t(config.ViewportWidth), height: C.uint32_t(config.ViewportHeight)},
	}

	viewportState := C.VkPipelineViewportStateCreateInfo{
		sType:         C.VK_STRUCTURE_TYPE_PIPELINE_VIEWPORT_STATE_CREATE_INFO,
		viewportCount: 1,
		pViewports:    &viewport,
		scissorCount:  1,
		pScissors:     &scissor,
	}

	rasterizer := C.VkPipelineRasterizationStateCreateInfo{
		sType:                   C.VK_STRUCTURE_TYPE_PIPELINE_RASTERIZATION_STATE_CREATE_INFO,
		depthClampEnable:        C.VK_FALSE,
		rasterizerDiscardEnable: C.VK_FALSE,
		polygonMode:             config.PolygonMode,
		cullMode:                config.CullMode,
		frontFace:               config.FrontFace,
		depthBiasEnable:         C.VK_FALSE,
		lineWidth:               1.0,
	}

	multisampling := C.VkPipelineMultisampleStateCreateInfo{
		sType:                C.VK_STRUCTURE_TYPE_PIPELINE_MULTISAMPLE_STATE_CREATE_INFO,
		rasterizationSamples: C.VK_SAMPLE_COUNT_1_BIT,
	}

	colorBlendAttachment := C.VkPipelineColorBlendAttachmentState{
		colorWriteMask: C.VK_COLOR_COMPONENT_R_BIT | C.VK_COLOR_COMPONENT_G_BIT | C.VK_COLOR_COMPONENT_B_BIT | C.VK_COLOR_COMPONENT_A_BIT,
		blendEnable:    C.VK_FALSE,
	}

	colorBlending := C.VkPipelineColorBlendStateCreateInfo{
		sType:           C.VK_STRUCTURE_TYPE_PIPELINE_COLOR_BLEND_STATE_CREATE_INFO,
		logicOpEnable:   C.VK_FALSE,
		attachmentCount: 1,
		pAttachments:    &colorBlendAttachment,
	}

	layoutInfo := C.VkPipelineLayoutCreateInfo{
		sType: C.VK_STRUCTURE_TYPE_PIPELINE_LAYOUT_CREATE_INFO,
	}

	if result := C.vkCreatePipelineLayout(device.Device, &layoutInfo, nil, &p.Layout); result != C.VK_SUCCESS {
		p.Destroy(device)
		return nil, resultErr("vkCreatePipelineLayout", result)
	}

	pipelineInfo := C.VkGraphicsPipelineCreateInfo{
		sType:               C.VK_STRUCTURE_TYPE_GRAPHICS_PIPELINE_CREATE_INFO,
		stageCount:          2,
		pStages:             &shaderStages[0],
		pVertexInputState:   &vertexInputInfo,
		pInputAssemblyState: &inputAssembly,
		pViewportState:      &viewportState,
		pRasterizationState: &rasterizer,
		pMultisampleState:   &multisampling,
		pColorBlendState:    &colorBlending,
		layout:              p.Layout,
		renderPass:          renderPass,
		subpass:             0,
	}

	if result := C.vkCreateGraphicsPipelines(device.Device, nil, 1, &pipelineInfo, nil, &p.Handle); result != C.VK_SUCCESS {
		p.Destroy(device)
		return nil, resultErr("vkCreateGraphicsPipelines", result)
	}

	return p, nil
}

func (p *Pipeline) Destroy(device *Device) {
	if p.Handle != nil {
		C.vkDestroyPipeline(device.Device, p.Handle, nil)
	}
	if p.Layout != nil {
		C.vkDestroyPipelineLayout(device.Device, p.Layout, nil)
	}
	if p.VertexShader != nil {
		C.vkDestroyShaderModule(device.Device, p.VertexShader, nil)
	}
	if p.FragShader != nil {
		C.vkDestroyShaderModule(device.Device, p.FragShader, nil)
	}
}

// CreateRenderPass builds the single-subpass render pass: one color
// attachment cleared at load and left in present layout, with an external
// dependency holding the color-output stage until the acquired image is
// ready.
func CreateRenderPass(device *Device, swapchainFormat C.VkFormat) (C.VkRenderPass, error) {
	colorAttach := (*C.VkAttachmentDescription)(C.malloc(C.size_t(unsafe.Sizeof(C.VkAttachmentDescription{}))))
	defer C.free(unsafe.Pointer(colorAttach))
	C.memset(unsafe.Pointer(colorAttach), 0, C.size_t(unsafe.Sizeof(C.VkAttachmentDescription{})))
	colorAttach.format = swapchainFormat
	colorAttach.samples = C.VK_SAMPLE_COUNT_1_BIT
	colorAttach.loadOp = C.VK_ATTACHMENT_LOAD_OP_CLEAR
	colorAttach.storeOp = C.VK_ATTACHMENT_STORE_OP_STORE
	colorAttach.stencilLoadOp = C.VK_ATTACHMENT_LOAD_OP_DONT_CARE
	colorAttach.stencilStoreOp = C.VK_ATTACHMENT_STORE_OP_DONT_CARE
	colorAttach.initialLayout = C.VK_IMAGE_LAYOUT_UNDEFINED
	colorAttach.finalLayout = C.VK_IMAGE_LAYOUT_PRESENT_SRC_KHR

	colorAttachRef := (*C.VkAttachmentReference)(C.malloc(C.size_t(unsafe.Sizeof(C.VkAttachmentReference{}))))
	defer C.free(unsafe.Pointer(colorAttachRef))
	colorAttachRef.attachment = 0
	colorAttachRef.layout = C.VK_IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL

	subpass := (*C.VkSubpassDescription)(C.malloc(C.size_t(unsafe.Sizeof(C.VkSubpassDescription{}))))
	defer C.free(unsafe.Pointer(subpass))
	C.memset(unsafe.Pointer(subpass), 0, C.size_t(unsafe.Sizeof(C.VkSubpassDescription{})))
	subpass.pipelineBindPoint = C.VK_PIPELINE_BIND_POINT_GRAPHICS
	subpass.colorAttachmentCount = 1
	subpass.pColorAttachments = colorAttachRef

	dependency := (*C.VkSubpassDependency)(C.malloc(C.size_t(unsafe.Sizeof(C.VkSubpassDependency{}))))
	defer C.free(unsafe.Pointer(dependency))
	C.memset(unsafe.Pointer(dependency), 0, C.size_t(unsafe.Sizeof(C.VkSubpassDependency{})))
	dependency.srcSubpass = C.VK_SUBPASS_EXTERNAL
	dependency.dstSubpass = 0
	dependency.srcStageMask = C.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT
	dependency.srcAccessMask = 0
	dependency.dstStageMask = C.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT
	dependency.dstAccessMask = C.VK_ACCESS_COLOR_ATTACHMENT_WRITE_BIT

	renderPassInfo := (*C.VkRenderPassCreateInfo)(C.malloc(C.size_t(unsafe.Sizeof(C.VkRenderPassCreateInfo{}))))
	defer C.free(unsafe.Pointer(renderPassInfo))
	C.memset(unsafe.Pointer(renderPassInfo), 0, C.size_t(unsafe.Sizeof(C.VkRenderPassCreateInfo{})))
	renderPassInfo.sType = C.VK_STRUCTURE_TYPE_RENDER_PASS_CREATE_INFO
	renderPassInfo.attachmentCount = 1
	renderPassInfo.pAttachments = colorAttach
	renderPassInfo.subpassCount = 1
	renderPassInfo.pSubpasses = subpass
	renderPassInfo.dependencyCount = 1
	renderPassInfo.pDependencies = dependency

	var renderPass C.VkRenderPass
	if result := C.vkCreateRenderPass(device.Device, renderPassInfo, nil, &renderPass); result != C.VK_SUCCESS {
		return nil, resultErr("vkCreateRenderPass", result)
	}

	return renderPass, nil
}

func DestroyRenderPass(device *Device, renderPass C.VkRenderPass) {
	C.vkDestroyRenderPass(device.Device, renderPass, nil)
}
