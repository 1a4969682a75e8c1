package vulkan

/*
#include <vulkan/vulkan.h>
#include <stdbool.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
    uint32_t graphicsFamily;
    uint32_t presentFamily;
    bool hasGraphicsFamily;
    bool hasPresentFamily;
} QueueFamilies;

void findQueueFamilies(VkPhysicalDevice device, VkSurfaceKHR surface, QueueFamilies* families) {
    uint32_t queueFamilyCount = 0;
    vkGetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, NULL);

    VkQueueFamilyProperties* queueFamilies = (VkQueueFamilyProperties*)malloc(queueFamilyCount * sizeof(VkQueueFamilyProperties));
    vkGetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies);

    for (uint32_t i = 0; i < queueFamilyCount; i++) {
        if (queueFamilies[i].queueFlags & VK_QUEUE_GRAPHICS_BIT) {
            families->graphicsFamily = i;
            families->hasGraphicsFamily = true;
        }

        VkBool32 presentSupport = false;
        vkGetPhysicalDeviceSurfaceSupportKHR(device, i, surface, &presentSupport);
        if (presentSupport) {
            families->presentFamily = i;
            families->hasPresentFamily = true;
        }

        if (families->hasGraphicsFamily && families->hasPresentFamily) {
            break;
        }
    }

    free(queueFamilies);
}

// rateDevice scores a candidate accelerator. Zero means unsuitable: both
// queue roles must resolve against the surface. Among suitable candidates a
// discrete GPU wins, with the 2D image dimension limit as a tiebreaker.
uint32_t rateDevice(VkPhysicalDevice device, VkSurfaceKHR surface) {
    QueueFamilies families = {0};
    findQueueFamilies(device, surface, &families);
    if (!families.hasGraphicsFamily || !families.hasPresentFamily) {
        return 0;
    }

    VkPhysicalDeviceProperties properties;
    vkGetPhysicalDeviceProperties(device, &properties);

    uint32_t score = 0;
    if (properties.deviceType == VK_PHYSICAL_DEVICE_TYPE_DISCRETE_GPU) {
        score += 1000;
    }
    score += properties.limits.maxImageDimension2D;

    return score;
}

bool checkDeviceExtensionSupport(VkPhysicalDevice device) {
    const char* deviceExtensions[] = {VK_KHR_SWAPCHAIN_EXTENSION_NAME};
    uint32_t extensionCount;
    vkEnumerateDeviceExtensionProperties(device, NULL, &extensionCount, NULL);

    VkExtensionProperties* availableExtensions = (VkExtensionProperties*)malloc(extensionCount * sizeof(VkExtensionProperties));
    vkEnumerateDeviceExtensionProperties(device, NULL, &extensionCount, availableExtensions);

    for (size_t i = 0; i < sizeof(deviceExtensions) / sizeof(deviceExtensions[0]); i++) {
        bool found = false;
        for (uint32_t j = 0; j < extensionCount; j++) {
            if (strcmp(deviceExtensions[i], availableExtensions[j].extensionName) == 0) {
                found = true;
                break;
            }
        }
        if (!found) {
            free(availableExtensions);
            return false;
        }
    }

    free(availableExtensions);
    return true;
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

// Device is the execution context: the selected accelerator, the logical
// device, and the two queue roles (which may alias the same queue).
type Device struct {
	PhysicalDevice C.VkPhysicalDevice
	Device         C.VkDevice
	GraphicsQueue  C.VkQueue
	PresentQueue   C.VkQueue
	CommandPool    C.VkCommandPool

	GraphicsFamily uint32
	PresentFamily  uint32
	Properties     C.VkPhysicalDeviceProperties
}

// PickPhysicalDevice selects the highest-scoring accelerator that supports
// graphics submission, presentation to the surface, and the swapchain
// extension. Ties break arbitrarily.
func PickPhysicalDevice(instance *Instance, surface C.VkSurfaceKHR) (*Device, error) {
	var deviceCount C.uint32_t
	result := C.vkEnumeratePhysicalDevices(instance.Handle, &deviceCount, nil)
	if result != C.VK_SUCCESS || deviceCount == 0 {
		return nil, fmt.Errorf("failed to find GPUs with Vulkan support")
	}

	devices := make([]C.VkPhysicalDevice, deviceCount)
	C.vkEnumeratePhysicalDevices(instance.Handle, &deviceCount, &devices[0])

	var bestDevice C.VkPhysicalDevice
	var bestScore C.uint32_t

	for _, device := range devices {
		if !C.checkDeviceExtensionSupport(device) {
			continue
		}

		score := C.rateDevice(device, surface)
		if score > bestScore {
			bestScore = score
			bestDevice = device
		}
	}

	if bestDevice == nil {
		return nil, fmt.Errorf("failed to find a suitable GPU")
	}

	d := &Device{
		PhysicalDevice: bestDevice,
	}
	C.vkGetPhysicalDeviceProperties(bestDevice, &d.Properties)

	return d, nil
}

// CreateLogicalDevice opens the logical device, retrieves the graphics and
// presentation queue handles, and creates the command pool.
func (d *Device) CreateLogicalDevice(surface C.VkSurfaceKHR) error {
	var families C.QueueFamilies
	C.findQueueFamilies(d.PhysicalDevice, surface, &families)
	if !families.hasGraphicsFamily || !families.hasPresentFamily {
		return fmt.Errorf("selected GPU lost its queue capabilities")
	}
	d.GraphicsFamily = uint32(families.graphicsFamily)
	d.PresentFamily = uint32(families.presentFamily)

	queueFamilies := []uint32{d.GraphicsFamily}
	if d.GraphicsFamily != d.PresentFamily {
		queueFamilies = append(queueFamilies, d.PresentFamily)
	}

	queueCreateInfos := make([]C.VkDeviceQueueCreateInfo, len(queueFamilies))
	queuePriority := C.float(1.0)

	for i, family := range queueFamilies {
		queueCreateInfos[i] = C.VkDeviceQueueCreateInfo{
			sType:            C.VK_STRUCTURE_TYPE_DEVICE_QUEUE_CREATE_INFO,
			queueFamilyIndex: C.uint32_t(family),
			queueCount:       1,
			pQueuePriorities: &queuePriority,
		}
	}

	features := C.VkPhysicalDeviceFeatures{}

	extensionName := C.CString(C.VK_KHR_SWAPCHAIN_EXTENSION_NAME)
	defer C.free(unsafe.Pointer(extensionName))

	createInfo := C.VkDeviceCreateInfo{
		sType:                   C.VK_STRUCTURE_TYPE_DEVICE_CREATE_INFO,
		queueCreateInfoCount:    C.uint32_t(len(queueCreateInfos)),
		pQueueCreateInfos:       &queueCreateInfos[0],
		pEnabledFeatures:        &features,
		enabledExtensionCount:   1,
		ppEnabledExtensionNames: &extensionName,
	}

	if result := C.vkCreateDevice(d.PhysicalDevice, &createInfo, nil, &d.Device); result != C.VK_SUCCESS {
		return resultErr("vkCreateDevice", result)
	}

	C.vkGetDeviceQueue(d.Device, C.uint32_t(d.GraphicsFamily), 0, &d.GraphicsQueue)
	C.vkGetDeviceQueue(d.Device, C.uint32_t(d.PresentFamily), 0, &d.PresentQueue)

	poolInfo := C.VkCommandPoolCreateInfo{
		sType:            C.VK_STRUCTURE_TYPE_COMMAND_POOL_CREATE_INFO,
		queueFamilyIndex: C.uint32_t(d.GraphicsFamily),
	}

	if result := C.vkCreateCommandPool(d.Device, &poolInfo, nil, &d.CommandPool); result != C.VK_SUCCESS {
		return resultErr("vkCreateCommandPool", result)
	}

	return nil
}

func (d *Device) Destroy() {
	if d.CommandPool != nil {
		C.vkDestroyCommandPool(d.Device, d.CommandPool, nil)
	}
	if d.Device != nil {
		C.vkDestroyDevice(d.Device, nil)
	}
}

// WaitIdle drains all GPU work. Required before destroying anything an
// in-flight frame might still reference.
func (d *Device) WaitIdle() {
	C.vkDeviceWaitIdle(d.Device)
}

func (d *Device) GetGPUName() string {
	name := make([]byte, C.VK_MAX_PHYSICAL_DEVICE_NAME_SIZE)
	for i := 0; i < C.VK_MAX_PHYSICAL_DEVICE_NAME_SIZE; i++ {
		name[i] = byte(d.Properties.deviceName[i])
	}

	for i, b := range name {
		if b == 0 {
			return string(name[:i])
		}
	}
	return string(name)
}

func (d *Device) GetDeviceType() string {
	switch d.Properties.deviceType {
	case C.VK_PHYSICAL_DEVICE_TYPE_INTEGRATED_GPU:
		return "Integrated GPU"
	case C.VK_PHYSICAL_DEVICE_TYPE_DISCRETE_GPU:
		return "Discrete GPU"
	case C.VK_PHYSICAL_DEVICE_TYPE_VIRTUAL_GPU:
		return "Virtual GPU"
	case C.VK_PHYSICAL_DEVICE_TYPE_CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}
