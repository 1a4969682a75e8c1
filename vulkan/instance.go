package vulkan

/*
#include <vulkan/vulkan.h>
#include <stdlib.h>
#include <string.h>
#include <stdio.h>

VKAPI_ATTR VkBool32 VKAPI_CALL debugCallback(
    VkDebugUtilsMessageSeverityFlagBitsEXT messageSeverity,
    VkDebugUtilsMessageTypeFlagsEXT messageType,
    const VkDebugUtilsMessengerCallbackDataEXT* pCallbackData,
    void* pUserData) {

    const char* severity = "INFO";
    if (messageSeverity >= VK_DEBUG_UTILS_MESSAGE_SEVERITY_ERROR_BIT_EXT) {
        severity = "ERROR";
    } else if (messageSeverity >= VK_DEBUG_UTILS_MESSAGE_SEVERITY_WARNING_BIT_EXT) {
        severity = "WARNING";
    }

    fprintf(stderr, "[VULKAN %s] %s\n", severity, pCallbackData->pMessage);
    return VK_FALSE;
}

VkResult CreateDebugUtilsMessengerEXT(VkInstance instance, const VkDebugUtilsMessengerCreateInfoEXT* pCreateInfo, const VkAllocationCallbacks* pAllocator, VkDebugUtilsMessengerEXT* pDebugMessenger) {
    PFN_vkCreateDebugUtilsMessengerEXT func = (PFN_vkCreateDebugUtilsMessengerEXT)vkGetInstanceProcAddr(instance, "vkCreateDebugUtilsMessengerEXT");
    if (func != NULL) {
        return func(instance, pCreateInfo, pAllocator, pDebugMessenger);
    } else {
        return VK_ERROR_EXTENSION_NOT_PRESENT;
    }
}

void DestroyDebugUtilsMessengerEXT(VkInstance instance, VkDebugUtilsMessengerEXT debugMessenger, const VkAllocationCallbacks* pAllocator) {
    PFN_vkDestroyDebugUtilsMessengerEXT func = (PFN_vkDestroyDebugUtilsMessengerEXT)vkGetInstanceProcAddr(instance, "vkDestroyDebugUtilsMessengerEXT");
    if (func != NULL) {
        func(instance, debugMessenger, pAllocator);
    }
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

type Instance struct {
	Handle           C.VkInstance
	DebugMessenger   C.VkDebugUtilsMessengerEXT
	ValidationActive bool
}

type InstanceConfig struct {
	AppName       string
	EngineName    string
	AppVersion    uint32
	EngineVersion uint32

	// EnableValidation requests the validation layer opportunistically: if it
	// is not installed the instance is still created, with diagnostics
	// disabled. RequireValidation turns the missing layer into a fatal error.
	EnableValidation  bool
	RequireValidation bool

	// RequiredExtensions are the window system's instance extensions.
	RequiredExtensions []string
}

func DefaultInstanceConfig() InstanceConfig {
	return InstanceConfig{
		AppName:          "Render Host",
		EngineName:       "Render Host",
		AppVersion:       makeVersion(1, 0, 0),
		EngineVersion:    makeVersion(1, 0, 0),
		EnableValidation: true,
	}
}

func NewInstance(config InstanceConfig) (*Instance, error) {
	validation := config.EnableValidation || config.RequireValidation
	if validation && !checkValidationLayerSupport() {
		if config.RequireValidation {
			return nil, fmt.Errorf("validation layers required but not available")
		}
		validation = false
	}

	appName := C.CString(config.AppName)
	defer C.free(unsafe.Pointer(appName))

	engineName := C.CString(config.EngineName)
	defer C.free(unsafe.Pointer(engineName))

	appInfo := C.VkApplicationInfo{
		sType:              C.VK_STRUCTURE_TYPE_APPLICATION_INFO,
		pApplicationName:   appName,
		applicationVersion: C.uint32_t(config.AppVersion),
		pEngineName:        engineName,
		engineVersion:      C.uint32_t(config.EngineVersion),
		apiVersion:         C.VK_API_VERSION_1_0,
	}

	// Extension list: the window system's extensions plus debug utils when
	// validation is on. The strings are C memory, so passing the slice's
	// backing array to the driver is safe.
	extensionNames := config.RequiredExtensions
	if validation {
		extensionNames = append(extensionNames, "VK_EXT_debug_utils")
	}
	extensions := make([]*C.char, len(extensionNames))
	for i, ext := range extensionNames {
		extensions[i] = C.CString(ext)
		defer C.free(unsafe.Pointer(extensions[i]))
	}

	createInfo := C.VkInstanceCreateInfo{
		sType:                 C.VK_STRUCTURE_TYPE_INSTANCE_CREATE_INFO,
		pApplicationInfo:      &appInfo,
		enabledExtensionCount: C.uint32_t(len(extensions)),
	}
	if len(extensions) > 0 {
		createInfo.ppEnabledExtensionNames = &extensions[0]
	}

	var layerName *C.char
	if validation {
		layerName = C.CString(validationLayerName)
		defer C.free(unsafe.Pointer(layerName))
		createInfo.enabledLayerCount = 1
		createInfo.ppEnabledLayerNames = &layerName
	}

	var debugCreateInfo C.VkDebugUtilsMessengerCreateInfoEXT
	if validation {
		debugCreateInfo = C.VkDebugUtilsMessengerCreateInfoEXT{
			sType:           C.VK_STRUCTURE_TYPE_DEBUG_UTILS_MESSENGER_CREATE_INFO_EXT,
			messageSeverity: C.VK_DEBUG_UTILS_MESSAGE_SEVERITY_WARNING_BIT_EXT | C.VK_DEBUG_UTILS_MESSAGE_SEVERITY_ERROR_BIT_EXT,
			messageType:     C.VK_DEBUG_UTILS_MESSAGE_TYPE_GENERAL_BIT_EXT | C.VK_DEBUG_UTILS_MESSAGE_TYPE_VALIDATION_BIT_EXT | C.VK_DEBUG_UTILS_MESSAGE_TYPE_PERFORMANCE_BIT_EXT,
			pfnUserCallback: (C.PFN_vkDebugUtilsMessengerCallbackEXT)(C.debugCallback),
		}
		createInfo.pNext = unsafe.Pointer(&debugCreateInfo)
	}

	var instance C.VkInstance
	if result := C.vkCreateInstance(&createInfo, nil, &instance); result != C.VK_SUCCESS {
		return nil, resultErr("vkCreateInstance", result)
	}

	inst := &Instance{
		Handle:           instance,
		ValidationActive: validation,
	}

	if validation {
		result := C.CreateDebugUtilsMessengerEXT(instance, &debugCreateInfo, nil, &inst.DebugMessenger)
		if result != C.VK_SUCCESS {
			fmt.Printf("Warning: failed to set up debug messenger: %d\n", result)
		}
	}

	return inst, nil
}

func (i *Instance) Destroy() {
	if i.ValidationActive && i.DebugMessenger != nil {
		C.DestroyDebugUtilsMessengerEXT(i.Handle, i.DebugMessenger, nil)
	}
	C.vkDestroyInstance(i.Handle, nil)
}

func checkValidationLayerSupport() bool {
	var layerCount C.uint32_t
	C.vkEnumerateInstanceLayerProperties(&layerCount, nil)
	if layerCount == 0 {
		return false
	}

	availableLayers := make([]C.VkLayerProperties, layerCount)
	C.vkEnumerateInstanceLayerProperties(&layerCount, &availableLayers[0])

	layerName := C.CString(validationLayerName)
	defer C.free(unsafe.Pointer(layerName))

	for _, layer := range availableLayers {
		if C.strcmp(&layer.layerName[0], layerName) == 0 {
			return true
		}
	}

	return false
}
