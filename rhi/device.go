package rhi

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// SwapChainCreateParams configure the swap chain created with the device.
type SwapChainCreateParams struct {
	Width       uint32
	Height      uint32
	BackbufferFormat PixelFormat
	BufferCount uint32
	VSync       bool
}

// DeviceCreateParams enumerate everything device creation needs.
type DeviceCreateParams struct {
	RawAPI   RawAPI
	Headless bool
	// NativeWindow is nil when headless.
	NativeWindow *glfw.Window
	SwapChain    SwapChainCreateParams

	EnableDebugLayer bool

	RequiredRaytracingTier      RaytracingTier
	RequiredVRSTier             VariableShadingRateTier
	RequiredMeshShaderTier      MeshShaderTier
	RequiredSamplerFeedbackTier SamplerFeedbackTier
}

// Device is the root abstraction every backend implements.
// A single device is active per process; see SetDevice and GetDevice.
type Device interface {
	Initialize(params DeviceCreateParams) error
	Destroy()

	// FlushCommandQueue advances the fence, signals it, and blocks until
	// the GPU has drained all submitted work.
	FlushCommandQueue()

	RecreateSwapChain(width, height uint32) error

	CreateBuffer(params BufferCreateParams) (Buffer, error)
	CreateTexture(params TextureCreateParams) (Texture, error)
	CreateShader(stage ShaderStage, debugName string) Shader

	// CreateVertexBuffer creates a committed vertex buffer.
	CreateVertexBuffer(sizeInBytes uint32, debugName string) (VertexBuffer, error)
	// CreateVertexBufferWithinPool creates a thin view over a region of an
	// already committed pool buffer. The view does not own GPU memory.
	CreateVertexBufferWithinPool(pool VertexBuffer, offsetInPool uint64, sizeInBytes uint32) (VertexBuffer, error)
	CreateIndexBuffer(sizeInBytes uint32, format PixelFormat, debugName string) (IndexBuffer, error)
	CreateIndexBufferWithinPool(pool IndexBuffer, offsetInPool uint64, sizeInBytes uint32, format PixelFormat) (IndexBuffer, error)

	CreateGraphicsPipelineState(desc GraphicsPipelineDesc) (PipelineState, error)
	CreateComputePipelineState(desc ComputePipelineDesc) (PipelineState, error)
	CreateRaytracingPipelineState(desc RaytracingPipelineDesc) (PipelineState, error)

	CreateDescriptorHeap(desc DescriptorHeapDesc) (DescriptorHeap, error)

	// View creation writes a descriptor into heap at a freshly allocated
	// index and returns the view referencing that slot.
	CreateSRV(resource GPUResource, desc ShaderResourceViewDesc, heap DescriptorHeap) (ShaderResourceView, error)
	CreateUAV(resource GPUResource, desc UnorderedAccessViewDesc, heap DescriptorHeap) (UnorderedAccessView, error)
	CreateRTV(texture Texture, desc RenderTargetViewDesc, heap DescriptorHeap) (RenderTargetView, error)
	CreateDSV(texture Texture, desc DepthStencilViewDesc, heap DescriptorHeap) (DepthStencilView, error)
	// CreateCBV binds sizeInBytes at offsetInBuffer of buffer. The offset
	// must be 256-byte aligned.
	CreateCBV(buffer Buffer, heap DescriptorHeap, sizeInBytes uint32, offsetInBuffer uint64) (ConstantBufferView, error)

	// CreateAccelerationStructure wraps an already built result buffer so
	// raytracing passes can bind it as an SRV.
	CreateAccelerationStructure(resultBuffer Buffer, srvHeap DescriptorHeap) (AccelerationStructure, error)
	GetBLASPrebuildInfo(geometry *BLASGeometryDesc) ASPrebuildInfo
	GetTLASPrebuildInfo(numInstances uint32) ASPrebuildInfo

	// CopyDescriptors copies count descriptors from srcHeap[srcOffset..]
	// into destHeap[destOffset..].
	CopyDescriptors(count uint32, destHeap DescriptorHeap, destOffset uint32, srcHeap DescriptorHeap, srcOffset uint32)

	GetCommandAllocator(frameIndex uint32) CommandAllocator
	GetCommandList(frameIndex uint32) CommandList
	GetCommandQueue() CommandQueue
	GetSwapChain() SwapChain

	GetRaytracingTier() RaytracingTier
	GetVRSTier() VariableShadingRateTier
	GetMeshShaderTier() MeshShaderTier
	GetSamplerFeedbackTier() SamplerFeedbackTier
	SupportsEnhancedBarrier() bool
}

// GPU APIs are process-scoped, so exactly one device is active at a time.
var (
	deviceMu      sync.Mutex
	gRenderDevice Device
)

// SetDevice installs the process-wide render device.
func SetDevice(device Device) {
	deviceMu.Lock()
	gRenderDevice = device
	deviceMu.Unlock()
}

// GetDevice returns the process-wide render device, or nil before
// CreateRenderDevice succeeds.
func GetDevice() Device {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	return gRenderDevice
}
