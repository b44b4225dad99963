package rhi

// RawAPI selects which native graphics API backs the render device.
type RawAPI int

const (
	RawAPIDirectX12 RawAPI = iota
	RawAPIVulkan
	// RawAPINull is the headless backend used by tests and CI.
	RawAPINull
)

func (a RawAPI) String() string {
	switch a {
	case RawAPIDirectX12:
		return "DirectX12"
	case RawAPIVulkan:
		return "Vulkan"
	case RawAPINull:
		return "Null"
	}
	return "Unknown"
}

// RaytracingTier reports hardware raytracing support.
type RaytracingTier int

const (
	RaytracingTierNotSupported RaytracingTier = iota
	RaytracingTier1_0
	RaytracingTier1_1
)

// VariableShadingRateTier reports VRS support.
type VariableShadingRateTier int

const (
	VRSTierNotSupported VariableShadingRateTier = iota
	VRSTier1
	VRSTier2
)

// MeshShaderTier reports mesh shader support.
type MeshShaderTier int

const (
	MeshShaderTierNotSupported MeshShaderTier = iota
	MeshShaderTier1
)

// SamplerFeedbackTier reports sampler feedback support.
type SamplerFeedbackTier int

const (
	SamplerFeedbackTierNotSupported SamplerFeedbackTier = iota
	SamplerFeedbackTier0_9
	SamplerFeedbackTier1_0
)

// PixelFormat enumerates the texture and buffer-view formats the engine uses.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatR8G8B8A8Unorm
	PixelFormatB8G8R8A8Unorm
	PixelFormatR8G8B8A8UnormSRGB
	PixelFormatB8G8R8A8UnormSRGB
	PixelFormatR16G16B16A16Float
	PixelFormatR32G32B32A32Float
	PixelFormatR32G32B32Float
	PixelFormatR32G32Float
	PixelFormatR32Uint
	PixelFormatR16Uint
	PixelFormatR32Float
	PixelFormatD32Float
	PixelFormatD24UnormS8Uint
)

// BytesPerPixel returns the texel size of color formats, 0 for unknown.
func (f PixelFormat) BytesPerPixel() uint32 {
	switch f {
	case PixelFormatR8G8B8A8Unorm, PixelFormatB8G8R8A8Unorm,
		PixelFormatR8G8B8A8UnormSRGB, PixelFormatB8G8R8A8UnormSRGB,
		PixelFormatR32Uint, PixelFormatR32Float, PixelFormatD32Float,
		PixelFormatD24UnormS8Uint:
		return 4
	case PixelFormatR16Uint:
		return 2
	case PixelFormatR16G16B16A16Float, PixelFormatR32G32Float:
		return 8
	case PixelFormatR32G32B32Float:
		return 12
	case PixelFormatR32G32B32A32Float:
		return 16
	}
	return 0
}

// BufferAccessFlags describe how a buffer will be accessed.
type BufferAccessFlags uint32

const (
	BufferAccessCBV BufferAccessFlags = 1 << iota
	BufferAccessSRV
	BufferAccessUAV
	BufferAccessCPUWrite
	BufferAccessCopySrc
	BufferAccessCopyDst
	BufferAccessUAVCounter
)

// TextureAccessFlags describe how a texture will be accessed.
type TextureAccessFlags uint32

const (
	TextureAccessSRV TextureAccessFlags = 1 << iota
	TextureAccessRTV
	TextureAccessDSV
	TextureAccessUAV
	TextureAccessCPUWrite
)

// TextureDimension is the resource dimensionality.
type TextureDimension int

const (
	TextureDimension1D TextureDimension = iota
	TextureDimension2D
	TextureDimension3D
	TextureDimensionCube
)

// GPUResourceState models the resource states a barrier transitions between.
type GPUResourceState int

const (
	ResourceStateCommon GPUResourceState = iota
	ResourceStateRenderTarget
	ResourceStateDepthWrite
	ResourceStateDepthRead
	ResourceStateUnorderedAccess
	ResourceStateShaderResource
	ResourceStateCopySource
	ResourceStateCopyDest
	ResourceStateIndexBuffer
	ResourceStateVertexAndConstantBuffer
	ResourceStatePresent
)

// ResourceBarrierType selects the barrier flavor.
type ResourceBarrierType int

const (
	BarrierTypeTransition ResourceBarrierType = iota
	BarrierTypeUAV
	BarrierTypeAliasing
)

// ResourceBarrier is one recorded barrier. When the device reports
// SupportsEnhancedBarrier, backends may translate transitions into
// layout barriers instead of legacy state transitions.
type ResourceBarrier struct {
	Type        ResourceBarrierType
	Resource    GPUResource
	StateBefore GPUResourceState
	StateAfter  GPUResourceState
}

// DescriptorHeapType is the slot kind a heap stores.
type DescriptorHeapType int

const (
	DescriptorHeapTypeCBVSRVUAV DescriptorHeapType = iota
	DescriptorHeapTypeCBV
	DescriptorHeapTypeSRV
	DescriptorHeapTypeUAV
	DescriptorHeapTypeSampler
	DescriptorHeapTypeRTV
	DescriptorHeapTypeDSV
)

// DescriptorHeapDesc parameterizes heap creation.
type DescriptorHeapDesc struct {
	Type           DescriptorHeapType
	NumDescriptors uint32
	ShaderVisible  bool
	NodeMask       uint32
}

// ShaderStage identifies a pipeline stage.
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStagePixel
	ShaderStageCompute
	ShaderStageRaytracing
)

// PrimitiveTopology for input assembly.
type PrimitiveTopology int

const (
	TopologyTriangleList PrimitiveTopology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyPointList
)

// ComparisonFunc for depth testing. Reverse-Z renders with GreaterEqual.
type ComparisonFunc int

const (
	CompareNever ComparisonFunc = iota
	CompareLess
	CompareLessEqual
	CompareEqual
	CompareGreaterEqual
	CompareGreater
	CompareAlways
)

// CullMode for rasterization.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// ClearFlags selects which aspects a depth-stencil clear touches.
type ClearFlags uint32

const (
	ClearFlagDepth ClearFlags = 1 << iota
	ClearFlagStencil
)

// Viewport mirrors the rasterizer viewport.
type Viewport struct {
	TopLeftX float32
	TopLeftY float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

// Rect is an integer scissor rectangle.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}
