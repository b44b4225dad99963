package webgpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/codeonwort/cyseal/rhi"
)

// Enum translation between the RHI layer and wgpu.

func intoTextureFormat(f rhi.PixelFormat) wgpu.TextureFormat {
	switch f {
	case rhi.PixelFormatR8G8B8A8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case rhi.PixelFormatB8G8R8A8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case rhi.PixelFormatR8G8B8A8UnormSRGB:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case rhi.PixelFormatB8G8R8A8UnormSRGB:
		return wgpu.TextureFormatBGRA8UnormSrgb
	case rhi.PixelFormatR16G16B16A16Float:
		return wgpu.TextureFormatRGBA16Float
	case rhi.PixelFormatR32G32B32A32Float:
		return wgpu.TextureFormatRGBA32Float
	case rhi.PixelFormatR32Uint:
		return wgpu.TextureFormatR32Uint
	case rhi.PixelFormatR16Uint:
		return wgpu.TextureFormatR16Uint
	case rhi.PixelFormatR32Float:
		return wgpu.TextureFormatR32Float
	case rhi.PixelFormatD32Float:
		return wgpu.TextureFormatDepth32Float
	case rhi.PixelFormatD24UnormS8Uint:
		return wgpu.TextureFormatDepth24PlusStencil8
	}
	return wgpu.TextureFormatUndefined
}

func fromTextureFormat(f wgpu.TextureFormat) rhi.PixelFormat {
	switch f {
	case wgpu.TextureFormatRGBA8Unorm:
		return rhi.PixelFormatR8G8B8A8Unorm
	case wgpu.TextureFormatBGRA8Unorm:
		return rhi.PixelFormatB8G8R8A8Unorm
	case wgpu.TextureFormatRGBA8UnormSrgb:
		return rhi.PixelFormatR8G8B8A8UnormSRGB
	case wgpu.TextureFormatBGRA8UnormSrgb:
		return rhi.PixelFormatB8G8R8A8UnormSRGB
	}
	return rhi.PixelFormatUnknown
}

func intoVertexFormat(f rhi.PixelFormat) wgpu.VertexFormat {
	switch f {
	case rhi.PixelFormatR32G32Float:
		return wgpu.VertexFormatFloat32x2
	case rhi.PixelFormatR32G32B32Float:
		return wgpu.VertexFormatFloat32x3
	case rhi.PixelFormatR32G32B32A32Float:
		return wgpu.VertexFormatFloat32x4
	case rhi.PixelFormatR32Uint:
		return wgpu.VertexFormatUint32
	}
	return wgpu.VertexFormatFloat32x3
}

func intoIndexFormat(f rhi.PixelFormat) wgpu.IndexFormat {
	if f == rhi.PixelFormatR16Uint {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

func intoBufferUsage(flags rhi.BufferAccessFlags) wgpu.BufferUsage {
	// Every RHI buffer is copyable so UpdateData and readbacks work.
	usage := wgpu.BufferUsageCopyDst
	if flags&rhi.BufferAccessCBV != 0 {
		usage |= wgpu.BufferUsageUniform
	}
	if flags&(rhi.BufferAccessSRV|rhi.BufferAccessUAV|rhi.BufferAccessUAVCounter) != 0 {
		usage |= wgpu.BufferUsageStorage
	}
	if flags&rhi.BufferAccessCopySrc != 0 {
		usage |= wgpu.BufferUsageCopySrc
	}
	return usage
}

func intoTextureUsage(flags rhi.TextureAccessFlags) wgpu.TextureUsage {
	usage := wgpu.TextureUsageCopyDst
	if flags&rhi.TextureAccessSRV != 0 {
		usage |= wgpu.TextureUsageTextureBinding
	}
	if flags&(rhi.TextureAccessRTV|rhi.TextureAccessDSV) != 0 {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	if flags&rhi.TextureAccessUAV != 0 {
		usage |= wgpu.TextureUsageStorageBinding
	}
	return usage
}

func intoTextureDimension(d rhi.TextureDimension) wgpu.TextureDimension {
	switch d {
	case rhi.TextureDimension1D:
		return wgpu.TextureDimension1D
	case rhi.TextureDimension3D:
		return wgpu.TextureDimension3D
	}
	return wgpu.TextureDimension2D
}

func intoPrimitiveTopology(t rhi.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case rhi.TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case rhi.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case rhi.TopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func intoCullMode(m rhi.CullMode) wgpu.CullMode {
	switch m {
	case rhi.CullModeFront:
		return wgpu.CullModeFront
	case rhi.CullModeBack:
		return wgpu.CullModeBack
	}
	return wgpu.CullModeNone
}

func intoCompareFunction(f rhi.ComparisonFunc) wgpu.CompareFunction {
	switch f {
	case rhi.CompareNever:
		return wgpu.CompareFunctionNever
	case rhi.CompareLess:
		return wgpu.CompareFunctionLess
	case rhi.CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case rhi.CompareEqual:
		return wgpu.CompareFunctionEqual
	case rhi.CompareGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	case rhi.CompareGreater:
		return wgpu.CompareFunctionGreater
	}
	return wgpu.CompareFunctionAlways
}

func intoFilterMode(f rhi.TextureFilter) wgpu.FilterMode {
	if f == rhi.FilterPoint {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func intoAddressMode(m rhi.TextureAddressMode) wgpu.AddressMode {
	switch m {
	case rhi.AddressMirror:
		return wgpu.AddressModeMirrorRepeat
	case rhi.AddressClamp:
		return wgpu.AddressModeClampToEdge
	}
	return wgpu.AddressModeRepeat
}
