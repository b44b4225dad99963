package rhi

import "fmt"

// Shader is one compiled shader stage. Sources are WGSL.
type Shader interface {
	GetStage() ShaderStage
	GetDebugName() string

	// LoadFromSource validates and keeps the source. EntryPoint names the
	// stage entry function.
	LoadFromSource(source string, entryPoint string) error

	GetSource() string
	GetEntryPoint() string
}

// ShaderParameterKind classifies a named root parameter.
type ShaderParameterKind int

const (
	ParameterPushConstant ShaderParameterKind = iota
	ParameterConstantBuffer
	ParameterStructuredBuffer
	ParameterTexture
	ParameterRWBuffer
	ParameterRWTexture
	ParameterAccelerationStructure
	// ParameterDescriptorTable is a contiguous range of descriptors laid
	// out in the pass's volatile heap, e.g. bindless material CBVs/SRVs.
	ParameterDescriptorTable
)

// ShaderParameterDecl declares one named root parameter of a pipeline.
type ShaderParameterDecl struct {
	Name string
	Kind ShaderParameterKind
	// NumElements is the 32-bit value count for push constants and the
	// descriptor count for tables; 1 otherwise.
	NumElements uint32
}

// ShaderParameterLayout resolves parameter names to root indices. Built at
// PSO creation from the declared push constants plus the pipeline's
// resource bindings.
type ShaderParameterLayout struct {
	params  []ShaderParameterDecl
	indices map[string]uint32
}

// NewShaderParameterLayout indexes the declarations in order; the slice
// position is the root parameter index.
func NewShaderParameterLayout(decls []ShaderParameterDecl) *ShaderParameterLayout {
	layout := &ShaderParameterLayout{
		params:  decls,
		indices: make(map[string]uint32, len(decls)),
	}
	for i, d := range decls {
		layout.indices[d.Name] = uint32(i)
	}
	return layout
}

// Resolve returns the root index and declaration for name. A miss is a
// shader ABI mismatch and panics.
func (l *ShaderParameterLayout) Resolve(name string) (uint32, ShaderParameterDecl) {
	ix, ok := l.indices[name]
	if !ok {
		panic(fmt.Sprintf("shader parameter %q is not declared by the pipeline", name))
	}
	return ix, l.params[ix]
}

// TryResolve is Resolve without the abort, for optional parameters.
func (l *ShaderParameterLayout) TryResolve(name string) (uint32, ShaderParameterDecl, bool) {
	ix, ok := l.indices[name]
	if !ok {
		return 0, ShaderParameterDecl{}, false
	}
	return ix, l.params[ix], true
}

// NumParameters returns the root parameter count.
func (l *ShaderParameterLayout) NumParameters() int { return len(l.params) }

// DeclAt returns the declaration at a root parameter index.
func (l *ShaderParameterLayout) DeclAt(index uint32) ShaderParameterDecl { return l.params[index] }

// InputElement describes one vertex attribute.
type InputElement struct {
	SemanticName string
	Format       PixelFormat
	InputSlot    uint32
	ByteOffset   uint32
}

// DepthStencilDesc is a reduced depth-stencil state. DepthFunc defaults
// should honor reverse-Z (CompareGreaterEqual).
type DepthStencilDesc struct {
	DepthEnable bool
	DepthWrite  bool
	DepthFunc   ComparisonFunc
}

// RasterizerDesc is a reduced rasterizer state.
type RasterizerDesc struct {
	CullMode CullMode
}

// TextureFilter selects sampler filtering.
type TextureFilter int

const (
	FilterPoint TextureFilter = iota
	FilterLinear
	FilterAnisotropic
)

// TextureAddressMode selects sampler wrapping.
type TextureAddressMode int

const (
	AddressWrap TextureAddressMode = iota
	AddressMirror
	AddressClamp
)

// StaticSamplerDesc declares a sampler baked into the pipeline. Samplers
// bind after the pipeline's named parameters, in declaration order.
type StaticSamplerDesc struct {
	Name        string
	Filter      TextureFilter
	AddressUVW  TextureAddressMode
}

// GraphicsPipelineDesc parameterizes raster pipeline creation.
type GraphicsPipelineDesc struct {
	VS Shader
	PS Shader

	InputLayout  []InputElement
	Topology     PrimitiveTopology
	Rasterizer   RasterizerDesc
	DepthStencil DepthStencilDesc

	NumRenderTargets uint32
	RTVFormats       [8]PixelFormat
	DSVFormat        PixelFormat

	// Parameters declare the pipeline's named root parameters, push
	// constants first by convention.
	Parameters     []ShaderParameterDecl
	StaticSamplers []StaticSamplerDesc

	NodeMask uint32
}

// ComputePipelineDesc parameterizes compute pipeline creation.
type ComputePipelineDesc struct {
	CS         Shader
	Parameters []ShaderParameterDecl
	NodeMask   uint32
}

// RaytracingPipelineDesc parameterizes raytracing pipeline creation.
type RaytracingPipelineDesc struct {
	RaygenShader     Shader
	ClosestHitShader Shader
	MissShader       Shader

	MaxPayloadSizeInBytes   uint32
	MaxAttributeSizeInBytes uint32
	MaxRecursionDepth       uint32

	Parameters []ShaderParameterDecl
}

// PipelineState is a compiled pipeline plus its parameter layout.
type PipelineState interface {
	GetParameterLayout() *ShaderParameterLayout
	IsCompute() bool
}
