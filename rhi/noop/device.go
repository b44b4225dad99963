// Package noop is the headless render backend. Buffers are plain byte
// slices, fences complete synchronously, and draws are discarded. It keeps
// the full device contract alive so the renderer and its tests run without
// a GPU, the same role the no-op backend plays in gogpu/wgpu.
package noop

import (
	"fmt"

	"github.com/codeonwort/cyseal/core"
	"github.com/codeonwort/cyseal/rhi"
)

func init() {
	rhi.RegisterBackendFactory(rhi.RawAPINull, func() rhi.Device { return &Device{} })
}

// Device implements rhi.Device without touching any native API.
type Device struct {
	params rhi.DeviceCreateParams

	queue        *CommandQueue
	allocators   []*CommandAllocator
	commandLists []*CommandList
	swapChain    *SwapChain
}

func (d *Device) Initialize(params rhi.DeviceCreateParams) error {
	if params.SwapChain.BufferCount == 0 {
		params.SwapChain.BufferCount = 2
	}
	d.params = params
	d.queue = &CommandQueue{}

	n := params.SwapChain.BufferCount
	d.allocators = make([]*CommandAllocator, n)
	d.commandLists = make([]*CommandList, n)
	for i := uint32(0); i < n; i++ {
		d.allocators[i] = &CommandAllocator{queue: d.queue, valid: true}
		d.commandLists[i] = &CommandList{device: d}
	}

	d.swapChain = newSwapChain(d, params.SwapChain)
	return nil
}

func (d *Device) Destroy() {}

func (d *Device) FlushCommandQueue() {
	d.queue.WaitForFenceValue(d.queue.Signal())
}

func (d *Device) RecreateSwapChain(width, height uint32) error {
	return d.swapChain.Resize(width, height)
}

func (d *Device) CreateBuffer(params rhi.BufferCreateParams) (rhi.Buffer, error) {
	return newBuffer(params), nil
}

func (d *Device) CreateTexture(params rhi.TextureCreateParams) (rhi.Texture, error) {
	return &Texture{device: d, createParams: params, subresources: make(map[uint32][]byte)}, nil
}

func (d *Device) CreateShader(stage rhi.ShaderStage, debugName string) rhi.Shader {
	return &Shader{stage: stage, debugName: debugName}
}

func (d *Device) CreateVertexBuffer(sizeInBytes uint32, debugName string) (rhi.VertexBuffer, error) {
	vb := &VertexBuffer{Buffer: *newBuffer(rhi.BufferCreateParams{
		SizeInBytes: sizeInBytes,
		AccessFlags: rhi.BufferAccessSRV | rhi.BufferAccessCopyDst,
	})}
	vb.SetDebugName(debugName)
	return vb, nil
}

func (d *Device) CreateVertexBufferWithinPool(pool rhi.VertexBuffer, offsetInPool uint64, sizeInBytes uint32) (rhi.VertexBuffer, error) {
	parent := pool.(*VertexBuffer)
	return &VertexBuffer{Buffer: *newBufferView(&parent.Buffer, offsetInPool, sizeInBytes)}, nil
}

func (d *Device) CreateIndexBuffer(sizeInBytes uint32, format rhi.PixelFormat, debugName string) (rhi.IndexBuffer, error) {
	ib := &IndexBuffer{
		Buffer: *newBuffer(rhi.BufferCreateParams{
			SizeInBytes: sizeInBytes,
			AccessFlags: rhi.BufferAccessSRV | rhi.BufferAccessCopyDst,
		}),
		indexFormat: format,
	}
	ib.SetDebugName(debugName)
	return ib, nil
}

func (d *Device) CreateIndexBufferWithinPool(pool rhi.IndexBuffer, offsetInPool uint64, sizeInBytes uint32, format rhi.PixelFormat) (rhi.IndexBuffer, error) {
	parent := pool.(*IndexBuffer)
	return &IndexBuffer{
		Buffer:      *newBufferView(&parent.Buffer, offsetInPool, sizeInBytes),
		indexFormat: format,
	}, nil
}

func (d *Device) CreateGraphicsPipelineState(desc rhi.GraphicsPipelineDesc) (rhi.PipelineState, error) {
	return &PipelineState{layout: rhi.NewShaderParameterLayout(desc.Parameters)}, nil
}

func (d *Device) CreateComputePipelineState(desc rhi.ComputePipelineDesc) (rhi.PipelineState, error) {
	return &PipelineState{layout: rhi.NewShaderParameterLayout(desc.Parameters), compute: true}, nil
}

func (d *Device) CreateRaytracingPipelineState(desc rhi.RaytracingPipelineDesc) (rhi.PipelineState, error) {
	return &PipelineState{layout: rhi.NewShaderParameterLayout(desc.Parameters), compute: true}, nil
}

func (d *Device) CreateDescriptorHeap(desc rhi.DescriptorHeapDesc) (rhi.DescriptorHeap, error) {
	return newDescriptorHeap(desc), nil
}

func (d *Device) CreateSRV(resource rhi.GPUResource, desc rhi.ShaderResourceViewDesc, heap rhi.DescriptorHeap) (rhi.ShaderResourceView, error) {
	h := heap.(*DescriptorHeap)
	index := h.AllocateDescriptorIndex()
	descCopy := desc
	h.slots[index] = descriptorRecord{resource: resource, srvDesc: &descCopy}
	return &ShaderResourceView{viewBase: viewBase{heap: h, index: index}, resource: resource}, nil
}

func (d *Device) CreateUAV(resource rhi.GPUResource, desc rhi.UnorderedAccessViewDesc, heap rhi.DescriptorHeap) (rhi.UnorderedAccessView, error) {
	h := heap.(*DescriptorHeap)
	index := h.AllocateDescriptorIndex()
	descCopy := desc
	h.slots[index] = descriptorRecord{resource: resource, uavDesc: &descCopy}
	return &UnorderedAccessView{viewBase: viewBase{heap: h, index: index}, resource: resource}, nil
}

func (d *Device) CreateRTV(texture rhi.Texture, desc rhi.RenderTargetViewDesc, heap rhi.DescriptorHeap) (rhi.RenderTargetView, error) {
	h := heap.(*DescriptorHeap)
	index := h.AllocateDescriptorIndex()
	h.slots[index] = descriptorRecord{resource: texture}
	return &RenderTargetView{viewBase: viewBase{heap: h, index: index}, texture: texture}, nil
}

func (d *Device) CreateDSV(texture rhi.Texture, desc rhi.DepthStencilViewDesc, heap rhi.DescriptorHeap) (rhi.DepthStencilView, error) {
	h := heap.(*DescriptorHeap)
	index := h.AllocateDescriptorIndex()
	h.slots[index] = descriptorRecord{resource: texture}
	return &DepthStencilView{viewBase: viewBase{heap: h, index: index}, texture: texture}, nil
}

func (d *Device) CreateCBV(buffer rhi.Buffer, heap rhi.DescriptorHeap, sizeInBytes uint32, offsetInBuffer uint64) (rhi.ConstantBufferView, error) {
	if offsetInBuffer%256 != 0 {
		return nil, fmt.Errorf("CBV offset %d is not 256-byte aligned", offsetInBuffer)
	}
	h := heap.(*DescriptorHeap)
	index := h.AllocateDescriptorIndex()
	cbv := &ConstantBufferView{
		viewBase:       viewBase{heap: h, index: index},
		buffer:         bufferOf(buffer),
		offsetInBuffer: offsetInBuffer,
		sizeInBytes:    sizeInBytes,
	}
	h.slots[index] = descriptorRecord{resource: buffer, cbv: cbv}
	return cbv, nil
}

func (d *Device) CreateAccelerationStructure(resultBuffer rhi.Buffer, srvHeap rhi.DescriptorHeap) (rhi.AccelerationStructure, error) {
	srv, err := d.CreateSRV(resultBuffer, rhi.ShaderResourceViewDesc{
		ViewDimension: rhi.SRVDimensionAccelerationStructure,
	}, srvHeap)
	if err != nil {
		return nil, err
	}
	return &accelerationStructure{srv: srv, resultBuffer: resultBuffer}, nil
}

func (d *Device) GetBLASPrebuildInfo(geometry *rhi.BLASGeometryDesc) rhi.ASPrebuildInfo {
	// Deterministic conservative sizes keep tests stable.
	indexBytes := uint64(geometry.IndexBuffer.GetCreateParams().SizeInBytes)
	return rhi.ASPrebuildInfo{
		ScratchDataSizeInBytes:   core.AlignBytesU64(indexBytes*2, 256),
		ResultDataMaxSizeInBytes: core.AlignBytesU64(indexBytes*4, 256),
	}
}

func (d *Device) GetTLASPrebuildInfo(numInstances uint32) rhi.ASPrebuildInfo {
	return rhi.ASPrebuildInfo{
		ScratchDataSizeInBytes:   core.AlignBytesU64(uint64(numInstances)*128, 256),
		ResultDataMaxSizeInBytes: core.AlignBytesU64(uint64(numInstances)*256, 256),
	}
}

func (d *Device) CopyDescriptors(count uint32, destHeap rhi.DescriptorHeap, destOffset uint32, srcHeap rhi.DescriptorHeap, srcOffset uint32) {
	dst := destHeap.(*DescriptorHeap)
	src := srcHeap.(*DescriptorHeap)
	copy(dst.slots[destOffset:destOffset+count], src.slots[srcOffset:srcOffset+count])
}

func (d *Device) GetCommandAllocator(frameIndex uint32) rhi.CommandAllocator {
	return d.allocators[frameIndex]
}

func (d *Device) GetCommandList(frameIndex uint32) rhi.CommandList {
	return d.commandLists[frameIndex]
}

func (d *Device) GetCommandQueue() rhi.CommandQueue { return d.queue }
func (d *Device) GetSwapChain() rhi.SwapChain       { return d.swapChain }

// The headless backend claims every tier so feature paths stay testable.
func (d *Device) GetRaytracingTier() rhi.RaytracingTier           { return rhi.RaytracingTier1_1 }
func (d *Device) GetVRSTier() rhi.VariableShadingRateTier         { return rhi.VRSTier2 }
func (d *Device) GetMeshShaderTier() rhi.MeshShaderTier           { return rhi.MeshShaderTier1 }
func (d *Device) GetSamplerFeedbackTier() rhi.SamplerFeedbackTier { return rhi.SamplerFeedbackTier1_0 }
func (d *Device) SupportsEnhancedBarrier() bool                   { return true }

func bufferOf(b rhi.Buffer) *Buffer {
	switch v := b.(type) {
	case *Buffer:
		return v
	case *VertexBuffer:
		return &v.Buffer
	case *IndexBuffer:
		return &v.Buffer
	}
	panic("unknown buffer implementation")
}

type accelerationStructure struct {
	srv          rhi.ShaderResourceView
	resultBuffer rhi.Buffer
}

func (a *accelerationStructure) GetSRV() rhi.ShaderResourceView { return a.srv }
func (a *accelerationStructure) GetResultBuffer() rhi.Buffer    { return a.resultBuffer }

// Shader keeps the WGSL source for inspection.
type Shader struct {
	stage      rhi.ShaderStage
	debugName  string
	source     string
	entryPoint string
}

func (s *Shader) GetStage() rhi.ShaderStage { return s.stage }
func (s *Shader) GetDebugName() string      { return s.debugName }

func (s *Shader) LoadFromSource(source string, entryPoint string) error {
	s.source = source
	s.entryPoint = entryPoint
	return nil
}

func (s *Shader) GetSource() string     { return s.source }
func (s *Shader) GetEntryPoint() string { return s.entryPoint }

// PipelineState holds only the parameter layout.
type PipelineState struct {
	layout  *rhi.ShaderParameterLayout
	compute bool
}

func (p *PipelineState) GetParameterLayout() *rhi.ShaderParameterLayout { return p.layout }
func (p *PipelineState) IsCompute() bool                                { return p.compute }
