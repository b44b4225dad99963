// Package webgpu backs the render device with wgpu-native through
// cogentcore/webgpu. wgpu routes to D3D12 on Windows and Vulkan elsewhere,
// so this single backend serves both raw API selections. Raytracing is
// reported as unsupported; the acceleration structure surface stays
// unimplemented here.
package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gogpu/naga"

	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/util"
)

var logDevice = util.NewLogCategory("LogDevice")

func init() {
	factory := func() rhi.Device { return &Device{} }
	// wgpu-native selects the native API per platform; both selectors
	// resolve to this backend.
	rhi.RegisterBackendFactory(rhi.RawAPIDirectX12, factory)
	rhi.RegisterBackendFactory(rhi.RawAPIVulkan, factory)
}

// Device implements rhi.Device over a wgpu instance/adapter/device.
type Device struct {
	params rhi.DeviceCreateParams

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	commandQueue *CommandQueue
	allocators   []*CommandAllocator
	commandLists []*CommandList
	swapChain    *SwapChain
}

func (d *Device) Initialize(params rhi.DeviceCreateParams) error {
	if params.SwapChain.BufferCount == 0 {
		params.SwapChain.BufferCount = 2
	}
	d.params = params

	d.instance = wgpu.CreateInstance(nil)

	if !params.Headless {
		if params.NativeWindow == nil {
			return fmt.Errorf("windowed device requires a native window")
		}
		d.surface = d.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(params.NativeWindow))
	}

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	d.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "CysealDevice",
	})
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	d.device = device
	d.queue = device.GetQueue()

	if params.RequiredRaytracingTier != rhi.RaytracingTierNotSupported {
		return fmt.Errorf("%w: raytracing on the webgpu backend", rhi.ErrMissingFeature)
	}

	d.commandQueue = &CommandQueue{device: d}

	n := params.SwapChain.BufferCount
	d.allocators = make([]*CommandAllocator, n)
	d.commandLists = make([]*CommandList, n)
	for i := uint32(0); i < n; i++ {
		d.allocators[i] = &CommandAllocator{queue: d.commandQueue, valid: true}
		d.commandLists[i] = &CommandList{device: d}
	}

	sc, err := newSwapChain(d, params.SwapChain)
	if err != nil {
		return err
	}
	d.swapChain = sc

	logDevice.Infof("webgpu device initialized (%s, headless=%v)", params.RawAPI, params.Headless)
	return nil
}

func (d *Device) Destroy() {
	d.FlushCommandQueue()
	if d.device != nil {
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
}

func (d *Device) FlushCommandQueue() {
	d.commandQueue.WaitForFenceValue(d.commandQueue.Signal())
}

func (d *Device) RecreateSwapChain(width, height uint32) error {
	return d.swapChain.Resize(width, height)
}

func (d *Device) CreateBuffer(params rhi.BufferCreateParams) (rhi.Buffer, error) {
	native, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  uint64(params.SizeInBytes),
		Usage: intoBufferUsage(params.AccessFlags),
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}
	return &Buffer{device: d, createParams: params, native: native}, nil
}

func (d *Device) CreateTexture(params rhi.TextureCreateParams) (rhi.Texture, error) {
	depthOrLayers := params.Depth
	if params.Dimension == rhi.TextureDimensionCube {
		depthOrLayers = 6
	}
	if depthOrLayers == 0 {
		depthOrLayers = 1
	}
	native, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Size: wgpu.Extent3D{
			Width:              params.Width,
			Height:             params.Height,
			DepthOrArrayLayers: depthOrLayers,
		},
		MipLevelCount: maxu32(params.MipLevels, 1),
		SampleCount:   maxu32(params.SampleCount, 1),
		Dimension:     intoTextureDimension(params.Dimension),
		Format:        intoTextureFormat(params.Format),
		Usage:         intoTextureUsage(params.AccessFlags),
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}
	return &Texture{device: d, createParams: params, native: native}, nil
}

func (d *Device) CreateShader(stage rhi.ShaderStage, debugName string) rhi.Shader {
	return &Shader{device: d, stage: stage, debugName: debugName}
}

func (d *Device) CreateVertexBuffer(sizeInBytes uint32, debugName string) (rhi.VertexBuffer, error) {
	native, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: debugName,
		Size:  uint64(sizeInBytes),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	vb := &VertexBuffer{Buffer: Buffer{
		device:       d,
		createParams: rhi.BufferCreateParams{SizeInBytes: sizeInBytes, AccessFlags: rhi.BufferAccessSRV | rhi.BufferAccessCopyDst},
		native:       native,
	}}
	vb.SetDebugName(debugName)
	return vb, nil
}

func (d *Device) CreateVertexBufferWithinPool(pool rhi.VertexBuffer, offsetInPool uint64, sizeInBytes uint32) (rhi.VertexBuffer, error) {
	parent := pool.(*VertexBuffer)
	return &VertexBuffer{Buffer: Buffer{
		device:       d,
		createParams: rhi.BufferCreateParams{SizeInBytes: sizeInBytes, AccessFlags: parent.createParams.AccessFlags},
		native:       parent.native,
		offsetInPool: offsetInPool,
		isPoolView:   true,
	}}, nil
}

func (d *Device) CreateIndexBuffer(sizeInBytes uint32, format rhi.PixelFormat, debugName string) (rhi.IndexBuffer, error) {
	native, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: debugName,
		Size:  uint64(sizeInBytes),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create index buffer: %w", err)
	}
	ib := &IndexBuffer{
		Buffer: Buffer{
			device:       d,
			createParams: rhi.BufferCreateParams{SizeInBytes: sizeInBytes, AccessFlags: rhi.BufferAccessSRV | rhi.BufferAccessCopyDst},
			native:       native,
		},
		indexFormat: format,
	}
	ib.SetDebugName(debugName)
	return ib, nil
}

func (d *Device) CreateIndexBufferWithinPool(pool rhi.IndexBuffer, offsetInPool uint64, sizeInBytes uint32, format rhi.PixelFormat) (rhi.IndexBuffer, error) {
	parent := pool.(*IndexBuffer)
	return &IndexBuffer{
		Buffer: Buffer{
			device:       d,
			createParams: rhi.BufferCreateParams{SizeInBytes: sizeInBytes, AccessFlags: parent.createParams.AccessFlags},
			native:       parent.native,
			offsetInPool: offsetInPool,
			isPoolView:   true,
		},
		indexFormat: format,
	}, nil
}

func (d *Device) CreateDescriptorHeap(desc rhi.DescriptorHeapDesc) (rhi.DescriptorHeap, error) {
	return newDescriptorHeap(desc), nil
}

func (d *Device) CreateSRV(resource rhi.GPUResource, desc rhi.ShaderResourceViewDesc, heap rhi.DescriptorHeap) (rhi.ShaderResourceView, error) {
	h := heap.(*DescriptorHeap)
	index := h.AllocateDescriptorIndex()
	h.slots[index] = makeSlotRecord(resource, false)
	return &ShaderResourceView{viewBase: viewBase{heap: h, index: index}, resource: resource}, nil
}

func (d *Device) CreateUAV(resource rhi.GPUResource, desc rhi.UnorderedAccessViewDesc, heap rhi.DescriptorHeap) (rhi.UnorderedAccessView, error) {
	h := heap.(*DescriptorHeap)
	index := h.AllocateDescriptorIndex()
	h.slots[index] = makeSlotRecord(resource, true)
	return &UnorderedAccessView{viewBase: viewBase{heap: h, index: index}, resource: resource}, nil
}

func (d *Device) CreateRTV(texture rhi.Texture, desc rhi.RenderTargetViewDesc, heap rhi.DescriptorHeap) (rhi.RenderTargetView, error) {
	h := heap.(*DescriptorHeap)
	index := h.AllocateDescriptorIndex()
	tex := texture.(*Texture)
	h.slots[index] = slotRecord{textureView: tex.getView()}
	return &RenderTargetView{viewBase: viewBase{heap: h, index: index}, texture: texture}, nil
}

func (d *Device) CreateDSV(texture rhi.Texture, desc rhi.DepthStencilViewDesc, heap rhi.DescriptorHeap) (rhi.DepthStencilView, error) {
	h := heap.(*DescriptorHeap)
	index := h.AllocateDescriptorIndex()
	tex := texture.(*Texture)
	h.slots[index] = slotRecord{textureView: tex.getView()}
	return &DepthStencilView{viewBase: viewBase{heap: h, index: index}, texture: texture}, nil
}

func (d *Device) CreateCBV(buffer rhi.Buffer, heap rhi.DescriptorHeap, sizeInBytes uint32, offsetInBuffer uint64) (rhi.ConstantBufferView, error) {
	if offsetInBuffer%256 != 0 {
		return nil, fmt.Errorf("CBV offset %d is not 256-byte aligned", offsetInBuffer)
	}
	h := heap.(*DescriptorHeap)
	index := h.AllocateDescriptorIndex()
	buf := buffer.(*Buffer)
	cbv := &ConstantBufferView{
		viewBase:       viewBase{heap: h, index: index},
		buffer:         buf,
		offsetInBuffer: offsetInBuffer,
		sizeInBytes:    sizeInBytes,
	}
	h.slots[index] = slotRecord{
		buffer:       buf.native,
		bufferOffset: offsetInBuffer,
		bufferSize:   uint64(sizeInBytes),
		uniform:      true,
	}
	return cbv, nil
}

func (d *Device) CreateAccelerationStructure(resultBuffer rhi.Buffer, srvHeap rhi.DescriptorHeap) (rhi.AccelerationStructure, error) {
	return nil, rhi.ErrNotSupported
}

func (d *Device) GetBLASPrebuildInfo(geometry *rhi.BLASGeometryDesc) rhi.ASPrebuildInfo {
	return rhi.ASPrebuildInfo{}
}

func (d *Device) GetTLASPrebuildInfo(numInstances uint32) rhi.ASPrebuildInfo {
	return rhi.ASPrebuildInfo{}
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

func (d *Device) GetCommandQueue() rhi.CommandQueue { return d.commandQueue }
func (d *Device) GetSwapChain() rhi.SwapChain       { return d.swapChain }

func (d *Device) GetRaytracingTier() rhi.RaytracingTier   { return rhi.RaytracingTierNotSupported }
func (d *Device) GetVRSTier() rhi.VariableShadingRateTier { return rhi.VRSTierNotSupported }
func (d *Device) GetMeshShaderTier() rhi.MeshShaderTier   { return rhi.MeshShaderTierNotSupported }
func (d *Device) GetSamplerFeedbackTier() rhi.SamplerFeedbackTier {
	return rhi.SamplerFeedbackTierNotSupported
}

// wgpu validates hazards itself, which is close enough to enhanced
// barriers that recorded transitions become no-ops.
func (d *Device) SupportsEnhancedBarrier() bool { return true }

// Shader validates WGSL through naga before the pipeline consumes it, so
// a bad shader fails at load instead of at pipeline creation.
type Shader struct {
	device     *Device
	stage      rhi.ShaderStage
	debugName  string
	source     string
	entryPoint string
	module     *wgpu.ShaderModule
}

func (s *Shader) GetStage() rhi.ShaderStage { return s.stage }
func (s *Shader) GetDebugName() string      { return s.debugName }

func (s *Shader) LoadFromSource(source string, entryPoint string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("validate shader %s: %w", s.debugName, err)
	}
	module, err := s.device.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          s.debugName,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if err != nil {
		return fmt.Errorf("create shader module %s: %w", s.debugName, err)
	}
	s.module = module
	s.source = source
	s.entryPoint = entryPoint
	return nil
}

func (s *Shader) GetSource() string     { return s.source }
func (s *Shader) GetEntryPoint() string { return s.entryPoint }

func maxu32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
