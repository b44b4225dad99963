package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/codeonwort/cyseal/rhi"
)

// Buffer wraps a wgpu buffer. Pool-backed views share the parent's native
// buffer and carry a byte offset.
type Buffer struct {
	device       *Device
	createParams rhi.BufferCreateParams
	native       *wgpu.Buffer

	offsetInPool uint64
	isPoolView   bool

	debugName    string
	updateStride uint32
}

func (b *Buffer) SetDebugName(name string) { b.debugName = name }
func (b *Buffer) GetDebugName() string     { return b.debugName }

func (b *Buffer) GetCreateParams() rhi.BufferCreateParams { return b.createParams }
func (b *Buffer) GetBufferOffsetInBytes() uint64          { return b.offsetInPool }

// UpdateData goes through the queue's staging path; wgpu orders queue
// writes before subsequently submitted command buffers, which preserves
// the recorded copy semantics.
func (b *Buffer) UpdateData(cmdList rhi.CommandList, data []byte, stride uint32) {
	if b.updateStride == 0 {
		b.updateStride = stride
	} else if b.updateStride != stride {
		panic(fmt.Sprintf("buffer %s: update stride changed from %d to %d", b.debugName, b.updateStride, stride))
	}
	b.device.queue.WriteBuffer(b.native, b.offsetInPool, data)
}

func (b *Buffer) SingleWriteToGPU(cmdList rhi.CommandList, data []byte, destOffsetInBytes uint32) {
	if b.createParams.AccessFlags&rhi.BufferAccessCPUWrite == 0 {
		panic(fmt.Sprintf("buffer %s is not CPU-writable", b.debugName))
	}
	b.device.queue.WriteBuffer(b.native, b.offsetInPool+uint64(destOffsetInBytes), data)
}

// VertexBuffer adds input-assembler metadata.
type VertexBuffer struct {
	Buffer
	vertexStride uint32
	vertexCount  uint32
}

func (v *VertexBuffer) GetVertexStride() uint32 { return v.vertexStride }
func (v *VertexBuffer) GetVertexCount() uint32  { return v.vertexCount }

func (v *VertexBuffer) UpdateData(cmdList rhi.CommandList, data []byte, stride uint32) {
	v.Buffer.UpdateData(cmdList, data, stride)
	v.vertexStride = stride
	if stride > 0 {
		v.vertexCount = uint32(len(data)) / stride
	}
}

// IndexBuffer adds the index format.
type IndexBuffer struct {
	Buffer
	indexFormat rhi.PixelFormat
	indexCount  uint32
}

func (b *IndexBuffer) GetIndexFormat() rhi.PixelFormat { return b.indexFormat }
func (b *IndexBuffer) GetIndexCount() uint32           { return b.indexCount }

func (b *IndexBuffer) UpdateData(cmdList rhi.CommandList, data []byte, stride uint32) {
	b.Buffer.UpdateData(cmdList, data, stride)
	if stride > 0 {
		b.indexCount = uint32(len(data)) / stride
	}
}

// Texture wraps a wgpu texture plus its default view.
type Texture struct {
	device       *Device
	createParams rhi.TextureCreateParams
	native       *wgpu.Texture
	view         *wgpu.TextureView

	debugName string

	srv rhi.ShaderResourceView
	rtv rhi.RenderTargetView
	dsv rhi.DepthStencilView
	uav rhi.UnorderedAccessView
}

func (t *Texture) SetDebugName(name string) { t.debugName = name }
func (t *Texture) GetDebugName() string     { return t.debugName }

func (t *Texture) GetCreateParams() rhi.TextureCreateParams { return t.createParams }

func (t *Texture) getView() *wgpu.TextureView {
	if t.view == nil {
		view, err := t.native.CreateView(nil)
		if err != nil {
			panic(fmt.Sprintf("create view for %s: %v", t.debugName, err))
		}
		t.view = view
	}
	return t.view
}

func (t *Texture) UploadData(cmdList rhi.CommandList, data []byte, rowPitch, slicePitch uint64, subresourceIndex uint32) {
	depth := maxu32(t.createParams.Depth, 1)
	height := maxu32(t.createParams.Height, 1)
	origin := wgpu.Origin3D{}
	extent := wgpu.Extent3D{Width: t.createParams.Width, Height: height, DepthOrArrayLayers: depth}
	if t.createParams.Dimension == rhi.TextureDimensionCube {
		// One subresource per face.
		origin.Z = subresourceIndex
		extent.DepthOrArrayLayers = 1
	}
	t.device.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture: t.native,
			Origin:  origin,
			Aspect:  wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			BytesPerRow:  uint32(rowPitch),
			RowsPerImage: height,
		},
		&extent,
	)
}

func (t *Texture) ReadbackData(dst []byte) error {
	return rhi.ErrNotSupported
}

func (t *Texture) GetSRV() rhi.ShaderResourceView {
	if t.srv == nil {
		tm := rhi.GetTextureManager()
		srv, err := t.device.CreateSRV(t, rhi.ShaderResourceViewDesc{Format: t.createParams.Format}, tm.GetGlobalSRVHeap())
		if err != nil {
			panic(err)
		}
		t.srv = srv
	}
	return t.srv
}

func (t *Texture) GetRTV() rhi.RenderTargetView {
	if t.rtv == nil {
		tm := rhi.GetTextureManager()
		rtv, err := t.device.CreateRTV(t, rhi.RenderTargetViewDesc{Format: t.createParams.Format}, tm.GetGlobalRTVHeap())
		if err != nil {
			panic(err)
		}
		t.rtv = rtv
	}
	return t.rtv
}

func (t *Texture) GetDSV() rhi.DepthStencilView {
	if t.dsv == nil {
		tm := rhi.GetTextureManager()
		dsv, err := t.device.CreateDSV(t, rhi.DepthStencilViewDesc{Format: t.createParams.Format}, tm.GetGlobalDSVHeap())
		if err != nil {
			panic(err)
		}
		t.dsv = dsv
	}
	return t.dsv
}

func (t *Texture) GetUAV() rhi.UnorderedAccessView {
	if t.uav == nil {
		tm := rhi.GetTextureManager()
		uav, err := t.device.CreateUAV(t, rhi.UnorderedAccessViewDesc{Format: t.createParams.Format}, tm.GetGlobalUAVHeap())
		if err != nil {
			panic(err)
		}
		t.uav = uav
	}
	return t.uav
}

func (t *Texture) GetSRVDescriptorIndex() uint32 {
	return t.GetSRV().DescriptorIndex()
}

// slotRecord is one descriptor heap slot: whatever wgpu binding resource
// the descriptor points at.
type slotRecord struct {
	buffer       *wgpu.Buffer
	bufferOffset uint64
	bufferSize   uint64
	uniform      bool
	writable     bool

	textureView *wgpu.TextureView
}

func makeSlotRecord(resource rhi.GPUResource, writable bool) slotRecord {
	switch res := resource.(type) {
	case *Buffer:
		return slotRecord{buffer: res.native, bufferOffset: res.offsetInPool, bufferSize: uint64(res.createParams.SizeInBytes), writable: writable}
	case *VertexBuffer:
		return slotRecord{buffer: res.native, bufferOffset: res.offsetInPool, bufferSize: uint64(res.createParams.SizeInBytes), writable: writable}
	case *IndexBuffer:
		return slotRecord{buffer: res.native, bufferOffset: res.offsetInPool, bufferSize: uint64(res.createParams.SizeInBytes), writable: writable}
	case *Texture:
		return slotRecord{textureView: res.getView(), writable: writable}
	}
	panic("unknown resource implementation")
}

// DescriptorHeap is a CPU-side slot table; shader-visible heaps become
// bind group entries when a draw or dispatch materializes its bind group.
type DescriptorHeap struct {
	rhi.DescriptorHeapBase
	slots []slotRecord
}

func newDescriptorHeap(desc rhi.DescriptorHeapDesc) *DescriptorHeap {
	h := &DescriptorHeap{slots: make([]slotRecord, desc.NumDescriptors)}
	h.InitHeapBase(desc)
	return h
}

type viewBase struct {
	heap  *DescriptorHeap
	index uint32
}

func (v viewBase) SourceHeap() rhi.DescriptorHeap { return v.heap }
func (v viewBase) DescriptorIndex() uint32        { return v.index }

type ShaderResourceView struct {
	viewBase
	resource rhi.GPUResource
}

func (v *ShaderResourceView) GetResource() rhi.GPUResource { return v.resource }

type UnorderedAccessView struct {
	viewBase
	resource rhi.GPUResource
}

func (v *UnorderedAccessView) GetResource() rhi.GPUResource { return v.resource }

type RenderTargetView struct {
	viewBase
	texture rhi.Texture
}

func (v *RenderTargetView) GetTexture() rhi.Texture { return v.texture }

type DepthStencilView struct {
	viewBase
	texture rhi.Texture
}

func (v *DepthStencilView) GetTexture() rhi.Texture { return v.texture }

type ConstantBufferView struct {
	viewBase
	buffer         *Buffer
	offsetInBuffer uint64
	sizeInBytes    uint32
}

func (v *ConstantBufferView) GetBuffer() rhi.Buffer     { return v.buffer }
func (v *ConstantBufferView) GetOffsetInBuffer() uint64 { return v.offsetInBuffer }
func (v *ConstantBufferView) GetSizeInBytes() uint32    { return v.sizeInBytes }

func (v *ConstantBufferView) WriteToGPU(cmdList rhi.CommandList, data []byte) {
	v.buffer.device.queue.WriteBuffer(v.buffer.native, v.offsetInBuffer, data)
}
