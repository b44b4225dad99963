package noop

import (
	"fmt"

	"github.com/codeonwort/cyseal/rhi"
)

// resourceBase carries debug naming for every noop resource.
type resourceBase struct {
	debugName string
}

func (r *resourceBase) SetDebugName(name string) { r.debugName = name }
func (r *resourceBase) GetDebugName() string     { return r.debugName }

// Buffer is a byte-backed buffer. All recorded copies apply immediately,
// which is what headless tests want to observe.
type Buffer struct {
	resourceBase

	createParams rhi.BufferCreateParams
	data         []byte

	// Pool-backed views alias the parent's storage.
	parent       *Buffer
	offsetInPool uint64
	viewSize     uint32

	updateStride uint32
}

func newBuffer(params rhi.BufferCreateParams) *Buffer {
	return &Buffer{
		createParams: params,
		data:         make([]byte, params.SizeInBytes),
	}
}

func newBufferView(parent *Buffer, offsetInPool uint64, sizeInBytes uint32) *Buffer {
	return &Buffer{
		createParams: rhi.BufferCreateParams{SizeInBytes: sizeInBytes, AccessFlags: parent.createParams.AccessFlags},
		parent:       parent,
		offsetInPool: offsetInPool,
		viewSize:     sizeInBytes,
	}
}

func (b *Buffer) GetCreateParams() rhi.BufferCreateParams { return b.createParams }

func (b *Buffer) GetBufferOffsetInBytes() uint64 { return b.offsetInPool }

// storage resolves to the parent pool's bytes for pool-backed views.
func (b *Buffer) storage() []byte {
	if b.parent != nil {
		return b.parent.data[b.offsetInPool : b.offsetInPool+uint64(b.viewSize)]
	}
	return b.data
}

// Data exposes the buffer bytes for test readback.
func (b *Buffer) Data() []byte { return b.storage() }

func (b *Buffer) UpdateData(cmdList rhi.CommandList, data []byte, stride uint32) {
	if b.updateStride == 0 {
		b.updateStride = stride
	} else if b.updateStride != stride {
		panic(fmt.Sprintf("buffer %s: update stride changed from %d to %d", b.debugName, b.updateStride, stride))
	}
	copy(b.storage(), data)
}

func (b *Buffer) SingleWriteToGPU(cmdList rhi.CommandList, data []byte, destOffsetInBytes uint32) {
	if b.createParams.AccessFlags&rhi.BufferAccessCPUWrite == 0 {
		panic(fmt.Sprintf("buffer %s is not CPU-writable", b.debugName))
	}
	copy(b.storage()[destOffsetInBytes:], data)
}

// VertexBuffer adds input-assembler metadata over Buffer.
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

// IndexBuffer adds the index format over Buffer.
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

// Texture stores each subresource as raw bytes.
type Texture struct {
	resourceBase

	device       *Device
	createParams rhi.TextureCreateParams
	subresources map[uint32][]byte

	srv rhi.ShaderResourceView
	rtv rhi.RenderTargetView
	dsv rhi.DepthStencilView
	uav rhi.UnorderedAccessView
}

func (t *Texture) GetCreateParams() rhi.TextureCreateParams { return t.createParams }

func (t *Texture) UploadData(cmdList rhi.CommandList, data []byte, rowPitch, slicePitch uint64, subresourceIndex uint32) {
	blob := make([]byte, len(data))
	copy(blob, data)
	t.subresources[subresourceIndex] = blob
}

func (t *Texture) ReadbackData(dst []byte) error {
	blob, ok := t.subresources[0]
	if !ok {
		return fmt.Errorf("texture %s: no data uploaded", t.debugName)
	}
	copy(dst, blob)
	return nil
}

func (t *Texture) GetSRV() rhi.ShaderResourceView {
	if t.srv == nil {
		tm := rhi.GetTextureManager()
		srv, err := t.device.CreateSRV(t, rhi.ShaderResourceViewDesc{
			Format:        t.createParams.Format,
			ViewDimension: srvDimensionFor(t.createParams.Dimension),
			MipLevels:     t.createParams.MipLevels,
		}, tm.GetGlobalSRVHeap())
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
		uav, err := t.device.CreateUAV(t, rhi.UnorderedAccessViewDesc{
			Format:        t.createParams.Format,
			ViewDimension: rhi.UAVDimensionTexture2D,
		}, tm.GetGlobalUAVHeap())
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

func srvDimensionFor(dim rhi.TextureDimension) rhi.SRVDimension {
	switch dim {
	case rhi.TextureDimension3D:
		return rhi.SRVDimensionTexture3D
	case rhi.TextureDimensionCube:
		return rhi.SRVDimensionTextureCube
	default:
		return rhi.SRVDimensionTexture2D
	}
}
