package noop

import (
	"github.com/codeonwort/cyseal/rhi"
)

// descriptorRecord is what one heap slot holds. CopyDescriptors moves
// records verbatim, which lets tests observe descriptor layouts.
type descriptorRecord struct {
	resource rhi.GPUResource
	srvDesc  *rhi.ShaderResourceViewDesc
	uavDesc  *rhi.UnorderedAccessViewDesc
	cbv      *ConstantBufferView
}

// DescriptorHeap is a slot array plus the shared free-number bookkeeping.
type DescriptorHeap struct {
	rhi.DescriptorHeapBase
	slots []descriptorRecord
}

func newDescriptorHeap(desc rhi.DescriptorHeapDesc) *DescriptorHeap {
	h := &DescriptorHeap{slots: make([]descriptorRecord, desc.NumDescriptors)}
	h.InitHeapBase(desc)
	return h
}

// SlotResource exposes the resource stored at a slot, for tests.
func (h *DescriptorHeap) SlotResource(index uint32) rhi.GPUResource {
	return h.slots[index].resource
}

// SlotCBV exposes the CBV record stored at a slot, for tests.
func (h *DescriptorHeap) SlotCBV(index uint32) rhi.ConstantBufferView {
	if h.slots[index].cbv == nil {
		return nil
	}
	return h.slots[index].cbv
}

// viewBase implements rhi.DescriptorView.
type viewBase struct {
	heap  *DescriptorHeap
	index uint32
}

func (v viewBase) SourceHeap() rhi.DescriptorHeap { return v.heap }
func (v viewBase) DescriptorIndex() uint32        { return v.index }

// ShaderResourceView references a slot in a noop heap.
type ShaderResourceView struct {
	viewBase
	resource rhi.GPUResource
}

func (v *ShaderResourceView) GetResource() rhi.GPUResource { return v.resource }

// UnorderedAccessView references a slot in a noop heap.
type UnorderedAccessView struct {
	viewBase
	resource rhi.GPUResource
}

func (v *UnorderedAccessView) GetResource() rhi.GPUResource { return v.resource }

// RenderTargetView references a color target slot.
type RenderTargetView struct {
	viewBase
	texture rhi.Texture
}

func (v *RenderTargetView) GetTexture() rhi.Texture { return v.texture }

// DepthStencilView references a depth target slot.
type DepthStencilView struct {
	viewBase
	texture rhi.Texture
}

func (v *DepthStencilView) GetTexture() rhi.Texture { return v.texture }

// ConstantBufferView references a 256-byte aligned sub-range of a
// CPU-writable buffer.
type ConstantBufferView struct {
	viewBase
	buffer         *Buffer
	offsetInBuffer uint64
	sizeInBytes    uint32
}

func (v *ConstantBufferView) GetBuffer() rhi.Buffer      { return v.buffer }
func (v *ConstantBufferView) GetOffsetInBuffer() uint64  { return v.offsetInBuffer }
func (v *ConstantBufferView) GetSizeInBytes() uint32     { return v.sizeInBytes }

func (v *ConstantBufferView) WriteToGPU(cmdList rhi.CommandList, data []byte) {
	copy(v.buffer.storage()[v.offsetInBuffer:], data)
}
