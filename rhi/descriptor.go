package rhi

import (
	"fmt"

	"github.com/codeonwort/cyseal/core"
)

// DescriptorHeap is an array of descriptor slots of one kind. CPU-only
// heaps act as global pools; shader-visible heaps are bind targets during
// command recording.
type DescriptorHeap interface {
	GetDesc() DescriptorHeapDesc

	// AllocateDescriptorIndex returns the smallest free slot. Heap
	// exhaustion is a programming error and panics.
	AllocateDescriptorIndex() uint32

	// ReleaseDescriptorIndex makes a slot available again. Releasing a
	// slot that is not allocated panics.
	ReleaseDescriptorIndex(index uint32)

	NumAllocated() uint32

	SetDebugName(name string)
	GetDebugName() string
}

// DescriptorHeapBase carries the slot bookkeeping every backend shares.
// Backends embed it and add their native heap storage.
type DescriptorHeapBase struct {
	Desc      DescriptorHeapDesc
	DebugName string

	allocator *core.FreeNumberList
}

// InitHeapBase wires the free-number allocator for the heap capacity.
func (h *DescriptorHeapBase) InitHeapBase(desc DescriptorHeapDesc) {
	h.Desc = desc
	h.allocator = core.NewFreeNumberList(desc.NumDescriptors)
}

func (h *DescriptorHeapBase) GetDesc() DescriptorHeapDesc { return h.Desc }

func (h *DescriptorHeapBase) AllocateDescriptorIndex() uint32 {
	n := h.allocator.Allocate()
	if n == 0 {
		panic(fmt.Sprintf("descriptor heap overflow: %s (capacity %d)", h.DebugName, h.Desc.NumDescriptors))
	}
	// The allocator hands out 1-based numbers; heap slots are 0-based.
	return n - 1
}

func (h *DescriptorHeapBase) ReleaseDescriptorIndex(index uint32) {
	if !h.allocator.Deallocate(index + 1) {
		panic(fmt.Sprintf("descriptor heap %s: release of unallocated index %d", h.DebugName, index))
	}
}

func (h *DescriptorHeapBase) NumAllocated() uint32 {
	return h.allocator.NumAllocated()
}

func (h *DescriptorHeapBase) SetDebugName(name string) { h.DebugName = name }
func (h *DescriptorHeapBase) GetDebugName() string     { return h.DebugName }

// DescriptorIndexTracker monotonically assigns slot offsets inside a
// volatile heap while one render pass records.
type DescriptorIndexTracker struct {
	LastIndex uint32
}

// Allocate returns count consecutive slots and advances the cursor.
func (t *DescriptorIndexTracker) Allocate(count uint32) uint32 {
	base := t.LastIndex
	t.LastIndex += count
	return base
}
