package rhi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/rhi"
)

func TestDescriptorHeap_AllocateRelease(t *testing.T) {
	device := newTestDevice(t)

	heap, err := device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeCBVSRVUAV,
		NumDescriptors: 4,
	})
	require.NoError(t, err)

	a := heap.AllocateDescriptorIndex()
	b := heap.AllocateDescriptorIndex()
	c := heap.AllocateDescriptorIndex()
	assert.Equal(t, uint32(0), a)
	assert.Equal(t, uint32(1), b)
	assert.Equal(t, uint32(2), c)
	assert.Equal(t, uint32(3), heap.NumAllocated())

	// No two live allocations share a slot.
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)

	heap.ReleaseDescriptorIndex(b)
	assert.Equal(t, uint32(2), heap.NumAllocated())
	assert.Equal(t, b, heap.AllocateDescriptorIndex())
}

func TestDescriptorHeap_OverflowPanics(t *testing.T) {
	device := newTestDevice(t)

	heap, err := device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeSRV,
		NumDescriptors: 2,
	})
	require.NoError(t, err)

	heap.AllocateDescriptorIndex()
	heap.AllocateDescriptorIndex()
	assert.Panics(t, func() { heap.AllocateDescriptorIndex() })
}

func TestDescriptorHeap_ReleaseUnallocatedPanics(t *testing.T) {
	device := newTestDevice(t)

	heap, err := device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeSRV,
		NumDescriptors: 8,
	})
	require.NoError(t, err)

	assert.Panics(t, func() { heap.ReleaseDescriptorIndex(3) })
}

func TestDescriptorIndexTracker(t *testing.T) {
	tracker := &rhi.DescriptorIndexTracker{}
	assert.Equal(t, uint32(0), tracker.Allocate(1))
	assert.Equal(t, uint32(1), tracker.Allocate(3))
	assert.Equal(t, uint32(4), tracker.Allocate(1))

	offset := &rhi.DescriptorIndexTracker{LastIndex: 10}
	assert.Equal(t, uint32(10), offset.Allocate(2))
	assert.Equal(t, uint32(12), offset.LastIndex)
}

func TestCommandAllocator_ResetWhileInFlightPanics(t *testing.T) {
	device := newTestDevice(t)

	allocator := device.GetCommandAllocator(0)
	queue := device.GetCommandQueue()

	// First reset is legal; the allocator starts valid.
	allocator.Reset()

	// Pretend the frame's fence has not signaled yet.
	allocator.MarkPendingFenceValue(queue.CompletedValue() + 100)
	assert.Panics(t, func() { allocator.Reset() })

	// Closing the command list validates the allocator again.
	cmdList := device.GetCommandList(0)
	cmdList.Reset(allocator)
	cmdList.Close()
	assert.True(t, allocator.IsValid())
	assert.NotPanics(t, func() { allocator.Reset() })
}
