package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeNumberList_AllocationOrder(t *testing.T) {
	list := NewFreeNumberList(10)

	assert.Equal(t, uint32(1), list.Allocate())
	assert.Equal(t, uint32(2), list.Allocate())
	assert.Equal(t, uint32(3), list.Allocate())

	require.True(t, list.Deallocate(1))

	// Smallest available number is handed out again.
	assert.Equal(t, uint32(1), list.Allocate())
}

func TestFreeNumberList_Exhaustion(t *testing.T) {
	list := NewFreeNumberList(3)

	assert.Equal(t, uint32(1), list.Allocate())
	assert.Equal(t, uint32(2), list.Allocate())
	assert.Equal(t, uint32(3), list.Allocate())
	assert.True(t, list.Exhausted())

	// A returned 0 signals failure.
	assert.Equal(t, uint32(0), list.Allocate())

	require.True(t, list.Deallocate(2))
	assert.False(t, list.Exhausted())
	assert.Equal(t, uint32(2), list.Allocate())
}

func TestFreeNumberList_DeallocateUnknown(t *testing.T) {
	list := NewFreeNumberList(8)
	list.Allocate()

	assert.False(t, list.Deallocate(5))
	assert.False(t, list.Deallocate(0))
	assert.True(t, list.Deallocate(1))
	assert.False(t, list.Deallocate(1))
}

func TestFreeNumberList_RangeSplitAndMerge(t *testing.T) {
	list := NewFreeNumberList(16)
	for i := uint32(1); i <= 8; i++ {
		require.Equal(t, i, list.Allocate())
	}
	assert.Equal(t, uint32(8), list.NumAllocated())

	// Split [1,8] in the middle.
	require.True(t, list.Deallocate(4))
	assert.Equal(t, uint32(7), list.NumAllocated())

	// Re-allocating the hole merges the ranges back.
	assert.Equal(t, uint32(4), list.Allocate())
	assert.Equal(t, uint32(8), list.NumAllocated())

	// Shrink from both ends.
	require.True(t, list.Deallocate(1))
	require.True(t, list.Deallocate(8))
	assert.Equal(t, uint32(1), list.Allocate())
	assert.Equal(t, uint32(8), list.Allocate())
}

func TestFreeNumberList_EvictThenAllocReusesIndex(t *testing.T) {
	list := NewFreeNumberList(100)
	for i := 0; i < 10; i++ {
		list.Allocate()
	}
	require.True(t, list.Deallocate(7))
	assert.Equal(t, uint32(7), list.Allocate())
	assert.Equal(t, uint32(11), list.Allocate())
}
