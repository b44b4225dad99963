package rhi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/rhi"
)

func TestVertexBufferPool_SuballocationOffsets(t *testing.T) {
	device := newTestDevice(t)

	pool, err := rhi.NewVertexBufferPool(device, 1*1024*1024)
	require.NoError(t, err)

	a, err := pool.Suballocate(64 * 1024)
	require.NoError(t, err)
	b, err := pool.Suballocate(128 * 1024)
	require.NoError(t, err)
	c, err := pool.Suballocate(256 * 1024)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), a.GetBufferOffsetInBytes())
	assert.Equal(t, uint64(65536), b.GetBufferOffsetInBytes())
	assert.Equal(t, uint64(196608), c.GetBufferOffsetInBytes())

	// 448 KiB used, 576 KiB left: an 800 KiB request does not fit.
	_, err = pool.Suballocate(800 * 1024)
	require.Error(t, err)
	assert.ErrorIs(t, err, rhi.ErrOutOfPoolMemory)

	assert.Equal(t, uint64(448*1024), pool.GetUsedBytes())
}

func TestVertexBufferPool_NoOverlap(t *testing.T) {
	device := newTestDevice(t)

	pool, err := rhi.NewVertexBufferPool(device, 1024)
	require.NoError(t, err)

	type span struct{ offset, size uint64 }
	var spans []span
	var total uint64
	for _, size := range []uint32{100, 200, 300} {
		buf, err := pool.Suballocate(size)
		require.NoError(t, err)
		spans = append(spans, span{buf.GetBufferOffsetInBytes(), uint64(size)})
		total += uint64(size)
	}

	assert.LessOrEqual(t, total, pool.GetTotalBytes())
	for i := 1; i < len(spans); i++ {
		assert.GreaterOrEqual(t, spans[i].offset, spans[i-1].offset+spans[i-1].size)
	}
}

func TestIndexBufferPool_Suballocate(t *testing.T) {
	device := newTestDevice(t)

	pool, err := rhi.NewIndexBufferPool(device, 4096)
	require.NoError(t, err)

	a, err := pool.Suballocate(1024, rhi.PixelFormatR32Uint)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), a.GetBufferOffsetInBytes())
	assert.Equal(t, rhi.PixelFormatR32Uint, a.GetIndexFormat())

	b, err := pool.Suballocate(2048, rhi.PixelFormatR16Uint)
	require.NoError(t, err)
	assert.Equal(t, uint64(1024), b.GetBufferOffsetInBytes())
	assert.Equal(t, rhi.PixelFormatR16Uint, b.GetIndexFormat())

	_, err = pool.Suballocate(4096, rhi.PixelFormatR32Uint)
	assert.ErrorIs(t, err, rhi.ErrOutOfPoolMemory)
}

func TestPoolBackedBufferSharesParentStorage(t *testing.T) {
	device := newTestDevice(t)

	pool, err := rhi.NewVertexBufferPool(device, 1024)
	require.NoError(t, err)

	view, err := pool.Suballocate(256)
	require.NoError(t, err)

	cmdList := device.GetCommandList(0)
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	view.UpdateData(cmdList, payload, 16)

	// The view is a window into the pool's committed buffer.
	assert.Equal(t, uint64(0), view.GetBufferOffsetInBytes())
	assert.Equal(t, uint32(16), view.GetVertexStride())
	assert.Equal(t, uint32(16), view.GetVertexCount())
}

func TestBufferUpdateStrideMustBeConsistent(t *testing.T) {
	device := newTestDevice(t)

	buffer, err := device.CreateBuffer(rhi.BufferCreateParams{
		SizeInBytes: 64,
		AccessFlags: rhi.BufferAccessCopyDst,
	})
	require.NoError(t, err)

	cmdList := device.GetCommandList(0)
	buffer.UpdateData(cmdList, make([]byte, 64), 16)
	buffer.UpdateData(cmdList, make([]byte, 64), 16)

	assert.Panics(t, func() {
		buffer.UpdateData(cmdList, make([]byte, 64), 32)
	})
}
