package rhi

import (
	"fmt"

	"github.com/codeonwort/cyseal/util"
)

var logPool = util.NewLogCategory("LogPool")

// BufferPoolItem is a half-open byte range [Offset, Offset+Size) inside a
// pool's committed buffer. Items live for the process lifetime.
type BufferPoolItem struct {
	Offset uint64
	Size   uint64
}

// VertexBufferPool suballocates vertex streams out of one large committed
// buffer so every mesh shares a single GPU resource.
//
// TODO: deallocate() — generalize FreeNumberList to byte ranges so evicted
// meshes can return their regions.
type VertexBufferPool struct {
	device Device

	poolSize      uint64
	pool          VertexBuffer
	currentOffset uint64
	items         []BufferPoolItem
}

// NewVertexBufferPool creates the committed pool buffer.
func NewVertexBufferPool(device Device, totalBytes uint64) (*VertexBufferPool, error) {
	pool, err := device.CreateVertexBuffer(uint32(totalBytes), "GlobalVertexBufferPool")
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer pool: %w", err)
	}
	logPool.Infof("Vertex buffer pool: %.2f MiB", float64(totalBytes)/(1024.0*1024.0))
	return &VertexBufferPool{device: device, poolSize: totalBytes, pool: pool}, nil
}

// Suballocate returns a view over the next sizeInBytes of the pool. The
// view's offset equals the pool's append cursor.
func (p *VertexBufferPool) Suballocate(sizeInBytes uint32) (VertexBuffer, error) {
	if p.currentOffset+uint64(sizeInBytes) > p.poolSize {
		return nil, fmt.Errorf("%w: vertex pool %d/%d bytes used, requested %d",
			ErrOutOfPoolMemory, p.currentOffset, p.poolSize, sizeInBytes)
	}
	buffer, err := p.device.CreateVertexBufferWithinPool(p.pool, p.currentOffset, sizeInBytes)
	if err != nil {
		return nil, err
	}
	p.items = append(p.items, BufferPoolItem{Offset: p.currentOffset, Size: uint64(sizeInBytes)})
	p.currentOffset += uint64(sizeInBytes)
	return buffer, nil
}

func (p *VertexBufferPool) GetTotalBytes() uint64     { return p.poolSize }
func (p *VertexBufferPool) GetUsedBytes() uint64      { return p.currentOffset }
func (p *VertexBufferPool) GetAvailableBytes() uint64 { return p.poolSize - p.currentOffset }

// GetPoolBuffer exposes the committed buffer for passes that bind the
// whole pool as a shader resource.
func (p *VertexBufferPool) GetPoolBuffer() VertexBuffer { return p.pool }

// IndexBufferPool is the index-stream counterpart of VertexBufferPool.
type IndexBufferPool struct {
	device Device

	poolSize      uint64
	pool          IndexBuffer
	currentOffset uint64
	items         []BufferPoolItem
}

// NewIndexBufferPool creates the committed pool buffer. Views carry their
// own index format; the pool itself is typeless (R32Uint backing).
func NewIndexBufferPool(device Device, totalBytes uint64) (*IndexBufferPool, error) {
	pool, err := device.CreateIndexBuffer(uint32(totalBytes), PixelFormatR32Uint, "GlobalIndexBufferPool")
	if err != nil {
		return nil, fmt.Errorf("create index buffer pool: %w", err)
	}
	logPool.Infof("Index buffer pool: %.2f MiB", float64(totalBytes)/(1024.0*1024.0))
	return &IndexBufferPool{device: device, poolSize: totalBytes, pool: pool}, nil
}

// Suballocate returns a view over the next sizeInBytes of the pool.
func (p *IndexBufferPool) Suballocate(sizeInBytes uint32, format PixelFormat) (IndexBuffer, error) {
	if p.currentOffset+uint64(sizeInBytes) > p.poolSize {
		return nil, fmt.Errorf("%w: index pool %d/%d bytes used, requested %d",
			ErrOutOfPoolMemory, p.currentOffset, p.poolSize, sizeInBytes)
	}
	buffer, err := p.device.CreateIndexBufferWithinPool(p.pool, p.currentOffset, sizeInBytes, format)
	if err != nil {
		return nil, err
	}
	p.items = append(p.items, BufferPoolItem{Offset: p.currentOffset, Size: uint64(sizeInBytes)})
	p.currentOffset += uint64(sizeInBytes)
	return buffer, nil
}

func (p *IndexBufferPool) GetTotalBytes() uint64     { return p.poolSize }
func (p *IndexBufferPool) GetUsedBytes() uint64      { return p.currentOffset }
func (p *IndexBufferPool) GetAvailableBytes() uint64 { return p.poolSize - p.currentOffset }
func (p *IndexBufferPool) GetPoolBuffer() IndexBuffer { return p.pool }
