package world

import (
	"github.com/google/uuid"

	"github.com/codeonwort/cyseal/rhi"
)

// AssetID uniquely names an application-side asset.
type AssetID string

func makeAssetID() AssetID {
	return AssetID(uuid.NewString())
}

// TextureAsset wraps a GPU texture behind a stable asset identity. The
// GPU resource may arrive later, once the render thread has processed the
// creation command.
type TextureAsset struct {
	id  AssetID
	gpu rhi.Texture
}

func NewTextureAsset() *TextureAsset {
	return &TextureAsset{id: makeAssetID()}
}

func (a *TextureAsset) ID() AssetID                  { return a.id }
func (a *TextureAsset) SetGPUResource(t rhi.Texture) { a.gpu = t }
func (a *TextureAsset) GetGPUResource() rhi.Texture  { return a.gpu }

// VertexBufferAsset wraps a pool-backed vertex buffer.
type VertexBufferAsset struct {
	id  AssetID
	gpu rhi.VertexBuffer
}

func (a *VertexBufferAsset) ID() AssetID                       { return a.id }
func (a *VertexBufferAsset) SetGPUResource(b rhi.VertexBuffer) { a.gpu = b }
func (a *VertexBufferAsset) GetGPUResource() rhi.VertexBuffer  { return a.gpu }

// NewVertexBufferAsset suballocates from pool and uploads data on the
// render thread. data is moved into the render command; the caller must
// not mutate it afterwards.
func NewVertexBufferAsset(pool *rhi.VertexBufferPool, data []byte, stride uint32) *VertexBufferAsset {
	asset := &VertexBufferAsset{id: makeAssetID()}
	size := uint32(len(data))
	rhi.EnqueueRenderCommand("CreateVertexBuffer", func(cmdList rhi.CommandList) {
		buffer, err := pool.Suballocate(size)
		if err != nil {
			panic(err)
		}
		buffer.UpdateData(cmdList, data, stride)
		asset.gpu = buffer
	})
	return asset
}

// IndexBufferAsset wraps a pool-backed index buffer.
type IndexBufferAsset struct {
	id  AssetID
	gpu rhi.IndexBuffer
}

func (a *IndexBufferAsset) ID() AssetID                      { return a.id }
func (a *IndexBufferAsset) SetGPUResource(b rhi.IndexBuffer) { a.gpu = b }
func (a *IndexBufferAsset) GetGPUResource() rhi.IndexBuffer  { return a.gpu }

// NewIndexBufferAsset suballocates from pool and uploads data on the
// render thread.
func NewIndexBufferAsset(pool *rhi.IndexBufferPool, data []byte, format rhi.PixelFormat) *IndexBufferAsset {
	asset := &IndexBufferAsset{id: makeAssetID()}
	size := uint32(len(data))
	stride := format.BytesPerPixel()
	rhi.EnqueueRenderCommand("CreateIndexBuffer", func(cmdList rhi.CommandList) {
		buffer, err := pool.Suballocate(size, format)
		if err != nil {
			panic(err)
		}
		buffer.UpdateData(cmdList, data, stride)
		asset.gpu = buffer
	})
	return asset
}
