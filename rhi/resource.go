package rhi

// GPUResource is the common surface of buffers and textures.
type GPUResource interface {
	SetDebugName(name string)
	GetDebugName() string
}

// BufferCreateParams parameterize committed buffer creation.
type BufferCreateParams struct {
	SizeInBytes uint32
	Alignment   uint32
	AccessFlags BufferAccessFlags
}

// Buffer is a committed GPU buffer, or a thin view into a pool buffer.
type Buffer interface {
	GPUResource

	GetCreateParams() BufferCreateParams

	// UpdateData records an upload-heap copy of data into the buffer plus
	// the surrounding layout transitions. The stride is remembered on the
	// first call and must match on subsequent calls.
	UpdateData(cmdList CommandList, data []byte, stride uint32)

	// SingleWriteToGPU overwrites a CPU-writable buffer's contents during
	// the frame. Only valid for buffers created with BufferAccessCPUWrite.
	SingleWriteToGPU(cmdList CommandList, data []byte, destOffsetInBytes uint32)

	// GetBufferOffsetInBytes is the byte offset inside the parent pool
	// buffer for pool-backed views, 0 for committed buffers.
	GetBufferOffsetInBytes() uint64
}

// VertexBuffer is a buffer bound through the input assembler as a vertex
// stream. Pool-backed instances reference the pool's committed resource.
type VertexBuffer interface {
	Buffer

	GetVertexStride() uint32
	GetVertexCount() uint32
}

// IndexBuffer is a buffer bound through the input assembler as indices.
type IndexBuffer interface {
	Buffer

	GetIndexFormat() PixelFormat
	GetIndexCount() uint32
}

// TextureCreateParams parameterize texture creation.
type TextureCreateParams struct {
	Dimension   TextureDimension
	Format      PixelFormat
	AccessFlags TextureAccessFlags
	Width       uint32
	Height      uint32
	Depth       uint32
	MipLevels   uint32
	SampleCount uint32
	NumLayers   uint32
	// OptimalClearColor seeds RTV fast clears.
	OptimalClearColor [4]float32
	OptimalClearDepth float32
}

// Texture2D returns params for a basic 2D texture.
func Texture2D(format PixelFormat, access TextureAccessFlags, width, height, mipLevels uint32) TextureCreateParams {
	return TextureCreateParams{
		Dimension:   TextureDimension2D,
		Format:      format,
		AccessFlags: access,
		Width:       width,
		Height:      height,
		Depth:       1,
		MipLevels:   mipLevels,
		SampleCount: 1,
		NumLayers:   1,
	}
}

// Texture3D returns params for a volume texture.
func Texture3D(format PixelFormat, access TextureAccessFlags, width, height, depth, mipLevels uint32) TextureCreateParams {
	return TextureCreateParams{
		Dimension:   TextureDimension3D,
		Format:      format,
		AccessFlags: access,
		Width:       width,
		Height:      height,
		Depth:       depth,
		MipLevels:   mipLevels,
		SampleCount: 1,
		NumLayers:   1,
	}
}

// TextureCube returns params for a cubemap. Cubes are six array layers.
func TextureCube(format PixelFormat, access TextureAccessFlags, width, height, mipLevels uint32) TextureCreateParams {
	return TextureCreateParams{
		Dimension:   TextureDimensionCube,
		Format:      format,
		AccessFlags: access,
		Width:       width,
		Height:      height,
		Depth:       1,
		MipLevels:   mipLevels,
		SampleCount: 1,
		NumLayers:   6,
	}
}

// Texture is a GPU image resource.
type Texture interface {
	GPUResource

	GetCreateParams() TextureCreateParams

	// UploadData records an upload of one subresource.
	UploadData(cmdList CommandList, data []byte, rowPitch, slicePitch uint64, subresourceIndex uint32)

	// ReadbackData copies the first subresource into dst. Backends without
	// readback support return ErrNotSupported.
	ReadbackData(dst []byte) error

	// Views are created lazily from the global texture manager heaps.
	GetSRV() ShaderResourceView
	GetRTV() RenderTargetView
	GetDSV() DepthStencilView
	GetUAV() UnorderedAccessView

	// GetSRVDescriptorIndex returns the slot of GetSRV in the global SRV
	// heap, for bindless binding.
	GetSRVDescriptorIndex() uint32
}
