package rhi

// ASPrebuildInfo reports conservative sizes for an acceleration structure
// build. Scratch and result buffers must be at least this large.
type ASPrebuildInfo struct {
	ScratchDataSizeInBytes   uint64
	ResultDataMaxSizeInBytes uint64
}

// BLASGeometryDesc describes one triangle geometry feeding a BLAS.
type BLASGeometryDesc struct {
	PositionBuffer VertexBuffer
	IndexBuffer    IndexBuffer
	// Transform is a 3x4 row-major object transform applied at build time.
	Transform [12]float32
	Opaque    bool
}

// BLASBuildDesc is one recorded bottom-level build.
type BLASBuildDesc struct {
	Geometry      *BLASGeometryDesc
	ScratchBuffer Buffer
	ResultBuffer  Buffer
}

// RaytracingInstanceDesc is the per-instance record in the TLAS instance
// buffer: 3x4 transform, IDs, and the BLAS result address.
type RaytracingInstanceDesc struct {
	Transform [12]float32
	// InstanceID is user data surfaced to hit shaders.
	InstanceID uint32
	Mask       uint32
	// ContributionToHitGroupIndex selects the hit group; the manager uses
	// the BLAS index.
	ContributionToHitGroupIndex uint32
	BLASResultBuffer            Buffer
}

// TLASBuildDesc is one recorded top-level build over NumInstances entries
// of the persistently mapped instance-desc buffer.
type TLASBuildDesc struct {
	InstanceDescBuffer Buffer
	NumInstances       uint32
	ScratchBuffer      Buffer
	ResultBuffer       Buffer
}

// DispatchRaysDesc launches a raytracing grid.
type DispatchRaysDesc struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// AccelerationStructure wraps a built result buffer plus the SRV that
// raytracing passes bind.
type AccelerationStructure interface {
	GetSRV() ShaderResourceView
	GetResultBuffer() Buffer
}
