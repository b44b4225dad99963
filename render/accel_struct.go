package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/world"
)

// raytracingInstanceDescSize is the packed stride of one instance record
// in the persistently mapped instance-desc buffer.
const raytracingInstanceDescSize = 64

// AccelStructManager owns the raytracing scene: one BLAS per mesh section
// plus the TLAS instancing them. Scratch and result buffers are sized from
// device prebuild info; the instance-desc buffer stays mapped for the
// process lifetime so TLAS-only updates just rewrite transforms.
type AccelStructManager struct {
	device rhi.Device

	blasScratch []rhi.Buffer
	blasResult  []rhi.Buffer

	instanceTransforms []mgl32.Mat4
	instanceDescBuffer rhi.Buffer
	numInstances       uint32

	tlasScratch rhi.Buffer
	tlasResult  rhi.Buffer
	tlas        rhi.AccelerationStructure
}

// NewAccelStructManager fails on devices without raytracing support.
func NewAccelStructManager(device rhi.Device) (*AccelStructManager, error) {
	if device.GetRaytracingTier() == rhi.RaytracingTierNotSupported {
		return nil, rhi.ErrNotSupported
	}
	return &AccelStructManager{device: device}, nil
}

// GetTLAS is nil until the first BuildScene.
func (m *AccelStructManager) GetTLAS() rhi.AccelerationStructure { return m.tlas }

// NumInstances equals the BLAS count.
func (m *AccelStructManager) NumInstances() uint32 { return m.numInstances }

// InstanceDescBufferForTest exposes the mapped instance-desc buffer.
func (m *AccelStructManager) InstanceDescBufferForTest() rhi.Buffer { return m.instanceDescBuffer }

// BuildScene rebuilds every BLAS and the TLAS from the proxy's LOD0
// sections. Called when the proxy requests a raytracing scene rebuild.
func (m *AccelStructManager) BuildScene(cmdList rhi.CommandList, proxy *world.SceneProxy) error {
	cmdList.BeginEvent("BuildRaytracingScene")
	defer cmdList.EndEvent()

	type geometryRef struct {
		section   *world.StaticMeshSection
		transform mgl32.Mat4
	}
	var geometries []geometryRef
	for _, mesh := range proxy.StaticMeshes {
		for i := range mesh.LOD.Sections {
			geometries = append(geometries, geometryRef{
				section:   &mesh.LOD.Sections[i],
				transform: mesh.LocalToWorld,
			})
		}
	}

	m.numInstances = uint32(len(geometries))
	m.blasScratch = make([]rhi.Buffer, 0, len(geometries))
	m.blasResult = make([]rhi.Buffer, 0, len(geometries))
	m.instanceTransforms = make([]mgl32.Mat4, 0, len(geometries))

	if m.numInstances == 0 {
		return nil
	}

	// Persistent instance-desc buffer, grown only when instances appear.
	requiredDescBytes := uint32(m.numInstances) * raytracingInstanceDescSize
	if m.instanceDescBuffer == nil || m.instanceDescBuffer.GetCreateParams().SizeInBytes < requiredDescBytes {
		buffer, err := m.device.CreateBuffer(rhi.BufferCreateParams{
			SizeInBytes: requiredDescBytes,
			AccessFlags: rhi.BufferAccessCPUWrite,
		})
		if err != nil {
			return fmt.Errorf("create instance desc buffer: %w", err)
		}
		buffer.SetDebugName("Buffer_RTInstanceDescs")
		m.instanceDescBuffer = buffer
	}

	instanceDescs := make([]byte, requiredDescBytes)

	for i, geom := range geometries {
		desc := &rhi.BLASGeometryDesc{
			PositionBuffer: geom.section.PositionBuffer.GetGPUResource(),
			IndexBuffer:    geom.section.IndexBuffer.GetGPUResource(),
			Transform:      mat4ToRowMajor3x4(geom.transform),
			Opaque:         true,
		}
		prebuild := m.device.GetBLASPrebuildInfo(desc)

		scratch, err := m.device.CreateBuffer(rhi.BufferCreateParams{
			SizeInBytes: uint32(prebuild.ScratchDataSizeInBytes),
			AccessFlags: rhi.BufferAccessUAV,
		})
		if err != nil {
			return fmt.Errorf("create BLAS scratch %d: %w", i, err)
		}
		scratch.SetDebugName(fmt.Sprintf("Buffer_BLASScratch_%d", i))

		result, err := m.device.CreateBuffer(rhi.BufferCreateParams{
			SizeInBytes: uint32(prebuild.ResultDataMaxSizeInBytes),
			AccessFlags: rhi.BufferAccessUAV,
		})
		if err != nil {
			return fmt.Errorf("create BLAS result %d: %w", i, err)
		}
		result.SetDebugName(fmt.Sprintf("Buffer_BLASResult_%d", i))

		m.blasScratch = append(m.blasScratch, scratch)
		m.blasResult = append(m.blasResult, result)
		m.instanceTransforms = append(m.instanceTransforms, geom.transform)

		encodeInstanceDesc(instanceDescs[i*raytracingInstanceDescSize:], &rhi.RaytracingInstanceDesc{
			Transform:                   mat4ToRowMajor3x4(geom.transform),
			InstanceID:                  uint32(i),
			Mask:                        1,
			ContributionToHitGroupIndex: uint32(i),
			BLASResultBuffer:            result,
		})

		cmdList.BuildBLAS(&rhi.BLASBuildDesc{
			Geometry:      desc,
			ScratchBuffer: scratch,
			ResultBuffer:  result,
		})
	}

	// All BLAS builds must land before the TLAS consumes them.
	barriers := make([]rhi.ResourceBarrier, len(m.blasResult))
	for i, result := range m.blasResult {
		barriers[i] = rhi.ResourceBarrier{Type: rhi.BarrierTypeUAV, Resource: result}
	}
	cmdList.ResourceBarriers(barriers)

	m.instanceDescBuffer.SingleWriteToGPU(cmdList, instanceDescs, 0)

	tlasPrebuild := m.device.GetTLASPrebuildInfo(m.numInstances)
	var err error
	m.tlasScratch, err = m.device.CreateBuffer(rhi.BufferCreateParams{
		SizeInBytes: uint32(tlasPrebuild.ScratchDataSizeInBytes),
		AccessFlags: rhi.BufferAccessUAV,
	})
	if err != nil {
		return fmt.Errorf("create TLAS scratch: %w", err)
	}
	m.tlasScratch.SetDebugName("Buffer_TLASScratch")

	m.tlasResult, err = m.device.CreateBuffer(rhi.BufferCreateParams{
		SizeInBytes: uint32(tlasPrebuild.ResultDataMaxSizeInBytes),
		AccessFlags: rhi.BufferAccessUAV,
	})
	if err != nil {
		return fmt.Errorf("create TLAS result: %w", err)
	}
	m.tlasResult.SetDebugName("Buffer_TLASResult")

	cmdList.BuildTLAS(&rhi.TLASBuildDesc{
		InstanceDescBuffer: m.instanceDescBuffer,
		NumInstances:       m.numInstances,
		ScratchBuffer:      m.tlasScratch,
		ResultBuffer:       m.tlasResult,
	})

	m.tlas, err = m.device.CreateAccelerationStructure(m.tlasResult, rhi.GetTextureManager().GetGlobalSRVHeap())
	if err != nil {
		return fmt.Errorf("wrap TLAS: %w", err)
	}
	return nil
}

// InstanceTransformUpdate rewrites one instance's transform.
type InstanceTransformUpdate struct {
	InstanceIndex uint32
	Transform     mgl32.Mat4
}

// RebuildTLAS is the cheap update path: rewrite mapped instance
// transforms and rebuild the TLAS with the same scratch.
func (m *AccelStructManager) RebuildTLAS(cmdList rhi.CommandList, updates []InstanceTransformUpdate) {
	if m.numInstances == 0 || m.tlasScratch == nil {
		return
	}
	cmdList.BeginEvent("RebuildTLAS")
	defer cmdList.EndEvent()

	var scratch [48]byte
	for _, update := range updates {
		if update.InstanceIndex >= m.numInstances {
			continue
		}
		m.instanceTransforms[update.InstanceIndex] = update.Transform
		encodeTransform3x4(scratch[:], mat4ToRowMajor3x4(update.Transform))
		m.instanceDescBuffer.SingleWriteToGPU(cmdList, scratch[:],
			update.InstanceIndex*raytracingInstanceDescSize)
	}

	cmdList.BuildTLAS(&rhi.TLASBuildDesc{
		InstanceDescBuffer: m.instanceDescBuffer,
		NumInstances:       m.numInstances,
		ScratchBuffer:      m.tlasScratch,
		ResultBuffer:       m.tlasResult,
	})
}

// mat4ToRowMajor3x4 drops the last row of a column-major matrix and
// re-orders into the row-major 3x4 layout instance descs use.
func mat4ToRowMajor3x4(m mgl32.Mat4) [12]float32 {
	var out [12]float32
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			out[row*4+col] = m.At(row, col)
		}
	}
	return out
}

func encodeTransform3x4(dst []byte, transform [12]float32) {
	for i, f := range transform {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

func encodeInstanceDesc(dst []byte, desc *rhi.RaytracingInstanceDesc) {
	encodeTransform3x4(dst[0:], desc.Transform)
	binary.LittleEndian.PutUint32(dst[48:], desc.InstanceID)
	binary.LittleEndian.PutUint32(dst[52:], desc.Mask)
	binary.LittleEndian.PutUint32(dst[56:], desc.ContributionToHitGroupIndex)
	binary.LittleEndian.PutUint32(dst[60:], 0)
}
