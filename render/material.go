package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/codeonwort/cyseal/core"
	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/world"
)

// MaterialConstantsSizeInBytes is the payload size of one shader-visible
// material record. The backing memory stride is 256 bytes (CBV alignment).
const MaterialConstantsSizeInBytes = 64

const materialConstantsStride = 256

// MaterialConstants is the per-frame shader-visible material record.
// AlbedoTextureIndex addresses the SRV region of the bindless table.
type MaterialConstants struct {
	AlbedoMultiplier   mgl32.Vec3
	Roughness          float32
	AlbedoTextureIndex uint32
	Emission           mgl32.Vec3
	MetalMask          float32
	MaterialID         uint32
	IndexOfRefraction  float32
	Transmittance      mgl32.Vec3
}

// Encode writes the record with its exact GPU layout:
//
//	 0  float[3] albedoMultiplier
//	12  float    roughness
//	16  uint32   albedoTextureIndex
//	20  float[3] emission
//	32  float    metalMask
//	36  uint32   materialID
//	40  float    indexOfRefraction
//	44  uint32   pad
//	48  float[3] transmittance
//	60  uint32   pad
func (mc *MaterialConstants) Encode(dst []byte) {
	_ = dst[MaterialConstantsSizeInBytes-1]
	core.PutVec3(dst[0:], mc.AlbedoMultiplier)
	binary.LittleEndian.PutUint32(dst[12:], math.Float32bits(mc.Roughness))
	binary.LittleEndian.PutUint32(dst[16:], mc.AlbedoTextureIndex)
	core.PutVec3(dst[20:], mc.Emission)
	binary.LittleEndian.PutUint32(dst[32:], math.Float32bits(mc.MetalMask))
	binary.LittleEndian.PutUint32(dst[36:], mc.MaterialID)
	binary.LittleEndian.PutUint32(dst[40:], math.Float32bits(mc.IndexOfRefraction))
	binary.LittleEndian.PutUint32(dst[44:], 0)
	core.PutVec3(dst[48:], mc.Transmittance)
	binary.LittleEndian.PutUint32(dst[60:], 0)
}

// DecodeMaterialConstants reads a record written by Encode, for tests.
func DecodeMaterialConstants(src []byte) MaterialConstants {
	return MaterialConstants{
		AlbedoMultiplier:   core.GetVec3(src[0:]),
		Roughness:          math.Float32frombits(binary.LittleEndian.Uint32(src[12:])),
		AlbedoTextureIndex: binary.LittleEndian.Uint32(src[16:]),
		Emission:           core.GetVec3(src[20:]),
		MetalMask:          math.Float32frombits(binary.LittleEndian.Uint32(src[32:])),
		MaterialID:         binary.LittleEndian.Uint32(src[36:]),
		IndexOfRefraction:  math.Float32frombits(binary.LittleEndian.Uint32(src[40:])),
		Transmittance:      core.GetVec3(src[48:]),
	}
}

// MaterialDescriptorLayout reports where CopyMaterialDescriptors placed
// the bindless regions inside a pass's volatile heap.
type MaterialDescriptorLayout struct {
	CBVBaseIndex       uint32
	CBVCount           uint32
	SRVBaseIndex       uint32
	SRVCount           uint32
	NextAvailableIndex uint32
}

// BindlessMaterialTable maintains two CPU-only heaps: a CBV heap split into
// one partition per swap-chain buffer, and a single SRV heap rewritten each
// frame. Every mesh section gets one CBV and one SRV; neither materials nor
// textures are deduplicated, so duplicates produce duplicate entries.
type BindlessMaterialTable struct {
	device         rhi.Device
	swapchainCount uint32

	maxCBVCount uint32
	maxSRVCount uint32

	cbvMemory rhi.Buffer
	cbvHeap   rhi.DescriptorHeap
	srvHeap   rhi.DescriptorHeap

	cbvsPerFrame [][]rhi.ConstantBufferView

	currentCBVCount uint32
	currentSRVCount uint32
}

// NewBindlessMaterialTable sizes the table for maxMaterials entries.
func NewBindlessMaterialTable(device rhi.Device, maxMaterials uint32) (*BindlessMaterialTable, error) {
	t := &BindlessMaterialTable{
		device:         device,
		swapchainCount: device.GetSwapChain().GetBufferCount(),
	}
	if err := t.resizeMaterialBuffers(maxMaterials, maxMaterials); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *BindlessMaterialTable) resizeMaterialBuffers(maxCBVCount, maxSRVCount uint32) error {
	t.maxCBVCount = maxCBVCount
	t.maxSRVCount = maxSRVCount

	poolSize := core.AlignBytes(materialConstantsStride*maxCBVCount*t.swapchainCount, 65536)
	logGPUScene.Infof("Resize material constants memory: %d bytes (%.3f MiB)",
		poolSize, float64(poolSize)/(1024.0*1024.0))

	memory, err := t.device.CreateBuffer(rhi.BufferCreateParams{
		SizeInBytes: poolSize,
		AccessFlags: rhi.BufferAccessCPUWrite | rhi.BufferAccessCBV,
	})
	if err != nil {
		return fmt.Errorf("create material constants memory: %w", err)
	}
	memory.SetDebugName("Buffer_MaterialConstants")
	t.cbvMemory = memory

	t.cbvHeap, err = t.device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeCBV,
		NumDescriptors: maxCBVCount * t.swapchainCount,
	})
	if err != nil {
		return fmt.Errorf("create material CBV heap: %w", err)
	}
	t.cbvHeap.SetDebugName("MaterialCBVHeap")

	t.srvHeap, err = t.device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeSRV,
		NumDescriptors: maxSRVCount,
	})
	if err != nil {
		return fmt.Errorf("create material SRV heap: %w", err)
	}
	t.srvHeap.SetDebugName("MaterialSRVHeap")

	// Contiguous CBVs over per-frame partitions of the backing memory.
	t.cbvsPerFrame = make([][]rhi.ConstantBufferView, t.swapchainCount)
	var memoryOffset uint64
	for frame := uint32(0); frame < t.swapchainCount; frame++ {
		cbvs := make([]rhi.ConstantBufferView, maxCBVCount)
		for i := range cbvs {
			cbv, err := t.device.CreateCBV(t.cbvMemory, t.cbvHeap, MaterialConstantsSizeInBytes, memoryOffset)
			if err != nil {
				return fmt.Errorf("create material CBV: %w", err)
			}
			cbvs[i] = cbv
			memoryOffset += materialConstantsStride
		}
		t.cbvsPerFrame[frame] = cbvs
	}
	return nil
}

// EnsureCapacity grows the table when a frame needs more entries.
func (t *BindlessMaterialTable) EnsureCapacity(numMaterials uint32) error {
	if numMaterials <= t.maxCBVCount {
		return nil
	}
	return t.resizeMaterialBuffers(core.NextPowerOfTwo(numMaterials), core.NextPowerOfTwo(numMaterials))
}

// UpdateMaterials rebuilds this frame's CBV/SRV entries from the proxy,
// one entry per mesh section. A section without an albedo texture falls
// back to the grey system texture.
func (t *BindlessMaterialTable) UpdateMaterials(cmdList rhi.CommandList, swapchainIndex uint32, proxy *world.SceneProxy) error {
	if err := t.EnsureCapacity(proxy.TotalMeshSectionsLOD0); err != nil {
		return err
	}

	t.currentCBVCount = 0
	t.currentSRVCount = 0

	cmdList.BeginEvent(fmt.Sprintf("UpdateMaterialBuffer (count=%d)", proxy.TotalMeshSectionsLOD0))
	defer cmdList.EndEvent()

	tm := rhi.GetTextureManager()
	cbvs := t.cbvsPerFrame[swapchainIndex]
	var payload [MaterialConstantsSizeInBytes]byte

	for _, mesh := range proxy.StaticMeshes {
		for i := range mesh.LOD.Sections {
			section := &mesh.LOD.Sections[i]
			material := section.Material

			albedo := tm.GetSystemTextureGrey2D()
			if material != nil && material.AlbedoTexture != nil && material.AlbedoTexture.GetGPUResource() != nil {
				albedo = material.AlbedoTexture.GetGPUResource()
			}
			t.device.CopyDescriptors(1,
				t.srvHeap, t.currentSRVCount,
				tm.GetGlobalSRVHeap(), albedo.GetSRVDescriptorIndex())

			constants := MaterialConstants{
				AlbedoMultiplier:   mgl32.Vec3{1, 1, 1},
				Roughness:          1,
				AlbedoTextureIndex: t.currentSRVCount,
				IndexOfRefraction:  1,
			}
			if material != nil {
				constants.AlbedoMultiplier = material.AlbedoMultiplier
				constants.Roughness = material.Roughness
				constants.Emission = material.Emission
				constants.MetalMask = material.MetalMask
				constants.MaterialID = uint32(material.ID)
				constants.IndexOfRefraction = material.IndexOfRefraction
				constants.Transmittance = material.Transmittance
			}
			constants.Encode(payload[:])
			cbvs[t.currentCBVCount].WriteToGPU(cmdList, payload[:])

			t.currentCBVCount++
			t.currentSRVCount++
		}
	}
	return nil
}

// QueryDescriptorCounts reports this frame's entry counts.
func (t *BindlessMaterialTable) QueryDescriptorCounts() (cbvCount, srvCount uint32) {
	return t.currentCBVCount, t.currentSRVCount
}

// CopyMaterialDescriptors lays the bindless regions out contiguously as
// [CBVs | SRVs] in a pass's volatile heap starting at destBaseIndex.
func (t *BindlessMaterialTable) CopyMaterialDescriptors(swapchainIndex uint32, destHeap rhi.DescriptorHeap, destBaseIndex uint32) MaterialDescriptorLayout {
	layout := MaterialDescriptorLayout{
		CBVBaseIndex: destBaseIndex,
		CBVCount:     t.currentCBVCount,
		SRVBaseIndex: destBaseIndex + t.currentCBVCount,
		SRVCount:     t.currentSRVCount,
	}
	layout.NextAvailableIndex = layout.SRVBaseIndex + layout.SRVCount

	if t.currentCBVCount > 0 {
		firstCBV := t.cbvsPerFrame[swapchainIndex][0]
		t.device.CopyDescriptors(t.currentCBVCount,
			destHeap, layout.CBVBaseIndex,
			t.cbvHeap, firstCBV.DescriptorIndex())
	}
	if t.currentSRVCount > 0 {
		t.device.CopyDescriptors(t.currentSRVCount,
			destHeap, layout.SRVBaseIndex,
			t.srvHeap, 0)
	}
	return layout
}
