package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/codeonwort/cyseal/core"
)

// GPUResidencyPhase tracks a mesh's state against the GPU scene buffer.
type GPUResidencyPhase int

const (
	ResidencyNotAllocated GPUResidencyPhase = iota
	ResidencyAllocated
	ResidencyNeedToEvict
	ResidencyNeedToReallocate
	ResidencyNeedToUpdate
)

// GPUSceneResidency is the per-mesh record of its scene-buffer slots,
// one item index per section of the active LOD.
type GPUSceneResidency struct {
	Phase GPUResidencyPhase
	// ItemIndices are 0-based scene buffer slots. The allocator hands out
	// 1-based numbers; the stored value is allocate()-1.
	ItemIndices []uint32
}

// StaticMeshSection references shared geometry streams and a material.
type StaticMeshSection struct {
	PositionBuffer    *VertexBufferAsset
	NonPositionBuffer *VertexBufferAsset
	IndexBuffer       *IndexBufferAsset
	Material          *MaterialAsset
	LocalBounds       core.AABB
}

// StaticMeshLOD is an ordered list of sections.
type StaticMeshLOD struct {
	Sections []StaticMeshSection
}

// StaticMesh is a world-space entity: a transform, LOD chain, and the GPU
// residency record the renderer drives. The mesh exclusively owns its LOD
// and section records; streams and materials are shared.
type StaticMesh struct {
	transform       Transform
	prevModelMatrix mgl32.Mat4

	lods      []StaticMeshLOD
	activeLOD uint32

	transformDirtyCounter uint32
	lodDirty              bool

	residency GPUSceneResidency
}

// NewStaticMesh returns an empty mesh at the origin.
func NewStaticMesh() *StaticMesh {
	return &StaticMesh{
		transform:       NewTransform(),
		prevModelMatrix: mgl32.Ident4(),
	}
}

// AddSection appends a section to the given LOD, growing the chain.
func (sm *StaticMesh) AddSection(lod uint32,
	positionBuffer, nonPositionBuffer *VertexBufferAsset,
	indexBuffer *IndexBufferAsset,
	material *MaterialAsset,
	localBounds core.AABB,
) {
	for uint32(len(sm.lods)) <= lod {
		sm.lods = append(sm.lods, StaticMeshLOD{})
	}
	sm.lods[lod].Sections = append(sm.lods[lod].Sections, StaticMeshSection{
		PositionBuffer:    positionBuffer,
		NonPositionBuffer: nonPositionBuffer,
		IndexBuffer:       indexBuffer,
		Material:          material,
		LocalBounds:       localBounds,
	})
}

func (sm *StaticMesh) GetNumLODs() uint32 { return uint32(len(sm.lods)) }

// GetSections returns the section list of one LOD.
func (sm *StaticMesh) GetSections(lod uint32) []StaticMeshSection {
	if lod >= uint32(len(sm.lods)) {
		return nil
	}
	return sm.lods[lod].Sections
}

func (sm *StaticMesh) GetActiveLOD() uint32 { return sm.activeLOD }

// SetActiveLOD marks the mesh for reallocation when the LOD changes.
func (sm *StaticMesh) SetActiveLOD(lod uint32) {
	if len(sm.lods) == 0 {
		return
	}
	if lod >= uint32(len(sm.lods)) {
		lod = uint32(len(sm.lods)) - 1
	}
	if lod != sm.activeLOD {
		sm.activeLOD = lod
		sm.lodDirty = true
	}
}

func (sm *StaticMesh) GetPosition() mgl32.Vec3 { return sm.transform.Position }

func (sm *StaticMesh) SetPosition(p mgl32.Vec3) {
	sm.transform.Position = p
	sm.transformDirtyCounter++
}

func (sm *StaticMesh) SetRotation(q mgl32.Quat) {
	sm.transform.Rotation = q
	sm.transformDirtyCounter++
}

func (sm *StaticMesh) SetScale(s mgl32.Vec3) {
	sm.transform.Scale = s
	sm.transformDirtyCounter++
}

// GetTransformMatrix is the current localToWorld.
func (sm *StaticMesh) GetTransformMatrix() mgl32.Mat4 { return sm.transform.GetMatrix() }

// GetPrevTransformMatrix is last frame's localToWorld.
func (sm *StaticMesh) GetPrevTransformMatrix() mgl32.Mat4 { return sm.prevModelMatrix }

// IsTransformDirty also catches mutation through the transform itself.
func (sm *StaticMesh) IsTransformDirty() bool {
	return sm.transformDirtyCounter > 0 || sm.prevModelMatrix != sm.transform.GetMatrix()
}

func (sm *StaticMesh) clearDirtyFlags() {
	sm.transformDirtyCounter = 0
	sm.lodDirty = false
}

func (sm *StaticMesh) savePrevTransform() {
	sm.prevModelMatrix = sm.transform.GetMatrix()
}

// GetResidency exposes the residency record for inspection.
func (sm *StaticMesh) GetResidency() *GPUSceneResidency { return &sm.residency }

// markForEviction is called when the mesh leaves the scene.
func (sm *StaticMesh) markForEviction() {
	if sm.residency.Phase == ResidencyAllocated ||
		sm.residency.Phase == ResidencyNeedToUpdate ||
		sm.residency.Phase == ResidencyNeedToReallocate {
		sm.residency.Phase = ResidencyNeedToEvict
	}
}

// sectionSceneItem builds the shader-visible record for one section.
func (sm *StaticMesh) sectionSceneItem(section *StaticMeshSection) SceneItem {
	return SceneItem{
		LocalToWorld:            sm.transform.GetMatrix(),
		PrevLocalToWorld:        sm.prevModelMatrix,
		LocalMinBounds:          section.LocalBounds.MinBounds,
		PositionBufferOffset:    uint32(section.PositionBuffer.GetGPUResource().GetBufferOffsetInBytes()),
		LocalMaxBounds:          section.LocalBounds.MaxBounds,
		NonPositionBufferOffset: uint32(section.NonPositionBuffer.GetGPUResource().GetBufferOffsetInBytes()),
		IndexBufferOffset:       uint32(section.IndexBuffer.GetGPUResource().GetBufferOffsetInBytes()),
		Flags:                   SceneItemFlagValid,
	}
}

// UpdateGPUSceneResidency computes this frame's phase transition and emits
// the matching scene commands into the proxy. Called once per frame at
// proxy creation. Scene item indices come from the scene-wide allocator;
// the stored slot is the 1-based allocation minus one.
func (sm *StaticMesh) UpdateGPUSceneResidency(proxy *SceneProxy, itemAllocator *core.FreeNumberList) {
	sections := sm.GetSections(sm.activeLOD)
	numSections := len(sections)

	if sm.residency.Phase == ResidencyAllocated {
		switch {
		case sm.lodDirty || numSections != len(sm.residency.ItemIndices):
			sm.residency.Phase = ResidencyNeedToReallocate
		case sm.IsTransformDirty():
			sm.residency.Phase = ResidencyNeedToUpdate
		}
	}

	emitAllocs := func() {
		sm.residency.ItemIndices = make([]uint32, numSections)
		for i := range sections {
			itemIx := itemAllocator.Allocate() - 1
			sm.residency.ItemIndices[i] = itemIx
			proxy.GPUSceneAllocCommands = append(proxy.GPUSceneAllocCommands, GPUSceneAllocCommand{
				SceneItemIndex: itemIx,
				SceneItem:      sm.sectionSceneItem(&sections[i]),
			})
		}
	}
	emitEvicts := func() {
		for _, itemIx := range sm.residency.ItemIndices {
			itemAllocator.Deallocate(itemIx + 1)
			proxy.GPUSceneEvictCommands = append(proxy.GPUSceneEvictCommands, GPUSceneEvictCommand{
				SceneItemIndex: itemIx,
			})
		}
	}

	switch sm.residency.Phase {
	case ResidencyNotAllocated:
		// GPU resources may still be in flight on the render thread.
		for i := range sections {
			s := &sections[i]
			if s.PositionBuffer.GetGPUResource() == nil ||
				s.NonPositionBuffer.GetGPUResource() == nil ||
				s.IndexBuffer.GetGPUResource() == nil {
				return
			}
		}
		emitAllocs()
		sm.residency.Phase = ResidencyAllocated

	case ResidencyAllocated:
		// Nothing changed.

	case ResidencyNeedToEvict:
		emitEvicts()
		sm.residency.Phase = ResidencyNotAllocated
		sm.residency.ItemIndices = nil

	case ResidencyNeedToReallocate:
		emitEvicts()
		emitAllocs()
		sm.residency.Phase = ResidencyAllocated

	case ResidencyNeedToUpdate:
		for _, itemIx := range sm.residency.ItemIndices {
			proxy.GPUSceneUpdateCommands = append(proxy.GPUSceneUpdateCommands, GPUSceneUpdateCommand{
				SceneItemIndex:   itemIx,
				LocalToWorld:     sm.transform.GetMatrix(),
				PrevLocalToWorld: sm.prevModelMatrix,
			})
		}
		sm.residency.Phase = ResidencyAllocated
	}
}

// createStaticMeshProxy snapshots the mesh for the render thread.
func (sm *StaticMesh) createStaticMeshProxy() *StaticMeshProxy {
	indices := make([]uint32, len(sm.residency.ItemIndices))
	copy(indices, sm.residency.ItemIndices)
	var lod StaticMeshLOD
	if sm.activeLOD < uint32(len(sm.lods)) {
		lod = sm.lods[sm.activeLOD]
	}
	return &StaticMeshProxy{
		LOD:              lod,
		LocalToWorld:     sm.transform.GetMatrix(),
		PrevLocalToWorld: sm.prevModelMatrix,
		TransformDirty:   sm.IsTransformDirty(),
		LODDirty:         sm.lodDirty,
		SceneItemIndices: indices,
	}
}
