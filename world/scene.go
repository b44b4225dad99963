package world

import (
	"github.com/codeonwort/cyseal/core"
)

// Scene is the application-thread container of world state. Mutations are
// forbidden once a proxy has been created for the current frame.
type Scene struct {
	staticMeshes []*StaticMesh
	// Meshes removed from the scene wait here until the next proxy emits
	// their evictions and releases their scene item indices.
	pendingEvictions []*StaticMesh

	Sun           DirectionalLight
	SkyboxTexture *TextureAsset

	rebuildGPUScene        bool
	rebuildRaytracingScene bool
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// AddStaticMesh registers a mesh and schedules a full GPU scene rebuild.
func (s *Scene) AddStaticMesh(sm *StaticMesh) {
	s.staticMeshes = append(s.staticMeshes, sm)
	s.rebuildGPUScene = true
	s.rebuildRaytracingScene = true
}

// RemoveStaticMesh unregisters a mesh. Its scene buffer slots are evicted
// on the next proxy.
func (s *Scene) RemoveStaticMesh(sm *StaticMesh) {
	for i, m := range s.staticMeshes {
		if m == sm {
			s.staticMeshes = append(s.staticMeshes[:i], s.staticMeshes[i+1:]...)
			sm.markForEviction()
			s.pendingEvictions = append(s.pendingEvictions, sm)
			s.rebuildGPUScene = true
			s.rebuildRaytracingScene = true
			return
		}
	}
}

// GetStaticMeshes exposes the current mesh list.
func (s *Scene) GetStaticMeshes() []*StaticMesh { return s.staticMeshes }

// UpdateMeshLODs picks each mesh's active LOD by camera distance.
// Raytracing keeps every mesh at LOD0 because the acceleration structures
// are built from LOD0 sections.
func (s *Scene) UpdateMeshLODs(camera *Camera, anyRayTracingEnabled bool) {
	for _, sm := range s.staticMeshes {
		if anyRayTracingEnabled {
			sm.SetActiveLOD(0)
			continue
		}
		sm.SetActiveLOD(calculateLOD(sm, camera))
	}
}

func calculateLOD(sm *StaticMesh, camera *Camera) uint32 {
	distance := camera.GetPosition().Sub(sm.GetPosition()).Len()
	var lod uint32
	switch {
	case distance >= 90.0:
		lod = 3
	case distance >= 60.0:
		lod = 2
	case distance >= 30.0:
		lod = 1
	}
	if numLODs := sm.GetNumLODs(); numLODs > 0 && lod >= numLODs {
		lod = numLODs - 1
	}
	return lod
}

// CreateProxy snapshots the scene for the render thread, computing each
// mesh's residency phase transition and emitting this frame's GPU scene
// commands. itemAllocator is the GPU scene's item index allocator.
func (s *Scene) CreateProxy(itemAllocator *core.FreeNumberList) *SceneProxy {
	proxy := &SceneProxy{
		Sun:                    s.Sun,
		RebuildGPUScene:        s.rebuildGPUScene,
		RebuildRaytracingScene: s.rebuildRaytracingScene,
	}
	if s.SkyboxTexture != nil {
		proxy.SkyboxTexture = s.SkyboxTexture.GetGPUResource()
	}

	// Evictions first so reallocation in the same frame can reuse slots.
	// A mesh removed before it ever allocated has nothing to evict.
	for _, sm := range s.pendingEvictions {
		if sm.residency.Phase == ResidencyNeedToEvict {
			sm.UpdateGPUSceneResidency(proxy, itemAllocator)
		}
	}
	s.pendingEvictions = nil

	for _, sm := range s.staticMeshes {
		// The rebuild-all flag forces every resident mesh through the
		// evict+alloc path so the scene buffer repacks completely.
		if s.rebuildGPUScene && sm.residency.Phase == ResidencyAllocated {
			sm.residency.Phase = ResidencyNeedToReallocate
		}
		sm.UpdateGPUSceneResidency(proxy, itemAllocator)
		proxy.StaticMeshes = append(proxy.StaticMeshes, sm.createStaticMeshProxy())
		proxy.TotalMeshSectionsLOD0 += uint32(len(sm.GetSections(0)))
	}

	s.rebuildGPUScene = false
	s.rebuildRaytracingScene = false
	for _, sm := range s.staticMeshes {
		sm.clearDirtyFlags()
		sm.savePrevTransform()
	}
	return proxy
}
