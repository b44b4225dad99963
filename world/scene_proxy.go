package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/codeonwort/cyseal/rhi"
)

// StaticMeshProxy is the render-thread snapshot of one static mesh.
type StaticMeshProxy struct {
	LOD              StaticMeshLOD
	LocalToWorld     mgl32.Mat4
	PrevLocalToWorld mgl32.Mat4
	TransformDirty   bool
	LODDirty         bool

	// SceneItemIndices are the scene buffer slots held by this mesh's
	// sections, one per section, valid once residency is Allocated.
	SceneItemIndices []uint32
}

// SceneProxy is the frame-local, render-thread-owned snapshot of a Scene.
// The application thread must not mutate the Scene between proxy creation
// and the end of the frame that consumes it.
type SceneProxy struct {
	Sun           DirectionalLight
	SkyboxTexture rhi.Texture
	StaticMeshes  []*StaticMeshProxy

	RebuildGPUScene        bool
	RebuildRaytracingScene bool

	// TotalMeshSectionsLOD0 counts all LOD0 sections across the scene.
	TotalMeshSectionsLOD0 uint32

	// Scene commands emitted by residency updates during proxy creation.
	GPUSceneAllocCommands  []GPUSceneAllocCommand
	GPUSceneUpdateCommands []GPUSceneUpdateCommand
	GPUSceneEvictCommands  []GPUSceneEvictCommand
}

// NumGPUSceneCommands is the total packed command count for this frame.
func (p *SceneProxy) NumGPUSceneCommands() uint32 {
	return uint32(len(p.GPUSceneAllocCommands) + len(p.GPUSceneUpdateCommands) + len(p.GPUSceneEvictCommands))
}
