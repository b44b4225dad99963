package world_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/core"
	"github.com/codeonwort/cyseal/rhi"
	_ "github.com/codeonwort/cyseal/rhi/noop"
	"github.com/codeonwort/cyseal/world"
)

type testWorld struct {
	device     rhi.Device
	vertexPool *rhi.VertexBufferPool
	indexPool  *rhi.IndexBufferPool
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	device, err := rhi.CreateRenderDevice(rhi.DeviceCreateParams{
		RawAPI:   rhi.RawAPINull,
		Headless: true,
		SwapChain: rhi.SwapChainCreateParams{
			Width: 64, Height: 64, BufferCount: 2,
		},
	})
	require.NoError(t, err)
	tm, err := rhi.NewTextureManager(device)
	require.NoError(t, err)
	rhi.SetTextureManager(tm)

	vertexPool, err := rhi.NewVertexBufferPool(device, 1024*1024)
	require.NoError(t, err)
	indexPool, err := rhi.NewIndexBufferPool(device, 1024*1024)
	require.NoError(t, err)
	rhi.FlushRenderCommands()

	return &testWorld{device: device, vertexPool: vertexPool, indexPool: indexPool}
}

// addSections appends numSections sections of trivial geometry to lod.
func (w *testWorld) addSections(sm *world.StaticMesh, lod uint32, numSections int) {
	for i := 0; i < numSections; i++ {
		position := world.NewVertexBufferAsset(w.vertexPool, make([]byte, 36), 12)
		nonPosition := world.NewVertexBufferAsset(w.vertexPool, make([]byte, 60), 20)
		indices := world.NewIndexBufferAsset(w.indexPool, make([]byte, 12), rhi.PixelFormatR32Uint)
		sm.AddSection(lod, position, nonPosition, indices, world.NewMaterialAsset(),
			core.NewAABB(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}))
	}
	rhi.FlushRenderCommands()
}

func TestGPUSceneCommandEmission(t *testing.T) {
	w := newTestWorld(t)
	allocator := core.NewFreeNumberList(1000)

	scene := world.NewScene()
	meshA := world.NewStaticMesh()
	w.addSections(meshA, 0, 2)
	meshB := world.NewStaticMesh()
	w.addSections(meshB, 0, 1)
	scene.AddStaticMesh(meshA)
	scene.AddStaticMesh(meshB)

	// First frame: three sections get allocated.
	proxy1 := scene.CreateProxy(allocator)
	assert.Len(t, proxy1.GPUSceneAllocCommands, 3)
	assert.Empty(t, proxy1.GPUSceneUpdateCommands)
	assert.Empty(t, proxy1.GPUSceneEvictCommands)
	assert.Equal(t, uint32(3), proxy1.TotalMeshSectionsLOD0)
	assert.Equal(t, []uint32{0, 1}, meshA.GetResidency().ItemIndices)
	assert.Equal(t, []uint32{2}, meshB.GetResidency().ItemIndices)

	// Second frame: only A's transform is dirty, so two updates land,
	// addressed at A's allocated indices.
	meshA.SetPosition(mgl32.Vec3{5, 0, 0})
	proxy2 := scene.CreateProxy(allocator)
	assert.Empty(t, proxy2.GPUSceneAllocCommands)
	assert.Empty(t, proxy2.GPUSceneEvictCommands)
	require.Len(t, proxy2.GPUSceneUpdateCommands, 2)
	assert.Equal(t, uint32(0), proxy2.GPUSceneUpdateCommands[0].SceneItemIndex)
	assert.Equal(t, uint32(1), proxy2.GPUSceneUpdateCommands[1].SceneItemIndex)

	// Third frame: nothing changed, nothing is emitted.
	proxy3 := scene.CreateProxy(allocator)
	assert.Zero(t, proxy3.NumGPUSceneCommands())
}

func TestRebuildFlagForcesFullReallocation(t *testing.T) {
	w := newTestWorld(t)
	allocator := core.NewFreeNumberList(1000)

	scene := world.NewScene()
	meshA := world.NewStaticMesh()
	w.addSections(meshA, 0, 1)
	scene.AddStaticMesh(meshA)
	scene.CreateProxy(allocator)

	// Adding another mesh sets the rebuild flag: the resident mesh goes
	// through evict+alloc alongside the new mesh's allocation.
	meshB := world.NewStaticMesh()
	w.addSections(meshB, 0, 1)
	scene.AddStaticMesh(meshB)

	proxy := scene.CreateProxy(allocator)
	assert.True(t, proxy.RebuildGPUScene)
	assert.Len(t, proxy.GPUSceneEvictCommands, 1)
	assert.Len(t, proxy.GPUSceneAllocCommands, 2)
	assert.Equal(t, uint32(2), allocator.NumAllocated())
}

func TestResidency_EvictOnRemoval(t *testing.T) {
	w := newTestWorld(t)
	allocator := core.NewFreeNumberList(1000)

	scene := world.NewScene()
	mesh := world.NewStaticMesh()
	w.addSections(mesh, 0, 2)
	scene.AddStaticMesh(mesh)

	scene.CreateProxy(allocator)
	require.Equal(t, world.ResidencyAllocated, mesh.GetResidency().Phase)
	require.Equal(t, uint32(2), allocator.NumAllocated())

	scene.RemoveStaticMesh(mesh)
	proxy := scene.CreateProxy(allocator)
	assert.Len(t, proxy.GPUSceneEvictCommands, 2)
	assert.Equal(t, world.ResidencyNotAllocated, mesh.GetResidency().Phase)
	assert.Empty(t, mesh.GetResidency().ItemIndices)
	// Indices are released for reuse.
	assert.Equal(t, uint32(0), allocator.NumAllocated())
	assert.True(t, proxy.RebuildGPUScene)
}

func TestResidency_LODChangeReallocates(t *testing.T) {
	w := newTestWorld(t)
	allocator := core.NewFreeNumberList(1000)

	scene := world.NewScene()
	mesh := world.NewStaticMesh()
	w.addSections(mesh, 0, 2)
	w.addSections(mesh, 1, 1)
	scene.AddStaticMesh(mesh)

	proxy1 := scene.CreateProxy(allocator)
	require.Len(t, proxy1.GPUSceneAllocCommands, 2)

	mesh.SetActiveLOD(1)
	proxy2 := scene.CreateProxy(allocator)
	assert.Len(t, proxy2.GPUSceneEvictCommands, 2)
	assert.Len(t, proxy2.GPUSceneAllocCommands, 1)
	assert.Equal(t, world.ResidencyAllocated, mesh.GetResidency().Phase)
	assert.Equal(t, uint32(1), allocator.NumAllocated())
}

func TestResidency_DefersUntilGPUResourcesReady(t *testing.T) {
	w := newTestWorld(t)
	allocator := core.NewFreeNumberList(1000)

	scene := world.NewScene()
	mesh := world.NewStaticMesh()
	// Enqueue asset creation but do NOT flush: GPU buffers are nil.
	position := world.NewVertexBufferAsset(w.vertexPool, make([]byte, 36), 12)
	nonPosition := world.NewVertexBufferAsset(w.vertexPool, make([]byte, 60), 20)
	indices := world.NewIndexBufferAsset(w.indexPool, make([]byte, 12), rhi.PixelFormatR32Uint)
	mesh.AddSection(0, position, nonPosition, indices, world.NewMaterialAsset(),
		core.NewAABB(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}))
	scene.AddStaticMesh(mesh)

	proxy1 := scene.CreateProxy(allocator)
	assert.Empty(t, proxy1.GPUSceneAllocCommands)
	assert.Equal(t, world.ResidencyNotAllocated, mesh.GetResidency().Phase)

	// Once the render thread has processed the uploads, allocation runs.
	rhi.FlushRenderCommands()
	proxy2 := scene.CreateProxy(allocator)
	assert.Len(t, proxy2.GPUSceneAllocCommands, 1)
	assert.Equal(t, world.ResidencyAllocated, mesh.GetResidency().Phase)
}

func TestSceneItemBufferOffsetsComeFromPools(t *testing.T) {
	w := newTestWorld(t)
	allocator := core.NewFreeNumberList(1000)

	scene := world.NewScene()
	mesh := world.NewStaticMesh()
	w.addSections(mesh, 0, 2)
	scene.AddStaticMesh(mesh)

	proxy := scene.CreateProxy(allocator)
	require.Len(t, proxy.GPUSceneAllocCommands, 2)

	first := proxy.GPUSceneAllocCommands[0].SceneItem
	second := proxy.GPUSceneAllocCommands[1].SceneItem
	assert.Equal(t, uint32(0), first.PositionBufferOffset)
	// Second section's streams follow the first in the shared pools.
	assert.Greater(t, second.PositionBufferOffset, first.PositionBufferOffset)
	assert.Greater(t, second.IndexBufferOffset, first.IndexBufferOffset)
	assert.Equal(t, world.SceneItemFlagValid, first.Flags)
}
