package render_test

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/render"
	"github.com/codeonwort/cyseal/world"
)

func TestGPUScene_PackCommandsOrderAndContent(t *testing.T) {
	rig := newTestRig(t)
	scene := world.NewScene()
	rig.addCube(t, scene, nil)
	rig.addCube(t, scene, nil)

	gpuScene, err := render.NewGPUScene(rig.device)
	require.NoError(t, err)

	proxy := scene.CreateProxy(gpuScene.GetItemAllocator())
	require.Len(t, proxy.GPUSceneAllocCommands, 2)

	packed := render.PackCommands(proxy)
	require.Len(t, packed, 2*world.GPUSceneCommandSizeInBytes)

	// First command: alloc of slot 0 with a valid item payload.
	assert.Equal(t, uint32(world.GPUSceneCommandAlloc), binary.LittleEndian.Uint32(packed[0:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(packed[4:]))
	item := world.DecodeSceneItem(packed[16:])
	assert.Equal(t, world.SceneItemFlagValid, item.Flags)

	second := packed[world.GPUSceneCommandSizeInBytes:]
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(second[4:]))
}

func TestGPUScene_UploadIsIdempotent(t *testing.T) {
	rig := newTestRig(t)
	scene := world.NewScene()
	rig.addCube(t, scene, nil)

	gpuScene, err := render.NewGPUScene(rig.device)
	require.NoError(t, err)

	proxy := scene.CreateProxy(gpuScene.GetItemAllocator())
	numBytes := int(proxy.NumGPUSceneCommands()) * world.GPUSceneCommandSizeInBytes

	rig.renderGPUSceneOnce(t, gpuScene, proxy)
	first := commandBufferBytes(gpuScene, 0, numBytes)

	// Re-running with the same proxy produces identical bytes.
	rig.renderGPUSceneOnce(t, gpuScene, proxy)
	second := commandBufferBytes(gpuScene, 0, numBytes)
	assert.Equal(t, first, second)
}

func TestGPUScene_UpdateCommandsAddressAllocatedIndices(t *testing.T) {
	rig := newTestRig(t)
	scene := world.NewScene()
	meshA := rig.addCube(t, scene, nil)

	gpuScene, err := render.NewGPUScene(rig.device)
	require.NoError(t, err)

	proxy1 := scene.CreateProxy(gpuScene.GetItemAllocator())
	rig.renderGPUSceneOnce(t, gpuScene, proxy1)

	meshA.SetPosition(mgl32.Vec3{3, 0, 0})
	proxy2 := scene.CreateProxy(gpuScene.GetItemAllocator())
	require.Len(t, proxy2.GPUSceneUpdateCommands, 1)
	rig.renderGPUSceneOnce(t, gpuScene, proxy2)

	packed := commandBufferBytes(gpuScene, 0, world.GPUSceneCommandSizeInBytes)
	assert.Equal(t, uint32(world.GPUSceneCommandUpdate), binary.LittleEndian.Uint32(packed[0:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(packed[4:]))

	item := world.DecodeSceneItem(packed[16:])
	assert.Equal(t, mgl32.Translate3D(3, 0, 0), item.LocalToWorld)
	// Update rewrites transforms only; the rest of the payload is zero.
	assert.Zero(t, item.Flags)
	assert.Zero(t, item.PositionBufferOffset)
}

func TestGPUScene_EvictSupersededByRealloc(t *testing.T) {
	proxy := &world.SceneProxy{
		GPUSceneEvictCommands: []world.GPUSceneEvictCommand{{SceneItemIndex: 0}, {SceneItemIndex: 5}},
		GPUSceneAllocCommands: []world.GPUSceneAllocCommand{{SceneItemIndex: 0}},
	}

	packed := render.PackCommands(proxy)
	// The evict of slot 0 is dropped: its alloc fully rewrites the slot.
	require.Len(t, packed, 2*world.GPUSceneCommandSizeInBytes)
	assert.Equal(t, uint32(world.GPUSceneCommandEvict), binary.LittleEndian.Uint32(packed[0:]))
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(packed[4:]))
	assert.Equal(t, uint32(world.GPUSceneCommandAlloc), binary.LittleEndian.Uint32(packed[world.GPUSceneCommandSizeInBytes:]))
}

func TestGPUScene_BufferGrowth(t *testing.T) {
	rig := newTestRig(t)

	gpuScene, err := render.NewGPUScene(rig.device)
	require.NoError(t, err)

	initialSize := gpuScene.GetSceneBuffer().GetCreateParams().SizeInBytes

	// A command addressing a slot beyond the default capacity grows the
	// scene buffer to the next power of two.
	proxy := &world.SceneProxy{
		GPUSceneAllocCommands: []world.GPUSceneAllocCommand{{SceneItemIndex: 300}},
	}
	rig.renderGPUSceneOnce(t, gpuScene, proxy)

	grownSize := gpuScene.GetSceneBuffer().GetCreateParams().SizeInBytes
	assert.Greater(t, grownSize, initialSize)
	assert.Equal(t, uint32(512*world.SceneItemSizeInBytes), grownSize)
}

func TestGPUScene_NoCommandsNoUpload(t *testing.T) {
	rig := newTestRig(t)

	gpuScene, err := render.NewGPUScene(rig.device)
	require.NoError(t, err)

	rig.renderGPUSceneOnce(t, gpuScene, &world.SceneProxy{})
	// No command buffer was ever created for frame 0.
	assert.Nil(t, gpuScene.GetCommandBuffer(0))
}
