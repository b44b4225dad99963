package render_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/render"
	"github.com/codeonwort/cyseal/world"
)

func TestSceneRenderer_RendersFrames(t *testing.T) {
	rig := newTestRig(t)

	renderer, err := render.NewSceneRenderer(render.RenderContext{
		Device:     rig.device,
		VertexPool: rig.vertexPool,
		IndexPool:  rig.indexPool,
	}, render.RendererOptions{})
	require.NoError(t, err)

	scene := world.NewScene()
	scene.Sun = world.DirectionalLight{
		Direction:   mgl32.Vec3{0, -1, 0},
		Illuminance: mgl32.Vec3{1, 1, 1},
	}
	mesh := rig.addCube(t, scene, nil)

	camera := world.NewCamera()
	camera.Perspective(70, 1, 0.1, 100)

	// Several frames across the swap-chain ring, with a transform change
	// in the middle so the update path runs too.
	for frame := 0; frame < 5; frame++ {
		if frame == 2 {
			mesh.SetPosition(mgl32.Vec3{0, float32(frame), 0})
		}
		proxy := scene.CreateProxy(renderer.GetGPUSceneItemAllocator())
		require.NoError(t, renderer.Render(proxy, camera))
	}

	// The mesh ended up allocated exactly once.
	assert.Equal(t, uint32(1), renderer.GetGPUSceneItemAllocator().NumAllocated())
}

func TestSceneRenderer_RayTracingScene(t *testing.T) {
	rig := newTestRig(t)

	renderer, err := render.NewSceneRenderer(render.RenderContext{
		Device:     rig.device,
		VertexPool: rig.vertexPool,
		IndexPool:  rig.indexPool,
	}, render.RendererOptions{EnableRayTracing: true})
	require.NoError(t, err)

	scene := world.NewScene()
	rig.addCube(t, scene, nil)
	rig.addCube(t, scene, nil)

	camera := world.NewCamera()
	proxy := scene.CreateProxy(renderer.GetGPUSceneItemAllocator())
	assert.True(t, proxy.RebuildRaytracingScene)
	require.NoError(t, renderer.Render(proxy, camera))

	// The rebuild flag clears once consumed.
	proxy2 := scene.CreateProxy(renderer.GetGPUSceneItemAllocator())
	assert.False(t, proxy2.RebuildRaytracingScene)
	require.NoError(t, renderer.Render(proxy2, camera))
}

func TestSceneRenderer_SwapChainResize(t *testing.T) {
	rig := newTestRig(t)

	renderer, err := render.NewSceneRenderer(render.RenderContext{
		Device:     rig.device,
		VertexPool: rig.vertexPool,
		IndexPool:  rig.indexPool,
	}, render.RendererOptions{})
	require.NoError(t, err)

	require.NoError(t, renderer.OnSwapChainResized(256, 256))
	assert.Equal(t, uint32(256), rig.device.GetSwapChain().GetWidth())

	scene := world.NewScene()
	rig.addCube(t, scene, nil)
	camera := world.NewCamera()
	proxy := scene.CreateProxy(renderer.GetGPUSceneItemAllocator())
	require.NoError(t, renderer.Render(proxy, camera))
}
