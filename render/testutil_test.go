package render_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/geometry"
	"github.com/codeonwort/cyseal/render"
	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/rhi/noop"
	"github.com/codeonwort/cyseal/world"
)

type testRig struct {
	device     rhi.Device
	vertexPool *rhi.VertexBufferPool
	indexPool  *rhi.IndexBufferPool
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	device, err := rhi.CreateRenderDevice(rhi.DeviceCreateParams{
		RawAPI:   rhi.RawAPINull,
		Headless: true,
		SwapChain: rhi.SwapChainCreateParams{
			Width: 128, Height: 128, BufferCount: 2,
		},
	})
	require.NoError(t, err)

	tm, err := rhi.NewTextureManager(device)
	require.NoError(t, err)
	rhi.SetTextureManager(tm)

	vertexPool, err := rhi.NewVertexBufferPool(device, 4*1024*1024)
	require.NoError(t, err)
	indexPool, err := rhi.NewIndexBufferPool(device, 1024*1024)
	require.NoError(t, err)
	rhi.FlushRenderCommands()

	return &testRig{device: device, vertexPool: vertexPool, indexPool: indexPool}
}

// addCube builds a cube mesh backed by pooled streams.
func (rig *testRig) addCube(t *testing.T, scene *world.Scene, albedo *world.TextureAsset) *world.StaticMesh {
	t.Helper()
	mesh := geometry.CreateCube(mgl32.Vec3{1, 1, 1})
	position := world.NewVertexBufferAsset(rig.vertexPool, mesh.PositionBlob, geometry.PositionStrideInBytes)
	nonPosition := world.NewVertexBufferAsset(rig.vertexPool, mesh.NonPositionBlob, geometry.NonPositionStrideInBytes)
	indices := world.NewIndexBufferAsset(rig.indexPool, mesh.IndexBlob, rhi.PixelFormatR32Uint)

	material := world.NewMaterialAsset()
	material.AlbedoTexture = albedo

	sm := world.NewStaticMesh()
	sm.AddSection(0, position, nonPosition, indices, material, mesh.LocalBounds)
	scene.AddStaticMesh(sm)
	rhi.FlushRenderCommands()
	return sm
}

// newAlbedoTexture uploads a 1x1 texture asset for bindless tests.
func (rig *testRig) newAlbedoTexture(t *testing.T, color [4]byte) *world.TextureAsset {
	t.Helper()
	tex, err := rig.device.CreateTexture(rhi.Texture2D(
		rhi.PixelFormatR8G8B8A8Unorm, rhi.TextureAccessSRV|rhi.TextureAccessCPUWrite, 1, 1, 1))
	require.NoError(t, err)
	tex.UploadData(rig.device.GetCommandList(0), color[:], 4, 4, 0)

	asset := world.NewTextureAsset()
	asset.SetGPUResource(tex)
	return asset
}

// renderGPUSceneOnce packs and uploads a proxy's commands on frame 0.
func (rig *testRig) renderGPUSceneOnce(t *testing.T, gpuScene *render.GPUScene, proxy *world.SceneProxy) {
	t.Helper()
	uniform := rig.newSceneUniformCBV(t)
	cmdList := rig.device.GetCommandList(0)
	require.NoError(t, gpuScene.RenderGPUScene(cmdList, 0, proxy, uniform))
}

func (rig *testRig) newSceneUniformCBV(t *testing.T) rhi.ConstantBufferView {
	t.Helper()
	buffer, err := rig.device.CreateBuffer(rhi.BufferCreateParams{
		SizeInBytes: 512,
		AccessFlags: rhi.BufferAccessCPUWrite | rhi.BufferAccessCBV,
	})
	require.NoError(t, err)
	heap, err := rig.device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type: rhi.DescriptorHeapTypeCBV, NumDescriptors: 1,
	})
	require.NoError(t, err)
	cbv, err := rig.device.CreateCBV(buffer, heap, 512, 0)
	require.NoError(t, err)
	return cbv
}

// commandBufferBytes reads back a frame's packed command bytes.
func commandBufferBytes(gpuScene *render.GPUScene, frameIx uint32, numBytes int) []byte {
	buffer := gpuScene.GetCommandBuffer(frameIx).(*noop.Buffer)
	data := make([]byte, numBytes)
	copy(data, buffer.Data())
	return data
}
