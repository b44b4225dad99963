package render_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/core"
	"github.com/codeonwort/cyseal/render"
	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/rhi/noop"
	"github.com/codeonwort/cyseal/world"
)

func TestMaterialConstants_EncodeLayout(t *testing.T) {
	constants := render.MaterialConstants{
		AlbedoMultiplier:   mgl32.Vec3{0.5, 0.25, 1},
		Roughness:          0.8,
		AlbedoTextureIndex: 3,
		Emission:           mgl32.Vec3{1, 2, 3},
		MetalMask:          1,
		MaterialID:         uint32(world.MaterialTransparent),
		IndexOfRefraction:  1.5,
		Transmittance:      mgl32.Vec3{0.9, 0.9, 0.9},
	}
	var buf [render.MaterialConstantsSizeInBytes]byte
	constants.Encode(buf[:])
	assert.Equal(t, constants, render.DecodeMaterialConstants(buf[:]))
}

func TestBindlessMaterialLayout(t *testing.T) {
	rig := newTestRig(t)

	// Two mesh sections with distinct albedo textures.
	scene := world.NewScene()
	texA := rig.newAlbedoTexture(t, [4]byte{255, 0, 0, 255})
	texB := rig.newAlbedoTexture(t, [4]byte{0, 255, 0, 255})
	rig.addCube(t, scene, texA)
	rig.addCube(t, scene, texB)

	table, err := render.NewBindlessMaterialTable(rig.device, 16)
	require.NoError(t, err)

	proxy := scene.CreateProxy(core.NewFreeNumberList(100))
	cmdList := rig.device.GetCommandList(0)
	require.NoError(t, table.UpdateMaterials(cmdList, 0, proxy))

	cbvCount, srvCount := table.QueryDescriptorCounts()
	assert.Equal(t, uint32(2), cbvCount)
	assert.Equal(t, uint32(2), srvCount)

	// Lay the table out into a pass's volatile heap at base 0.
	volatileHeap, err := rig.device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeCBVSRVUAV,
		NumDescriptors: 8,
		ShaderVisible:  true,
	})
	require.NoError(t, err)

	layout := table.CopyMaterialDescriptors(0, volatileHeap, 0)
	assert.Equal(t, uint32(0), layout.CBVBaseIndex)
	assert.Equal(t, uint32(2), layout.CBVCount)
	assert.Equal(t, uint32(2), layout.SRVBaseIndex)
	assert.Equal(t, uint32(2), layout.SRVCount)
	assert.Equal(t, uint32(4), layout.NextAvailableIndex)

	// Heap contents are [CBV0, CBV1, SRV0, SRV1].
	heap := volatileHeap.(*noop.DescriptorHeap)
	cbv0 := heap.SlotCBV(0)
	cbv1 := heap.SlotCBV(1)
	require.NotNil(t, cbv0)
	require.NotNil(t, cbv1)
	assert.Nil(t, heap.SlotCBV(2))
	assert.Same(t, texA.GetGPUResource(), heap.SlotResource(2))
	assert.Same(t, texB.GetGPUResource(), heap.SlotResource(3))

	// Constants point back into the SRV region by slot index.
	backing := cbv0.GetBuffer().(*noop.Buffer).Data()
	mc0 := render.DecodeMaterialConstants(backing[cbv0.GetOffsetInBuffer():])
	mc1 := render.DecodeMaterialConstants(backing[cbv1.GetOffsetInBuffer():])
	assert.Equal(t, uint32(0), mc0.AlbedoTextureIndex)
	assert.Equal(t, uint32(1), mc1.AlbedoTextureIndex)
}

func TestBindlessMaterialFallbackTexture(t *testing.T) {
	rig := newTestRig(t)

	scene := world.NewScene()
	rig.addCube(t, scene, nil)

	table, err := render.NewBindlessMaterialTable(rig.device, 8)
	require.NoError(t, err)

	proxy := scene.CreateProxy(core.NewFreeNumberList(10))
	require.NoError(t, table.UpdateMaterials(rig.device.GetCommandList(0), 0, proxy))

	volatileHeap, err := rig.device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeCBVSRVUAV,
		NumDescriptors: 4,
		ShaderVisible:  true,
	})
	require.NoError(t, err)
	layout := table.CopyMaterialDescriptors(0, volatileHeap, 0)

	// The grey system texture substitutes for the missing albedo.
	heap := volatileHeap.(*noop.DescriptorHeap)
	grey := rhi.GetTextureManager().GetSystemTextureGrey2D()
	assert.Same(t, grey, heap.SlotResource(layout.SRVBaseIndex))
}

func TestBindlessMaterialGrowth(t *testing.T) {
	rig := newTestRig(t)

	table, err := render.NewBindlessMaterialTable(rig.device, 2)
	require.NoError(t, err)

	scene := world.NewScene()
	for i := 0; i < 5; i++ {
		rig.addCube(t, scene, nil)
	}
	proxy := scene.CreateProxy(core.NewFreeNumberList(100))

	require.NoError(t, table.UpdateMaterials(rig.device.GetCommandList(0), 0, proxy))
	cbvCount, _ := table.QueryDescriptorCounts()
	assert.Equal(t, uint32(5), cbvCount)
}
