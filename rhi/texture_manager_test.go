package rhi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/rhi"
)

func TestSystemTextures(t *testing.T) {
	newTestDevice(t)
	tm := rhi.GetTextureManager()

	grey := tm.GetSystemTextureGrey2D()
	require.NotNil(t, grey)

	var pixel [4]byte
	require.NoError(t, grey.ReadbackData(pixel[:]))
	assert.Equal(t, [4]byte{127, 127, 127, 255}, pixel)

	white := tm.GetSystemTextureWhite2D()
	require.NoError(t, white.ReadbackData(pixel[:]))
	assert.Equal(t, [4]byte{255, 255, 255, 255}, pixel)

	cube := tm.GetSystemTextureBlackCube()
	require.NotNil(t, cube)
	assert.Equal(t, rhi.TextureDimensionCube, cube.GetCreateParams().Dimension)
	assert.Equal(t, uint32(6), cube.GetCreateParams().NumLayers)
}

func TestSystemTextureSRVsLiveInGlobalHeap(t *testing.T) {
	newTestDevice(t)
	tm := rhi.GetTextureManager()

	grey := tm.GetSystemTextureGrey2D()
	srv := grey.GetSRV()
	require.NotNil(t, srv)
	assert.Equal(t, tm.GetGlobalSRVHeap(), srv.SourceHeap())
	assert.Equal(t, srv.DescriptorIndex(), grey.GetSRVDescriptorIndex())

	// The SRV is cached, not re-allocated per call.
	assert.Equal(t, srv.DescriptorIndex(), grey.GetSRV().DescriptorIndex())
}

func TestBlueNoiseTexture(t *testing.T) {
	newTestDevice(t)
	tm := rhi.GetTextureManager()

	require.NoError(t, tm.CreateBlueNoiseTexture(func(sliceIndex uint32) ([]byte, uint64, uint64, error) {
		const rowPitch = 128 * 4
		const slicePitch = rowPitch * 128
		data := make([]byte, slicePitch)
		for i := range data {
			data[i] = byte(sliceIndex)
		}
		return data, rowPitch, slicePitch, nil
	}))
	rhi.FlushRenderCommands()

	volume := tm.GetBlueNoiseVec3Cosine()
	require.NotNil(t, volume)
	params := volume.GetCreateParams()
	assert.Equal(t, rhi.TextureDimension3D, params.Dimension)
	assert.Equal(t, uint32(128), params.Width)
	assert.Equal(t, uint32(128), params.Height)
	assert.Equal(t, uint32(64), params.Depth)
}
