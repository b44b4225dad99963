package rhi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/rhi"
)

func computeTestPipeline(t *testing.T, device rhi.Device) rhi.PipelineState {
	t.Helper()
	cs := device.CreateShader(rhi.ShaderStageCompute, "TestCS")
	require.NoError(t, cs.LoadFromSource("@compute @workgroup_size(1) fn mainCS() {}", "mainCS"))
	pso, err := device.CreateComputePipelineState(rhi.ComputePipelineDesc{
		CS: cs,
		Parameters: []rhi.ShaderParameterDecl{
			{Name: "pushConstants", Kind: rhi.ParameterPushConstant, NumElements: 2},
			{Name: "inputBuffer", Kind: rhi.ParameterStructuredBuffer, NumElements: 1},
			{Name: "outputBuffer", Kind: rhi.ParameterRWBuffer, NumElements: 1},
		},
	})
	require.NoError(t, err)
	return pso
}

func TestBindShaderParameters(t *testing.T) {
	device := newTestDevice(t)
	pso := computeTestPipeline(t, device)

	input, err := device.CreateBuffer(rhi.BufferCreateParams{SizeInBytes: 64, AccessFlags: rhi.BufferAccessSRV})
	require.NoError(t, err)
	output, err := device.CreateBuffer(rhi.BufferCreateParams{SizeInBytes: 64, AccessFlags: rhi.BufferAccessUAV})
	require.NoError(t, err)

	tm := rhi.GetTextureManager()
	srv, err := device.CreateSRV(input, rhi.ShaderResourceViewDesc{ViewDimension: rhi.SRVDimensionBuffer}, tm.GetGlobalSRVHeap())
	require.NoError(t, err)
	uav, err := device.CreateUAV(output, rhi.UnorderedAccessViewDesc{ViewDimension: rhi.UAVDimensionBuffer}, tm.GetGlobalUAVHeap())
	require.NoError(t, err)

	volatileHeap, err := device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeCBVSRVUAV,
		NumDescriptors: 8,
		ShaderVisible:  true,
	})
	require.NoError(t, err)

	cmdList := device.GetCommandList(0)

	table := &rhi.ShaderParameterTable{}
	table.PushConstant("pushConstants", 7, 9)
	table.StructuredBuffer("inputBuffer", srv)
	table.RWBuffer("outputBuffer", uav)

	tracker := &rhi.DescriptorIndexTracker{}
	assert.NotPanics(t, func() {
		rhi.BindComputeShaderParameters(cmdList, pso, table, volatileHeap, tracker)
	})
	// Two descriptors were copied into the volatile heap.
	assert.Equal(t, uint32(2), tracker.LastIndex)
}

func TestBindShaderParameters_MissingNameIsFatal(t *testing.T) {
	device := newTestDevice(t)
	pso := computeTestPipeline(t, device)

	volatileHeap, err := device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeCBVSRVUAV,
		NumDescriptors: 8,
		ShaderVisible:  true,
	})
	require.NoError(t, err)

	table := &rhi.ShaderParameterTable{}
	table.PushConstant("noSuchParameter", 1)

	assert.Panics(t, func() {
		rhi.BindComputeShaderParameters(device.GetCommandList(0), pso, table, volatileHeap, nil)
	})
}

func TestBindShaderParameters_VolatileOverflowIsFatal(t *testing.T) {
	device := newTestDevice(t)
	pso := computeTestPipeline(t, device)

	buffer, err := device.CreateBuffer(rhi.BufferCreateParams{SizeInBytes: 64, AccessFlags: rhi.BufferAccessSRV})
	require.NoError(t, err)
	srv, err := device.CreateSRV(buffer, rhi.ShaderResourceViewDesc{ViewDimension: rhi.SRVDimensionBuffer},
		rhi.GetTextureManager().GetGlobalSRVHeap())
	require.NoError(t, err)

	// A one-slot heap with a tracker already past its end.
	tinyHeap, err := device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeCBVSRVUAV,
		NumDescriptors: 1,
		ShaderVisible:  true,
	})
	require.NoError(t, err)

	table := &rhi.ShaderParameterTable{}
	table.StructuredBuffer("inputBuffer", srv)

	tracker := &rhi.DescriptorIndexTracker{LastIndex: 1}
	assert.Panics(t, func() {
		rhi.BindComputeShaderParameters(device.GetCommandList(0), pso, table, tinyHeap, tracker)
	})
}

func TestBindShaderParameters_KindMismatchIsFatal(t *testing.T) {
	device := newTestDevice(t)
	pso := computeTestPipeline(t, device)

	buffer, err := device.CreateBuffer(rhi.BufferCreateParams{SizeInBytes: 64, AccessFlags: rhi.BufferAccessSRV})
	require.NoError(t, err)
	srv, err := device.CreateSRV(buffer, rhi.ShaderResourceViewDesc{ViewDimension: rhi.SRVDimensionBuffer},
		rhi.GetTextureManager().GetGlobalSRVHeap())
	require.NoError(t, err)

	volatileHeap, err := device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeCBVSRVUAV,
		NumDescriptors: 8,
		ShaderVisible:  true,
	})
	require.NoError(t, err)

	// "outputBuffer" is declared as a RW buffer, not a texture.
	table := &rhi.ShaderParameterTable{}
	table.Texture("outputBuffer", srv)

	assert.Panics(t, func() {
		rhi.BindComputeShaderParameters(device.GetCommandList(0), pso, table, volatileHeap, nil)
	})
}
