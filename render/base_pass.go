package render

import (
	"fmt"

	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/shaders"
	"github.com/codeonwort/cyseal/world"
)

// BasePass rasterizes every opaque mesh section into the scene color and
// depth targets. Per-section material data comes from the bindless table
// laid out at the front of the pass's volatile heap.
type BasePass struct {
	device        rhi.Device
	pipelineState rhi.PipelineState
	volatileHeaps *VolatileDescriptorHelper
}

// NewBasePass compiles the base pass pipeline against the swap chain and
// depth formats the renderer selected.
func NewBasePass(device rhi.Device, sceneColorFormat, depthFormat rhi.PixelFormat) (*BasePass, error) {
	vs := device.CreateShader(rhi.ShaderStageVertex, "BasePassVS")
	if err := vs.LoadFromSource(shaders.BasePassWGSL, "mainVS"); err != nil {
		return nil, fmt.Errorf("load base pass VS: %w", err)
	}
	ps := device.CreateShader(rhi.ShaderStagePixel, "BasePassPS")
	if err := ps.LoadFromSource(shaders.BasePassWGSL, "mainPS"); err != nil {
		return nil, fmt.Errorf("load base pass PS: %w", err)
	}

	desc := rhi.GraphicsPipelineDesc{
		VS: vs,
		PS: ps,
		InputLayout: []rhi.InputElement{
			{SemanticName: "position", Format: rhi.PixelFormatR32G32B32Float, InputSlot: 0, ByteOffset: 0},
			{SemanticName: "normal", Format: rhi.PixelFormatR32G32B32Float, InputSlot: 1, ByteOffset: 0},
			{SemanticName: "texcoord", Format: rhi.PixelFormatR32G32Float, InputSlot: 1, ByteOffset: 12},
		},
		Topology:   rhi.TopologyTriangleList,
		Rasterizer: rhi.RasterizerDesc{CullMode: rhi.CullModeBack},
		// Reverse-Z: near is 1.0, so closer fragments compare greater.
		DepthStencil: rhi.DepthStencilDesc{
			DepthEnable: true,
			DepthWrite:  true,
			DepthFunc:   rhi.CompareGreaterEqual,
		},
		NumRenderTargets: 1,
		RTVFormats:       [8]rhi.PixelFormat{sceneColorFormat},
		DSVFormat:        depthFormat,
		Parameters: []rhi.ShaderParameterDecl{
			{Name: "pushConstants", Kind: rhi.ParameterPushConstant, NumElements: 2},
			{Name: "sceneUniform", Kind: rhi.ParameterConstantBuffer, NumElements: 1},
			{Name: "gpuSceneBuffer", Kind: rhi.ParameterStructuredBuffer, NumElements: 1},
			// Bound by table base offset into the bindless regions.
			{Name: "material", Kind: rhi.ParameterConstantBuffer, NumElements: 1},
			{Name: "albedoTexture", Kind: rhi.ParameterTexture, NumElements: 1},
		},
		StaticSamplers: []rhi.StaticSamplerDesc{
			{Name: "albedoSampler", Filter: rhi.FilterLinear, AddressUVW: rhi.AddressWrap},
		},
	}
	pso, err := device.CreateGraphicsPipelineState(desc)
	if err != nil {
		return nil, fmt.Errorf("create base pass pipeline: %w", err)
	}

	return &BasePass{
		device:        device,
		pipelineState: pso,
		volatileHeaps: NewVolatileDescriptorHelper(device, "BasePass", device.GetSwapChain().GetBufferCount()),
	}, nil
}

// BasePassInput bundles the frame state the pass consumes.
type BasePassInput struct {
	SwapchainIndex uint32
	Proxy          *world.SceneProxy
	SceneUniform   rhi.ConstantBufferView
	GPUScene       *GPUScene
	Materials      *BindlessMaterialTable
	SceneColorRTV  rhi.RenderTargetView
	SceneDepthDSV  rhi.DepthStencilView
	ViewportWidth  uint32
	ViewportHeight uint32
}

// Render records the whole pass. Volatile heap layout, per the shader
// ABI: [material CBVs | material SRVs | per-pass slots].
func (p *BasePass) Render(cmdList rhi.CommandList, input BasePassInput) {
	cmdList.BeginEvent("BasePass")
	defer cmdList.EndEvent()

	cbvCount, srvCount := input.Materials.QueryDescriptorCounts()
	requiredSlots := cbvCount + srvCount + 2 // sceneUniform + gpuSceneBuffer
	volatileHeap := p.volatileHeaps.ResizeAndGet(input.SwapchainIndex, requiredSlots)

	materialLayout := input.Materials.CopyMaterialDescriptors(input.SwapchainIndex, volatileHeap, 0)
	tracker := &rhi.DescriptorIndexTracker{LastIndex: materialLayout.NextAvailableIndex}

	cmdList.SetPipelineState(p.pipelineState)
	cmdList.SetDescriptorHeaps([]rhi.DescriptorHeap{volatileHeap})
	cmdList.RSSetViewport(rhi.Viewport{
		Width: float32(input.ViewportWidth), Height: float32(input.ViewportHeight),
		MinDepth: 0, MaxDepth: 1,
	})
	cmdList.RSSetScissorRect(rhi.Rect{Right: int32(input.ViewportWidth), Bottom: int32(input.ViewportHeight)})
	cmdList.OMSetRenderTargets([]rhi.RenderTargetView{input.SceneColorRTV}, input.SceneDepthDSV)

	// Reverse-Z clears depth to 0 (the far plane).
	cmdList.ClearRenderTargetView(input.SceneColorRTV, [4]float32{0, 0, 0, 1})
	cmdList.ClearDepthStencilView(input.SceneDepthDSV, rhi.ClearFlagDepth, 0.0, 0)
	cmdList.IASetPrimitiveTopology(rhi.TopologyTriangleList)

	table := &rhi.ShaderParameterTable{}
	table.ConstantBuffer("sceneUniform", input.SceneUniform)
	table.StructuredBuffer("gpuSceneBuffer", input.GPUScene.GetGPUSceneBufferSRV())
	rhi.BindGraphicsShaderParameters(cmdList, p.pipelineState, table, volatileHeap, tracker)

	layout := p.pipelineState.GetParameterLayout()
	materialParamIx, _ := layout.Resolve("material")
	albedoParamIx, _ := layout.Resolve("albedoTexture")
	pushParamIx, _ := layout.Resolve("pushConstants")

	sectionIx := uint32(0)
	for _, mesh := range input.Proxy.StaticMeshes {
		for i := range mesh.LOD.Sections {
			section := &mesh.LOD.Sections[i]
			position := section.PositionBuffer.GetGPUResource()
			nonPosition := section.NonPositionBuffer.GetGPUResource()
			indexBuffer := section.IndexBuffer.GetGPUResource()
			if position == nil || nonPosition == nil || indexBuffer == nil {
				sectionIx++
				continue
			}

			sceneItemIx := sectionIx
			if i < len(mesh.SceneItemIndices) {
				sceneItemIx = mesh.SceneItemIndices[i]
			}

			// The table base selects this section's bindless entry.
			cmdList.SetGraphicsRootDescriptorTable(materialParamIx, volatileHeap, materialLayout.CBVBaseIndex+sectionIx)
			cmdList.SetGraphicsRootDescriptorTable(albedoParamIx, volatileHeap, materialLayout.SRVBaseIndex+sectionIx)
			cmdList.SetGraphicsRootConstant32(pushParamIx, sceneItemIx, 0)
			cmdList.SetGraphicsRootConstant32(pushParamIx, sectionIx, 1)

			cmdList.IASetVertexBuffers(0, []rhi.VertexBuffer{position, nonPosition})
			cmdList.IASetIndexBuffer(indexBuffer)
			cmdList.DrawIndexedInstanced(indexBuffer.GetIndexCount(), 1, 0, 0, 0)
			sectionIx++
		}
	}
}
