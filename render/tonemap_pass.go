package render

import (
	"fmt"

	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/shaders"
)

// TonemapPass resolves the HDR scene color onto the backbuffer with a
// fullscreen triangle.
type TonemapPass struct {
	device        rhi.Device
	pipelineState rhi.PipelineState
	volatileHeaps *VolatileDescriptorHelper
}

func NewTonemapPass(device rhi.Device, backbufferFormat rhi.PixelFormat) (*TonemapPass, error) {
	vs := device.CreateShader(rhi.ShaderStageVertex, "TonemapVS")
	if err := vs.LoadFromSource(shaders.TonemappingWGSL, "mainVS"); err != nil {
		return nil, fmt.Errorf("load tonemap VS: %w", err)
	}
	ps := device.CreateShader(rhi.ShaderStagePixel, "TonemapPS")
	if err := ps.LoadFromSource(shaders.TonemappingWGSL, "mainPS"); err != nil {
		return nil, fmt.Errorf("load tonemap PS: %w", err)
	}

	pso, err := device.CreateGraphicsPipelineState(rhi.GraphicsPipelineDesc{
		VS:               vs,
		PS:               ps,
		Topology:         rhi.TopologyTriangleList,
		Rasterizer:       rhi.RasterizerDesc{CullMode: rhi.CullModeNone},
		DepthStencil:     rhi.DepthStencilDesc{DepthEnable: false},
		NumRenderTargets: 1,
		RTVFormats:       [8]rhi.PixelFormat{backbufferFormat},
		Parameters: []rhi.ShaderParameterDecl{
			{Name: "sceneColor", Kind: rhi.ParameterTexture, NumElements: 1},
		},
		StaticSamplers: []rhi.StaticSamplerDesc{
			{Name: "sceneColorSampler", Filter: rhi.FilterPoint, AddressUVW: rhi.AddressClamp},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create tonemap pipeline: %w", err)
	}

	return &TonemapPass{
		device:        device,
		pipelineState: pso,
		volatileHeaps: NewVolatileDescriptorHelper(device, "Tonemap", device.GetSwapChain().GetBufferCount()),
	}, nil
}

// Render draws the fullscreen triangle into backbufferRTV.
func (p *TonemapPass) Render(cmdList rhi.CommandList, swapchainIndex uint32, sceneColor rhi.Texture, backbufferRTV rhi.RenderTargetView, width, height uint32) {
	cmdList.BeginEvent("Tonemapping")
	defer cmdList.EndEvent()

	volatileHeap := p.volatileHeaps.ResizeAndGet(swapchainIndex, 1)

	cmdList.SetPipelineState(p.pipelineState)
	cmdList.SetDescriptorHeaps([]rhi.DescriptorHeap{volatileHeap})
	cmdList.RSSetViewport(rhi.Viewport{Width: float32(width), Height: float32(height), MinDepth: 0, MaxDepth: 1})
	cmdList.RSSetScissorRect(rhi.Rect{Right: int32(width), Bottom: int32(height)})
	cmdList.OMSetRenderTargets([]rhi.RenderTargetView{backbufferRTV}, nil)

	table := &rhi.ShaderParameterTable{}
	table.Texture("sceneColor", sceneColor.GetSRV())
	rhi.BindGraphicsShaderParameters(cmdList, p.pipelineState, table, volatileHeap, nil)

	cmdList.IASetPrimitiveTopology(rhi.TopologyTriangleList)
	cmdList.DrawInstanced(3, 1, 0, 0)
}
