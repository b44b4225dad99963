package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/codeonwort/cyseal/rhi"
)

// PipelineState bundles the native pipeline with the binding metadata the
// command list needs to materialize bind groups at draw time.
type PipelineState struct {
	layout *rhi.ShaderParameterLayout

	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline

	bindGroupLayout *wgpu.BindGroupLayout
	// bindingOfParam maps root parameter index to @binding slot. Root
	// constants bind as small uniform buffers, so every parameter has a
	// binding.
	bindingOfParam []uint32
	samplers       []*wgpu.Sampler
	// samplerBaseBinding is where sampler bindings start.
	samplerBaseBinding uint32

	compute bool
}

func (p *PipelineState) GetParameterLayout() *rhi.ShaderParameterLayout { return p.layout }
func (p *PipelineState) IsCompute() bool                                { return p.compute }

// buildBindGroupLayout derives the single bind group layout from the
// declared parameters plus static samplers. Binding slots follow the
// declaration order, exactly the convention the WGSL sources use. Root
// constants become small uniform bindings, since wgpu's push-constant
// path is a native extension the surface does not request.
func buildBindGroupLayout(device *Device, params []rhi.ShaderParameterDecl, samplers []rhi.StaticSamplerDesc, compute bool) (*wgpu.BindGroupLayout, []uint32, uint32, error) {
	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	if compute {
		visibility = wgpu.ShaderStageCompute
	}

	bindingOfParam := make([]uint32, len(params))
	var entries []wgpu.BindGroupLayoutEntry
	binding := uint32(0)

	for i, param := range params {
		switch param.Kind {
		case rhi.ParameterPushConstant, rhi.ParameterConstantBuffer, rhi.ParameterDescriptorTable:
			// Tables bind their base slot; the table base selects which
			// heap entry backs the binding.
			entries = append(entries, wgpu.BindGroupLayoutEntry{
				Binding:    binding,
				Visibility: visibility,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
			})
		case rhi.ParameterStructuredBuffer:
			entries = append(entries, wgpu.BindGroupLayoutEntry{
				Binding:    binding,
				Visibility: visibility,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
			})
		case rhi.ParameterRWBuffer:
			entries = append(entries, wgpu.BindGroupLayoutEntry{
				Binding:    binding,
				Visibility: visibility,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage},
			})
		case rhi.ParameterTexture:
			entries = append(entries, wgpu.BindGroupLayoutEntry{
				Binding:    binding,
				Visibility: visibility,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			})
		case rhi.ParameterRWTexture:
			entries = append(entries, wgpu.BindGroupLayoutEntry{
				Binding:    binding,
				Visibility: visibility,
				StorageTexture: wgpu.StorageTextureBindingLayout{
					Access:        wgpu.StorageTextureAccessWriteOnly,
					Format:        wgpu.TextureFormatRGBA16Float,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			})
		case rhi.ParameterAccelerationStructure:
			return nil, nil, 0, fmt.Errorf("%w: acceleration structures on the webgpu backend", rhi.ErrNotSupported)
		}
		bindingOfParam[i] = binding
		binding++
	}

	samplerBase := binding
	for range samplers {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: visibility,
			Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
		})
		binding++
	}

	bgl, err := device.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Entries: entries})
	if err != nil {
		return nil, nil, 0, fmt.Errorf("create bind group layout: %w", err)
	}
	return bgl, bindingOfParam, samplerBase, nil
}

func createStaticSamplers(device *Device, descs []rhi.StaticSamplerDesc) ([]*wgpu.Sampler, error) {
	samplers := make([]*wgpu.Sampler, 0, len(descs))
	for _, desc := range descs {
		sampler, err := device.device.CreateSampler(&wgpu.SamplerDescriptor{
			Label:         desc.Name,
			AddressModeU:  intoAddressMode(desc.AddressUVW),
			AddressModeV:  intoAddressMode(desc.AddressUVW),
			AddressModeW:  intoAddressMode(desc.AddressUVW),
			MagFilter:     intoFilterMode(desc.Filter),
			MinFilter:     intoFilterMode(desc.Filter),
			MipmapFilter:  wgpu.MipmapFilterModeLinear,
			MaxAnisotropy: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("create sampler %s: %w", desc.Name, err)
		}
		samplers = append(samplers, sampler)
	}
	return samplers, nil
}

func (d *Device) CreateGraphicsPipelineState(desc rhi.GraphicsPipelineDesc) (rhi.PipelineState, error) {
	bgl, bindingOfParam, samplerBase, err := buildBindGroupLayout(d, desc.Parameters, desc.StaticSamplers, false)
	if err != nil {
		return nil, err
	}
	samplers, err := createStaticSamplers(d, desc.StaticSamplers)
	if err != nil {
		return nil, err
	}
	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	var targets []wgpu.ColorTargetState
	for i := uint32(0); i < desc.NumRenderTargets; i++ {
		targets = append(targets, wgpu.ColorTargetState{
			Format:    intoTextureFormat(desc.RTVFormats[i]),
			WriteMask: wgpu.ColorWriteMaskAll,
		})
	}

	pipelineDesc := &wgpu.RenderPipelineDescriptor{
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     desc.VS.(*Shader).module,
			EntryPoint: desc.VS.GetEntryPoint(),
			Buffers:    buildVertexLayouts(desc.InputLayout),
		},
		Fragment: &wgpu.FragmentState{
			Module:     desc.PS.(*Shader).module,
			EntryPoint: desc.PS.GetEntryPoint(),
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  intoPrimitiveTopology(desc.Topology),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  intoCullMode(desc.Rasterizer.CullMode),
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	}
	if desc.DepthStencil.DepthEnable {
		pipelineDesc.DepthStencil = &wgpu.DepthStencilState{
			Format:            intoTextureFormat(desc.DSVFormat),
			DepthWriteEnabled: desc.DepthStencil.DepthWrite,
			DepthCompare:      intoCompareFunction(desc.DepthStencil.DepthFunc),
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilReadMask:   0xFFFFFFFF,
			StencilWriteMask:  0xFFFFFFFF,
		}
	}

	pipeline, err := d.device.CreateRenderPipeline(pipelineDesc)
	if err != nil {
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}

	return &PipelineState{
		layout:             rhi.NewShaderParameterLayout(desc.Parameters),
		renderPipeline:     pipeline,
		bindGroupLayout:    bgl,
		bindingOfParam:     bindingOfParam,
		samplers:           samplers,
		samplerBaseBinding: samplerBase,
	}, nil
}

func (d *Device) CreateComputePipelineState(desc rhi.ComputePipelineDesc) (rhi.PipelineState, error) {
	bgl, bindingOfParam, samplerBase, err := buildBindGroupLayout(d, desc.Parameters, nil, true)
	if err != nil {
		return nil, err
	}
	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	pipeline, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Layout: pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     desc.CS.(*Shader).module,
			EntryPoint: desc.CS.GetEntryPoint(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}

	return &PipelineState{
		layout:             rhi.NewShaderParameterLayout(desc.Parameters),
		computePipeline:    pipeline,
		bindGroupLayout:    bgl,
		bindingOfParam:     bindingOfParam,
		samplerBaseBinding: samplerBase,
		compute:            true,
	}, nil
}

func (d *Device) CreateRaytracingPipelineState(desc rhi.RaytracingPipelineDesc) (rhi.PipelineState, error) {
	return nil, rhi.ErrNotSupported
}

// buildVertexLayouts groups input elements by slot. The stride of a slot
// is the end of its furthest attribute.
func buildVertexLayouts(elements []rhi.InputElement) []wgpu.VertexBufferLayout {
	var maxSlot uint32
	for _, e := range elements {
		if e.InputSlot > maxSlot {
			maxSlot = e.InputSlot
		}
	}
	if len(elements) == 0 {
		return nil
	}

	layouts := make([]wgpu.VertexBufferLayout, maxSlot+1)
	for location, e := range elements {
		slot := &layouts[e.InputSlot]
		slot.Attributes = append(slot.Attributes, wgpu.VertexAttribute{
			Format:         intoVertexFormat(e.Format),
			Offset:         uint64(e.ByteOffset),
			ShaderLocation: uint32(location),
		})
		if end := uint64(e.ByteOffset + e.Format.BytesPerPixel()); end > slot.ArrayStride {
			slot.ArrayStride = end
		}
	}
	for i := range layouts {
		layouts[i].StepMode = wgpu.VertexStepModeVertex
	}
	return layouts
}
