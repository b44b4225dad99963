package rhi

import "fmt"

// ShaderParameterTable collects one draw/dispatch's logical parameters by
// name. Bind* resolves the names against the pipeline's layout, copies the
// source descriptors into the pass's volatile heap, and issues the root
// binds.
type ShaderParameterTable struct {
	pushConstants  []namedConstants
	constantBuffers []namedView[ConstantBufferView]
	structuredBuffers []namedView[ShaderResourceView]
	textures       []namedView[ShaderResourceView]
	rwBuffers      []namedView[UnorderedAccessView]
	rwTextures     []namedView[UnorderedAccessView]
	accelStructs   []namedView[ShaderResourceView]
}

type namedConstants struct {
	name   string
	values []uint32
}

type namedView[T any] struct {
	name string
	view T
}

func (t *ShaderParameterTable) PushConstant(name string, values ...uint32) {
	t.pushConstants = append(t.pushConstants, namedConstants{name, values})
}

func (t *ShaderParameterTable) ConstantBuffer(name string, cbv ConstantBufferView) {
	t.constantBuffers = append(t.constantBuffers, namedView[ConstantBufferView]{name, cbv})
}

func (t *ShaderParameterTable) StructuredBuffer(name string, srv ShaderResourceView) {
	t.structuredBuffers = append(t.structuredBuffers, namedView[ShaderResourceView]{name, srv})
}

func (t *ShaderParameterTable) Texture(name string, srv ShaderResourceView) {
	t.textures = append(t.textures, namedView[ShaderResourceView]{name, srv})
}

func (t *ShaderParameterTable) RWBuffer(name string, uav UnorderedAccessView) {
	t.rwBuffers = append(t.rwBuffers, namedView[UnorderedAccessView]{name, uav})
}

func (t *ShaderParameterTable) RWTexture(name string, uav UnorderedAccessView) {
	t.rwTextures = append(t.rwTextures, namedView[UnorderedAccessView]{name, uav})
}

func (t *ShaderParameterTable) AccelerationStructure(name string, srv ShaderResourceView) {
	t.accelStructs = append(t.accelStructs, namedView[ShaderResourceView]{name, srv})
}

// BindGraphicsShaderParameters resolves and binds the table for a draw.
// tracker may be nil, in which case a throwaway tracker starting at the
// heap's first slot is used.
func BindGraphicsShaderParameters(cmdList CommandList, pso PipelineState, table *ShaderParameterTable, volatileHeap DescriptorHeap, tracker *DescriptorIndexTracker) {
	bindShaderParameters(cmdList, pso, table, volatileHeap, tracker, false)
}

// BindComputeShaderParameters resolves and binds the table for a dispatch.
func BindComputeShaderParameters(cmdList CommandList, pso PipelineState, table *ShaderParameterTable, volatileHeap DescriptorHeap, tracker *DescriptorIndexTracker) {
	bindShaderParameters(cmdList, pso, table, volatileHeap, tracker, true)
}

func bindShaderParameters(cmdList CommandList, pso PipelineState, table *ShaderParameterTable, volatileHeap DescriptorHeap, tracker *DescriptorIndexTracker, compute bool) {
	device := GetDevice()
	layout := pso.GetParameterLayout()
	if tracker == nil {
		tracker = &DescriptorIndexTracker{}
	}

	setConstant32 := cmdList.SetGraphicsRootConstant32
	setTable := cmdList.SetGraphicsRootDescriptorTable
	if compute {
		setConstant32 = cmdList.SetComputeRootConstant32
		setTable = cmdList.SetComputeRootDescriptorTable
	}

	for _, pc := range table.pushConstants {
		paramIx, decl := layout.Resolve(pc.name)
		if decl.Kind != ParameterPushConstant {
			panic(fmt.Sprintf("shader parameter %q is not a push constant", pc.name))
		}
		if uint32(len(pc.values)) > decl.NumElements {
			panic(fmt.Sprintf("push constant %q: %d values exceed declared %d", pc.name, len(pc.values), decl.NumElements))
		}
		for i, v := range pc.values {
			setConstant32(paramIx, v, uint32(i))
		}
	}

	bindTable := func(name string, wantKind ShaderParameterKind, view DescriptorView) {
		paramIx, decl := layout.Resolve(name)
		if decl.Kind != wantKind {
			panic(fmt.Sprintf("shader parameter %q: kind mismatch", name))
		}
		slot := tracker.Allocate(1)
		if slot >= volatileHeap.GetDesc().NumDescriptors {
			panic(fmt.Sprintf("volatile heap %s overflow while binding %q", volatileHeap.GetDebugName(), name))
		}
		device.CopyDescriptors(1, volatileHeap, slot, view.SourceHeap(), view.DescriptorIndex())
		setTable(paramIx, volatileHeap, slot)
	}

	for _, p := range table.constantBuffers {
		bindTable(p.name, ParameterConstantBuffer, p.view)
	}
	for _, p := range table.structuredBuffers {
		bindTable(p.name, ParameterStructuredBuffer, p.view)
	}
	for _, p := range table.textures {
		bindTable(p.name, ParameterTexture, p.view)
	}
	for _, p := range table.rwBuffers {
		bindTable(p.name, ParameterRWBuffer, p.view)
	}
	for _, p := range table.rwTextures {
		bindTable(p.name, ParameterRWTexture, p.view)
	}
	for _, p := range table.accelStructs {
		bindTable(p.name, ParameterAccelerationStructure, p.view)
	}
}
