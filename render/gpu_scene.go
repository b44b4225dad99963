package render

import (
	"fmt"

	"github.com/codeonwort/cyseal/core"
	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/shaders"
	"github.com/codeonwort/cyseal/util"
	"github.com/codeonwort/cyseal/world"
)

var logGPUScene = util.NewLogCategory("LogGPUScene")

const (
	defaultMaxSceneElements = 256
	// The item allocator's bound is independent of buffer capacity; the
	// buffer grows to cover the highest live index.
	maxSceneItemIndices = 1 << 20
)

// GPUScene keeps every live mesh section mirrored into one structured
// buffer shaders index by scene item index. Each frame, commands emitted
// at proxy creation are uploaded to the frame's command buffer and applied
// by a compute dispatch, one thread per command.
type GPUScene struct {
	device         rhi.Device
	swapchainCount uint32

	itemAllocator *core.FreeNumberList

	gpuSceneMaxElements uint32
	gpuSceneBuffer      rhi.Buffer
	gpuSceneBufferSRV   rhi.ShaderResourceView
	gpuSceneBufferUAV   rhi.UnorderedAccessView

	commandBufferMaxElements []uint32
	commandBuffers           []rhi.Buffer
	commandBufferSRVs        []rhi.ShaderResourceView

	volatileHeaps *VolatileDescriptorHelper

	pipelineState rhi.PipelineState
}

// NewGPUScene creates the scene buffer at its default capacity plus the
// per-frame command buffers and the apply-commands compute pipeline.
func NewGPUScene(device rhi.Device) (*GPUScene, error) {
	swapchainCount := device.GetSwapChain().GetBufferCount()
	gs := &GPUScene{
		device:                   device,
		swapchainCount:           swapchainCount,
		itemAllocator:            core.NewFreeNumberList(maxSceneItemIndices),
		commandBufferMaxElements: make([]uint32, swapchainCount),
		commandBuffers:           make([]rhi.Buffer, swapchainCount),
		commandBufferSRVs:        make([]rhi.ShaderResourceView, swapchainCount),
		volatileHeaps:            NewVolatileDescriptorHelper(device, "GPUScene", swapchainCount),
	}

	if err := gs.resizeGPUSceneBuffers(defaultMaxSceneElements); err != nil {
		return nil, err
	}

	shaderCS := device.CreateShader(rhi.ShaderStageCompute, "GPUSceneCS")
	if err := shaderCS.LoadFromSource(shaders.GPUSceneWGSL, "mainCS"); err != nil {
		return nil, fmt.Errorf("load gpu scene shader: %w", err)
	}

	pso, err := device.CreateComputePipelineState(rhi.ComputePipelineDesc{
		CS: shaderCS,
		Parameters: []rhi.ShaderParameterDecl{
			{Name: "pushConstants", Kind: rhi.ParameterPushConstant, NumElements: 1},
			{Name: "sceneUniform", Kind: rhi.ParameterConstantBuffer, NumElements: 1},
			{Name: "gpuSceneBuffer", Kind: rhi.ParameterRWBuffer, NumElements: 1},
			{Name: "gpuSceneCommandBuffer", Kind: rhi.ParameterStructuredBuffer, NumElements: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gpu scene pipeline: %w", err)
	}
	gs.pipelineState = pso
	return gs, nil
}

// GetItemAllocator is the scene-wide item index allocator handed to proxy
// creation.
func (gs *GPUScene) GetItemAllocator() *core.FreeNumberList { return gs.itemAllocator }

// GetGPUSceneBufferSRV is consumed by downstream passes.
func (gs *GPUScene) GetGPUSceneBufferSRV() rhi.ShaderResourceView { return gs.gpuSceneBufferSRV }

// GetSceneBuffer exposes the scene buffer for barriers and tests.
func (gs *GPUScene) GetSceneBuffer() rhi.Buffer { return gs.gpuSceneBuffer }

// GetCommandBuffer exposes one frame's command buffer for tests.
func (gs *GPUScene) GetCommandBuffer(swapchainIndex uint32) rhi.Buffer {
	return gs.commandBuffers[swapchainIndex]
}

// PackCommands flattens the proxy's command vectors into the wire format:
// evictions first, then allocations, then transform updates. An eviction
// whose slot is re-allocated in the same frame is dropped, because every
// command runs on its own compute thread and the alloc fully rewrites the
// slot.
func PackCommands(proxy *world.SceneProxy) []byte {
	reallocated := make(map[uint32]bool, len(proxy.GPUSceneAllocCommands))
	for _, cmd := range proxy.GPUSceneAllocCommands {
		reallocated[cmd.SceneItemIndex] = true
	}

	packed := make([]byte, 0, proxy.NumGPUSceneCommands()*world.GPUSceneCommandSizeInBytes)
	var scratch [world.GPUSceneCommandSizeInBytes]byte

	for _, cmd := range proxy.GPUSceneEvictCommands {
		if reallocated[cmd.SceneItemIndex] {
			continue
		}
		world.EncodeGPUSceneCommand(scratch[:], world.GPUSceneCommandEvict, cmd.SceneItemIndex, nil)
		packed = append(packed, scratch[:]...)
	}
	for _, cmd := range proxy.GPUSceneAllocCommands {
		item := cmd.SceneItem
		world.EncodeGPUSceneCommand(scratch[:], world.GPUSceneCommandAlloc, cmd.SceneItemIndex, &item)
		packed = append(packed, scratch[:]...)
	}
	for _, cmd := range proxy.GPUSceneUpdateCommands {
		item := world.SceneItem{
			LocalToWorld:     cmd.LocalToWorld,
			PrevLocalToWorld: cmd.PrevLocalToWorld,
		}
		world.EncodeGPUSceneCommand(scratch[:], world.GPUSceneCommandUpdate, cmd.SceneItemIndex, &item)
		packed = append(packed, scratch[:]...)
	}
	return packed
}

// RenderGPUScene uploads this frame's packed commands and dispatches the
// apply-commands compute shader over them.
func (gs *GPUScene) RenderGPUScene(
	cmdList rhi.CommandList,
	swapchainIndex uint32,
	proxy *world.SceneProxy,
	sceneUniform rhi.ConstantBufferView,
) error {
	// Grow the scene buffer to cover the highest slot touched this frame.
	requiredElements := gs.requiredSceneElements(proxy)
	if requiredElements > gs.gpuSceneMaxElements {
		if err := gs.resizeGPUSceneBuffers(core.NextPowerOfTwo(requiredElements)); err != nil {
			return err
		}
	}

	packed := PackCommands(proxy)
	numCommands := uint32(len(packed) / world.GPUSceneCommandSizeInBytes)
	if numCommands == 0 {
		return nil
	}

	if err := gs.resizeCommandBuffer(swapchainIndex, numCommands); err != nil {
		return err
	}

	if proxy.RebuildGPUScene {
		cmdList.BeginEvent(fmt.Sprintf("RebuildSceneBuffer (count=%d)", numCommands))
	} else {
		cmdList.BeginEvent(fmt.Sprintf("UpdateSceneBuffer (count=%d)", numCommands))
	}
	defer cmdList.EndEvent()

	gs.commandBuffers[swapchainIndex].SingleWriteToGPU(cmdList, packed, 0)

	cmdList.ResourceBarriers([]rhi.ResourceBarrier{
		{
			Type:        rhi.BarrierTypeTransition,
			Resource:    gs.commandBuffers[swapchainIndex],
			StateBefore: rhi.ResourceStateCommon,
			StateAfter:  rhi.ResourceStateShaderResource,
		},
		{
			Type:        rhi.BarrierTypeTransition,
			Resource:    gs.gpuSceneBuffer,
			StateBefore: rhi.ResourceStateCommon,
			StateAfter:  rhi.ResourceStateUnorderedAccess,
		},
	})

	volatileHeap := gs.volatileHeaps.ResizeAndGet(swapchainIndex, 4)

	cmdList.SetPipelineState(gs.pipelineState)
	cmdList.SetDescriptorHeaps([]rhi.DescriptorHeap{volatileHeap})

	table := &rhi.ShaderParameterTable{}
	table.PushConstant("pushConstants", numCommands)
	table.ConstantBuffer("sceneUniform", sceneUniform)
	table.RWBuffer("gpuSceneBuffer", gs.gpuSceneBufferUAV)
	table.StructuredBuffer("gpuSceneCommandBuffer", gs.commandBufferSRVs[swapchainIndex])
	tracker := &rhi.DescriptorIndexTracker{}
	rhi.BindComputeShaderParameters(cmdList, gs.pipelineState, table, volatileHeap, tracker)

	const threadsPerGroup = 64
	cmdList.Dispatch((numCommands+threadsPerGroup-1)/threadsPerGroup, 1, 1)

	cmdList.ResourceBarriers([]rhi.ResourceBarrier{
		{
			Type:        rhi.BarrierTypeTransition,
			Resource:    gs.gpuSceneBuffer,
			StateBefore: rhi.ResourceStateUnorderedAccess,
			StateAfter:  rhi.ResourceStateShaderResource,
		},
	})
	return nil
}

func (gs *GPUScene) requiredSceneElements(proxy *world.SceneProxy) uint32 {
	var maxIndex uint32
	touch := func(ix uint32) {
		if ix+1 > maxIndex {
			maxIndex = ix + 1
		}
	}
	for _, cmd := range proxy.GPUSceneAllocCommands {
		touch(cmd.SceneItemIndex)
	}
	for _, cmd := range proxy.GPUSceneUpdateCommands {
		touch(cmd.SceneItemIndex)
	}
	for _, cmd := range proxy.GPUSceneEvictCommands {
		touch(cmd.SceneItemIndex)
	}
	return maxIndex
}

func (gs *GPUScene) resizeGPUSceneBuffers(maxElements uint32) error {
	gs.gpuSceneMaxElements = maxElements

	buffer, err := gs.device.CreateBuffer(rhi.BufferCreateParams{
		SizeInBytes: world.SceneItemSizeInBytes * maxElements,
		AccessFlags: rhi.BufferAccessUAV | rhi.BufferAccessSRV,
	})
	if err != nil {
		return fmt.Errorf("create gpu scene buffer: %w", err)
	}
	buffer.SetDebugName("Buffer_GPUScene")
	gs.gpuSceneBuffer = buffer

	tm := rhi.GetTextureManager()
	gs.gpuSceneBufferSRV, err = gs.device.CreateSRV(buffer, rhi.ShaderResourceViewDesc{
		ViewDimension: rhi.SRVDimensionBuffer,
		Buffer: rhi.BufferSRVDesc{
			NumElements:         maxElements,
			StructureByteStride: world.SceneItemSizeInBytes,
		},
	}, tm.GetGlobalSRVHeap())
	if err != nil {
		return err
	}
	gs.gpuSceneBufferUAV, err = gs.device.CreateUAV(buffer, rhi.UnorderedAccessViewDesc{
		ViewDimension: rhi.UAVDimensionBuffer,
		Buffer: rhi.BufferUAVDesc{
			NumElements:         maxElements,
			StructureByteStride: world.SceneItemSizeInBytes,
		},
	}, tm.GetGlobalUAVHeap())
	if err != nil {
		return err
	}

	logGPUScene.Infof("Resize scene buffer: %d elements (%d bytes)",
		maxElements, world.SceneItemSizeInBytes*maxElements)
	return nil
}

func (gs *GPUScene) resizeCommandBuffer(swapchainIndex, maxElements uint32) error {
	if gs.commandBuffers[swapchainIndex] != nil && gs.commandBufferMaxElements[swapchainIndex] >= maxElements {
		return nil
	}
	maxElements = core.NextPowerOfTwo(maxElements)
	gs.commandBufferMaxElements[swapchainIndex] = maxElements

	buffer, err := gs.device.CreateBuffer(rhi.BufferCreateParams{
		SizeInBytes: world.GPUSceneCommandSizeInBytes * maxElements,
		AccessFlags: rhi.BufferAccessCPUWrite | rhi.BufferAccessSRV,
	})
	if err != nil {
		return fmt.Errorf("create gpu scene command buffer: %w", err)
	}
	buffer.SetDebugName(fmt.Sprintf("Buffer_GPUSceneCommand_%d", swapchainIndex))
	gs.commandBuffers[swapchainIndex] = buffer

	tm := rhi.GetTextureManager()
	gs.commandBufferSRVs[swapchainIndex], err = gs.device.CreateSRV(buffer, rhi.ShaderResourceViewDesc{
		ViewDimension: rhi.SRVDimensionBuffer,
		Buffer: rhi.BufferSRVDesc{
			NumElements:         maxElements,
			StructureByteStride: world.GPUSceneCommandSizeInBytes,
		},
	}, tm.GetGlobalSRVHeap())
	return err
}
