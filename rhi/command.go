package rhi

// CustomCommand is application work deferred onto the render thread.
// Closures own their captured data; running them releases it.
type CustomCommand func(cmdList CommandList)

// CommandQueue submits closed command lists. Commands on the direct queue
// execute in submission order.
type CommandQueue interface {
	ExecuteCommandList(cmdList CommandList)

	// Signal appends a fence signal after all submitted work and returns
	// the signaled value.
	Signal() uint64

	// CompletedValue is the highest fence value the GPU has passed.
	CompletedValue() uint64

	// WaitForFenceValue blocks the CPU until the fence passes value.
	WaitForFenceValue(value uint64)
}

// CommandAllocator backs one slot of the N-deep frame ring.
type CommandAllocator interface {
	// Reset recycles the allocator memory. Resetting while the frame that
	// used it is still in flight is a protocol error and panics.
	Reset()

	// IsValid is false between Reset and the close of the command list
	// recorded against this allocator.
	IsValid() bool

	// MarkPendingFenceValue records the fence value whose completion
	// makes this allocator safe to reset again.
	MarkPendingFenceValue(fenceValue uint64)
}

// CommandList is a linear recorder of GPU work.
type CommandList interface {
	Reset(allocator CommandAllocator)
	Close()

	ResourceBarriers(barriers []ResourceBarrier)

	ClearRenderTargetView(rtv RenderTargetView, clearColor [4]float32)
	ClearDepthStencilView(dsv DepthStencilView, flags ClearFlags, depth float32, stencil uint8)

	SetPipelineState(pso PipelineState)
	SetDescriptorHeaps(heaps []DescriptorHeap)

	// Root parameter binds. Parameter indices come from the pipeline's
	// ShaderParameterLayout; prefer BindGraphicsShaderParameters and
	// BindComputeShaderParameters over calling these directly.
	SetGraphicsRootConstant32(paramIndex uint32, value uint32, destOffsetIn32BitValues uint32)
	SetGraphicsRootDescriptorTable(paramIndex uint32, heap DescriptorHeap, baseIndex uint32)
	SetGraphicsRootCBV(paramIndex uint32, cbv ConstantBufferView)
	SetGraphicsRootSRV(paramIndex uint32, srv ShaderResourceView)
	SetGraphicsRootUAV(paramIndex uint32, uav UnorderedAccessView)
	SetComputeRootConstant32(paramIndex uint32, value uint32, destOffsetIn32BitValues uint32)
	SetComputeRootDescriptorTable(paramIndex uint32, heap DescriptorHeap, baseIndex uint32)
	SetComputeRootCBV(paramIndex uint32, cbv ConstantBufferView)
	SetComputeRootSRV(paramIndex uint32, srv ShaderResourceView)
	SetComputeRootUAV(paramIndex uint32, uav UnorderedAccessView)

	IASetPrimitiveTopology(topology PrimitiveTopology)
	IASetVertexBuffers(startSlot uint32, buffers []VertexBuffer)
	IASetIndexBuffer(buffer IndexBuffer)
	RSSetViewport(viewport Viewport)
	RSSetScissorRect(rect Rect)
	OMSetRenderTargets(rtvs []RenderTargetView, dsv DepthStencilView)

	DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32)
	DrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32)
	// DrawIndexedIndirect reads its arguments from argsBuffer at offset.
	DrawIndexedIndirect(argsBuffer Buffer, argsOffset uint64)

	Dispatch(threadGroupX, threadGroupY, threadGroupZ uint32)
	DispatchIndirect(argsBuffer Buffer, argsOffset uint64)

	BuildBLAS(desc *BLASBuildDesc)
	BuildTLAS(desc *TLASBuildDesc)
	DispatchRays(desc *DispatchRaysDesc)

	BeginEvent(name string)
	EndEvent()

	// EnqueueCustomCommand appends a closure to the pending custom-command
	// list. Safe to call from the application thread.
	EnqueueCustomCommand(command CustomCommand)
	// ExecuteCustomCommands drains the pending list on the render thread.
	ExecuteCustomCommands()

	// EnqueueDeferredDealloc schedules release work for after the GPU has
	// completed the frame this list was recorded for.
	EnqueueDeferredDealloc(release func())
	// FlushDeferredDeallocations runs pending releases. Called once the
	// frame fence has signaled.
	FlushDeferredDeallocations()
}

// EnqueueRenderCommand appends a named closure to the mailbox consumed by
// the render thread during command-list building.
func EnqueueRenderCommand(name string, command CustomCommand) {
	renderCommandMailbox <- namedRenderCommand{name: name, command: command}
}

// DrainRenderCommands executes every pending mailbox entry against cmdList.
// Called by the render thread once per frame before pass recording.
func DrainRenderCommands(cmdList CommandList) {
	for {
		select {
		case cmd := <-renderCommandMailbox:
			cmdList.BeginEvent(cmd.name)
			cmd.command(cmdList)
			cmdList.EndEvent()
		default:
			return
		}
	}
}

// FlushRenderCommands drains the mailbox into the device's frame-0 command
// list, submits it, and blocks until the GPU is idle. Used during startup
// and teardown, outside the frame loop.
func FlushRenderCommands() {
	device := GetDevice()
	allocator := device.GetCommandAllocator(0)
	cmdList := device.GetCommandList(0)

	device.FlushCommandQueue()
	allocator.Reset()
	cmdList.Reset(allocator)
	DrainRenderCommands(cmdList)
	cmdList.ExecuteCustomCommands()
	cmdList.Close()
	device.GetCommandQueue().ExecuteCommandList(cmdList)
	device.FlushCommandQueue()
	cmdList.FlushDeferredDeallocations()
}

type namedRenderCommand struct {
	name    string
	command CustomCommand
}

// The mailbox is bounded; a full mailbox blocks the application thread
// until the render thread catches up.
var renderCommandMailbox = make(chan namedRenderCommand, 1024)
