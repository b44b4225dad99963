package noop

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/codeonwort/cyseal/rhi"
)

// CommandQueue completes work the moment it is "submitted": there is no
// GPU behind it, so the fence advances synchronously.
type CommandQueue struct {
	nextFenceValue      atomic.Uint64
	completedFenceValue atomic.Uint64
}

func (q *CommandQueue) ExecuteCommandList(cmdList rhi.CommandList) {
	cl := cmdList.(*CommandList)
	if cl.open {
		panic("command list executed without Close")
	}
}

func (q *CommandQueue) Signal() uint64 {
	v := q.nextFenceValue.Add(1)
	q.completedFenceValue.Store(v)
	return v
}

func (q *CommandQueue) CompletedValue() uint64 {
	return q.completedFenceValue.Load()
}

func (q *CommandQueue) WaitForFenceValue(value uint64) {
	// Signals complete synchronously, so the wait has nothing to do.
}

// CommandAllocator models the reset protocol without native memory.
type CommandAllocator struct {
	queue             *CommandQueue
	valid             bool
	pendingFenceValue uint64
}

func (a *CommandAllocator) Reset() {
	if !a.valid && a.queue.CompletedValue() < a.pendingFenceValue {
		panic(fmt.Sprintf("command allocator reset while frame in flight (fence %d < %d)",
			a.queue.CompletedValue(), a.pendingFenceValue))
	}
	a.valid = false
}

func (a *CommandAllocator) IsValid() bool { return a.valid }

func (a *CommandAllocator) MarkPendingFenceValue(fenceValue uint64) {
	a.pendingFenceValue = fenceValue
}

// CommandList records events for inspection; resource writes apply
// eagerly through the resources themselves.
type CommandList struct {
	device    *Device
	allocator *CommandAllocator
	open      bool

	// Events is the recorded Begin/EndEvent stack trace, for tests.
	Events []string

	customMu       sync.Mutex
	customCommands []rhi.CustomCommand

	deferredMu       sync.Mutex
	deferredReleases []func()
}

func (c *CommandList) Reset(allocator rhi.CommandAllocator) {
	c.allocator = allocator.(*CommandAllocator)
	c.open = true
	c.Events = c.Events[:0]
}

func (c *CommandList) Close() {
	c.open = false
	if c.allocator != nil {
		c.allocator.valid = true
	}
}

func (c *CommandList) ResourceBarriers(barriers []rhi.ResourceBarrier) {}

func (c *CommandList) ClearRenderTargetView(rtv rhi.RenderTargetView, clearColor [4]float32) {}
func (c *CommandList) ClearDepthStencilView(dsv rhi.DepthStencilView, flags rhi.ClearFlags, depth float32, stencil uint8) {
}

func (c *CommandList) SetPipelineState(pso rhi.PipelineState)        {}
func (c *CommandList) SetDescriptorHeaps(heaps []rhi.DescriptorHeap) {}

func (c *CommandList) SetGraphicsRootConstant32(paramIndex uint32, value uint32, destOffsetIn32BitValues uint32) {
}
func (c *CommandList) SetGraphicsRootDescriptorTable(paramIndex uint32, heap rhi.DescriptorHeap, baseIndex uint32) {
}
func (c *CommandList) SetGraphicsRootCBV(paramIndex uint32, cbv rhi.ConstantBufferView) {}
func (c *CommandList) SetGraphicsRootSRV(paramIndex uint32, srv rhi.ShaderResourceView) {}
func (c *CommandList) SetGraphicsRootUAV(paramIndex uint32, uav rhi.UnorderedAccessView) {}
func (c *CommandList) SetComputeRootConstant32(paramIndex uint32, value uint32, destOffsetIn32BitValues uint32) {
}
func (c *CommandList) SetComputeRootDescriptorTable(paramIndex uint32, heap rhi.DescriptorHeap, baseIndex uint32) {
}
func (c *CommandList) SetComputeRootCBV(paramIndex uint32, cbv rhi.ConstantBufferView) {}
func (c *CommandList) SetComputeRootSRV(paramIndex uint32, srv rhi.ShaderResourceView) {}
func (c *CommandList) SetComputeRootUAV(paramIndex uint32, uav rhi.UnorderedAccessView) {}

func (c *CommandList) IASetPrimitiveTopology(topology rhi.PrimitiveTopology)      {}
func (c *CommandList) IASetVertexBuffers(startSlot uint32, buffers []rhi.VertexBuffer) {}
func (c *CommandList) IASetIndexBuffer(buffer rhi.IndexBuffer)                    {}
func (c *CommandList) RSSetViewport(viewport rhi.Viewport)                        {}
func (c *CommandList) RSSetScissorRect(rect rhi.Rect)                             {}
func (c *CommandList) OMSetRenderTargets(rtvs []rhi.RenderTargetView, dsv rhi.DepthStencilView) {}

func (c *CommandList) DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) {
}
func (c *CommandList) DrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
}

func (c *CommandList) DrawIndexedIndirect(argsBuffer rhi.Buffer, argsOffset uint64) {}

func (c *CommandList) Dispatch(threadGroupX, threadGroupY, threadGroupZ uint32) {}

func (c *CommandList) DispatchIndirect(argsBuffer rhi.Buffer, argsOffset uint64) {}

func (c *CommandList) BuildBLAS(desc *rhi.BLASBuildDesc)       {}
func (c *CommandList) BuildTLAS(desc *rhi.TLASBuildDesc)       {}
func (c *CommandList) DispatchRays(desc *rhi.DispatchRaysDesc) {}

func (c *CommandList) BeginEvent(name string) {
	c.Events = append(c.Events, name)
}

func (c *CommandList) EndEvent() {}

func (c *CommandList) EnqueueCustomCommand(command rhi.CustomCommand) {
	c.customMu.Lock()
	c.customCommands = append(c.customCommands, command)
	c.customMu.Unlock()
}

func (c *CommandList) ExecuteCustomCommands() {
	c.customMu.Lock()
	pending := c.customCommands
	c.customCommands = nil
	c.customMu.Unlock()
	for _, command := range pending {
		command(c)
	}
}

func (c *CommandList) EnqueueDeferredDealloc(release func()) {
	c.deferredMu.Lock()
	c.deferredReleases = append(c.deferredReleases, release)
	c.deferredMu.Unlock()
}

func (c *CommandList) FlushDeferredDeallocations() {
	c.deferredMu.Lock()
	pending := c.deferredReleases
	c.deferredReleases = nil
	c.deferredMu.Unlock()
	for _, release := range pending {
		release()
	}
}
