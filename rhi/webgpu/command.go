package webgpu

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/codeonwort/cyseal/rhi"
)

// CommandQueue submits finished encoders. Fence progress is driven by
// device polling: wgpu has no user fences, so a signal completes once the
// device has drained submitted work.
type CommandQueue struct {
	device *Device

	mu             sync.Mutex
	nextFenceValue uint64
	completedValue uint64
}

func (q *CommandQueue) ExecuteCommandList(cmdList rhi.CommandList) {
	cl := cmdList.(*CommandList)
	if cl.finished == nil {
		return
	}
	q.device.queue.Submit(cl.finished...)
	cl.finished = nil
}

func (q *CommandQueue) Signal() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextFenceValue++
	return q.nextFenceValue
}

func (q *CommandQueue) CompletedValue() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completedValue
}

func (q *CommandQueue) WaitForFenceValue(value uint64) {
	q.mu.Lock()
	if q.completedValue >= value {
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	// Block until the GPU is idle; everything signaled so far is done.
	q.device.device.Poll(true, nil)

	q.mu.Lock()
	if value > q.completedValue {
		q.completedValue = value
	}
	if q.nextFenceValue > q.completedValue {
		q.completedValue = q.nextFenceValue
	}
	q.mu.Unlock()
}

// CommandAllocator models the D3D12 reset protocol over wgpu encoders.
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

// pendingAttachment stages an OMSetRenderTargets + clears until the next
// draw opens the wgpu render pass.
type pendingAttachment struct {
	rtvs       []*RenderTargetView
	dsv        *DepthStencilView
	clearColor map[*RenderTargetView][4]float32
	clearDepth *float32
}

// rootBind is one recorded root parameter bind, resolved into bind group
// entries when a draw or dispatch materializes the group.
type rootBind struct {
	heap      *DescriptorHeap
	baseIndex uint32
	record    *slotRecord
}

// CommandList translates the linear D3D12-style recording surface onto a
// wgpu command encoder, opening and closing passes lazily around draws
// and dispatches.
type CommandList struct {
	device    *Device
	allocator *CommandAllocator

	encoder  *wgpu.CommandEncoder
	finished []*wgpu.CommandBuffer

	renderPass  *wgpu.RenderPassEncoder
	computePass *wgpu.ComputePassEncoder

	pso        *PipelineState
	rootBinds  map[uint32]rootBind
	rootConstants map[uint32][]byte
	attachment pendingAttachment

	// transientBuffers back root constants for one recording; released
	// when the list is reset for its next frame.
	transientBuffers []*wgpu.Buffer

	viewport     rhi.Viewport
	scissor      rhi.Rect
	vertexBufs   []*VertexBuffer
	indexBuf     *IndexBuffer

	customMu       sync.Mutex
	customCommands []rhi.CustomCommand

	deferredMu       sync.Mutex
	deferredReleases []func()
}

func (c *CommandList) Reset(allocator rhi.CommandAllocator) {
	c.allocator = allocator.(*CommandAllocator)
	encoder, err := c.device.device.CreateCommandEncoder(nil)
	if err != nil {
		panic(fmt.Sprintf("create command encoder: %v", err))
	}
	c.encoder = encoder
	c.rootBinds = make(map[uint32]rootBind)
	c.rootConstants = make(map[uint32][]byte)
	c.attachment = pendingAttachment{clearColor: map[*RenderTargetView][4]float32{}}

	for _, buffer := range c.transientBuffers {
		buffer.Release()
	}
	c.transientBuffers = nil
}

func (c *CommandList) Close() {
	c.endPasses()
	if c.encoder != nil {
		cb, err := c.encoder.Finish(nil)
		if err != nil {
			panic(fmt.Sprintf("finish command encoder: %v", err))
		}
		c.finished = append(c.finished, cb)
		c.encoder = nil
	}
	if c.allocator != nil {
		c.allocator.valid = true
	}
}

func (c *CommandList) endPasses() {
	if c.renderPass != nil {
		c.renderPass.End()
		c.renderPass = nil
	}
	if c.computePass != nil {
		c.computePass.End()
		c.computePass = nil
	}
}

// ResourceBarriers are no-ops: wgpu synchronizes hazards itself.
func (c *CommandList) ResourceBarriers(barriers []rhi.ResourceBarrier) {}

func (c *CommandList) ClearRenderTargetView(rtv rhi.RenderTargetView, clearColor [4]float32) {
	c.attachment.clearColor[rtv.(*RenderTargetView)] = clearColor
}

func (c *CommandList) ClearDepthStencilView(dsv rhi.DepthStencilView, flags rhi.ClearFlags, depth float32, stencil uint8) {
	d := depth
	c.attachment.clearDepth = &d
}

func (c *CommandList) SetPipelineState(pso rhi.PipelineState) {
	c.endPasses()
	c.pso = pso.(*PipelineState)
	c.rootBinds = make(map[uint32]rootBind)
	c.rootConstants = make(map[uint32][]byte)
}

// SetDescriptorHeaps is implicit: heaps resolve at bind-group build time.
func (c *CommandList) SetDescriptorHeaps(heaps []rhi.DescriptorHeap) {}

// Root constants accumulate CPU-side and flush into a transient uniform
// buffer when the next draw or dispatch materializes its bind group.
func (c *CommandList) setRootConstant(paramIndex, value, destOffset uint32) {
	shadow, ok := c.rootConstants[paramIndex]
	if !ok {
		shadow = make([]byte, c.pso.layout.DeclAt(paramIndex).NumElements*4)
		c.rootConstants[paramIndex] = shadow
	}
	if int(destOffset*4+4) <= len(shadow) {
		binary.LittleEndian.PutUint32(shadow[destOffset*4:], value)
	}
}

func (c *CommandList) setRootTable(paramIndex uint32, heap rhi.DescriptorHeap, baseIndex uint32) {
	h := heap.(*DescriptorHeap)
	c.rootBinds[paramIndex] = rootBind{heap: h, baseIndex: baseIndex}
}

func (c *CommandList) setRootRecord(paramIndex uint32, record slotRecord) {
	c.rootBinds[paramIndex] = rootBind{record: &record}
}

func (c *CommandList) SetGraphicsRootConstant32(paramIndex uint32, value uint32, destOffsetIn32BitValues uint32) {
	c.setRootConstant(paramIndex, value, destOffsetIn32BitValues)
}

func (c *CommandList) SetGraphicsRootDescriptorTable(paramIndex uint32, heap rhi.DescriptorHeap, baseIndex uint32) {
	c.setRootTable(paramIndex, heap, baseIndex)
}

func (c *CommandList) SetGraphicsRootCBV(paramIndex uint32, cbv rhi.ConstantBufferView) {
	v := cbv.(*ConstantBufferView)
	c.setRootRecord(paramIndex, slotRecord{buffer: v.buffer.native, bufferOffset: v.offsetInBuffer, bufferSize: uint64(v.sizeInBytes), uniform: true})
}

func (c *CommandList) SetGraphicsRootSRV(paramIndex uint32, srv rhi.ShaderResourceView) {
	v := srv.(*ShaderResourceView)
	c.setRootRecord(paramIndex, v.heap.slots[v.index])
}

func (c *CommandList) SetGraphicsRootUAV(paramIndex uint32, uav rhi.UnorderedAccessView) {
	v := uav.(*UnorderedAccessView)
	c.setRootRecord(paramIndex, v.heap.slots[v.index])
}

func (c *CommandList) SetComputeRootConstant32(paramIndex uint32, value uint32, destOffsetIn32BitValues uint32) {
	c.setRootConstant(paramIndex, value, destOffsetIn32BitValues)
}

func (c *CommandList) SetComputeRootDescriptorTable(paramIndex uint32, heap rhi.DescriptorHeap, baseIndex uint32) {
	c.setRootTable(paramIndex, heap, baseIndex)
}

func (c *CommandList) SetComputeRootCBV(paramIndex uint32, cbv rhi.ConstantBufferView) {
	c.SetGraphicsRootCBV(paramIndex, cbv)
}

func (c *CommandList) SetComputeRootSRV(paramIndex uint32, srv rhi.ShaderResourceView) {
	c.SetGraphicsRootSRV(paramIndex, srv)
}

func (c *CommandList) SetComputeRootUAV(paramIndex uint32, uav rhi.UnorderedAccessView) {
	c.SetGraphicsRootUAV(paramIndex, uav)
}

func (c *CommandList) IASetPrimitiveTopology(topology rhi.PrimitiveTopology) {}

func (c *CommandList) IASetVertexBuffers(startSlot uint32, buffers []rhi.VertexBuffer) {
	c.vertexBufs = c.vertexBufs[:0]
	for _, b := range buffers {
		c.vertexBufs = append(c.vertexBufs, b.(*VertexBuffer))
	}
}

func (c *CommandList) IASetIndexBuffer(buffer rhi.IndexBuffer) {
	c.indexBuf = buffer.(*IndexBuffer)
}

func (c *CommandList) RSSetViewport(viewport rhi.Viewport) { c.viewport = viewport }
func (c *CommandList) RSSetScissorRect(rect rhi.Rect)      { c.scissor = rect }

func (c *CommandList) OMSetRenderTargets(rtvs []rhi.RenderTargetView, dsv rhi.DepthStencilView) {
	c.endPasses()
	c.attachment.rtvs = c.attachment.rtvs[:0]
	for _, rtv := range rtvs {
		c.attachment.rtvs = append(c.attachment.rtvs, rtv.(*RenderTargetView))
	}
	c.attachment.dsv = nil
	if dsv != nil {
		c.attachment.dsv = dsv.(*DepthStencilView)
	}
}

// buildBindGroup resolves every recorded root bind into one wgpu bind
// group following the pipeline's binding assignment.
func (c *CommandList) buildBindGroup() *wgpu.BindGroup {
	var entries []wgpu.BindGroupEntry
	for paramIx, binding := range c.pso.bindingOfParam {
		if shadow, ok := c.rootConstants[uint32(paramIx)]; ok {
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: binding,
				Buffer:  c.transientUniform(shadow),
				Size:    uint64(len(shadow)),
			})
			continue
		}
		bind, ok := c.rootBinds[uint32(paramIx)]
		if !ok {
			continue
		}
		record := bind.record
		if record == nil {
			record = &bind.heap.slots[bind.baseIndex]
		}
		entry := wgpu.BindGroupEntry{Binding: binding}
		if record.buffer != nil {
			entry.Buffer = record.buffer
			entry.Offset = record.bufferOffset
			entry.Size = record.bufferSize
		} else if record.textureView != nil {
			entry.TextureView = record.textureView
		}
		entries = append(entries, entry)
	}
	for i, sampler := range c.pso.samplers {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: c.pso.samplerBaseBinding + uint32(i),
			Sampler: sampler,
		})
	}

	group, err := c.device.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  c.pso.bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		panic(fmt.Sprintf("create bind group: %v", err))
	}
	return group
}

// transientUniform uploads a root-constant shadow into a one-shot uniform
// buffer that lives until the list is reset again.
func (c *CommandList) transientUniform(data []byte) *wgpu.Buffer {
	size := uint64((len(data) + 15) &^ 15)
	buffer, err := c.device.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "RootConstants",
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(fmt.Sprintf("create root constant buffer: %v", err))
	}
	c.device.queue.WriteBuffer(buffer, 0, data)
	c.transientBuffers = append(c.transientBuffers, buffer)
	return buffer
}

func (c *CommandList) beginRenderPassIfNeeded() {
	if c.renderPass != nil {
		return
	}
	if c.computePass != nil {
		c.computePass.End()
		c.computePass = nil
	}

	var colors []wgpu.RenderPassColorAttachment
	for _, rtv := range c.attachment.rtvs {
		attachment := wgpu.RenderPassColorAttachment{
			View:    rtv.texture.(*Texture).getView(),
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}
		if color, ok := c.attachment.clearColor[rtv]; ok {
			attachment.LoadOp = wgpu.LoadOpClear
			attachment.ClearValue = wgpu.Color{
				R: float64(color[0]), G: float64(color[1]),
				B: float64(color[2]), A: float64(color[3]),
			}
			delete(c.attachment.clearColor, rtv)
		}
		colors = append(colors, attachment)
	}

	desc := &wgpu.RenderPassDescriptor{ColorAttachments: colors}
	if c.attachment.dsv != nil {
		depthAttachment := &wgpu.RenderPassDepthStencilAttachment{
			View:        c.attachment.dsv.texture.(*Texture).getView(),
			DepthLoadOp: wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		}
		if c.attachment.clearDepth != nil {
			depthAttachment.DepthLoadOp = wgpu.LoadOpClear
			depthAttachment.DepthClearValue = *c.attachment.clearDepth
			c.attachment.clearDepth = nil
		}
		desc.DepthStencilAttachment = depthAttachment
	}

	c.renderPass = c.encoder.BeginRenderPass(desc)
}

func (c *CommandList) prepareDraw() *wgpu.RenderPassEncoder {
	c.beginRenderPassIfNeeded()
	rp := c.renderPass
	rp.SetPipeline(c.pso.renderPipeline)
	rp.SetBindGroup(0, c.buildBindGroup(), nil)
	if c.viewport.Width > 0 {
		rp.SetViewport(c.viewport.TopLeftX, c.viewport.TopLeftY, c.viewport.Width, c.viewport.Height, c.viewport.MinDepth, c.viewport.MaxDepth)
	}
	if c.scissor.Right > c.scissor.Left || c.scissor.Bottom > c.scissor.Top {
		rp.SetScissorRect(uint32(c.scissor.Left), uint32(c.scissor.Top),
			uint32(c.scissor.Right-c.scissor.Left), uint32(c.scissor.Bottom-c.scissor.Top))
	}
	for slot, vb := range c.vertexBufs {
		rp.SetVertexBuffer(uint32(slot), vb.native, vb.offsetInPool, uint64(vb.createParams.SizeInBytes))
	}
	if c.indexBuf != nil {
		rp.SetIndexBuffer(c.indexBuf.native, intoIndexFormat(c.indexBuf.indexFormat),
			c.indexBuf.offsetInPool, uint64(c.indexBuf.createParams.SizeInBytes))
	}
	return rp
}

func (c *CommandList) DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) {
	rp := c.prepareDraw()
	rp.Draw(vertexCountPerInstance, instanceCount, startVertex, startInstance)
}

func (c *CommandList) DrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	rp := c.prepareDraw()
	rp.DrawIndexed(indexCountPerInstance, instanceCount, startIndex, baseVertex, startInstance)
}

func (c *CommandList) DrawIndexedIndirect(argsBuffer rhi.Buffer, argsOffset uint64) {
	rp := c.prepareDraw()
	buf := argsBuffer.(*Buffer)
	rp.DrawIndexedIndirect(buf.native, buf.offsetInPool+argsOffset)
}

func (c *CommandList) DispatchIndirect(argsBuffer rhi.Buffer, argsOffset uint64) {
	c.ensureComputePass()
	buf := argsBuffer.(*Buffer)
	c.computePass.SetPipeline(c.pso.computePipeline)
	c.computePass.SetBindGroup(0, c.buildBindGroup(), nil)
	c.computePass.DispatchWorkgroupsIndirect(buf.native, buf.offsetInPool+argsOffset)
}

func (c *CommandList) ensureComputePass() {
	if c.renderPass != nil {
		c.renderPass.End()
		c.renderPass = nil
	}
	if c.computePass == nil {
		c.computePass = c.encoder.BeginComputePass(nil)
	}
}

func (c *CommandList) Dispatch(threadGroupX, threadGroupY, threadGroupZ uint32) {
	c.ensureComputePass()
	cp := c.computePass
	cp.SetPipeline(c.pso.computePipeline)
	cp.SetBindGroup(0, c.buildBindGroup(), nil)
	cp.DispatchWorkgroups(threadGroupX, threadGroupY, threadGroupZ)
}

func (c *CommandList) BuildBLAS(desc *rhi.BLASBuildDesc) {
	logDevice.Warnf("BuildBLAS ignored: raytracing is unsupported on the webgpu backend")
}

func (c *CommandList) BuildTLAS(desc *rhi.TLASBuildDesc) {
	logDevice.Warnf("BuildTLAS ignored: raytracing is unsupported on the webgpu backend")
}

func (c *CommandList) DispatchRays(desc *rhi.DispatchRaysDesc) {
	logDevice.Warnf("DispatchRays ignored: raytracing is unsupported on the webgpu backend")
}

func (c *CommandList) BeginEvent(name string) {
	if c.renderPass != nil {
		c.renderPass.PushDebugGroup(name)
	} else if c.computePass != nil {
		c.computePass.PushDebugGroup(name)
	}
}

func (c *CommandList) EndEvent() {
	if c.renderPass != nil {
		c.renderPass.PopDebugGroup()
	} else if c.computePass != nil {
		c.computePass.PopDebugGroup()
	}
}

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
