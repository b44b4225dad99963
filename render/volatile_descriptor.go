package render

import (
	"fmt"

	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/util"
)

var logRenderer = util.NewLogCategory("LogRenderer")

// VolatileDescriptorHelper holds one shader-visible heap per swap-chain
// frame for a render pass's transient binds. Heaps grow on demand; slot
// offsets inside a pass come from an rhi.DescriptorIndexTracker.
type VolatileDescriptorHelper struct {
	device rhi.Device
	name   string

	heaps      []rhi.DescriptorHeap
	capacities []uint32
}

// NewVolatileDescriptorHelper allocates the per-frame slots lazily; no
// heap exists until the first ResizeAndGet.
func NewVolatileDescriptorHelper(device rhi.Device, passName string, swapchainCount uint32) *VolatileDescriptorHelper {
	return &VolatileDescriptorHelper{
		device:     device,
		name:       passName,
		heaps:      make([]rhi.DescriptorHeap, swapchainCount),
		capacities: make([]uint32, swapchainCount),
	}
}

// ResizeDescriptorHeap grows the frame's heap when requiredSlots exceeds
// its capacity.
func (h *VolatileDescriptorHelper) ResizeDescriptorHeap(frameIndex, requiredSlots uint32) {
	if h.heaps[frameIndex] != nil && h.capacities[frameIndex] >= requiredSlots {
		return
	}
	heap, err := h.device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeCBVSRVUAV,
		NumDescriptors: requiredSlots,
		ShaderVisible:  true,
	})
	if err != nil {
		panic(fmt.Sprintf("resize volatile heap %s: %v", h.name, err))
	}
	heap.SetDebugName(fmt.Sprintf("%s_VolatileViewHeap_%d", h.name, frameIndex))
	h.heaps[frameIndex] = heap
	h.capacities[frameIndex] = requiredSlots
	logRenderer.Debugf("%s: resize volatile heap %d to %d descriptors", h.name, frameIndex, requiredSlots)
}

// GetDescriptorHeap is the bind target during command recording.
func (h *VolatileDescriptorHelper) GetDescriptorHeap(frameIndex uint32) rhi.DescriptorHeap {
	return h.heaps[frameIndex]
}

// ResizeAndGet combines the two calls every pass makes back to back.
func (h *VolatileDescriptorHelper) ResizeAndGet(frameIndex, requiredSlots uint32) rhi.DescriptorHeap {
	h.ResizeDescriptorHeap(frameIndex, requiredSlots)
	return h.heaps[frameIndex]
}
