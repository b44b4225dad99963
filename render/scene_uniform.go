package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/codeonwort/cyseal/core"
	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/world"
)

// sceneUniformSizeInBytes is the payload of the per-frame scene uniform:
// four matrices then four vec4s, matching SceneUniform in the shaders.
const sceneUniformSizeInBytes = 320

const sceneUniformStride = 512

// sceneUniformRing is a per-frame constant buffer partitioned over the
// swap-chain ring so frame K writes never race frame K-1 reads.
type sceneUniformRing struct {
	memory rhi.Buffer
	cbvs   []rhi.ConstantBufferView

	prevViewProj mgl32.Mat4
	hasPrev      bool
}

func newSceneUniformRing(device rhi.Device, swapchainCount uint32) (*sceneUniformRing, error) {
	memory, err := device.CreateBuffer(rhi.BufferCreateParams{
		SizeInBytes: sceneUniformStride * swapchainCount,
		AccessFlags: rhi.BufferAccessCPUWrite | rhi.BufferAccessCBV,
	})
	if err != nil {
		return nil, fmt.Errorf("create scene uniform memory: %w", err)
	}
	memory.SetDebugName("Buffer_SceneUniform")

	heap, err := device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeCBV,
		NumDescriptors: swapchainCount,
	})
	if err != nil {
		return nil, fmt.Errorf("create scene uniform heap: %w", err)
	}
	heap.SetDebugName("SceneUniformCBVHeap")

	ring := &sceneUniformRing{memory: memory, cbvs: make([]rhi.ConstantBufferView, swapchainCount)}
	for i := uint32(0); i < swapchainCount; i++ {
		cbv, err := device.CreateCBV(memory, heap, sceneUniformSizeInBytes, uint64(i)*sceneUniformStride)
		if err != nil {
			return nil, fmt.Errorf("create scene uniform CBV: %w", err)
		}
		ring.cbvs[i] = cbv
	}
	return ring, nil
}

// update writes this frame's partition and returns its CBV.
func (r *sceneUniformRing) update(cmdList rhi.CommandList, swapchainIndex uint32, proxy *world.SceneProxy, camera *world.Camera, width, height uint32) rhi.ConstantBufferView {
	view := camera.GetViewMatrix()
	proj := camera.GetProjectionMatrix()
	viewProj := proj.Mul4(view)
	prevViewProj := viewProj
	if r.hasPrev {
		prevViewProj = r.prevViewProj
	}
	r.prevViewProj = viewProj
	r.hasPrev = true

	var payload [sceneUniformSizeInBytes]byte
	core.PutMat4(payload[0:], view)
	core.PutMat4(payload[64:], proj)
	core.PutMat4(payload[128:], viewProj)
	core.PutMat4(payload[192:], prevViewProj)
	putVec4(payload[256:], camera.GetPosition(), 1)
	putVec4(payload[272:], proxy.Sun.Direction, 0)
	putVec4(payload[288:], proxy.Sun.Illuminance, 0)
	putVec4(payload[304:], mgl32.Vec3{float32(width), float32(height), 0}, 0)

	cbv := r.cbvs[swapchainIndex]
	cbv.WriteToGPU(cmdList, payload[:])
	return cbv
}

func putVec4(dst []byte, v mgl32.Vec3, w float32) {
	core.PutVec3(dst, v)
	binary.LittleEndian.PutUint32(dst[12:], math.Float32bits(w))
}
