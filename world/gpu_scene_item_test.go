package world

import (
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/codeonwort/cyseal/core"
)

func testSceneItem() SceneItem {
	return SceneItem{
		LocalToWorld:            mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3D(0.5, mgl32.Vec3{0, 1, 0})),
		PrevLocalToWorld:        mgl32.Translate3D(0.5, 2, 3),
		LocalMinBounds:          mgl32.Vec3{-1, -2, -3},
		PositionBufferOffset:    4096,
		LocalMaxBounds:          mgl32.Vec3{1, 2, 3},
		NonPositionBufferOffset: 8192,
		IndexBufferOffset:       12288,
		Flags:                   SceneItemFlagValid,
	}
}

func TestSceneItem_EncodeLayout(t *testing.T) {
	item := testSceneItem()
	var buf [SceneItemSizeInBytes]byte
	item.Encode(buf[:])

	// Field offsets are part of the shader ABI.
	assert.Equal(t, item.LocalToWorld, core.GetMat4(buf[0:]))
	assert.Equal(t, item.PrevLocalToWorld, core.GetMat4(buf[64:]))
	assert.Equal(t, item.LocalMinBounds, core.GetVec3(buf[128:]))
	assert.Equal(t, uint32(4096), binary.LittleEndian.Uint32(buf[140:]))
	assert.Equal(t, item.LocalMaxBounds, core.GetVec3(buf[144:]))
	assert.Equal(t, uint32(8192), binary.LittleEndian.Uint32(buf[156:]))
	assert.Equal(t, uint32(12288), binary.LittleEndian.Uint32(buf[160:]))
	assert.Equal(t, SceneItemFlagValid, binary.LittleEndian.Uint32(buf[164:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[168:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[172:]))
}

func TestSceneItem_RoundTrip(t *testing.T) {
	item := testSceneItem()
	var buf [SceneItemSizeInBytes]byte
	item.Encode(buf[:])

	// Transform bits survive the trip exactly.
	assert.Equal(t, item, DecodeSceneItem(buf[:]))
}

func TestEncodeGPUSceneCommand(t *testing.T) {
	item := testSceneItem()
	var buf [GPUSceneCommandSizeInBytes]byte

	EncodeGPUSceneCommand(buf[:], GPUSceneCommandAlloc, 5, &item)
	assert.Equal(t, uint32(GPUSceneCommandAlloc), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(buf[4:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[8:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[12:]))
	assert.Equal(t, item, DecodeSceneItem(buf[16:]))

	// Evict carries no payload; unused fields stay zeroed.
	EncodeGPUSceneCommand(buf[:], GPUSceneCommandEvict, 9, nil)
	assert.Equal(t, uint32(GPUSceneCommandEvict), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(buf[4:]))
	for i := 16; i < GPUSceneCommandSizeInBytes; i++ {
		assert.Zero(t, buf[i])
	}
}
