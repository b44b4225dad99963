package world

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/codeonwort/cyseal/core"
)

// SceneItemSizeInBytes is the shader-visible stride of one scene item.
// The layout below is bit-exact with the SceneItem struct in gpu_scene.wgsl.
const SceneItemSizeInBytes = 176

// GPUSceneCommandSizeInBytes is the stride of one packed scene command:
// a 16-byte header followed by the full scene item payload.
const GPUSceneCommandSizeInBytes = 16 + SceneItemSizeInBytes

// SceneItemFlagValid marks a live scene item. Evicted slots have flags 0.
const SceneItemFlagValid uint32 = 1

// GPUSceneCommandType discriminates packed scene commands.
type GPUSceneCommandType uint32

const (
	GPUSceneCommandAlloc GPUSceneCommandType = iota
	GPUSceneCommandUpdate
	GPUSceneCommandEvict
)

// SceneItem is the per-mesh-section record shaders index by scene item
// index. Buffer offsets are byte offsets into the global pools.
type SceneItem struct {
	LocalToWorld            mgl32.Mat4
	PrevLocalToWorld        mgl32.Mat4
	LocalMinBounds          mgl32.Vec3
	PositionBufferOffset    uint32
	LocalMaxBounds          mgl32.Vec3
	NonPositionBufferOffset uint32
	IndexBufferOffset       uint32
	Flags                   uint32
}

// Encode writes the item into dst with the exact GPU layout:
//
//	  0  float[16] localToWorld
//	 64  float[16] prevLocalToWorld
//	128  float[3]  localMinBounds
//	140  uint32    positionBufferOffset
//	144  float[3]  localMaxBounds
//	156  uint32    nonPositionBufferOffset
//	160  uint32    indexBufferOffset
//	164  uint32    flags
//	168  uint32[2] pad
func (item *SceneItem) Encode(dst []byte) {
	_ = dst[SceneItemSizeInBytes-1]
	core.PutMat4(dst[0:], item.LocalToWorld)
	core.PutMat4(dst[64:], item.PrevLocalToWorld)
	core.PutVec3(dst[128:], item.LocalMinBounds)
	binary.LittleEndian.PutUint32(dst[140:], item.PositionBufferOffset)
	core.PutVec3(dst[144:], item.LocalMaxBounds)
	binary.LittleEndian.PutUint32(dst[156:], item.NonPositionBufferOffset)
	binary.LittleEndian.PutUint32(dst[160:], item.IndexBufferOffset)
	binary.LittleEndian.PutUint32(dst[164:], item.Flags)
	binary.LittleEndian.PutUint32(dst[168:], 0)
	binary.LittleEndian.PutUint32(dst[172:], 0)
}

// DecodeSceneItem reads an item previously written by Encode.
func DecodeSceneItem(src []byte) SceneItem {
	return SceneItem{
		LocalToWorld:            core.GetMat4(src[0:]),
		PrevLocalToWorld:        core.GetMat4(src[64:]),
		LocalMinBounds:          core.GetVec3(src[128:]),
		PositionBufferOffset:    binary.LittleEndian.Uint32(src[140:]),
		LocalMaxBounds:          core.GetVec3(src[144:]),
		NonPositionBufferOffset: binary.LittleEndian.Uint32(src[156:]),
		IndexBufferOffset:       binary.LittleEndian.Uint32(src[160:]),
		Flags:                   binary.LittleEndian.Uint32(src[164:]),
	}
}

// GPUSceneAllocCommand installs a full scene item at a slot.
type GPUSceneAllocCommand struct {
	SceneItemIndex uint32
	SceneItem      SceneItem
}

// GPUSceneUpdateCommand rewrites only the transforms of a live slot.
type GPUSceneUpdateCommand struct {
	SceneItemIndex   uint32
	LocalToWorld     mgl32.Mat4
	PrevLocalToWorld mgl32.Mat4
}

// GPUSceneEvictCommand clears a slot (flags become 0).
type GPUSceneEvictCommand struct {
	SceneItemIndex uint32
}

// EncodeGPUSceneCommand packs one command into dst:
// {uint32 commandType; uint32 sceneItemIndex; uint32 pad[2]; SceneItem}.
// Unused payload fields stay zero.
func EncodeGPUSceneCommand(dst []byte, commandType GPUSceneCommandType, sceneItemIndex uint32, item *SceneItem) {
	_ = dst[GPUSceneCommandSizeInBytes-1]
	for i := range dst[:GPUSceneCommandSizeInBytes] {
		dst[i] = 0
	}
	binary.LittleEndian.PutUint32(dst[0:], uint32(commandType))
	binary.LittleEndian.PutUint32(dst[4:], sceneItemIndex)
	if item != nil {
		item.Encode(dst[16:])
	}
}
