package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveReverseZ builds a right-handed perspective projection with the
// reverse-Z convention: camera-near maps to NDC z=1, camera-far to z=0.
// NDC z range is [0,1]. fovy is in radians.
func PerspectiveReverseZ(fovy, aspect, near, far float32) mgl32.Mat4 {
	y := float32(1.0 / math.Tan(float64(fovy)*0.5))
	x := y / aspect

	var m mgl32.Mat4
	m[0] = x
	m[5] = y
	m[10] = near / (far - near)
	m[11] = -1
	m[14] = (far * near) / (far - near)
	return m
}

// PutMat4 writes a matrix into dst as 16 little-endian floats, column-major.
// WGSL mat4x4<f32> shares this layout, so no transpose happens on either side.
func PutMat4(dst []byte, m mgl32.Mat4) {
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(m[i]))
	}
}

// GetMat4 reads a matrix previously written by PutMat4.
func GetMat4(src []byte) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := 0; i < 16; i++ {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return m
}

// PutVec3 writes v as 3 little-endian floats.
func PutVec3(dst []byte, v mgl32.Vec3) {
	binary.LittleEndian.PutUint32(dst[0:], math.Float32bits(v.X()))
	binary.LittleEndian.PutUint32(dst[4:], math.Float32bits(v.Y()))
	binary.LittleEndian.PutUint32(dst[8:], math.Float32bits(v.Z()))
}

// GetVec3 reads a vector previously written by PutVec3.
func GetVec3(src []byte) mgl32.Vec3 {
	return mgl32.Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(src[0:])),
		math.Float32frombits(binary.LittleEndian.Uint32(src[4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(src[8:])),
	}
}

// AlignBytes rounds size up to the next multiple of alignment.
// alignment must be a power of two.
func AlignBytes(size, alignment uint32) uint32 {
	return (size + (alignment - 1)) &^ (alignment - 1)
}

// AlignBytesU64 is AlignBytes for 64-bit sizes.
func AlignBytesU64(size, alignment uint64) uint64 {
	return (size + (alignment - 1)) &^ (alignment - 1)
}

// NextPowerOfTwo returns the smallest power of two >= n. Used by the
// GPU scene growth policy.
func NextPowerOfTwo(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}
