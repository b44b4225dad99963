package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

// Project a camera-space point through the reverse-Z projection and return
// NDC depth.
func projectDepth(proj mgl32.Mat4, p mgl32.Vec3) float32 {
	clip := proj.Mul4x1(p.Vec4(1))
	return clip.Z() / clip.W()
}

func TestPerspectiveReverseZ(t *testing.T) {
	proj := PerspectiveReverseZ(mgl32.DegToRad(70), 16.0/9.0, 0.1, 1000)

	// Right-handed camera space looks down -Z: a point at the near plane
	// projects to depth 1, at the far plane to depth 0.
	nearDepth := projectDepth(proj, mgl32.Vec3{0, 0, -0.1})
	farDepth := projectDepth(proj, mgl32.Vec3{0, 0, -1000})

	assert.InDelta(t, 1.0, nearDepth, 1e-5)
	assert.InDelta(t, 0.0, farDepth, 1e-5)

	// Everything in between stays inside [0,1].
	for _, z := range []float32{-0.5, -1, -10, -100, -500} {
		d := projectDepth(proj, mgl32.Vec3{0, 0, z})
		assert.GreaterOrEqual(t, d, float32(0))
		assert.LessOrEqual(t, d, float32(1))
	}

	// Depth decreases with distance under reverse-Z.
	assert.Greater(t, projectDepth(proj, mgl32.Vec3{0, 0, -1}), projectDepth(proj, mgl32.Vec3{0, 0, -2}))
}

func TestPutMat4RoundTrip(t *testing.T) {
	m := mgl32.Translate3D(1, -2, 3).Mul4(mgl32.HomogRotate3D(0.7, mgl32.Vec3{0, 1, 0}))
	var buf [64]byte
	PutMat4(buf[:], m)
	assert.Equal(t, m, GetMat4(buf[:]))
}

func TestNextPowerOfTwo(t *testing.T) {
	assert.Equal(t, uint32(1), NextPowerOfTwo(0))
	assert.Equal(t, uint32(1), NextPowerOfTwo(1))
	assert.Equal(t, uint32(2), NextPowerOfTwo(2))
	assert.Equal(t, uint32(4), NextPowerOfTwo(3))
	assert.Equal(t, uint32(256), NextPowerOfTwo(129))
	assert.Equal(t, uint32(256), NextPowerOfTwo(256))
}

func TestAlignBytes(t *testing.T) {
	assert.Equal(t, uint32(0), AlignBytes(0, 256))
	assert.Equal(t, uint32(256), AlignBytes(1, 256))
	assert.Equal(t, uint32(256), AlignBytes(256, 256))
	assert.Equal(t, uint32(512), AlignBytes(257, 256))
}
