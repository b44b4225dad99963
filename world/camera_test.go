package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func ndcDepth(viewProj mgl32.Mat4, worldPoint mgl32.Vec3) float32 {
	clip := viewProj.Mul4x1(worldPoint.Vec4(1))
	return clip.Z() / clip.W()
}

func TestCamera_ReverseZProjection(t *testing.T) {
	camera := NewCamera()
	camera.Perspective(70, 16.0/9.0, 0.1, 1000)
	camera.SetPosition(mgl32.Vec3{0, 0, 0})
	camera.LookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})

	viewProj := camera.GetViewProjectionMatrix()

	// Looking down -Z: the near plane projects to depth 1, far to 0.
	assert.InDelta(t, 1.0, ndcDepth(viewProj, mgl32.Vec3{0, 0, -0.1}), 1e-4)
	assert.InDelta(t, 0.0, ndcDepth(viewProj, mgl32.Vec3{0, 0, -1000}), 1e-4)

	for _, z := range []float32{-1, -10, -100} {
		d := ndcDepth(viewProj, mgl32.Vec3{0, 0, z})
		assert.GreaterOrEqual(t, d, float32(0))
		assert.LessOrEqual(t, d, float32(1))
	}
}

func TestCamera_ViewMatrixInverse(t *testing.T) {
	camera := NewCamera()
	camera.SetPosition(mgl32.Vec3{3, 4, 5})
	camera.RotateYaw(30)
	camera.RotatePitch(-10)

	view := camera.GetViewMatrix()
	viewInv := camera.GetViewInvMatrix()
	identity := view.Mul4(viewInv)

	for i := 0; i < 16; i++ {
		assert.InDelta(t, mgl32.Ident4()[i], identity[i], 1e-4)
	}
}

func TestCamera_PitchClamp(t *testing.T) {
	camera := NewCamera()
	camera.RotatePitch(200)

	// A second rotate cannot exceed the clamp either.
	camera.RotatePitch(50)
	view1 := camera.GetViewMatrix()
	camera.RotatePitch(50)
	view2 := camera.GetViewMatrix()
	assert.Equal(t, view1, view2)
}

func TestCamera_MoveFollowsOrientation(t *testing.T) {
	camera := NewCamera()
	camera.SetPosition(mgl32.Vec3{0, 0, 0})
	camera.LookAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})

	camera.Move(mgl32.Vec3{2, 0, 0}) // forward
	pos := camera.GetPosition()
	assert.InDelta(t, 0, pos.X(), 1e-4)
	assert.InDelta(t, 0, pos.Y(), 1e-4)
	assert.InDelta(t, -2, pos.Z(), 1e-4)
}
