package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/codeonwort/cyseal/core"
)

const (
	maxPitchDegrees = 80.0
	minPitchDegrees = -80.0
)

var (
	forward0 = mgl32.Vec3{0, 0, 1}
	right0   = mgl32.Vec3{1, 0, 0}
	up0      = mgl32.Vec3{0, 1, 0}
)

// Camera is a right-handed perspective camera. Projection follows the
// global reverse-Z policy: near plane maps to depth 1, far plane to 0.
type Camera struct {
	position  mgl32.Vec3
	rotationX float32 // pitch, degrees
	rotationY float32 // yaw, degrees

	fovYRadians   float32
	aspectRatioWH float32
	zNear         float32
	zFar          float32

	view          mgl32.Mat4
	viewInv       mgl32.Mat4
	projection    mgl32.Mat4
	projectionInv mgl32.Mat4

	viewDirty       bool
	projectionDirty bool
}

// NewCamera starts at the origin looking down +Z with a 90 degree fov.
func NewCamera() *Camera {
	c := &Camera{}
	c.Perspective(90.0, 1920.0/1080.0, 1.0, 1000.0)
	c.LookAt(mgl32.Vec3{}, forward0, up0)
	return c
}

// Perspective sets the projection. fovY is in degrees.
func (c *Camera) Perspective(fovYDegrees, aspectWH, near, far float32) {
	c.fovYRadians = mgl32.DegToRad(fovYDegrees)
	c.aspectRatioWH = aspectWH
	c.zNear = near
	c.zFar = far
	c.projectionDirty = true
}

func (c *Camera) SetAspectRatio(aspectWH float32) {
	c.aspectRatioWH = aspectWH
	c.projectionDirty = true
}

// LookAt positions the camera at origin facing target. Zero yaw and
// pitch look down world -Z, matching view space.
func (c *Camera) LookAt(origin, target, up mgl32.Vec3) {
	forward := target.Sub(origin).Normalize()
	c.position = origin
	c.rotationX = mgl32.RadToDeg(float32(math.Asin(float64(forward.Y()))))
	c.rotationY = mgl32.RadToDeg(float32(math.Atan2(float64(-forward.X()), float64(-forward.Z()))))
	c.viewDirty = true
}

func (c *Camera) GetPosition() mgl32.Vec3 { return c.position }

func (c *Camera) SetPosition(p mgl32.Vec3) {
	c.position = p
	c.viewDirty = true
}

// Move translates along the camera's forward/right/up axes.
func (c *Camera) Move(forwardRightUp mgl32.Vec3) {
	c.updateView()
	delta := transformDirection(c.viewInv, forward0.Mul(-1)).Mul(forwardRightUp.X())
	delta = delta.Add(transformDirection(c.viewInv, right0).Mul(forwardRightUp.Y()))
	delta = delta.Add(transformDirection(c.viewInv, up0).Mul(forwardRightUp.Z()))
	c.position = c.position.Add(delta)
	c.viewDirty = true
}

func (c *Camera) RotateYaw(angleDegrees float32) {
	c.rotationY -= angleDegrees
	c.viewDirty = true
}

func (c *Camera) RotatePitch(angleDegrees float32) {
	c.rotationX = clampf(c.rotationX+angleDegrees, minPitchDegrees, maxPitchDegrees)
	c.viewDirty = true
}

func (c *Camera) GetZNear() float32 { return c.zNear }
func (c *Camera) GetZFar() float32  { return c.zFar }

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	c.updateView()
	return c.view
}

func (c *Camera) GetViewInvMatrix() mgl32.Mat4 {
	c.updateView()
	return c.viewInv
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	c.updateProjection()
	return c.projection
}

func (c *Camera) GetProjectionInvMatrix() mgl32.Mat4 {
	c.updateProjection()
	return c.projectionInv
}

func (c *Camera) GetViewProjectionMatrix() mgl32.Mat4 {
	c.updateView()
	c.updateProjection()
	return c.projection.Mul4(c.view)
}

func (c *Camera) updateView() {
	if !c.viewDirty {
		return
	}
	pitch := mgl32.DegToRad(c.rotationX)
	yaw := mgl32.DegToRad(c.rotationY)
	rotation := mgl32.HomogRotate3D(yaw, up0).Mul4(mgl32.HomogRotate3D(pitch, right0))
	translate := mgl32.Translate3D(-c.position.X(), -c.position.Y(), -c.position.Z())

	// The transpose inverts the pure rotation; translation applies first.
	c.view = rotation.Transpose().Mul4(translate)
	c.viewInv = c.view.Inv()
	c.viewDirty = false
}

func (c *Camera) updateProjection() {
	if !c.projectionDirty {
		return
	}
	c.projection = core.PerspectiveReverseZ(c.fovYRadians, c.aspectRatioWH, c.zNear, c.zFar)
	c.projectionInv = c.projection.Inv()
	c.projectionDirty = false
}

func transformDirection(m mgl32.Mat4, v mgl32.Vec3) mgl32.Vec3 {
	return m.Mat3().Mul3x1(v)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
