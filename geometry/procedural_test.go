package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/core"
)

func TestCreateCube(t *testing.T) {
	mesh := CreateCube(mgl32.Vec3{1, 2, 3})

	assert.Equal(t, uint32(24), mesh.NumVertices)
	assert.Equal(t, uint32(36), mesh.NumIndices)
	assert.Len(t, mesh.PositionBlob, 24*PositionStrideInBytes)
	assert.Len(t, mesh.NonPositionBlob, 24*NonPositionStrideInBytes)
	assert.Len(t, mesh.IndexBlob, 36*4)

	assert.Equal(t, mgl32.Vec3{-1, -2, -3}, mesh.LocalBounds.MinBounds)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, mesh.LocalBounds.MaxBounds)
}

func TestCreateSphere(t *testing.T) {
	mesh := CreateSphere(2, 16, 8)

	require.Positive(t, mesh.NumVertices)
	assert.Equal(t, uint32(16*8*6), mesh.NumIndices)

	// Every vertex sits on the sphere.
	for i := uint32(0); i < mesh.NumVertices; i++ {
		p := core.GetVec3(mesh.PositionBlob[i*PositionStrideInBytes:])
		assert.InDelta(t, 2.0, p.Len(), 1e-4)
	}

	bounds := mesh.LocalBounds
	for axis := 0; axis < 3; axis++ {
		assert.InDelta(t, -2, bounds.MinBounds[axis], 1e-4)
		assert.InDelta(t, 2, bounds.MaxBounds[axis], 1e-4)
	}
}

func TestSphereClampsDegenerateArgs(t *testing.T) {
	mesh := CreateSphere(1, 1, 1)
	assert.Positive(t, mesh.NumIndices)
}
