package render_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeonwort/cyseal/core"
	"github.com/codeonwort/cyseal/render"
	"github.com/codeonwort/cyseal/rhi/noop"
	"github.com/codeonwort/cyseal/world"
)

func TestAccelStructManager_BuildScene(t *testing.T) {
	rig := newTestRig(t)

	scene := world.NewScene()
	a := rig.addCube(t, scene, nil)
	rig.addCube(t, scene, nil)
	a.SetPosition(mgl32.Vec3{2, 0, 0})

	manager, err := render.NewAccelStructManager(rig.device)
	require.NoError(t, err)

	proxy := scene.CreateProxy(core.NewFreeNumberList(100))
	cmdList := rig.device.GetCommandList(0)
	require.NoError(t, manager.BuildScene(cmdList, proxy))

	// Instance count equals BLAS count; the TLAS wraps a result buffer.
	assert.Equal(t, uint32(2), manager.NumInstances())
	require.NotNil(t, manager.GetTLAS())
	assert.NotNil(t, manager.GetTLAS().GetSRV())
	assert.NotNil(t, manager.GetTLAS().GetResultBuffer())
}

func TestAccelStructManager_InstanceDescs(t *testing.T) {
	rig := newTestRig(t)

	scene := world.NewScene()
	mesh := rig.addCube(t, scene, nil)
	mesh.SetPosition(mgl32.Vec3{1, 2, 3})

	manager, err := render.NewAccelStructManager(rig.device)
	require.NoError(t, err)

	proxy := scene.CreateProxy(core.NewFreeNumberList(100))
	cmdList := rig.device.GetCommandList(0)
	require.NoError(t, manager.BuildScene(cmdList, proxy))

	descs := manager.InstanceDescBufferForTest().(*noop.Buffer).Data()

	// Row-major 3x4: translation sits at elements 3, 7, 11.
	tx := math.Float32frombits(binary.LittleEndian.Uint32(descs[3*4:]))
	ty := math.Float32frombits(binary.LittleEndian.Uint32(descs[7*4:]))
	tz := math.Float32frombits(binary.LittleEndian.Uint32(descs[11*4:]))
	assert.InDelta(t, 1.0, tx, 1e-5)
	assert.InDelta(t, 2.0, ty, 1e-5)
	assert.InDelta(t, 3.0, tz, 1e-5)

	// InstanceID 0, mask 1, hit group 0.
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(descs[48:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(descs[52:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(descs[56:]))
}

func TestAccelStructManager_RebuildTLASUpdatesTransforms(t *testing.T) {
	rig := newTestRig(t)

	scene := world.NewScene()
	rig.addCube(t, scene, nil)

	manager, err := render.NewAccelStructManager(rig.device)
	require.NoError(t, err)

	proxy := scene.CreateProxy(core.NewFreeNumberList(100))
	cmdList := rig.device.GetCommandList(0)
	require.NoError(t, manager.BuildScene(cmdList, proxy))

	manager.RebuildTLAS(cmdList, []render.InstanceTransformUpdate{
		{InstanceIndex: 0, Transform: mgl32.Translate3D(9, 8, 7)},
	})

	descs := manager.InstanceDescBufferForTest().(*noop.Buffer).Data()
	tx := math.Float32frombits(binary.LittleEndian.Uint32(descs[3*4:]))
	assert.InDelta(t, 9.0, tx, 1e-5)

	// Out-of-range updates are ignored.
	manager.RebuildTLAS(cmdList, []render.InstanceTransformUpdate{
		{InstanceIndex: 42, Transform: mgl32.Ident4()},
	})
}
