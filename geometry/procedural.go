// Package geometry generates procedural meshes as raw streams the way the
// renderer consumes them: a position stream, an interleaved normal+uv
// stream, and an index stream.
package geometry

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/codeonwort/cyseal/core"
)

// PositionStrideInBytes is 3 floats per vertex.
const PositionStrideInBytes = 12

// NonPositionStrideInBytes is normal (3 floats) + uv (2 floats).
const NonPositionStrideInBytes = 20

// MeshData is one generated geometry: the three raw streams plus local
// bounds, ready to upload into the global pools.
type MeshData struct {
	PositionBlob    []byte
	NonPositionBlob []byte
	IndexBlob       []byte
	NumVertices     uint32
	NumIndices      uint32
	LocalBounds     core.AABB
}

type meshBuilder struct {
	positions []mgl32.Vec3
	normals   []mgl32.Vec3
	uvs       []mgl32.Vec2
	indices   []uint32
}

func (b *meshBuilder) vertex(p, n mgl32.Vec3, uv mgl32.Vec2) {
	b.positions = append(b.positions, p)
	b.normals = append(b.normals, n)
	b.uvs = append(b.uvs, uv)
}

func (b *meshBuilder) build() *MeshData {
	mesh := &MeshData{
		NumVertices:     uint32(len(b.positions)),
		NumIndices:      uint32(len(b.indices)),
		PositionBlob:    make([]byte, len(b.positions)*PositionStrideInBytes),
		NonPositionBlob: make([]byte, len(b.positions)*NonPositionStrideInBytes),
		IndexBlob:       make([]byte, len(b.indices)*4),
	}

	bounds := core.NewAABB(b.positions[0], b.positions[0])
	for i, p := range b.positions {
		core.PutVec3(mesh.PositionBlob[i*PositionStrideInBytes:], p)
		bounds = bounds.Union(core.NewAABB(p, p))

		np := mesh.NonPositionBlob[i*NonPositionStrideInBytes:]
		core.PutVec3(np, b.normals[i])
		binary.LittleEndian.PutUint32(np[12:], math.Float32bits(b.uvs[i].X()))
		binary.LittleEndian.PutUint32(np[16:], math.Float32bits(b.uvs[i].Y()))
	}
	for i, ix := range b.indices {
		binary.LittleEndian.PutUint32(mesh.IndexBlob[i*4:], ix)
	}
	mesh.LocalBounds = bounds
	return mesh
}

// CreateCube generates an axis-aligned cube with the given half extents,
// 24 vertices so each face gets hard normals.
func CreateCube(halfExtents mgl32.Vec3) *MeshData {
	hx, hy, hz := halfExtents.X(), halfExtents.Y(), halfExtents.Z()

	type face struct {
		normal mgl32.Vec3
		axisU  mgl32.Vec3
		axisV  mgl32.Vec3
	}
	faces := []face{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}

	half := mgl32.Vec3{hx, hy, hz}
	b := &meshBuilder{}
	for _, f := range faces {
		base := uint32(len(b.positions))
		for v := 0; v < 4; v++ {
			du := float32(v&1)*2 - 1
			dv := float32(v>>1)*2 - 1
			p := f.normal.Add(f.axisU.Mul(du)).Add(f.axisV.Mul(dv))
			p = mgl32.Vec3{p.X() * half.X(), p.Y() * half.Y(), p.Z() * half.Z()}
			b.vertex(p, f.normal, mgl32.Vec2{(du + 1) * 0.5, (dv + 1) * 0.5})
		}
		b.indices = append(b.indices, base, base+1, base+2, base+2, base+1, base+3)
	}
	return b.build()
}

// CreateSphere generates a UV sphere. segments is the horizontal division
// count, rings the vertical one.
func CreateSphere(radius float32, segments, rings uint32) *MeshData {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	b := &meshBuilder{}
	for ring := uint32(0); ring <= rings; ring++ {
		phi := math.Pi * float64(ring) / float64(rings)
		y := float32(math.Cos(phi))
		r := float32(math.Sin(phi))
		for seg := uint32(0); seg <= segments; seg++ {
			theta := 2 * math.Pi * float64(seg) / float64(segments)
			n := mgl32.Vec3{r * float32(math.Cos(theta)), y, r * float32(math.Sin(theta))}
			b.vertex(n.Mul(radius), n, mgl32.Vec2{
				float32(seg) / float32(segments),
				float32(ring) / float32(rings),
			})
		}
	}

	stride := segments + 1
	for ring := uint32(0); ring < rings; ring++ {
		for seg := uint32(0); seg < segments; seg++ {
			a := ring*stride + seg
			c := (ring+1)*stride + seg
			b.indices = append(b.indices, a, a+1, c, c, a+1, c+1)
		}
	}
	return b.build()
}
