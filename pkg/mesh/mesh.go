// Package mesh holds immutable triangle geometry, its content identity and
// axis-aligned bounds. A Mesh is never modified once it has been shared
// between nodes or handed to the asset manager.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is an indexed triangle mesh.
// Vertices has 3 floats per vertex (x,y,z); Indices has 3 entries per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return m == nil || len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Vertex returns vertex i as a float64 vector.
func (m *Mesh) Vertex(i int) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(m.Vertices[3*i]),
		float64(m.Vertices[3*i+1]),
		float64(m.Vertices[3*i+2]),
	}
}

// Triangle returns the three corners of triangle t.
func (m *Mesh) Triangle(t int) [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{
		m.Vertex(int(m.Indices[3*t])),
		m.Vertex(int(m.Indices[3*t+1])),
		m.Vertex(int(m.Indices[3*t+2])),
	}
}

// FaceNormal returns the unit normal of triangle t using counter-clockwise
// winding. Degenerate triangles yield the zero vector.
func (m *Mesh) FaceNormal(t int) mgl64.Vec3 {
	tri := m.Triangle(t)
	n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
	l := n.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec3{}
	}
	return n.Mul(1 / l)
}

// Transformed returns a copy of the mesh with every vertex mapped through m.
// Indices are shared with the receiver.
func (m *Mesh) Transformed(xf mgl64.Mat4) *Mesh {
	out := &Mesh{
		Vertices: make([]float32, len(m.Vertices)),
		Indices:  m.Indices,
		Name:     m.Name,
	}
	for i := 0; i < m.VertexCount(); i++ {
		v := mgl64.TransformCoordinate(m.Vertex(i), xf)
		out.Vertices[3*i] = float32(v[0])
		out.Vertices[3*i+1] = float32(v[1])
		out.Vertices[3*i+2] = float32(v[2])
	}
	return out
}

// Append concatenates meshes into a new mesh, rebasing indices.
func Append(meshes ...*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		if m.IsEmpty() {
			continue
		}
		base := uint32(out.VertexCount())
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}
	return out
}
