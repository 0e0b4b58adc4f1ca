package asset

import (
	"fmt"
	"io"

	"github.com/chazu/platen/pkg/mesh"
	"github.com/hpinc/go3mf"
)

// Ext is the file extension of asset files.
const Ext = ".3mf"

// objectID is the resource id of the single mesh object in an asset file.
const objectID = 1

// encode writes m as a 3MF package holding one mesh object and one build
// item referencing it.
func encode(w io.Writer, m *mesh.Mesh) error {
	obj := &go3mf.Object{
		ID:   objectID,
		Name: m.Name,
		Type: go3mf.ObjectTypeModel,
		Mesh: new(go3mf.Mesh),
	}
	obj.Mesh.Vertices.Vertex = make([]go3mf.Point3D, 0, m.VertexCount())
	for i := 0; i < m.VertexCount(); i++ {
		obj.Mesh.Vertices.Vertex = append(obj.Mesh.Vertices.Vertex, go3mf.Point3D{
			m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2],
		})
	}
	obj.Mesh.Triangles.Triangle = make([]go3mf.Triangle, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		obj.Mesh.Triangles.Triangle = append(obj.Mesh.Triangles.Triangle, go3mf.Triangle{
			V1: m.Indices[3*t], V2: m.Indices[3*t+1], V3: m.Indices[3*t+2],
		})
	}

	model := &go3mf.Model{}
	model.Resources.Objects = append(model.Resources.Objects, obj)
	model.Build.Items = append(model.Build.Items, &go3mf.Item{ObjectID: objectID})
	enc := go3mf.NewEncoder(w)
	// Shortest text that parses back to the same float32, so the file
	// content matches the identity it is named after.
	enc.FloatPrecision = -1
	return enc.Encode(model)
}

// decode reads the first mesh object of the 3MF package at path.
func decode(path string) (*mesh.Mesh, error) {
	r, err := go3mf.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var model go3mf.Model
	if err := r.Decode(&model); err != nil {
		return nil, err
	}
	for _, obj := range model.Resources.Objects {
		if obj.Mesh == nil {
			continue
		}
		out := &mesh.Mesh{
			Name:     obj.Name,
			Vertices: make([]float32, 0, len(obj.Mesh.Vertices.Vertex)*3),
			Indices:  make([]uint32, 0, len(obj.Mesh.Triangles.Triangle)*3),
		}
		for _, v := range obj.Mesh.Vertices.Vertex {
			out.Vertices = append(out.Vertices, v[0], v[1], v[2])
		}
		for _, t := range obj.Mesh.Triangles.Triangle {
			out.Indices = append(out.Indices, t.V1, t.V2, t.V3)
		}
		return out, nil
	}
	return nil, fmt.Errorf("no mesh object in %s", path)
}
