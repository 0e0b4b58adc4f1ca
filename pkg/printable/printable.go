// Package printable extracts the geometry a slicer needs from a scene
// tree: every visible mesh, placed in plate space and grouped by output
// class.
package printable

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/chazu/platen/pkg/graph"
	"github.com/chazu/platen/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

var (
	// ErrNothingToPrint is returned by Export when no visible geometry exists.
	ErrNothingToPrint = errors.New("printable: scene has no visible geometry")
	ErrEmptyMesh      = errors.New("printable: empty mesh")
)

// Part is one mesh-carrying node as the slicer sees it.
type Part struct {
	Node *graph.Node
	// World maps the mesh into the space of the collected root's parent.
	World    mgl64.Mat4
	Output   graph.OutputClass
	Color    graph.Color
	Material int
	Mesh     *mesh.Mesh
}

// Name returns the node's name, or its short identity when unnamed.
func (p Part) Name() string {
	if p.Node.Name() != "" {
		return p.Node.Name()
	}
	return p.Node.ID().String()[:8]
}

// Placed returns the part's mesh in world space. Mirroring transforms
// have their winding reversed so faces keep pointing outwards.
func (p Part) Placed() *mesh.Mesh {
	m := p.Mesh.Transformed(p.World)
	if p.World.Det() < 0 {
		flipped := make([]uint32, len(m.Indices))
		for i := 0; i+2 < len(m.Indices); i += 3 {
			flipped[i], flipped[i+1], flipped[i+2] = m.Indices[i], m.Indices[i+2], m.Indices[i+1]
		}
		m.Indices = flipped
	}
	return m
}

// Collect returns the visible parts below root in pre-order. Output class,
// color and material are resolved against the top-level item containing
// each node; an unset output class counts as solid. Asset-backed meshes
// are resolved through r.
func Collect(ctx context.Context, root *graph.Node, r graph.Resolver) ([]Part, error) {
	var parts []Part
	err := graph.Walk(root, func(v graph.Visit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := v.Node
		if !n.Visible() {
			return graph.ErrSkipChildren
		}
		if !n.HasMesh() {
			return nil
		}
		geo, err := n.Geometry(ctx, r)
		if err != nil {
			return err
		}
		if geo.IsEmpty() {
			return nil
		}
		out := v.Output
		if !out.IsSet() {
			out = graph.OutputSolid
		}
		parts = append(parts, Part{
			Node:     n,
			World:    v.World,
			Output:   out,
			Color:    v.Color,
			Material: n.WorldMaterialIndex(v.Item),
			Mesh:     geo,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("printable: collect: %w", err)
	}
	return parts, nil
}

// Merge bakes each part into world space and joins the parts of each
// output class into one mesh.
func Merge(parts []Part) map[graph.OutputClass]*mesh.Mesh {
	byClass := lo.GroupBy(parts, func(p Part) graph.OutputClass { return p.Output })
	return lo.MapValues(byClass, func(ps []Part, class graph.OutputClass) *mesh.Mesh {
		m := mesh.Append(lo.Map(ps, func(p Part, _ int) *mesh.Mesh { return p.Placed() })...)
		m.Name = class.String()
		return m
	})
}

// WriteSTL writes m to path as a binary STL file.
func WriteSTL(path string, m *mesh.Mesh) error {
	if m.IsEmpty() {
		return fmt.Errorf("printable: write %s: %w", path, ErrEmptyMesh)
	}
	tris := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		tris = append(tris, &sdf.Triangle3{toV3(tri[0]), toV3(tri[1]), toV3(tri[2])})
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("printable: write %s: %w", path, err)
	}
	return nil
}

func toV3(v mgl64.Vec3) v3.Vec { return v3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// FileName returns the STL file name used for an output class.
func FileName(class graph.OutputClass) string { return class.String() + ".stl" }

// Export writes one STL file per output class present below root into dir
// and returns the written paths.
func Export(ctx context.Context, root *graph.Node, r graph.Resolver, dir string) (map[graph.OutputClass]string, error) {
	parts, err := Collect(ctx, root, r)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, ErrNothingToPrint
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("printable: export: %w", err)
	}

	merged := Merge(parts)
	classes := lo.Keys(merged)
	slices.Sort(classes)

	written := make(map[graph.OutputClass]string, len(merged))
	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path := filepath.Join(dir, FileName(class))
		if err := WriteSTL(path, merged[class]); err != nil {
			return written, err
		}
		written[class] = path
	}
	return written, nil
}
