// Package kernel defines the abstract solid-modeling interface used to
// generate parametric primitives. Implementations produce solids and
// tessellate them into mesh.Mesh values; the rest of the system only ever
// sees the resulting meshes.
package kernel

import "github.com/chazu/platen/pkg/mesh"

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and converts them to triangle meshes.
type Kernel interface {
	// Primitives are centered on the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	Sphere(radius float64) Solid

	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	ToMesh(s Solid) (*mesh.Mesh, error)
}
