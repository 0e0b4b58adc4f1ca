package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyBox returns the box that contains nothing. Its union with any box b is b.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// BoxOf returns the box spanning the two corners in any order.
func BoxOf(a, b mgl64.Vec3) Box {
	return Box{
		Min: mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		Max: mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Size returns the extent along each axis; zero for an empty box.
func (b Box) Size() mgl64.Vec3 {
	if b.IsEmpty() {
		return mgl64.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return Box{
		Min: mgl64.Vec3{math.Min(b.Min[0], o.Min[0]), math.Min(b.Min[1], o.Min[1]), math.Min(b.Min[2], o.Min[2])},
		Max: mgl64.Vec3{math.Max(b.Max[0], o.Max[0]), math.Max(b.Max[1], o.Max[1]), math.Max(b.Max[2], o.Max[2])},
	}
}

// Extend grows the box to include p.
func (b Box) Extend(p mgl64.Vec3) Box {
	return b.Union(Box{Min: p, Max: p})
}

// Translate shifts the box by d.
func (b Box) Translate(d mgl64.Vec3) Box {
	if b.IsEmpty() {
		return b
	}
	return Box{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Expand grows the box by the given amount on both sides of each axis.
func (b Box) Expand(dx, dy, dz float64) Box {
	if b.IsEmpty() {
		return b
	}
	d := mgl64.Vec3{dx, dy, dz}
	return Box{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Transform returns the bounds of the eight corners of b mapped through m.
func (b Box) Transform(m mgl64.Mat4) Box {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox()
	for i := 0; i < 8; i++ {
		c := mgl64.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			c[0] = b.Max[0]
		}
		if i&2 != 0 {
			c[1] = b.Max[1]
		}
		if i&4 != 0 {
			c[2] = b.Max[2]
		}
		out = out.Extend(mgl64.TransformCoordinate(c, m))
	}
	return out
}

// OverlapsXY reports whether the XY footprints intersect with positive area.
// Boxes that only touch along an edge do not overlap.
func (b Box) OverlapsXY(o Box) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	dx := math.Min(b.Max[0], o.Max[0]) - math.Max(b.Min[0], o.Min[0])
	dy := math.Min(b.Max[1], o.Max[1]) - math.Max(b.Min[1], o.Min[1])
	return dx > 0 && dy > 0
}

// ApproxEqual compares two boxes corner by corner with the given tolerance.
func (b Box) ApproxEqual(o Box, eps float64) bool {
	return b.Min.ApproxEqualThreshold(o.Min, eps) && b.Max.ApproxEqualThreshold(o.Max, eps)
}

// Bounds returns the bounds of every vertex mapped through m.
// An empty mesh yields EmptyBox.
func (m *Mesh) Bounds(xf mgl64.Mat4) Box {
	out := EmptyBox()
	if m.IsEmpty() {
		return out
	}
	for i := 0; i < m.VertexCount(); i++ {
		out = out.Extend(mgl64.TransformCoordinate(m.Vertex(i), xf))
	}
	return out
}
