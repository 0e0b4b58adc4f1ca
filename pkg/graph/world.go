package graph

import "github.com/go-gl/mathgl/mgl64"

// boundaryFor walks from n towards the root and returns boundary if it is
// met on the way, otherwise the root.
func (n *Node) boundaryFor(boundary *Node) *Node {
	last := n
	for p := n; p != nil; p = p.parent {
		if p == boundary {
			return p
		}
		last = p
	}
	return last
}

// WorldTransform composes local transforms from n up to and including
// boundary. If boundary is nil or not on the path to the root, the root's
// transform is the last factor. With column vectors the result is
// boundary · … · parent · n.
func (n *Node) WorldTransform(boundary *Node) mgl64.Mat4 {
	m := n.transform
	if n == boundary {
		return m
	}
	for p := n.parent; p != nil; p = p.parent {
		m = p.transform.Mul4(m)
		if p == boundary {
			break
		}
	}
	return m
}

// WorldColor returns the boundary node's own color, or the root's when
// boundary is nil or not an ancestor. Colors of n and of intermediate
// ancestors are ignored.
func (n *Node) WorldColor(boundary *Node) Color {
	return n.boundaryFor(boundary).color
}

// WorldOutputClass returns the boundary node's own output class, by the
// same rule as WorldColor.
func (n *Node) WorldOutputClass(boundary *Node) OutputClass {
	return n.boundaryFor(boundary).output
}

// WorldMaterialIndex returns the boundary node's own material index, by
// the same rule as WorldColor.
func (n *Node) WorldMaterialIndex(boundary *Node) int {
	return n.boundaryFor(boundary).material
}

// WorldVisible reports whether n and every ancestor up to boundary (or the
// root) are visible.
func (n *Node) WorldVisible(boundary *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p.hidden {
			return false
		}
		if p == boundary {
			break
		}
	}
	return true
}

// WorldPersistable reports whether n and every ancestor up to boundary (or
// the root) are persistable.
func (n *Node) WorldPersistable(boundary *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p.transient {
			return false
		}
		if p == boundary {
			break
		}
	}
	return true
}
