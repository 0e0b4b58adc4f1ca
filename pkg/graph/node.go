package graph

import (
	"math"
	"slices"

	"github.com/chazu/platen/pkg/mesh"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// MaterialUnset is the material index of a node without an explicit one.
const MaterialUnset = -1

// Node is one entity of the scene tree.
type Node struct {
	id        uuid.UUID
	name      string
	kind      string
	transform mgl64.Mat4
	color     Color
	output    OutputClass
	material  int
	hidden    bool
	transient bool
	geometry  *mesh.Mesh // inline or resolved geometry, may be nil
	meshPath  string     // asset reference once persisted
	parent    *Node      // non-owning
	children  []*Node
}

// New returns a detached node with identity transform and every property
// unset.
func New(name string) *Node {
	return &Node{
		id:        uuid.New(),
		name:      name,
		transform: mgl64.Ident4(),
		material:  MaterialUnset,
	}
}

// NewMesh returns a detached node carrying inline geometry.
func NewMesh(name string, geo *mesh.Mesh) *Node {
	n := New(name)
	n.geometry = geo
	return n
}

// ID returns the node's stable identity.
func (n *Node) ID() uuid.UUID { return n.id }

// SetID replaces the identity; used when rebuilding a persisted tree.
func (n *Node) SetID(id uuid.UUID) { n.id = id }

// Name returns the display name. Names need not be unique.
func (n *Node) Name() string { return n.name }

// SetName sets the display name.
func (n *Node) SetName(name string) { n.name = name }

// Kind is the role tag used to look up a rebuild hook. Empty means plain.
func (n *Node) Kind() string { return n.kind }

// SetKind sets the role tag. It does not run the rebuild hook.
func (n *Node) SetKind(kind string) { n.kind = kind }

// Transform returns the local transform relative to the parent.
func (n *Node) Transform() mgl64.Mat4 { return n.transform }

// SetTransform sets the local transform. A matrix containing NaN or Inf
// is replaced with identity.
func (n *Node) SetTransform(m mgl64.Mat4) {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			m = mgl64.Ident4()
			break
		}
	}
	n.transform = m
}

// Color returns the node's own colour, Unset if none. See WorldColor.
func (n *Node) Color() Color { return n.color }

// SetColor sets the node's own colour; Unset clears it.
func (n *Node) SetColor(c Color) { n.color = c }

// OutputClass returns the node's own output class. See WorldOutputClass.
func (n *Node) OutputClass() OutputClass { return n.output }

// SetOutputClass sets the node's own output class.
func (n *Node) SetOutputClass(o OutputClass) { n.output = o }

// MaterialIndex returns the node's own material index, MaterialUnset if
// none. See WorldMaterialIndex.
func (n *Node) MaterialIndex() int { return n.material }

// SetMaterialIndex sets the material; negative values mean unset.
func (n *Node) SetMaterialIndex(i int) {
	if i < 0 {
		i = MaterialUnset
	}
	n.material = i
}

// Visible reports whether the node itself is shown. See WorldVisible.
func (n *Node) Visible() bool { return !n.hidden }

// SetVisible shows or hides the node and, through WorldVisible, its subtree.
func (n *Node) SetVisible(v bool) { n.hidden = !v }

// Persistable reports whether the node is written by the document codec.
func (n *Node) Persistable() bool { return !n.transient }

// SetPersistable marks the node and its subtree as saved or transient.
func (n *Node) SetPersistable(p bool) { n.transient = !p }

// Mesh returns the geometry held in memory, or nil. A node loaded from a
// document holds only a MeshPath until Geometry resolves it.
func (n *Node) Mesh() *mesh.Mesh { return n.geometry }

// MeshPath returns the asset reference, empty while the geometry is inline.
func (n *Node) MeshPath() string { return n.meshPath }

// HasMesh reports whether the node references geometry in any form.
func (n *Node) HasMesh() bool { return n.geometry != nil || n.meshPath != "" }

// HasInlineMesh reports whether the node holds geometry that has not been
// persisted yet.
func (n *Node) HasInlineMesh() bool { return n.geometry != nil && n.meshPath == "" }

// SetMesh replaces the geometry with inline geometry and clears any asset
// reference. A nil mesh removes the geometry.
func (n *Node) SetMesh(geo *mesh.Mesh) {
	n.geometry = geo
	n.meshPath = ""
}

// SetMeshPath points the node at an asset reference, dropping any
// geometry held in memory. Used to load or relink.
func (n *Node) SetMeshPath(path string) {
	n.geometry = nil
	n.meshPath = path
}

// BindAsset records that the node's current geometry has been persisted at
// path. The in-memory geometry is kept.
func (n *Node) BindAsset(path string) {
	n.meshPath = path
}

// Parent returns the parent, or nil for a detached or root node.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the ordered children.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the i-th child.
func (n *Node) Child(i int) *Node { return n.children[i] }

// IndexOf returns the position of child, or -1.
func (n *Node) IndexOf(child *Node) int {
	return slices.Index(n.children, child)
}

// Root returns the topmost ancestor, n itself when detached.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// IsAncestorOf reports whether n is other or one of other's ancestors.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Attach inserts child at index (-1 appends). The child must be detached
// and must not be n or one of n's ancestors.
func (n *Node) Attach(child *Node, index int) error {
	if n == nil || child == nil {
		return ErrNilNode
	}
	if child.IsAncestorOf(n) {
		return ErrCycle
	}
	if child.parent != nil {
		return ErrHasParent
	}
	if index == -1 {
		index = len(n.children)
	}
	if index < 0 || index > len(n.children) {
		return ErrIndexOutOfRange
	}
	n.children = slices.Insert(n.children, index, child)
	child.parent = n
	return nil
}

// Add appends children in order, stopping at the first error.
func (n *Node) Add(children ...*Node) error {
	for _, c := range children {
		if err := n.Attach(c, -1); err != nil {
			return err
		}
	}
	return nil
}

// Remove detaches child from n and returns the index it occupied.
func (n *Node) Remove(child *Node) (int, error) {
	if n == nil || child == nil {
		return -1, ErrNilNode
	}
	if child.parent != n {
		return -1, ErrNotChild
	}
	i := n.IndexOf(child)
	if i < 0 {
		return -1, ErrNotChild
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	return i, nil
}

// Detach removes n from its parent and reports where it was.
func (n *Node) Detach() (parent *Node, index int, err error) {
	if n == nil {
		return nil, -1, ErrNilNode
	}
	parent = n.parent
	if parent == nil {
		return nil, -1, ErrNotChild
	}
	index, err = parent.Remove(n)
	return parent, index, err
}

// Descendants returns n's subtree in depth-first pre-order, n first.
func (n *Node) Descendants() []*Node {
	var out []*Node
	var visit func(*Node)
	visit = func(x *Node) {
		out = append(out, x)
		for _, c := range x.children {
			visit(c)
		}
	}
	visit(n)
	return out
}
