package graph

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// ErrSkipChildren may be returned by a WalkFunc to skip the subtree below
// the visited node.
var ErrSkipChildren = errors.New("graph: skip children")

// Visit is what a read-only traversal sees at each node.
type Visit struct {
	Node  *Node
	Depth int
	// World maps the node's local space into the walk root's parent
	// space; the walk root's own transform is included.
	World mgl64.Mat4
	// Item is the child of the walk root that contains Node, or the walk
	// root itself when visiting it. It is the boundary for Output and Color.
	Item   *Node
	Output OutputClass
	Color  Color
}

// WalkFunc is called once per node in depth-first pre-order.
type WalkFunc func(v Visit) error

// Walk traverses root's subtree depth-first. It never mutates the tree.
// Returning ErrSkipChildren skips the node's children; any other error
// stops the walk and is returned.
func Walk(root *Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	var visit func(n, item *Node, parentWorld mgl64.Mat4, depth int) error
	visit = func(n, item *Node, parentWorld mgl64.Mat4, depth int) error {
		world := parentWorld.Mul4(n.transform)
		err := fn(Visit{
			Node:   n,
			Depth:  depth,
			World:  world,
			Item:   item,
			Output: n.WorldOutputClass(item),
			Color:  n.WorldColor(item),
		})
		if errors.Is(err, ErrSkipChildren) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, c := range n.children {
			childItem := item
			if n == root {
				childItem = c
			}
			if err := visit(c, childItem, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(root, root, mgl64.Ident4(), 0)
}

// Find returns the first node in pre-order for which pred is true.
func Find(root *Node, pred func(*Node) bool) *Node {
	var found *Node
	errFound := errors.New("found")
	_ = Walk(root, func(v Visit) error {
		if pred(v.Node) {
			found = v.Node
			return errFound
		}
		return nil
	})
	return found
}

// FindByID returns the node with the given identity in root's subtree.
func FindByID(root *Node, id uuid.UUID) *Node {
	return Find(root, func(n *Node) bool { return n.id == id })
}

// FindByName returns the first node in pre-order with the given name.
func FindByName(root *Node, name string) *Node {
	return Find(root, func(n *Node) bool { return n.name == name })
}
