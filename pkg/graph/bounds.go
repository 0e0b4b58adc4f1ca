package graph

import (
	"context"
	"fmt"

	"github.com/chazu/platen/pkg/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// Resolver loads asset-backed geometry. *asset.Manager implements it.
type Resolver interface {
	Resolve(ctx context.Context, path string) (*mesh.Mesh, error)
}

// Geometry returns the node's geometry: the in-memory mesh if present,
// otherwise the asset resolved through r. It returns nil, nil for a node
// without a mesh. A failed resolve leaves the reference in place.
func (n *Node) Geometry(ctx context.Context, r Resolver) (*mesh.Mesh, error) {
	if n.geometry != nil {
		return n.geometry, nil
	}
	if n.meshPath == "" {
		return nil, nil
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoResolver, n.meshPath)
	}
	geo, err := r.Resolve(ctx, n.meshPath)
	if err != nil {
		return nil, fmt.Errorf("graph: node %q: %w", n.name, err)
	}
	return geo, nil
}

// Bounds returns the axis-aligned bounds of n's subtree with every vertex
// mapped through m · n.Transform(). A subtree without geometry yields
// mesh.EmptyBox().
func (n *Node) Bounds(ctx context.Context, r Resolver, m mgl64.Mat4) (mesh.Box, error) {
	if err := ctx.Err(); err != nil {
		return mesh.EmptyBox(), err
	}
	xf := m.Mul4(n.transform)
	out := mesh.EmptyBox()

	geo, err := n.Geometry(ctx, r)
	if err != nil {
		return out, err
	}
	if geo != nil {
		out = geo.Bounds(xf)
	}
	for _, c := range n.children {
		cb, err := c.Bounds(ctx, r, xf)
		if err != nil {
			return out, err
		}
		out = out.Union(cb)
	}
	return out, nil
}

// LocalBounds returns the bounds of n's subtree in its parent's space.
func (n *Node) LocalBounds(ctx context.Context, r Resolver) (mesh.Box, error) {
	return n.Bounds(ctx, r, mgl64.Ident4())
}

// WorldBounds returns the bounds of n's subtree in the space above
// boundary, composed the same way as WorldTransform.
func (n *Node) WorldBounds(ctx context.Context, r Resolver, boundary *Node) (mesh.Box, error) {
	var above mgl64.Mat4
	if n.parent == nil || n == boundary {
		above = mgl64.Ident4()
	} else {
		above = n.parent.WorldTransform(boundary)
	}
	return n.Bounds(ctx, r, above)
}
