package document

import (
	"context"
	"fmt"

	"github.com/chazu/platen/pkg/graph"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// docNode is the on-disk shape of one node. Field order is the document's
// key order.
type docNode struct {
	ID            string            `json:"id,omitempty"`
	Name          string            `json:"name"`
	Kind          string            `json:"kind,omitempty"`
	Transform     [16]float64       `json:"transform"`
	Color         graph.Color       `json:"color"`
	OutputClass   graph.OutputClass `json:"outputClass"`
	MaterialIndex int               `json:"materialIndex"`
	Hidden        bool              `json:"hidden,omitempty"`
	MeshRef       string            `json:"meshRef,omitempty"`
	Children      []*docNode        `json:"children"`
}

// toDoc converts the persistable part of n's subtree. Inline geometry
// that has not been bound to an asset is an error.
func toDoc(ctx context.Context, n *graph.Node) (*docNode, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if n.HasInlineMesh() && !n.Mesh().IsEmpty() {
		return nil, 0, fmt.Errorf("%w: node %q", ErrInlineMesh, n.Name())
	}
	d := &docNode{
		ID:            n.ID().String(),
		Name:          n.Name(),
		Kind:          n.Kind(),
		Transform:     [16]float64(n.Transform()),
		Color:         n.Color(),
		OutputClass:   n.OutputClass(),
		MaterialIndex: n.MaterialIndex(),
		Hidden:        !n.Visible(),
		MeshRef:       n.MeshPath(),
		Children:      []*docNode{},
	}
	count := 1
	for _, c := range n.Children() {
		if !c.Persistable() {
			continue
		}
		cd, k, err := toDoc(ctx, c)
		if err != nil {
			return nil, 0, err
		}
		d.Children = append(d.Children, cd)
		count += k
	}
	return d, count, nil
}

// fromDoc builds a detached node tree from d. checkRef validates mesh
// references and may be nil.
func fromDoc(ctx context.Context, d *docNode, checkRef func(string) error) (*graph.Node, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if d == nil {
		return nil, 0, fmt.Errorf("%w: null node", ErrInvalidDocument)
	}
	n := graph.New(d.Name)
	if d.ID != "" {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: node %q: id: %v", ErrInvalidDocument, d.Name, err)
		}
		n.SetID(id)
	}
	n.SetKind(d.Kind)
	if d.Transform == ([16]float64{}) {
		// Missing transform.
		n.SetTransform(mgl64.Ident4())
	} else {
		n.SetTransform(mgl64.Mat4(d.Transform))
	}
	n.SetColor(d.Color)
	n.SetOutputClass(d.OutputClass)
	n.SetMaterialIndex(d.MaterialIndex)
	n.SetVisible(!d.Hidden)
	if d.MeshRef != "" {
		if checkRef != nil {
			if err := checkRef(d.MeshRef); err != nil {
				return nil, 0, fmt.Errorf("%w: node %q: %v", ErrInvalidDocument, d.Name, err)
			}
		}
		n.SetMeshPath(d.MeshRef)
	}
	count := 1
	for _, cd := range d.Children {
		c, k, err := fromDoc(ctx, cd, checkRef)
		if err != nil {
			return nil, 0, err
		}
		if err := n.Attach(c, -1); err != nil {
			return nil, 0, err
		}
		count += k
	}
	return n, count, nil
}
