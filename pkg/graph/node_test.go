package graph

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chazu/platen/pkg/mesh"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeDefaults(t *testing.T) {
	n := New("a")
	assert.Equal(t, "a", n.Name())
	assert.Equal(t, mgl64.Ident4(), n.Transform())
	assert.Equal(t, Unset, n.Color())
	assert.Equal(t, OutputUnset, n.OutputClass())
	assert.Equal(t, MaterialUnset, n.MaterialIndex())
	assert.True(t, n.Visible())
	assert.True(t, n.Persistable())
	assert.False(t, n.HasMesh())
	assert.Nil(t, n.Parent())
	assert.NotEqual(t, New("a").ID(), n.ID())
}

func TestAttachOrderAndParent(t *testing.T) {
	p := New("p")
	a, b, c := New("a"), New("b"), New("c")
	require.NoError(t, p.Attach(a, -1))
	require.NoError(t, p.Attach(c, -1))
	require.NoError(t, p.Attach(b, 1))

	assert.Equal(t, []*Node{a, b, c}, p.Children())
	assert.Same(t, p, b.Parent())
	assert.Equal(t, 1, p.IndexOf(b))
	assert.Same(t, p, c.Root())

	// Children returns a copy.
	kids := p.Children()
	kids[0] = nil
	assert.Same(t, a, p.Child(0))
}

func TestAttachRejections(t *testing.T) {
	root := New("root")
	mid := New("mid")
	leafNode := New("leaf")
	require.NoError(t, root.Add(mid))
	require.NoError(t, mid.Add(leafNode))
	other := New("other")

	tests := []struct {
		name   string
		parent *Node
		child  *Node
		index  int
		want   error
	}{
		{"nil child", root, nil, -1, ErrNilNode},
		{"self", mid, mid, -1, ErrCycle},
		{"ancestor under descendant", leafNode, root, -1, ErrCycle},
		{"parent under child", leafNode, mid, -1, ErrCycle},
		{"double parent", other, leafNode, -1, ErrHasParent},
		{"index too big", other, New("x"), 1, ErrIndexOutOfRange},
		{"negative index", other, New("x"), -2, ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(tt.parent.Children())
			err := tt.parent.Attach(tt.child, tt.index)
			assert.ErrorIs(t, err, tt.want)
			assert.Len(t, tt.parent.Children(), before, "no state change")
		})
	}
	assert.Same(t, mid, leafNode.Parent())
	assert.Nil(t, root.Parent())
}

func TestRemoveAndDetach(t *testing.T) {
	p := New("p")
	a, b := New("a"), New("b")
	require.NoError(t, p.Add(a, b))

	i, err := p.Remove(a)
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.Nil(t, a.Parent())
	assert.Equal(t, []*Node{b}, p.Children())

	_, err = p.Remove(a)
	assert.ErrorIs(t, err, ErrNotChild)
	_, err = New("q").Remove(b)
	assert.ErrorIs(t, err, ErrNotChild)

	parent, idx, err := b.Detach()
	require.NoError(t, err)
	assert.Same(t, p, parent)
	assert.Equal(t, 0, idx)

	_, _, err = b.Detach()
	assert.ErrorIs(t, err, ErrNotChild)

	// A detached node can be attached elsewhere.
	require.NoError(t, New("r").Attach(b, 0))
}

func TestSetTransformRejectsNonFinite(t *testing.T) {
	n := New("n")
	m := mgl64.Translate3D(1, 2, 3)
	n.SetTransform(m)
	assert.Equal(t, m, n.Transform())

	m[5] = math.NaN()
	n.SetTransform(m)
	assert.Equal(t, mgl64.Ident4(), n.Transform())

	m = mgl64.Translate3D(math.Inf(1), 0, 0)
	n.SetTransform(m)
	assert.Equal(t, mgl64.Ident4(), n.Transform())
}

func TestMeshReferenceStates(t *testing.T) {
	box := mesh.NewBox(1, 1, 1)
	n := NewMesh("n", box)
	assert.True(t, n.HasInlineMesh())

	n.BindAsset("abc.3mf")
	assert.False(t, n.HasInlineMesh())
	assert.Same(t, box, n.Mesh(), "binding keeps geometry")
	assert.Equal(t, "abc.3mf", n.MeshPath())

	n.SetMesh(mesh.NewBox(2, 2, 2))
	assert.True(t, n.HasInlineMesh())
	assert.Empty(t, n.MeshPath(), "setting a mesh clears the asset path")

	n.SetMeshPath("def.3mf")
	assert.Nil(t, n.Mesh())
	assert.True(t, n.HasMesh())

	n.SetMesh(nil)
	assert.False(t, n.HasMesh())
}

func TestMaterialIndexClamp(t *testing.T) {
	n := New("n")
	n.SetMaterialIndex(3)
	assert.Equal(t, 3, n.MaterialIndex())
	n.SetMaterialIndex(-7)
	assert.Equal(t, MaterialUnset, n.MaterialIndex())
}

type mapResolver map[string]*mesh.Mesh

var errMissing = errors.New("missing")

func (r mapResolver) Resolve(_ context.Context, path string) (*mesh.Mesh, error) {
	if m, ok := r[path]; ok {
		return m, nil
	}
	return nil, errMissing
}

func TestGeometry(t *testing.T) {
	ctx := context.Background()
	box := mesh.NewBox(1, 1, 1)
	r := mapResolver{"box.3mf": box}

	n := New("n")
	geo, err := n.Geometry(ctx, r)
	require.NoError(t, err)
	assert.Nil(t, geo)

	n.SetMeshPath("box.3mf")
	geo, err = n.Geometry(ctx, r)
	require.NoError(t, err)
	assert.Same(t, box, geo)
	assert.Nil(t, n.Mesh(), "resolving does not mutate the node")

	n.SetMeshPath("gone.3mf")
	_, err = n.Geometry(ctx, r)
	assert.ErrorIs(t, err, errMissing)
	assert.Equal(t, "gone.3mf", n.MeshPath(), "reference kept after failure")

	_, err = n.Geometry(ctx, nil)
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestBounds(t *testing.T) {
	ctx := context.Background()
	s := newSampleScene()

	b, err := s.red.LocalBounds(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{9, -1, -1}, b.Min)
	assert.Equal(t, mgl64.Vec3{11, 1, 1}, b.Max)

	// Group bounds are the union of its children's, in the group's parent space.
	b, err = s.groupA.LocalBounds(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{9, -1, -1}, b.Min)
	assert.Equal(t, mgl64.Vec3{21, 1, 1}, b.Max)

	// The super group scales by 2.
	b, err = s.superGroup.LocalBounds(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{18, -2, -2}, b.Min)
	assert.Equal(t, mgl64.Vec3{42, 2, 2}, b.Max)

	b, err = s.red.WorldBounds(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{18, -2, -2}, b.Min)
	assert.Equal(t, mgl64.Vec3{22, 2, 2}, b.Max)

	b, err = New("empty").LocalBounds(ctx, nil)
	require.NoError(t, err)
	assert.True(t, b.IsEmpty())
}

func TestBoundsPropagatesResolveError(t *testing.T) {
	g := New("g")
	child := New("c")
	child.SetMeshPath("missing.3mf")
	require.NoError(t, g.Add(child))

	_, err := g.LocalBounds(context.Background(), mapResolver{})
	assert.ErrorIs(t, err, errMissing)
}

func TestBoundsHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newSampleScene().root.LocalBounds(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDescendants(t *testing.T) {
	s := newSampleScene()
	all := s.root.Descendants()
	assert.Len(t, all, 10)
	assert.Same(t, s.root, all[0])
	assert.Same(t, s.superGroup, all[1])
	assert.Same(t, s.groupA, all[2])
	assert.Same(t, s.red, all[3])
}
