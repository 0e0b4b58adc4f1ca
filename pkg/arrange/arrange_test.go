package arrange

import (
	"context"
	"testing"

	"github.com/chazu/platen/pkg/graph"
	"github.com/chazu/platen/pkg/mesh"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-6

func boxAt(name string, size float64, at mgl64.Vec3) *graph.Node {
	n := graph.NewMesh(name, mesh.NewBox(size, size, size))
	n.SetTransform(mgl64.Translate3D(at[0], at[1], at[2]))
	return n
}

func bounds(t *testing.T, n *graph.Node) mesh.Box {
	t.Helper()
	b, err := n.LocalBounds(context.Background(), nil)
	require.NoError(t, err)
	return b
}

func TestArrangeSingleBox(t *testing.T) {
	n := boxAt("box", 20, mgl64.Vec3{34, 22, 10})

	plan, err := Arrange(context.Background(), []*graph.Node{n}, mgl64.Vec3{}, nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Placements, 1)

	want := mesh.Box{Min: mgl64.Vec3{-10, -10, 0}, Max: mgl64.Vec3{10, 10, 20}}
	got := bounds(t, n)
	assert.True(t, want.ApproxEqual(got, eps), "got %v", got)
}

func TestArrangeFourBoxes(t *testing.T) {
	var nodes []*graph.Node
	for i, at := range []mgl64.Vec3{{-80, -80, 10}, {80, -80, 10}, {-80, 80, 10}, {80, 80, 10}} {
		nodes = append(nodes, boxAt(string(rune('a'+i)), 20, at))
	}

	before := mesh.EmptyBox()
	for _, n := range nodes {
		before = before.Union(bounds(t, n))
	}
	require.Greater(t, before.Size()[0], 160.0)
	require.Greater(t, before.Size()[1], 160.0)

	_, err := Arrange(context.Background(), nodes, mgl64.Vec3{}, nil, DefaultOptions())
	require.NoError(t, err)

	after := mesh.EmptyBox()
	var boxes []mesh.Box
	for _, n := range nodes {
		b := bounds(t, n)
		boxes = append(boxes, b)
		after = after.Union(b)
	}
	assert.Less(t, after.Size()[0], 60.0)
	assert.Less(t, after.Size()[1], 75.0)
	assert.InDelta(t, 0, after.Center()[0], eps)
	assert.InDelta(t, 0, after.Center()[1], eps)
	for i := range boxes {
		assert.InDelta(t, 0, boxes[i].Min[2], eps, "box %d rests on the plate", i)
		for j := i + 1; j < len(boxes); j++ {
			assert.False(t, boxes[i].OverlapsXY(boxes[j]), "boxes %d and %d overlap", i, j)
		}
	}

	// Equal sizes keep input order: a fills the origin, b to its right,
	// c above it, d in the corner.
	wantMin := []mgl64.Vec2{{-22.5, -22.5}, {2.5, -22.5}, {-22.5, 2.5}, {2.5, 2.5}}
	for i, w := range wantMin {
		assert.InDelta(t, w[0], boxes[i].Min[0], eps)
		assert.InDelta(t, w[1], boxes[i].Min[1], eps)
	}
}

func TestLargestPlacedFirst(t *testing.T) {
	small := boxAt("small", 10, mgl64.Vec3{100, 0, 0})
	big := boxAt("big", 40, mgl64.Vec3{-100, 0, 0})

	plan, err := Compute(context.Background(), []*graph.Node{small, big}, mgl64.Vec3{}, nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Placements, 2)
	assert.Same(t, big, plan.Placements[0].Node)
	assert.Same(t, small, plan.Placements[1].Node)
	assert.False(t, plan.Placements[0].Bounds.OverlapsXY(plan.Placements[1].Bounds))

	// Compute leaves the tree alone.
	assert.Equal(t, mgl64.Translate3D(100, 0, 0), small.Transform())

	plan.Apply()
	assert.Equal(t, plan.Placements[1].To, small.Transform())
	plan.Revert()
	assert.Equal(t, mgl64.Translate3D(100, 0, 0), small.Transform())
}

func TestArrangeTargetCenter(t *testing.T) {
	n := boxAt("box", 10, mgl64.Vec3{0, 0, 0})
	_, err := Arrange(context.Background(), []*graph.Node{n}, mgl64.Vec3{100, -50, 3}, nil, DefaultOptions())
	require.NoError(t, err)

	want := mesh.Box{Min: mgl64.Vec3{95, -55, 3}, Max: mgl64.Vec3{105, -45, 13}}
	assert.True(t, want.ApproxEqual(bounds(t, n), eps))
}

func TestArrangeTranslatesOnly(t *testing.T) {
	n := graph.NewMesh("scaled", mesh.NewBox(10, 10, 10))
	n.SetTransform(mgl64.Translate3D(7, 7, 7).Mul4(mgl64.Scale3D(2, 3, 4)))

	_, err := Arrange(context.Background(), []*graph.Node{n}, mgl64.Vec3{}, nil, DefaultOptions())
	require.NoError(t, err)

	m := n.Transform()
	assert.InDelta(t, 2, m[0], eps)
	assert.InDelta(t, 3, m[5], eps)
	assert.InDelta(t, 4, m[10], eps)
	want := mesh.Box{Min: mgl64.Vec3{-10, -15, 0}, Max: mgl64.Vec3{10, 15, 40}}
	assert.True(t, want.ApproxEqual(bounds(t, n), eps))
}

func TestArrangeDegenerateInput(t *testing.T) {
	ctx := context.Background()

	plan, err := Arrange(ctx, nil, mgl64.Vec3{}, nil, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, plan.Empty())

	empty := graph.New("empty")
	empty.SetTransform(mgl64.Translate3D(5, 5, 5))
	box := boxAt("box", 10, mgl64.Vec3{50, 50, 50})

	plan, err = Arrange(ctx, []*graph.Node{nil, empty, box, box}, mgl64.Vec3{}, nil, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, plan.Placements, 1)
	assert.Same(t, box, plan.Placements[0].Node)
	assert.Equal(t, mgl64.Translate3D(5, 5, 5), empty.Transform())
}

func TestArrangeCancelled(t *testing.T) {
	a := boxAt("a", 10, mgl64.Vec3{30, 0, 0})
	b := boxAt("b", 10, mgl64.Vec3{-30, 0, 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Arrange(ctx, []*graph.Node{a, b}, mgl64.Vec3{}, nil, DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, mgl64.Translate3D(30, 0, 0), a.Transform())
	assert.Equal(t, mgl64.Translate3D(-30, 0, 0), b.Transform())
}

func TestArrangeBusy(t *testing.T) {
	a := boxAt("a", 10, mgl64.Vec3{30, 0, 0})
	b := boxAt("b", 10, mgl64.Vec3{-30, 0, 0})

	release, err := claim([]*graph.Node{a})
	require.NoError(t, err)

	_, err = Compute(context.Background(), []*graph.Node{b, a}, mgl64.Vec3{}, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrBusy)

	// A disjoint set is unaffected.
	_, err = Compute(context.Background(), []*graph.Node{b}, mgl64.Vec3{}, nil, DefaultOptions())
	assert.NoError(t, err)

	release()
	_, err = Compute(context.Background(), []*graph.Node{a, b}, mgl64.Vec3{}, nil, DefaultOptions())
	assert.NoError(t, err)
}

func TestStart(t *testing.T) {
	ctx := context.Background()
	n := boxAt("box", 20, mgl64.Vec3{34, 22, 10})

	plan, err := Start(ctx, []*graph.Node{n}, mgl64.Vec3{}, nil, DefaultOptions()).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Translate3D(34, 22, 10), n.Transform(), "task does not apply")

	plan.Apply()
	assert.True(t, mesh.BoxOf(mgl64.Vec3{-10, -10, 0}, mgl64.Vec3{10, 10, 20}).ApproxEqual(bounds(t, n), eps))
}

func TestOptionsNormalized(t *testing.T) {
	o := Options{Step: -1, Margin: -3}.normalized()
	assert.Equal(t, 5.0, o.Step)
	assert.Equal(t, 0.0, o.Margin)
	assert.Equal(t, 1, o.Workers)
	assert.NotNil(t, o.Logger)
}
