// Package arrange places a set of subtrees on the build plate so their
// footprints do not overlap.
//
// Placement is a greedy ring search, not a packing optimizer. Items are
// taken largest first. The first goes to the origin; each later item is
// tried at growing square rings of offsets from the lower-left corner of
// everything placed so far, and takes the first offset whose footprint,
// grown by the margin, clears every placed item. The finished cluster is
// then shifted so it is centered on the target point and rests on its Z.
//
// Computing a Plan only reads the tree, so it may run off the owner
// goroutine. Applying it writes every transform in one pass.
package arrange

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/chazu/platen/internal/task"
	"github.com/chazu/platen/pkg/graph"
	"github.com/chazu/platen/pkg/mesh"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ErrBusy is returned when a node is already part of a running arrangement.
var ErrBusy = errors.New("arrange: node is already being arranged")

// Options tunes the search.
type Options struct {
	// Step is the distance between candidate offsets, in millimetres.
	Step float64
	// Margin is the minimum clearance kept around each item.
	Margin float64
	// Workers bounds concurrent bounds computation.
	Workers int
	Logger  *slog.Logger
}

// DefaultOptions returns a 5 mm step, a 2 mm margin and four workers.
func DefaultOptions() Options {
	return Options{Step: 5, Margin: 2, Workers: 4}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.Step <= 0 || math.IsNaN(o.Step) || math.IsInf(o.Step, 0) {
		o.Step = def.Step
	}
	if o.Margin < 0 || math.IsNaN(o.Margin) || math.IsInf(o.Margin, 0) {
		o.Margin = 0
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Placement moves one node.
type Placement struct {
	Node *graph.Node
	From mgl64.Mat4
	To   mgl64.Mat4
	// Bounds is the node's footprint after the move, in its parent's space.
	Bounds mesh.Box
}

// Plan is the result of Compute. Nodes without geometry do not appear.
type Plan struct {
	Placements []Placement
}

// Empty reports whether the plan moves nothing.
func (p Plan) Empty() bool { return len(p.Placements) == 0 }

// Footprint returns the union of the placed bounds.
func (p Plan) Footprint() mesh.Box {
	out := mesh.EmptyBox()
	for _, pl := range p.Placements {
		out = out.Union(pl.Bounds)
	}
	return out
}

// Apply sets every planned transform.
func (p Plan) Apply() {
	for _, pl := range p.Placements {
		pl.Node.SetTransform(pl.To)
	}
}

// Revert restores the transforms the plan was computed from.
func (p Plan) Revert() {
	for _, pl := range p.Placements {
		pl.Node.SetTransform(pl.From)
	}
}

var inflight = struct {
	sync.Mutex
	nodes map[*graph.Node]struct{}
}{nodes: make(map[*graph.Node]struct{})}

// claim marks nodes as being arranged. It fails without claiming anything
// if one of them already is.
func claim(nodes []*graph.Node) (release func(), err error) {
	inflight.Lock()
	defer inflight.Unlock()
	for _, n := range nodes {
		if _, ok := inflight.nodes[n]; ok {
			return nil, fmt.Errorf("%w: %q", ErrBusy, n.Name())
		}
	}
	for _, n := range nodes {
		inflight.nodes[n] = struct{}{}
	}
	return func() {
		inflight.Lock()
		defer inflight.Unlock()
		for _, n := range nodes {
			delete(inflight.nodes, n)
		}
	}, nil
}

// item is one node being placed.
type item struct {
	node  *graph.Node
	from  mgl64.Mat4
	box   mesh.Box
	delta mgl64.Vec3
}

func (it *item) placed() mesh.Box { return it.box.Translate(it.delta) }

// footprint is the larger of the item's X and Y extents.
func (it *item) footprint() float64 {
	s := it.box.Size()
	return math.Max(s[0], s[1])
}

// Compute plans new positions for nodes around center. Bounds are
// resolved through r. Nil and repeated nodes are ignored, as are nodes
// whose subtree has no geometry.
func Compute(ctx context.Context, nodes []*graph.Node, center mgl64.Vec3, r graph.Resolver, opts Options) (Plan, error) {
	nodes = lo.Uniq(lo.Compact(nodes))
	release, err := claim(nodes)
	if err != nil {
		return Plan{}, err
	}
	defer release()
	return compute(ctx, nodes, center, r, opts.normalized())
}

func compute(ctx context.Context, nodes []*graph.Node, center mgl64.Vec3, r graph.Resolver, opts Options) (Plan, error) {
	if len(nodes) == 0 {
		return Plan{}, nil
	}
	items, err := measure(ctx, nodes, r, opts.Workers)
	if err != nil {
		return Plan{}, err
	}
	if len(items) == 0 {
		return Plan{}, nil
	}

	slices.SortStableFunc(items, func(a, b *item) int {
		return cmp.Compare(b.footprint(), a.footprint())
	})

	var placed []mesh.Box
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return Plan{}, err
		}
		base := mgl64.Vec2{}
		if len(placed) > 0 {
			u := union(placed)
			base = mgl64.Vec2{u.Min[0], u.Min[1]}
		}
		at, err := search(ctx, it.box, base, placed, opts)
		if err != nil {
			return Plan{}, err
		}
		it.delta = mgl64.Vec3{at[0] - it.box.Min[0], at[1] - it.box.Min[1], -it.box.Min[2]}
		placed = append(placed, it.placed())
	}

	u := union(placed)
	uc := u.Center()
	shift := mgl64.Vec3{center[0] - uc[0], center[1] - uc[1], center[2] - u.Min[2]}

	plan := Plan{Placements: make([]Placement, 0, len(items))}
	for _, it := range items {
		it.delta = it.delta.Add(shift)
		plan.Placements = append(plan.Placements, Placement{
			Node:   it.node,
			From:   it.from,
			To:     mgl64.Translate3D(it.delta[0], it.delta[1], it.delta[2]).Mul4(it.from),
			Bounds: it.placed(),
		})
	}
	opts.Logger.Debug("arrangement computed", "items", len(items), "footprint", plan.Footprint().Size())
	return plan, nil
}

// measure resolves the bounds of every node in parallel, keeping input
// order and dropping nodes without geometry.
func measure(ctx context.Context, nodes []*graph.Node, r graph.Resolver, workers int) ([]*item, error) {
	items := make([]*item, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, n := range nodes {
		g.Go(func() error {
			b, err := n.LocalBounds(gctx, r)
			if err != nil {
				return fmt.Errorf("arrange: bounds of %q: %w", n.Name(), err)
			}
			if !b.IsEmpty() {
				items[i] = &item{node: n, from: n.Transform(), box: b}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lo.Compact(items), nil
}

// search returns the lower-left corner for box: the first ring offset
// from base whose margin-grown footprint clears every placed box.
func search(ctx context.Context, box mesh.Box, base mgl64.Vec2, placed []mesh.Box, opts Options) (mgl64.Vec2, error) {
	size := box.Size()
	fits := func(i, j int) (mgl64.Vec2, bool) {
		at := mgl64.Vec2{base[0] + float64(i)*opts.Step, base[1] + float64(j)*opts.Step}
		fp := mesh.Box{
			Min: mgl64.Vec3{at[0], at[1], 0},
			Max: mgl64.Vec3{at[0] + size[0], at[1] + size[1], size[2]},
		}.Expand(opts.Margin, opts.Margin, 0)
		for _, p := range placed {
			if fp.OverlapsXY(p) {
				return at, false
			}
		}
		return at, true
	}
	for ring := 0; ; ring++ {
		if err := ctx.Err(); err != nil {
			return mgl64.Vec2{}, err
		}
		for j := 0; j < ring; j++ {
			if at, ok := fits(ring, j); ok {
				return at, nil
			}
		}
		for i := 0; i < ring; i++ {
			if at, ok := fits(i, ring); ok {
				return at, nil
			}
		}
		if at, ok := fits(ring, ring); ok {
			return at, nil
		}
	}
}

func union(boxes []mesh.Box) mesh.Box {
	out := mesh.EmptyBox()
	for _, b := range boxes {
		out = out.Union(b)
	}
	return out
}

// Start computes a plan on a background task. The caller applies it.
func Start(ctx context.Context, nodes []*graph.Node, center mgl64.Vec3, r graph.Resolver, opts Options) *task.Task[Plan] {
	return task.Go(ctx, func(ctx context.Context) (Plan, error) {
		return Compute(ctx, nodes, center, r, opts)
	})
}

// Arrange computes a plan and applies it. Nothing is moved on error.
func Arrange(ctx context.Context, nodes []*graph.Node, center mgl64.Vec3, r graph.Resolver, opts Options) (Plan, error) {
	nodes = lo.Uniq(lo.Compact(nodes))
	release, err := claim(nodes)
	if err != nil {
		return Plan{}, err
	}
	defer release()
	plan, err := compute(ctx, nodes, center, r, opts.normalized())
	if err != nil {
		return Plan{}, err
	}
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	plan.Apply()
	return plan, nil
}
