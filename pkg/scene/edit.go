package scene

import (
	"context"
	"fmt"
	"slices"

	"github.com/chazu/platen/pkg/arrange"
	"github.com/chazu/platen/pkg/graph"
	"github.com/go-gl/mathgl/mgl64"
)

// record pushes an edit that has already been applied.
func (s *Scene) record(action string, selBefore []*graph.Node, undo, redo func() error) {
	s.hist.push(&rec{
		action:    action,
		undo:      undo,
		redo:      redo,
		selBefore: selBefore,
		selAfter:  slices.Clone(s.selection),
	})
}

// Attach inserts child under parent at index (-1 appends). Structural
// errors leave the scene unchanged and record nothing.
func (s *Scene) Attach(parent, child *graph.Node, index int) error {
	if parent == nil || child == nil {
		return graph.ErrNilNode
	}
	before := slices.Clone(s.selection)
	if err := parent.Attach(child, index); err != nil {
		return fmt.Errorf("scene: attach %q: %w", child.Name(), err)
	}
	at := parent.IndexOf(child)
	s.record("attach "+child.Name(), before,
		func() error {
			_, err := parent.Remove(child)
			return err
		},
		func() error { return parent.Attach(child, at) },
	)
	return nil
}

// Detach removes node from its parent. The node and its descendants
// leave the selection.
func (s *Scene) Detach(node *graph.Node) error {
	if node == nil {
		return graph.ErrNilNode
	}
	before := slices.Clone(s.selection)
	parent, at, err := node.Detach()
	if err != nil {
		return fmt.Errorf("scene: detach %q: %w", node.Name(), err)
	}
	s.selection = slices.DeleteFunc(s.selection, func(n *graph.Node) bool {
		return n == node || node.IsAncestorOf(n)
	})
	s.record("detach "+node.Name(), before,
		func() error { return parent.Attach(node, at) },
		func() error {
			_, err := parent.Remove(node)
			return err
		},
	)
	return nil
}

// setter records a property change from old to v.
func setter[T any](s *Scene, action string, n *graph.Node, get func() T, set func(T), v T) error {
	label := action + " " + n.Name()
	old := get()
	set(v)
	s.record(label, slices.Clone(s.selection),
		func() error {
			set(old)
			return nil
		},
		func() error {
			set(v)
			return nil
		},
	)
	return nil
}

func (s *Scene) SetName(n *graph.Node, name string) error {
	if n == nil {
		return graph.ErrNilNode
	}
	return setter(s, "rename", n, n.Name, n.SetName, name)
}

func (s *Scene) SetTransform(n *graph.Node, m mgl64.Mat4) error {
	if n == nil {
		return graph.ErrNilNode
	}
	return setter(s, "transform", n, n.Transform, n.SetTransform, m)
}

func (s *Scene) SetColor(n *graph.Node, c graph.Color) error {
	if n == nil {
		return graph.ErrNilNode
	}
	return setter(s, "color", n, n.Color, n.SetColor, c)
}

func (s *Scene) SetOutputClass(n *graph.Node, o graph.OutputClass) error {
	if n == nil {
		return graph.ErrNilNode
	}
	return setter(s, "output", n, n.OutputClass, n.SetOutputClass, o)
}

func (s *Scene) SetMaterialIndex(n *graph.Node, i int) error {
	if n == nil {
		return graph.ErrNilNode
	}
	return setter(s, "material", n, n.MaterialIndex, n.SetMaterialIndex, i)
}

func (s *Scene) SetVisible(n *graph.Node, v bool) error {
	if n == nil {
		return graph.ErrNilNode
	}
	return setter(s, "visibility", n, n.Visible, n.SetVisible, v)
}

// Arrange places nodes around center and records the whole move as one
// edit. An arrangement that moves nothing is not recorded.
func (s *Scene) Arrange(ctx context.Context, nodes []*graph.Node, center mgl64.Vec3, r graph.Resolver, opts arrange.Options) error {
	if opts.Logger == nil {
		opts.Logger = s.log
	}
	before := slices.Clone(s.selection)
	plan, err := arrange.Arrange(ctx, nodes, center, r, opts)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	if plan.Empty() {
		return nil
	}
	s.record("arrange", before,
		func() error {
			plan.Revert()
			return nil
		},
		func() error {
			plan.Apply()
			return nil
		},
	)
	return nil
}

// Undo reverts the most recent applied edit. It reports whether there was
// one to revert.
func (s *Scene) Undo() bool {
	if !s.hist.canUndo() {
		return false
	}
	r := s.hist.recs[s.hist.idx-1]
	if err := r.undo(); err != nil {
		s.log.Warn("undo failed", "action", r.action, "err", err)
		return false
	}
	s.hist.idx--
	s.selection = slices.Clone(r.selBefore)
	s.log.Debug("undo", "action", r.action)
	return true
}

// Redo reapplies the most recently undone edit.
func (s *Scene) Redo() bool {
	if !s.hist.canRedo() {
		return false
	}
	r := s.hist.recs[s.hist.idx]
	if err := r.redo(); err != nil {
		s.log.Warn("redo failed", "action", r.action, "err", err)
		return false
	}
	s.hist.idx++
	s.selection = slices.Clone(r.selAfter)
	s.log.Debug("redo", "action", r.action)
	return true
}

func (s *Scene) CanUndo() bool { return s.hist.canUndo() }
func (s *Scene) CanRedo() bool { return s.hist.canRedo() }

// History returns the action label of every recorded edit, oldest first.
func (s *Scene) History() []string { return s.hist.labels() }
