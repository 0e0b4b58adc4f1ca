// Package scene owns a node tree together with the editing state around
// it: the selection, an undo history and a debug highlight.
//
// A Scene is not safe for concurrent use. Edits, undo and selection
// changes belong to one owner goroutine; only the work handed to the
// document codec or the arrangement engine runs elsewhere.
package scene

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/chazu/platen/pkg/document"
	"github.com/chazu/platen/pkg/graph"
)

// RootName is the name given to the root of a new scene.
const RootName = "Scene"

// Scene owns a node tree together with the editing state around it: the
// selection, the debug highlight and the undo history. Edits made through
// Scene methods are recorded; a Scene is not safe for concurrent use.
type Scene struct {
	root      *graph.Node
	selection []*graph.Node
	highlight *graph.Node
	hist      history
	log       *slog.Logger
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scene) {
		if l != nil {
			s.log = l
		}
	}
}

// WithHistoryLimit bounds the number of undoable edits. Zero or less
// means unbounded.
func WithHistoryLimit(n int) Option {
	return func(s *Scene) { s.hist.limit = n }
}

// New returns an empty scene.
func New(opts ...Option) *Scene {
	return NewWithRoot(graph.New(RootName), opts...)
}

// NewWithRoot returns a scene over an existing tree.
func NewWithRoot(root *graph.Node, opts ...Option) *Scene {
	s := &Scene{
		root: root,
		hist: history{limit: DefaultHistoryLimit},
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scene) Root() *graph.Node { return s.root }

// contains reports whether n is the root or below it.
func (s *Scene) contains(n *graph.Node) bool {
	return n != nil && (n == s.root || s.root.IsAncestorOf(n))
}

// Select adds nodes to the selection. Nodes outside the scene are ignored.
func (s *Scene) Select(nodes ...*graph.Node) {
	for _, n := range nodes {
		if s.contains(n) && !slices.Contains(s.selection, n) {
			s.selection = append(s.selection, n)
		}
	}
}

// Deselect removes nodes from the selection.
func (s *Scene) Deselect(nodes ...*graph.Node) {
	s.selection = slices.DeleteFunc(s.selection, func(n *graph.Node) bool {
		return slices.Contains(nodes, n)
	})
}

func (s *Scene) ClearSelection() { s.selection = nil }

// Selection returns the selected nodes in selection order. Nodes that are
// no longer part of the tree are dropped first.
func (s *Scene) Selection() []*graph.Node {
	s.selection = slices.DeleteFunc(s.selection, func(n *graph.Node) bool {
		return !s.contains(n)
	})
	return slices.Clone(s.selection)
}

func (s *Scene) IsSelected(n *graph.Node) bool {
	return s.contains(n) && slices.Contains(s.selection, n)
}

// SetDebugHighlight marks a node for debug drawing. nil clears it.
func (s *Scene) SetDebugHighlight(n *graph.Node) { s.highlight = n }

// DebugHighlight returns the highlighted node, or nil if it has left the
// tree.
func (s *Scene) DebugHighlight() *graph.Node {
	if !s.contains(s.highlight) {
		return nil
	}
	return s.highlight
}

// Save writes the tree through codec.
func (s *Scene) Save(ctx context.Context, codec *document.Codec, path string) error {
	return codec.Save(ctx, s.root, path)
}

// Load replaces the tree with the document at path. On failure the
// current tree is kept. On success the selection, highlight and history
// are cleared.
func (s *Scene) Load(ctx context.Context, codec *document.Codec, path string) error {
	root, err := codec.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	s.root = root
	s.selection = nil
	s.highlight = nil
	s.hist.reset()
	return nil
}
