// Package document saves a node tree as a JSON document plus content-
// addressed geometry files, and loads it back.
//
// Save stores every inline mesh through the asset manager, rewrites the
// node's mesh reference to the stored asset, then writes the document
// through a temp file and rename. Load builds the tree without touching
// geometry; meshes are resolved later, on demand. Loading a document and
// saving it again reproduces the same bytes and writes no asset files.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/chazu/platen/internal/task"
	"github.com/chazu/platen/pkg/asset"
	"github.com/chazu/platen/pkg/graph"
	"github.com/chazu/platen/pkg/mesh"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInlineMesh is returned when a tree with unsaved geometry is
	// marshaled without an asset manager.
	ErrInlineMesh = errors.New("document: node has unsaved geometry")
	// ErrInvalidDocument is returned for documents that parse but do not
	// describe a valid tree.
	ErrInvalidDocument = errors.New("document: invalid document")
)

// DefaultWorkers bounds concurrent asset writes during Save.
const DefaultWorkers = 4

// Codec reads and writes documents against one asset manager.
type Codec struct {
	assets  *asset.Manager
	log     *slog.Logger
	workers int
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.log = l
		}
	}
}

// WithWorkers bounds the number of concurrent asset writes.
func WithWorkers(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.workers = n
		}
	}
}

// New returns a Codec that stores geometry through assets.
func New(assets *asset.Manager, opts ...Option) *Codec {
	c := &Codec{assets: assets, log: slog.Default(), workers: DefaultWorkers}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Assets returns the asset manager used for geometry.
func (c *Codec) Assets() *asset.Manager { return c.assets }

// pendingMesh is one distinct inline mesh and the nodes carrying it.
type pendingMesh struct {
	geo   *mesh.Mesh
	nodes []*graph.Node
	path  string
}

// collect gathers the inline meshes of the persistable part of root's
// subtree, checking ctx between nodes.
func collect(ctx context.Context, root *graph.Node) ([]*pendingMesh, error) {
	var order []*pendingMesh
	byMesh := make(map[*mesh.Mesh]*pendingMesh)
	err := graph.Walk(root, func(v graph.Visit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := v.Node
		if n != root && !n.Persistable() {
			return graph.ErrSkipChildren
		}
		if !n.HasInlineMesh() || n.Mesh().IsEmpty() {
			return nil
		}
		p, ok := byMesh[n.Mesh()]
		if !ok {
			p = &pendingMesh{geo: n.Mesh()}
			byMesh[n.Mesh()] = p
			order = append(order, p)
		}
		p.nodes = append(p.nodes, n)
		return nil
	})
	return order, err
}

// storeAll writes the pending meshes with bounded parallelism. Paths are
// filled in only when every store succeeds.
func (c *Codec) storeAll(ctx context.Context, pending []*pendingMesh) error {
	if len(pending) == 0 {
		return nil
	}
	if c.assets == nil {
		return fmt.Errorf("%w: no asset manager", ErrInlineMesh)
	}
	paths := make([]string, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, p := range pending {
		g.Go(func() error {
			rel, err := c.assets.Store(gctx, p.geo)
			if err != nil {
				return err
			}
			paths[i] = rel
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, p := range pending {
		p.path = paths[i]
	}
	return nil
}

// Save writes root's subtree to path. Inline geometry is stored first and
// the nodes are bound to their assets, so a second Save writes nothing new.
// On failure the previous file at path is left untouched.
func (c *Codec) Save(ctx context.Context, root *graph.Node, path string) error {
	if root == nil {
		return graph.ErrNilNode
	}
	pending, err := collect(ctx, root)
	if err != nil {
		return fmt.Errorf("document: save %s: %w", path, err)
	}
	if err := c.storeAll(ctx, pending); err != nil {
		return fmt.Errorf("document: save %s: %w", path, err)
	}
	for _, p := range pending {
		for _, n := range p.nodes {
			n.BindAsset(p.path)
		}
	}

	data, count, err := encode(ctx, root)
	if err != nil {
		return fmt.Errorf("document: save %s: %w", path, err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("document: save %s: %w", path, err)
	}

	distinct := len(lo.UniqBy(pending, func(p *pendingMesh) string { return p.path }))
	c.log.Info("document saved", "path", path, "nodes", count, "stored", distinct)
	return nil
}

// Load reads the document at path into a new detached tree. Geometry is
// not resolved.
func (c *Codec) Load(ctx context.Context, path string) (*graph.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: load %s: %w", path, err)
	}
	var checkRef func(string) error
	if c.assets != nil {
		checkRef = func(ref string) error {
			_, err := c.assets.Path(ref)
			return err
		}
	}
	root, count, err := decode(ctx, data, checkRef)
	if err != nil {
		return nil, fmt.Errorf("document: load %s: %w", path, err)
	}
	for _, f := range graph.Validate(root) {
		if f.Severity == graph.SeverityError {
			return nil, fmt.Errorf("document: load %s: %w: %v", path, ErrInvalidDocument, f)
		}
	}
	c.log.Info("document loaded", "path", path, "nodes", count)
	return root, nil
}

// SaveAsync runs Save on a background task.
func (c *Codec) SaveAsync(ctx context.Context, root *graph.Node, path string) *task.Task[struct{}] {
	return task.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.Save(ctx, root, path)
	})
}

// LoadAsync runs Load on a background task.
func (c *Codec) LoadAsync(ctx context.Context, path string) *task.Task[*graph.Node] {
	return task.Go(ctx, func(ctx context.Context) (*graph.Node, error) {
		return c.Load(ctx, path)
	})
}

// Marshal encodes root's subtree without storing geometry. Trees holding
// unsaved geometry are rejected with ErrInlineMesh.
func Marshal(root *graph.Node) ([]byte, error) {
	if root == nil {
		return nil, graph.ErrNilNode
	}
	data, _, err := encode(context.Background(), root)
	return data, err
}

// Unmarshal decodes a document into a new detached tree.
func Unmarshal(data []byte) (*graph.Node, error) {
	root, _, err := decode(context.Background(), data, nil)
	return root, err
}

func encode(ctx context.Context, root *graph.Node) ([]byte, int, error) {
	d, count, err := toDoc(ctx, root)
	if err != nil {
		return nil, 0, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), count, nil
}

func decode(ctx context.Context, data []byte, checkRef func(string) error) (*graph.Node, int, error) {
	var d docNode
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return fromDoc(ctx, &d, checkRef)
}
