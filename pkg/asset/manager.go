// Package asset maps mesh geometry to content-addressed files under an
// assets directory. Identical geometry is written once; stored files are
// resolved back into meshes on demand and cached for the life of the
// Manager.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chazu/platen/pkg/mesh"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrMissing is returned by Resolve when the backing file does not exist.
	ErrMissing = errors.New("asset: missing")
	// ErrCorrupt is returned by Resolve when the backing file cannot be decoded.
	ErrCorrupt = errors.New("asset: corrupt")
	// ErrEmptyMesh is returned by Store for a mesh without triangles.
	ErrEmptyMesh = errors.New("asset: empty mesh")
	// ErrBadPath is returned for references that escape the assets directory.
	ErrBadPath = errors.New("asset: path outside assets directory")
)

// Entry describes one stored asset.
type Entry struct {
	ID        mesh.ID
	Path      string
	Vertices  int
	Triangles int
	Bytes     int64
	StoredAt  time.Time
}

// Index receives an Entry for every asset written or adopted by Store.
type Index interface {
	Record(ctx context.Context, e Entry) error
}

// Manager owns the identity table and geometry cache for one assets
// directory. It is safe for concurrent use.
type Manager struct {
	dir    string
	log    *slog.Logger
	index  Index
	meshes *mesh.Store

	mu     sync.RWMutex
	paths  map[mesh.ID]string    // identity -> relative file name
	loaded map[string]*mesh.Mesh // relative file name -> geometry

	flight singleflight.Group
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithIndex records every stored asset in idx.
func WithIndex(idx Index) Option {
	return func(m *Manager) { m.index = idx }
}

// WithMeshStore shares an intern table between managers.
func WithMeshStore(s *mesh.Store) Option {
	return func(m *Manager) {
		if s != nil {
			m.meshes = s
		}
	}
}

// New returns a Manager rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("asset: empty assets directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("asset: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("asset: create %s: %w", abs, err)
	}
	m := &Manager{
		dir:    abs,
		log:    slog.Default(),
		meshes: mesh.NewStore(),
		paths:  make(map[mesh.ID]string),
		loaded: make(map[string]*mesh.Mesh),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Dir returns the absolute assets directory.
func (m *Manager) Dir() string { return m.dir }

// Len returns the number of identities known to the manager.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.paths)
}

// Path returns the absolute file path for a relative asset reference.
func (m *Manager) Path(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if rel == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrBadPath, rel)
	}
	return filepath.Join(m.dir, clean), nil
}

// NameFor returns the file name used for the given identity.
func NameFor(id mesh.ID) string {
	return id.String() + Ext
}

// Store persists geo if its content has not been seen before and returns
// the relative asset reference. Storing the same content again, from this
// or a later process, returns the same reference without writing.
func (m *Manager) Store(ctx context.Context, geo *mesh.Mesh) (string, error) {
	if geo.IsEmpty() {
		return "", ErrEmptyMesh
	}
	id := geo.Hash()

	m.mu.RLock()
	rel, ok := m.paths[id]
	m.mu.RUnlock()
	if ok {
		return rel, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	// The shared write must not fail for the other callers when the
	// first caller gives up.
	wctx := context.WithoutCancel(ctx)
	v, err, _ := m.flight.Do(id.String(), func() (any, error) {
		m.mu.RLock()
		rel, ok := m.paths[id]
		m.mu.RUnlock()
		if ok {
			return rel, nil
		}
		return m.write(wctx, id, geo)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// write puts geo on disk under its identity unless a file from an earlier
// run is already there, then registers it.
func (m *Manager) write(ctx context.Context, id mesh.ID, geo *mesh.Mesh) (string, error) {
	rel := NameFor(id)
	full := filepath.Join(m.dir, rel)

	info, err := os.Stat(full)
	switch {
	case err == nil:
		m.log.Debug("asset adopted", "id", id.Short(), "path", rel)
	case errors.Is(err, fs.ErrNotExist):
		if err := writeAtomic(full, geo); err != nil {
			return "", fmt.Errorf("asset: store %s: %w", id.Short(), err)
		}
		if info, err = os.Stat(full); err != nil {
			return "", fmt.Errorf("asset: store %s: %w", id.Short(), err)
		}
		m.log.Debug("asset written", "id", id.Short(), "path", rel, "bytes", info.Size())
	default:
		return "", fmt.Errorf("asset: store %s: %w", id.Short(), err)
	}

	canonical := m.meshes.PutID(id, geo)
	m.mu.Lock()
	m.paths[id] = rel
	if _, ok := m.loaded[rel]; !ok {
		m.loaded[rel] = canonical
	}
	m.mu.Unlock()

	if m.index != nil {
		e := Entry{
			ID:        id,
			Path:      rel,
			Vertices:  geo.VertexCount(),
			Triangles: geo.TriangleCount(),
			Bytes:     info.Size(),
			StoredAt:  m.now().UTC(),
		}
		if err := m.index.Record(ctx, e); err != nil {
			m.log.Warn("asset index record failed", "id", id.Short(), "err", err)
		}
	}
	return rel, nil
}

// writeAtomic encodes geo into a temp file beside path and renames it into
// place, so a reader never observes a partial asset.
func writeAtomic(path string, geo *mesh.Mesh) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".asset-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = encode(tmp, geo); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Resolve returns the geometry stored at the relative reference rel,
// loading it from disk on first use.
func (m *Manager) Resolve(ctx context.Context, rel string) (*mesh.Mesh, error) {
	m.mu.RLock()
	geo, ok := m.loaded[rel]
	m.mu.RUnlock()
	if ok {
		return geo, nil
	}

	full, err := m.Path(rel)
	if err != nil {
		return nil, err
	}

	v, err, _ := m.flight.Do("resolve:"+rel, func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := os.Stat(full); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrMissing, rel)
			}
			return nil, fmt.Errorf("asset: resolve %s: %w", rel, err)
		}
		geo, err := decode(full)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, rel, err)
		}

		id, canonical := m.meshes.Put(geo)
		m.mu.Lock()
		if _, ok := m.paths[id]; !ok {
			m.paths[id] = rel
		}
		m.loaded[rel] = canonical
		m.mu.Unlock()
		m.log.Debug("asset resolved", "path", rel, "triangles", canonical.TriangleCount())
		return canonical, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*mesh.Mesh), nil
}

// Lookup returns the reference registered for an identity, if any.
func (m *Manager) Lookup(id mesh.ID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rel, ok := m.paths[id]
	return rel, ok
}
