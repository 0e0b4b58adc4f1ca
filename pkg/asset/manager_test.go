package asset

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chazu/platen/pkg/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assetFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
	require.NoError(t, err)
	return matches
}

func TestStoreDeduplicates(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m, err := New(dir)
	require.NoError(t, err)

	a, err := m.Store(ctx, mesh.NewBox(20, 20, 20))
	require.NoError(t, err)
	b, err := m.Store(ctx, mesh.NewBox(20, 20, 20))
	require.NoError(t, err)
	c, err := m.Store(ctx, mesh.NewBox(10, 20, 20))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, NameFor(mesh.NewBox(20, 20, 20).Hash()), a)
	assert.Len(t, assetFiles(t, dir), 2)
	assert.Equal(t, 2, m.Len())
}

func TestStoreAcrossManagersAdoptsExistingFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := New(dir)
	require.NoError(t, err)
	rel, err := first.Store(ctx, mesh.NewBox(3, 4, 5))
	require.NoError(t, err)

	full := filepath.Join(dir, rel)
	before, err := os.Stat(full)
	require.NoError(t, err)

	second, err := New(dir)
	require.NoError(t, err)
	again, err := second.Store(ctx, mesh.NewBox(3, 4, 5))
	require.NoError(t, err)

	after, err := os.Stat(full)
	require.NoError(t, err)
	assert.Equal(t, rel, again)
	assert.Equal(t, before.ModTime(), after.ModTime(), "file must not be rewritten")
	assert.Len(t, assetFiles(t, dir), 1)
}

func TestStoreRejectsEmptyMesh(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = m.Store(context.Background(), &mesh.Mesh{})
	assert.ErrorIs(t, err, ErrEmptyMesh)
}

func TestStoreConcurrentFirstWriters(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m, err := New(dir)
	require.NoError(t, err)

	const writers = 16
	results := make([]string, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Store(ctx, mesh.NewBox(7, 7, 7))
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Len(t, assetFiles(t, dir), 1)

	tmps, err := filepath.Glob(filepath.Join(dir, ".asset-*"))
	require.NoError(t, err)
	assert.Empty(t, tmps, "no temp files left behind")
}

func TestResolveRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writer, err := New(dir)
	require.NoError(t, err)

	src := mesh.NewBox(20, 10, 4)
	rel, err := writer.Store(ctx, src)
	require.NoError(t, err)

	reader, err := New(dir)
	require.NoError(t, err)
	got, err := reader.Resolve(ctx, rel)
	require.NoError(t, err)

	assert.Equal(t, src.VertexCount(), got.VertexCount())
	assert.Equal(t, src.TriangleCount(), got.TriangleCount())
	assert.Equal(t, src.Vertices, got.Vertices)
	assert.Equal(t, src.Indices, got.Indices)

	again, err := reader.Resolve(ctx, rel)
	require.NoError(t, err)
	assert.Same(t, got, again, "resolve caches")

	// Resolved content is registered, so storing it again reuses the file.
	stored, err := reader.Store(ctx, mesh.NewBox(20, 10, 4))
	require.NoError(t, err)
	assert.Equal(t, rel, stored)
	assert.Len(t, assetFiles(t, dir), 1)
}

func TestResolveKeepsFractionalVerticesExact(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writer, err := New(dir)
	require.NoError(t, err)

	src := &mesh.Mesh{
		Name: "fractional",
		Vertices: []float32{
			0.1, 1.0 / 3, 1e-7,
			-0.000123, 123456.79, 2.5,
			7.125, -3.3, 0.0001,
			1.1, 2.2, 3.3,
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	rel, err := writer.Store(ctx, src)
	require.NoError(t, err)

	reader, err := New(dir)
	require.NoError(t, err)
	got, err := reader.Resolve(ctx, rel)
	require.NoError(t, err)

	assert.Equal(t, src.Vertices, got.Vertices)
	assert.Equal(t, src.Hash(), got.Hash(), "file content matches its name")
	assert.Equal(t, NameFor(got.Hash()), rel)
}

func TestResolveMissingIsRecoverable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	m, err := New(dir)
	require.NoError(t, err)

	rel := NameFor(mesh.NewBox(1, 1, 1).Hash())
	_, err = m.Resolve(ctx, rel)
	require.ErrorIs(t, err, ErrMissing)

	// Putting the file in place later makes the same reference resolvable.
	other, err := New(t.TempDir())
	require.NoError(t, err)
	otherRel, err := other.Store(ctx, mesh.NewBox(1, 1, 1))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(other.Dir(), otherRel))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, rel), data, 0o644))

	geo, err := m.Resolve(ctx, rel)
	require.NoError(t, err)
	assert.Equal(t, 12, geo.TriangleCount())
}

func TestResolveCorrupt(t *testing.T) {
	dir := t.TempDir()
	m, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk"+Ext), []byte("not a zip"), 0o644))

	_, err = m.Resolve(context.Background(), "junk"+Ext)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestPathRejectsEscapes(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	for _, rel := range []string{"", "../x.3mf", "/etc/passwd", "a/../../b"} {
		_, err := m.Path(rel)
		assert.ErrorIs(t, err, ErrBadPath, rel)
	}
	p, err := m.Path("sub/x.3mf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Dir(), "sub", "x.3mf"), p)
}

type recordingIndex struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *recordingIndex) Record(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func TestStoreRecordsIndex(t *testing.T) {
	idx := &recordingIndex{}
	m, err := New(t.TempDir(), WithIndex(idx))
	require.NoError(t, err)

	geo := mesh.NewBox(2, 2, 2)
	rel, err := m.Store(context.Background(), geo)
	require.NoError(t, err)
	_, err = m.Store(context.Background(), geo)
	require.NoError(t, err)

	require.Len(t, idx.entries, 1, "only the first store is recorded")
	e := idx.entries[0]
	assert.Equal(t, geo.Hash(), e.ID)
	assert.Equal(t, rel, e.Path)
	assert.Equal(t, 8, e.Vertices)
	assert.Equal(t, 12, e.Triangles)
	assert.Positive(t, e.Bytes)
	assert.False(t, e.StoredAt.IsZero())
}

// blockingIndex holds Record until release is closed and remembers the
// context error it saw.
type blockingIndex struct {
	entered chan struct{}
	release chan struct{}
	ctxErr  error
}

func (b *blockingIndex) Record(ctx context.Context, _ Entry) error {
	close(b.entered)
	<-b.release
	b.ctxErr = ctx.Err()
	return nil
}

func TestStoreOutlivesFirstCallerCancel(t *testing.T) {
	idx := &blockingIndex{entered: make(chan struct{}), release: make(chan struct{})}
	m, err := New(t.TempDir(), WithIndex(idx))
	require.NoError(t, err)
	geo := mesh.NewBox(3, 3, 3)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		rel string
		err error
	}
	first := make(chan result, 1)
	go func() {
		rel, err := m.Store(ctx, geo)
		first <- result{rel, err}
	}()
	<-idx.entered
	cancel()

	rel, err := m.Store(context.Background(), geo)
	require.NoError(t, err)
	assert.Equal(t, NameFor(geo.Hash()), rel)

	close(idx.release)
	r := <-first
	require.NoError(t, r.err, "a write under way completes")
	assert.Equal(t, rel, r.rel)
	assert.NoError(t, idx.ctxErr, "the index sees a live context")

	_, err = m.Store(ctx, mesh.NewBox(4, 4, 4))
	assert.ErrorIs(t, err, context.Canceled)
}
