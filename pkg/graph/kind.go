package graph

import (
	"fmt"
	"sync"
)

// RebuildFunc regenerates derived state of a node of some kind, for
// example the geometry or children of a generated group. It runs on the
// tree owner's goroutine.
type RebuildFunc func(n *Node) error

var (
	kindsMu sync.RWMutex
	kinds   = map[string]RebuildFunc{}
)

// RegisterKind installs the rebuild hook for kind, replacing any earlier
// registration. Registering a nil hook removes it.
func RegisterKind(kind string, fn RebuildFunc) {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	if fn == nil {
		delete(kinds, kind)
		return
	}
	kinds[kind] = fn
}

// Rebuild runs the hook registered for n's kind. Plain nodes and kinds
// without a hook are left alone.
func (n *Node) Rebuild() error {
	if n.kind == "" {
		return nil
	}
	kindsMu.RLock()
	fn := kinds[n.kind]
	kindsMu.RUnlock()
	if fn == nil {
		return nil
	}
	if err := fn(n); err != nil {
		return fmt.Errorf("graph: rebuild %s %q: %w", n.kind, n.name, err)
	}
	return nil
}

// RebuildAll runs Rebuild bottom-up over root's subtree so that a parent's
// hook sees rebuilt children.
func RebuildAll(root *Node) error {
	for _, c := range root.children {
		if err := RebuildAll(c); err != nil {
			return err
		}
	}
	return root.Rebuild()
}
