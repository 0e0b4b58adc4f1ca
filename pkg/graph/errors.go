package graph

import "errors"

// Structural errors. Operations returning them leave the tree unchanged.
var (
	ErrNilNode         = errors.New("graph: nil node")
	ErrCycle           = errors.New("graph: node would become its own ancestor")
	ErrHasParent       = errors.New("graph: node already has a parent")
	ErrNotChild        = errors.New("graph: node is not a child of this parent")
	ErrIndexOutOfRange = errors.New("graph: child index out of range")
)

// ErrNoResolver is returned when asset-backed geometry is requested
// without a resolver.
var ErrNoResolver = errors.New("graph: no asset resolver")
