// Package engine evaluates scene scripts. A script is a sandboxed zygomys
// program whose builtins (box, cylinder, sphere, group, ...) create scene
// nodes; the result of an evaluation is a fresh node tree.
//
//	(def leg (cylinder :height 40 :radius 3 :anchor :bottom))
//	(group :name "stool" :color :pink
//	  (box :size [60 60 5] :at [0 0 40])
//	  leg)
//
// Nodes that were never put into a group become children of the returned
// root, in the order they were created.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chazu/platen/pkg/graph"
	"github.com/chazu/platen/pkg/kernel"
	zygo "github.com/glycerine/zygomys/zygo"
)

// RootName is the name of the root returned by Evaluate.
const RootName = "Scene"

// EvalError is a problem in the script itself: a parse error or a runtime
// error in user code.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates scripts against a geometry kernel. It is safe for
// concurrent use; each evaluation runs in its own sandbox.
type Engine struct {
	kernel     kernel.Kernel
	timeout    time.Duration
	log        *slog.Logger
	generation atomic.Uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine returns an engine that builds primitives with k.
func NewEngine(k kernel.Kernel, opts ...Option) *Engine {
	e := &Engine{kernel: k, timeout: EvalTimeout, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs source and returns the tree it builds.
//
// On success it returns the root and no errors. Problems in the script
// come back as EvalErrors with a nil root and a nil error. The error
// result is reserved for the evaluation itself failing: ErrTimeout,
// ErrSuperseded when a newer Evaluate started meanwhile, a cancelled ctx,
// or a panic.
func (e *Engine) Evaluate(ctx context.Context, source string) (*graph.Node, []EvalError, error) {
	gen := e.generation.Add(1)
	res, err := e.run(ctx, gen, source)
	if err != nil {
		e.log.Debug("evaluation failed", "generation", gen, "err", err)
		return nil, nil, err
	}
	if len(res.errors) > 0 {
		e.log.Debug("script errors", "generation", gen, "count", len(res.errors))
	}
	return res.root, res.errors, nil
}

// evalHook, when set by tests, runs after the script is loaded and
// before it is executed.
var evalHook atomic.Pointer[func()]

func (e *Engine) evaluate(ctx context.Context, source string) (evalResult, error) {
	b := newBuilder(e.kernel)
	if strings.TrimSpace(source) == "" {
		root, err := b.finish()
		return evalResult{root: root}, err
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	b.register(env)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return evalResult{errors: parseZygomysError(err)}, nil
	}
	if hook := evalHook.Load(); hook != nil {
		(*hook)()
	}
	if _, err := env.Run(); err != nil {
		return evalResult{errors: parseZygomysError(err)}, nil
	}
	if err := ctx.Err(); err != nil {
		return evalResult{}, err
	}

	root, err := b.finish()
	if err != nil {
		return evalResult{errors: []EvalError{{Message: err.Error()}}}, nil
	}
	return evalResult{root: root}, nil
}

// zygomys reports parse errors as "Error on line N: ..."; some runtime
// errors use a bare "line N: ...".
var (
	linePattern      = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)
	linePatternShort = regexp.MustCompile(`(?is)^line (\d+):\s*(.*)`)
)

// parseZygomysError converts an interpreter error into EvalErrors, with
// the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
