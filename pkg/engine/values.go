package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/platen/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// sexpNode carries a scene node between builtins.
type sexpNode struct {
	node *graph.Node
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", n.node.Kind(), n.node.Name())
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct {
	vec mgl64.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

type sexpColor struct {
	color graph.Color
}

func (c *sexpColor) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(rgba %d %d %d %d)", c.color.R, c.color.G, c.color.B, c.color.A)
}
func (c *sexpColor) Type() *zygo.RegisteredType { return nil }

// kwArgs is an argument list split into keyword and positional arguments.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// parseArgs separates keywords (marked by preprocessSource) from
// positional arguments. A trailing keyword without a value maps to nil.
func parseArgs(args []zygo.Sexp) kwArgs {
	pa := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := keyword(args[i])
		if !ok {
			pa.positional = append(pa.positional, args[i])
			continue
		}
		var v zygo.Sexp = zygo.SexpNull
		if i+1 < len(args) {
			v = args[i+1]
			i++
		}
		if _, seen := pa.kw[name]; !seen {
			pa.order = append(pa.order, name)
		}
		pa.kw[name] = v
	}
	return pa
}

// only fails if a keyword other than the allowed ones was passed.
func (pa kwArgs) only(fn string, allowed ...string) error {
	for _, k := range pa.order {
		if !lo.Contains(allowed, k) && !lo.Contains(commonKeywords, k) {
			return fmt.Errorf("%s: unknown keyword :%s", fn, k)
		}
	}
	return nil
}

func keyword(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

func describe(s zygo.Sexp) string {
	if s == nil {
		return "nil"
	}
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

func toPositive(s zygo.Sexp) (float64, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if !(f > 0) {
		return 0, fmt.Errorf("expected a positive number, got %g", f)
	}
	return f, nil
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %s", describe(s))
}

func toBool(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %s", describe(s))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", describe(s))
}

// toName accepts a keyword or a plain string and returns the bare name.
func toName(s zygo.Sexp) (string, error) {
	if name, ok := keyword(s); ok {
		return name, nil
	}
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected keyword or string, got %s", describe(s))
}

// toList accepts a list or an array.
func toList(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %s", describe(s))
}

// toVec3 accepts (vec3 x y z) or [x y z].
func toVec3(s zygo.Sexp) (mgl64.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	items, err := toList(s)
	if err != nil || len(items) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("expected vec3 or [x y z], got %s", describe(s))
	}
	var out mgl64.Vec3
	for i, item := range items {
		if out[i], err = toFloat64(item); err != nil {
			return mgl64.Vec3{}, err
		}
	}
	return out, nil
}

// toColor accepts (rgba ...), a color name such as :red, or [r g b] /
// [r g b a].
func toColor(s zygo.Sexp) (graph.Color, error) {
	if c, ok := s.(*sexpColor); ok {
		return c.color, nil
	}
	if name, err := toName(s); err == nil {
		c, ok := graph.ColorByName(name)
		if !ok {
			return graph.Unset, fmt.Errorf("unknown color %q", name)
		}
		return c, nil
	}
	items, err := toList(s)
	if err != nil || (len(items) != 3 && len(items) != 4) {
		return graph.Unset, fmt.Errorf("expected color, got %s", describe(s))
	}
	ch := [4]uint8{0, 0, 0, 255}
	for i, item := range items {
		v, err := toChannel(item)
		if err != nil {
			return graph.Unset, err
		}
		ch[i] = v
	}
	return graph.RGBA(ch[0], ch[1], ch[2], ch[3]), nil
}

func toChannel(s zygo.Sexp) (uint8, error) {
	v, err := toInt(s)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("color channel %d out of range 0-255", v)
	}
	return uint8(v), nil
}

func toNode(s zygo.Sexp) (*graph.Node, error) {
	if n, ok := s.(*sexpNode); ok {
		return n.node, nil
	}
	return nil, fmt.Errorf("expected node, got %s", describe(s))
}
