package engine

import (
	"fmt"

	"github.com/chazu/platen/pkg/graph"
	"github.com/chazu/platen/pkg/kernel"
	"github.com/chazu/platen/pkg/mesh"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl64"
)

// Node kinds set by the builtins.
const (
	KindBox      = "box"
	KindCylinder = "cylinder"
	KindSphere   = "sphere"
	KindGroup    = "group"
)

// commonKeywords are accepted by every node-producing builtin.
var commonKeywords = []string{"name", "color", "output", "material", "at", "rotate", "scale", "visible"}

// builder collects the nodes a script creates.
type builder struct {
	k     kernel.Kernel
	nodes []*graph.Node
	// meshes shares one mesh between identical primitives.
	meshes map[string]*mesh.Mesh
}

func newBuilder(k kernel.Kernel) *builder {
	return &builder{k: k, meshes: make(map[string]*mesh.Mesh)}
}

// finish returns a root holding every node that was not grouped, in
// creation order.
func (b *builder) finish() (*graph.Node, error) {
	root := graph.New(RootName)
	for _, n := range b.nodes {
		if n.Parent() != nil {
			continue
		}
		if err := root.Attach(n, -1); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (b *builder) add(n *graph.Node) zygo.Sexp {
	b.nodes = append(b.nodes, n)
	return &sexpNode{node: n}
}

// solidMesh tessellates s once per key.
func (b *builder) solidMesh(key string, s kernel.Solid) (*mesh.Mesh, error) {
	if m, ok := b.meshes[key]; ok {
		return m, nil
	}
	m, err := b.k.ToMesh(s)
	if err != nil {
		return nil, err
	}
	m.Name = key
	b.meshes[key] = m
	return m, nil
}

// anchored applies the :anchor keyword: :center (the default) keeps the
// solid centered on the origin, :bottom lifts it to rest on z = 0.
func (b *builder) anchored(fn string, pa kwArgs, s kernel.Solid) (kernel.Solid, string, error) {
	v, ok := pa.kw["anchor"]
	if !ok {
		return s, "center", nil
	}
	name, err := toName(v)
	if err != nil {
		return nil, "", fmt.Errorf("%s: anchor: %w", fn, err)
	}
	switch name {
	case "center":
		return s, name, nil
	case "bottom":
		min, _ := s.BoundingBox()
		return b.k.Translate(s, 0, 0, -min[2]), name, nil
	}
	return nil, "", fmt.Errorf("%s: anchor: expected :center or :bottom, got %q", fn, name)
}

// applyCommon sets the shared node properties from keywords.
func applyCommon(fn string, n *graph.Node, pa kwArgs) error {
	if v, ok := pa.kw["name"]; ok {
		s, err := toString(v)
		if err != nil {
			return fmt.Errorf("%s: name: %w", fn, err)
		}
		n.SetName(s)
	}
	if v, ok := pa.kw["color"]; ok {
		c, err := toColor(v)
		if err != nil {
			return fmt.Errorf("%s: color: %w", fn, err)
		}
		n.SetColor(c)
	}
	if v, ok := pa.kw["output"]; ok {
		name, err := toName(v)
		if err != nil {
			return fmt.Errorf("%s: output: %w", fn, err)
		}
		o, err := graph.ParseOutputClass(name)
		if err != nil {
			return fmt.Errorf("%s: output: %w", fn, err)
		}
		n.SetOutputClass(o)
	}
	if v, ok := pa.kw["material"]; ok {
		i, err := toInt(v)
		if err != nil {
			return fmt.Errorf("%s: material: %w", fn, err)
		}
		if i < 0 {
			return fmt.Errorf("%s: material: index %d is negative", fn, i)
		}
		n.SetMaterialIndex(i)
	}
	if v, ok := pa.kw["visible"]; ok {
		vis, err := toBool(v)
		if err != nil {
			return fmt.Errorf("%s: visible: %w", fn, err)
		}
		n.SetVisible(vis)
	}

	xf, err := transformOf(fn, pa)
	if err != nil {
		return err
	}
	n.SetTransform(xf)
	return nil
}

// transformOf builds translate · rotate · scale from :at, :rotate (Euler
// degrees, applied X then Y then Z) and :scale (a number or a vec3).
func transformOf(fn string, pa kwArgs) (mgl64.Mat4, error) {
	m := mgl64.Ident4()
	if v, ok := pa.kw["at"]; ok {
		at, err := toVec3(v)
		if err != nil {
			return m, fmt.Errorf("%s: at: %w", fn, err)
		}
		m = mgl64.Translate3D(at[0], at[1], at[2])
	}
	if v, ok := pa.kw["rotate"]; ok {
		r, err := toVec3(v)
		if err != nil {
			return m, fmt.Errorf("%s: rotate: %w", fn, err)
		}
		rot := mgl64.HomogRotate3DZ(mgl64.DegToRad(r[2])).
			Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(r[1]))).
			Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(r[0])))
		m = m.Mul4(rot)
	}
	if v, ok := pa.kw["scale"]; ok {
		var s mgl64.Vec3
		if f, err := toFloat64(v); err == nil {
			s = mgl64.Vec3{f, f, f}
		} else if s, err = toVec3(v); err != nil {
			return m, fmt.Errorf("%s: scale: %w", fn, err)
		}
		m = m.Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
	}
	return m, nil
}

// primitive finishes a primitive builtin: anchors and tessellates the
// solid, then creates the node.
func (b *builder) primitive(fn, key string, pa kwArgs, s kernel.Solid) (zygo.Sexp, error) {
	s, anchor, err := b.anchored(fn, pa, s)
	if err != nil {
		return zygo.SexpNull, err
	}
	geo, err := b.solidMesh(key+" "+anchor, s)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
	}
	n := graph.NewMesh(fn, geo)
	n.SetKind(fn)
	if err := applyCommon(fn, n, pa); err != nil {
		return zygo.SexpNull, err
	}
	return b.add(n), nil
}

// register installs the scene builtins. Source must have been through
// preprocessSource so keywords are recognizable.
func (b *builder) register(env *zygo.Zlisp) {

	// (box :size [20 20 20]) or (box 20 20 20)
	env.AddFunction(KindBox, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only(KindBox, "size", "anchor"); err != nil {
			return zygo.SexpNull, err
		}
		var size mgl64.Vec3
		switch {
		case pa.kw["size"] != nil:
			v, err := toVec3(pa.kw["size"])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			size = v
		case len(pa.positional) == 3:
			v, err := toVec3(&zygo.SexpArray{Val: pa.positional})
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			size = v
		default:
			return zygo.SexpNull, fmt.Errorf("box requires :size [x y z]")
		}
		if !(size[0] > 0 && size[1] > 0 && size[2] > 0) {
			return zygo.SexpNull, fmt.Errorf("box: size must be positive, got %v", size)
		}
		key := fmt.Sprintf("box %g %g %g", size[0], size[1], size[2])
		return b.primitive(KindBox, key, pa, b.k.Box(size[0], size[1], size[2]))
	})

	// (cylinder :height 10 :radius 3 :axis :x)
	env.AddFunction(KindCylinder, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only(KindCylinder, "height", "radius", "axis", "anchor"); err != nil {
			return zygo.SexpNull, err
		}
		h, err := toPositive(pa.kw["height"])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
		}
		r, err := toPositive(pa.kw["radius"])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
		}
		axis := "z"
		if v, ok := pa.kw["axis"]; ok {
			if axis, err = toName(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: axis: %w", err)
			}
		}
		s := b.k.Cylinder(h, r)
		switch axis {
		case "z":
		case "x":
			s = b.k.Rotate(s, 0, 90, 0)
		case "y":
			s = b.k.Rotate(s, 90, 0, 0)
		default:
			return zygo.SexpNull, fmt.Errorf("cylinder: axis: expected :x, :y or :z, got %q", axis)
		}
		key := fmt.Sprintf("cylinder %g %g %s", h, r, axis)
		return b.primitive(KindCylinder, key, pa, s)
	})

	// (sphere :radius 5)
	env.AddFunction(KindSphere, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only(KindSphere, "radius", "anchor"); err != nil {
			return zygo.SexpNull, err
		}
		r, err := toPositive(pa.kw["radius"])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		return b.primitive(KindSphere, fmt.Sprintf("sphere %g", r), pa, b.k.Sphere(r))
	})

	// (group :name "legs" leg1 leg2 [leg3 leg4])
	env.AddFunction(KindGroup, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only(KindGroup); err != nil {
			return zygo.SexpNull, err
		}
		g := graph.New(KindGroup)
		g.SetKind(KindGroup)
		if err := applyCommon(KindGroup, g, pa); err != nil {
			return zygo.SexpNull, err
		}
		for i, arg := range pa.positional {
			items := []zygo.Sexp{arg}
			if _, ok := arg.(*sexpNode); !ok {
				list, err := toList(arg)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("group: child %d: %w", i+1, err)
				}
				items = list
			}
			for _, item := range items {
				child, err := toNode(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("group: child %d: %w", i+1, err)
				}
				if err := g.Attach(child, -1); err != nil {
					return zygo.SexpNull, fmt.Errorf("group: child %q: %w", child.Name(), err)
				}
			}
		}
		return b.add(g), nil
	})

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := toVec3(&zygo.SexpArray{Val: args})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// (rgba 255 0 0 255); alpha defaults to 255
	env.AddFunction("rgba", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 && len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("rgba requires 3 or 4 arguments, got %d", len(args))
		}
		c, err := toColor(&zygo.SexpArray{Val: args})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rgba: %w", err)
		}
		return &sexpColor{color: c}, nil
	})
}
