package graph

import (
	"github.com/chazu/platen/pkg/mesh"
	"github.com/go-gl/mathgl/mgl64"
)

// sampleScene mirrors the reference scene used throughout the tests:
//
//	root (Black, 1, Solid)
//	  superGroup (Violet, 2, Hole, scale x2)
//	    groupA (Pink, 3, Solid)
//	      red   (+10 x, Support, 4)
//	      green (+15 x, Support, 5)
//	      blue  (+20 x, Hole, 6)
//	    groupB (same as groupA)
type sampleScene struct {
	root, superGroup, groupA, groupB *Node
	red, green, blue                 *Node
}

func newSampleScene() *sampleScene {
	s := &sampleScene{}
	s.root = New("root")
	s.root.SetColor(Black)
	s.root.SetMaterialIndex(1)
	s.root.SetOutputClass(OutputSolid)

	s.superGroup = New("superGroup")
	s.superGroup.SetColor(Violet)
	s.superGroup.SetMaterialIndex(2)
	s.superGroup.SetOutputClass(OutputHole)
	s.superGroup.SetTransform(mgl64.Scale3D(2, 2, 2))
	must(s.root.Add(s.superGroup))

	for i, name := range []string{"groupA", "groupB"} {
		g := New(name)
		g.SetColor(Pink)
		g.SetMaterialIndex(3)
		g.SetOutputClass(OutputSolid)
		must(s.superGroup.Add(g))

		red := leaf("red", 10, Red, OutputSupport, 4)
		green := leaf("green", 15, Green, OutputSupport, 5)
		blue := leaf("blue", 20, Blue, OutputHole, 6)
		must(g.Add(red, green, blue))

		if i == 0 {
			s.groupA, s.red, s.green, s.blue = g, red, green, blue
		} else {
			s.groupB = g
		}
	}
	return s
}

func leaf(name string, x float64, c Color, o OutputClass, material int) *Node {
	n := NewMesh(name, mesh.NewBox(2, 2, 2))
	n.SetTransform(mgl64.Translate3D(x, 0, 0))
	n.SetColor(c)
	n.SetOutputClass(o)
	n.SetMaterialIndex(material)
	return n
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
