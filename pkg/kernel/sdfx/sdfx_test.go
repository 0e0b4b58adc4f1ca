package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/platen/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

// testCells keeps marching cubes fast in tests.
const testCells = 40

func TestBox(t *testing.T) {
	k := New(WithCells(testCells))
	m, err := k.ToMesh(k.Box(100, 50, 25))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(m.Indices) != m.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(m.Indices), m.TriangleCount()*3)
	}
	for _, idx := range m.Indices {
		if int(idx) >= m.VertexCount() {
			t.Fatalf("index %d out of range (%d vertices)", idx, m.VertexCount())
		}
	}

	b := m.Bounds(mgl64.Ident4())
	size := b.Size()
	want := [3]float64{100, 50, 25}
	for i := range want {
		// Marching cubes lands within one cell of the true surface.
		if math.Abs(size[i]-want[i]) > 100.0/testCells*2 {
			t.Errorf("axis %d size %.2f, want about %.0f", i, size[i], want[i])
		}
	}
}

func TestCylinderAndSphere(t *testing.T) {
	k := New(WithCells(testCells))
	for name, s := range map[string]kernel.Solid{
		"cylinder": k.Cylinder(50, 10),
		"sphere":   k.Sphere(15),
	} {
		t.Run(name, func(t *testing.T) {
			m, err := k.ToMesh(s)
			if err != nil {
				t.Fatalf("ToMesh failed: %v", err)
			}
			if m.TriangleCount() == 0 {
				t.Fatal("expected non-zero triangle count")
			}
			t.Logf("%s triangle count: %d", name, m.TriangleCount())
		})
	}
}

func TestTranslate(t *testing.T) {
	k := New(WithCells(testCells))
	s := k.Translate(k.Box(10, 10, 10), 100, 0, 0)
	mn, mx := s.BoundingBox()
	if mn[0] < 94 || mx[0] > 106 {
		t.Errorf("translated bounds x = [%.2f, %.2f], want about [95, 105]", mn[0], mx[0])
	}
}

func TestRotate(t *testing.T) {
	k := New(WithCells(testCells))
	s := k.Rotate(k.Box(40, 10, 10), 0, 0, 90)
	mn, mx := s.BoundingBox()
	if dy := mx[1] - mn[1]; dy < 39 {
		t.Errorf("rotated box y extent = %.2f, want about 40", dy)
	}
}

func TestInvalidSolidReportsError(t *testing.T) {
	k := New()
	bad := k.Cylinder(-1, -1)
	if _, err := k.ToMesh(bad); err == nil {
		t.Fatal("expected error for negative cylinder")
	}
	// Errors survive transforms.
	if _, err := k.ToMesh(k.Translate(bad, 1, 2, 3)); err == nil {
		t.Fatal("expected error after translate")
	}
}
