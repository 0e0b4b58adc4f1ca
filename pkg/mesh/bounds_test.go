package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestEmptyBox(t *testing.T) {
	e := EmptyBox()
	assert.True(t, e.IsEmpty())
	assert.Equal(t, mgl64.Vec3{}, e.Size())

	b := BoxOf(mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, 0, 0})
	assert.Equal(t, b, e.Union(b))
	assert.Equal(t, b, b.Union(e))
	assert.True(t, e.Translate(mgl64.Vec3{1, 1, 1}).IsEmpty())
	assert.True(t, e.Transform(mgl64.Scale3D(2, 2, 2)).IsEmpty())
}

func TestBoxOps(t *testing.T) {
	b := BoxOf(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 20, 30})
	assert.Equal(t, mgl64.Vec3{10, 20, 30}, b.Size())
	assert.Equal(t, mgl64.Vec3{5, 10, 15}, b.Center())

	moved := b.Translate(mgl64.Vec3{-5, -10, 0})
	assert.Equal(t, mgl64.Vec3{-5, -10, 0}, moved.Min)

	grown := b.Expand(2, 2, 0)
	assert.Equal(t, mgl64.Vec3{-2, -2, 0}, grown.Min)
	assert.Equal(t, mgl64.Vec3{12, 22, 30}, grown.Max)

	scaled := b.Transform(mgl64.Scale3D(2, 1, 1))
	assert.Equal(t, mgl64.Vec3{20, 20, 30}, scaled.Max)
}

func TestOverlapsXY(t *testing.T) {
	a := BoxOf(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10})
	tests := []struct {
		name string
		b    Box
		want bool
	}{
		{"same", a, true},
		{"inside", BoxOf(mgl64.Vec3{2, 2, 2}, mgl64.Vec3{3, 3, 3}), true},
		{"touching edge", BoxOf(mgl64.Vec3{10, 0, 0}, mgl64.Vec3{20, 10, 10}), false},
		{"apart in x", BoxOf(mgl64.Vec3{11, 0, 0}, mgl64.Vec3{20, 10, 10}), false},
		{"apart in z only", BoxOf(mgl64.Vec3{0, 0, 50}, mgl64.Vec3{10, 10, 60}), true},
		{"empty", EmptyBox(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.OverlapsXY(tt.b))
			assert.Equal(t, tt.want, tt.b.OverlapsXY(a))
		})
	}
}
