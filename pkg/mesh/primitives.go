package mesh

// boxFaces lists the 12 triangles of a unit box over the corner numbering
// used by NewBox (bit 0 = +x, bit 1 = +y, bit 2 = +z), wound
// counter-clockwise when seen from outside.
var boxFaces = [...]uint32{
	0, 2, 3, 0, 3, 1, // -z
	4, 5, 7, 4, 7, 6, // +z
	0, 1, 5, 0, 5, 4, // -y
	2, 6, 7, 2, 7, 3, // +y
	0, 4, 6, 0, 6, 2, // -x
	1, 3, 7, 1, 7, 5, // +x
}

// NewBox returns an exact box of the given size centered on the origin:
// 8 vertices and 12 triangles.
func NewBox(x, y, z float64) *Mesh {
	hx, hy, hz := float32(x/2), float32(y/2), float32(z/2)
	m := &Mesh{
		Vertices: make([]float32, 0, 24),
		Indices:  append([]uint32(nil), boxFaces[:]...),
		Name:     "box",
	}
	for i := 0; i < 8; i++ {
		vx, vy, vz := -hx, -hy, -hz
		if i&1 != 0 {
			vx = hx
		}
		if i&2 != 0 {
			vy = hy
		}
		if i&4 != 0 {
			vz = hz
		}
		m.Vertices = append(m.Vertices, vx, vy, vz)
	}
	return m
}
