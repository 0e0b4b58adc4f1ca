package mesh

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"

	"golang.org/x/crypto/blake2b"
)

// ID is the content identity of a mesh.
type ID [blake2b.Size256]byte

// ZeroID is the identity of no mesh.
var ZeroID ID

var ErrBadID = errors.New("mesh: malformed id")

// String returns the lowercase hex form of the identity.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 12 hex characters, for logs.
func (id ID) Short() string {
	return id.String()[:12]
}

// IsZero reports whether id is the zero identity.
func (id ID) IsZero() bool {
	return id == ZeroID
}

// ParseID parses the hex form produced by String.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(id) {
		return ZeroID, ErrBadID
	}
	copy(id[:], b)
	return id, nil
}

// Hash computes the content identity of the mesh. The digest covers the
// vertex and index counts followed by the IEEE-754 bits of every vertex
// coordinate and every index, all little-endian, so the result does not
// depend on the host. Name is not part of the identity.
func (m *Mesh) Hash() ID {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(m.Vertices)))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(m.Indices)))
	h.Write(buf[:])

	chunk := make([]byte, 0, 4096)
	flush := func() {
		h.Write(chunk)
		chunk = chunk[:0]
	}
	for _, v := range m.Vertices {
		if len(chunk)+4 > cap(chunk) {
			flush()
		}
		chunk = binary.LittleEndian.AppendUint32(chunk, math.Float32bits(v))
	}
	for _, idx := range m.Indices {
		if len(chunk)+4 > cap(chunk) {
			flush()
		}
		chunk = binary.LittleEndian.AppendUint32(chunk, idx)
	}
	flush()

	var id ID
	copy(id[:], h.Sum(nil))
	return id
}
