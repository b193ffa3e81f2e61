package ply

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/deepteams/pbrtload/internal/triangulate"
)

// uvAliases lists the standard vertex property name aliases
// recognized by spec.md §6: "u v (aliases s t, texture_u texture_v,
// texture_s texture_t)".
var uvAliases = [][2]string{
	{"u", "v"},
	{"s", "t"},
	{"texture_u", "texture_v"},
	{"texture_s", "texture_t"},
}

// ResolveUV returns whichever of the standard UV aliases is present on the
// vertex element, or ok=false if none is.
func ResolveUV(vertex *Element) (uName, vName string, ok bool) {
	for _, pair := range uvAliases {
		if vertex.propertyIndex(pair[0]) >= 0 && vertex.propertyIndex(pair[1]) >= 0 {
			return pair[0], pair[1], true
		}
	}
	return "", "", false
}

// facePolygons reads the "vertex_indices" list property of the face
// element, one []int per face row, without triangulating.
func (face *Element) facePolygons() ([][]int, error) {
	pi := face.propertyIndex("vertex_indices")
	if pi < 0 {
		return nil, fmt.Errorf("ply: face element %q has no vertex_indices property", face.Name)
	}
	prop := face.Properties[pi]
	if !prop.IsList {
		return nil, fmt.Errorf("ply: vertex_indices must be a list property")
	}

	order := binary.ByteOrder(binary.LittleEndian)
	if face.bigEndian {
		order = binary.BigEndian
	}
	itemSize := prop.Type.Size()
	items := face.ListData[prop.Name]
	counts := face.ListCounts[prop.Name]

	polys := make([][]int, face.Count)
	offset := 0
	for row := 0; row < face.Count; row++ {
		n := counts[row]
		idx := make([]int, n)
		for i := 0; i < n; i++ {
			b := items[(offset+i)*itemSize : (offset+i+1)*itemSize]
			idx[i] = int(readScalarAsF64(b, prop.Type, order))
		}
		offset += n
		polys[row] = idx
	}
	return polys, nil
}

// TriangulateFaces reads the "vertex_indices" list property of the face
// element and triangulates every polygon face against vertex positions
// taken from the vertex element's x/y/z columns (spec.md §4.E
// "Triangulation", delegating the actual ear-clip to the triangulate
// package). It returns a flat list of vertex indices, three per emitted
// triangle.
func (face *Element) TriangulateFaces(vertex *Element) ([]int, error) {
	polys, err := face.facePolygons()
	if err != nil {
		return nil, err
	}

	posBytes, err := vertex.Extract([]string{"x", "y", "z"}, Float64)
	if err != nil {
		return nil, err
	}
	positions := make([]triangulate.Vec3, vertex.Count)
	for i := range positions {
		base := i * 3 * 8
		positions[i] = triangulate.Vec3{
			X: bytesToF64(posBytes[base:]),
			Y: bytesToF64(posBytes[base+8:]),
			Z: bytesToF64(posBytes[base+16:]),
		}
	}

	var out []int
	for _, idx := range polys {
		out = append(out, triangulate.Polygon(idx, positions)...)
	}
	return out, nil
}

func bytesToF64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
