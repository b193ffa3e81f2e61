package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Mesh is the flattened result of loading one PLY file: vertex positions,
// optional normals and texture coordinates, and the face element's
// vertex_indices, either triangulated to a flat 3-per-triangle list
// (Indices) or left as one index slice per polygon (Polygons) depending
// on the triangulate argument to LoadFile. This is the shape of data a
// trianglemesh Shape's own inline "P"/"N"/"uv"/"indices" parameters
// take, so a plymesh and an inline trianglemesh are interchangeable
// downstream (spec.md §6).
type Mesh struct {
	Positions []float64 // 3 per vertex
	Normals   []float64 // 3 per vertex, nil if absent
	UV        []float64 // 2 per vertex, nil if absent
	Indices   []int     // 3 per triangle; set only when triangulated
	Polygons  [][]int   // one index slice per face; set only when not triangulated
}

// LoadFile opens path, parses its header, loads every element in file
// order (PLY elements are a single sequential stream; nothing may be
// skipped), and assembles a Mesh from the "vertex" and "face" elements if
// present. When triangulate is false, polygon faces are left as-is
// (Mesh.Polygons) and the ear-clip triangulator never runs.
func LoadFile(path string, triangulate bool) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	h, err := ParseHeader(r)
	if err != nil {
		return nil, fmt.Errorf("ply: %s: %w", path, err)
	}
	for i := range h.Elements {
		if err := h.LoadElement(r, &h.Elements[i]); err != nil {
			return nil, fmt.Errorf("ply: %s: element %q: %w", path, h.Elements[i].Name, err)
		}
	}

	var vertex, face *Element
	for i := range h.Elements {
		switch h.Elements[i].Name {
		case "vertex":
			vertex = &h.Elements[i]
		case "face":
			face = &h.Elements[i]
		}
	}
	if vertex == nil {
		return nil, fmt.Errorf("ply: %s: no vertex element", path)
	}

	mesh := &Mesh{}
	posBytes, err := vertex.Extract([]string{"x", "y", "z"}, Float64)
	if err != nil {
		return nil, err
	}
	mesh.Positions = bytesToF64Slice(posBytes)

	if vertex.propertyIndex("nx") >= 0 && vertex.propertyIndex("ny") >= 0 && vertex.propertyIndex("nz") >= 0 {
		nb, err := vertex.Extract([]string{"nx", "ny", "nz"}, Float64)
		if err != nil {
			return nil, err
		}
		mesh.Normals = bytesToF64Slice(nb)
	}

	if uName, vName, ok := ResolveUV(vertex); ok {
		uvb, err := vertex.Extract([]string{uName, vName}, Float64)
		if err != nil {
			return nil, err
		}
		mesh.UV = bytesToF64Slice(uvb)
	}

	if face != nil && face.propertyIndex("vertex_indices") >= 0 {
		if triangulate {
			idx, err := face.TriangulateFaces(vertex)
			if err != nil {
				return nil, err
			}
			mesh.Indices = idx
		} else {
			polys, err := face.facePolygons()
			if err != nil {
				return nil, err
			}
			mesh.Polygons = polys
		}
	}

	return mesh, nil
}

func bytesToF64Slice(b []byte) []float64 {
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}
