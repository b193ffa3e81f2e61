// Package params implements the typed parameter arena: a write-once-then-
// consume byte buffer holding the values of one directive's named
// parameters, plus lookup by name and type (Find, the find_param
// counterpart). Grounded on
// the teacher's mux.Chunk (a FourCC-tagged, offset-addressed payload slice
// over a shared backing array) generalized from "one chunk of a RIFF file"
// to "one named parameter of a directive".
package params

import (
	"encoding/binary"
	"errors"
	"math"
)

// Type enumerates the parameter value types the PBRT grammar supports.
type Type int

const (
	Bool Type = iota
	Int
	Float
	Point2
	Point3
	Vector2
	Vector3
	Normal3
	RGB
	XYZ
	Blackbody
	Samples
	String
	Texture
)

// typeNames mirrors the on-disk spelling used in `"<type> <name>"`
// parameter declarations, including the documented aliases.
var typeNames = map[string]Type{
	"bool":      Bool,
	"integer":   Int,
	"float":     Float,
	"point2":    Point2,
	"point3":    Point3,
	"point":     Point3,
	"vector2":   Vector2,
	"vector3":   Vector3,
	"vector":    Vector3,
	"normal3":   Normal3,
	"normal":    Normal3,
	"rgb":       RGB,
	"color":     RGB,
	"xyz":       XYZ,
	"blackbody": Blackbody,
	"spectrum":  Samples, // resolved further at parse time: filename vs inline pairs both become Samples
	"string":    String,
	"texture":   Texture,
}

// LookupType resolves a declared type name (including aliases) to a Type.
func LookupType(name string) (Type, bool) {
	t, ok := typeNames[name]
	return t, ok
}

// soft cap after which the arena is shrunk back down once the owning
// directive completes (spec.md §3 "Parameter arena").
const softCapBytes = 4 << 20

// Info describes one parameter pushed into the arena: its interned name,
// type, and (offset, count) addressing into the shared byte buffer.
// Count is the number of *elements* (floats, ints, RGB triples treated as
// 3 floats, string bytes, etc.), not raw bytes.
type Info struct {
	Name   string
	Type   Type
	Offset int
	Count  int
}

var (
	ErrTypeMismatch = errors.New("params: parameter has a different type than requested")
	ErrNotFound     = errors.New("params: parameter not found")
)

// Arena is the per-directive parameter table: a raw byte vector plus a
// parallel list of (name, type, offset, count) descriptors. Clear is
// called at the entry of every directive (spec.md §3 invariant: "the arena
// is cleared before the next directive begins").
type Arena struct {
	temp  []byte
	infos []Info
}

// NewArena creates an empty arena ready for use.
func NewArena() *Arena { return &Arena{} }

// Clear empties the arena for reuse by the next directive, shrinking the
// backing buffer back to the soft cap if a previous directive grew it
// past that (spec.md §3: "When the arena exceeds a soft cap (4 MiB) it is
// shrunk back to the cap after the directive completes").
func (a *Arena) Clear() {
	a.infos = a.infos[:0]
	if cap(a.temp) > softCapBytes {
		a.temp = make([]byte, 0, softCapBytes)
	} else {
		a.temp = a.temp[:0]
	}
}

// pushBytes appends raw bytes to temp and returns their starting offset.
func (a *Arena) pushBytes(b []byte) int {
	off := len(a.temp)
	a.temp = append(a.temp, b...)
	return off
}

// PushFloats appends a little-endian-encoded run of float64s (the arena's
// representation for every float-valued type; integers use PushInts)
// and records an Info entry for name/typ.
func (a *Arena) PushFloats(name string, typ Type, values []float64) {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	off := a.pushBytes(buf)
	a.infos = append(a.infos, Info{Name: name, Type: typ, Offset: off, Count: len(values)})
}

// PushInts appends a run of int32s.
func (a *Arena) PushInts(name string, values []int32) {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	off := a.pushBytes(buf)
	a.infos = append(a.infos, Info{Name: name, Type: Int, Offset: off, Count: len(values)})
}

// PushBools appends a run of bools, one byte each.
func (a *Arena) PushBools(name string, values []bool) {
	buf := make([]byte, len(values))
	for i, v := range values {
		if v {
			buf[i] = 1
		}
	}
	off := a.pushBytes(buf)
	a.infos = append(a.infos, Info{Name: name, Type: Bool, Offset: off, Count: len(values)})
}

// PushString appends a single string's bytes plus a trailing null
// (spec.md §4.H: "copied into the arena with a trailing null").
func (a *Arena) PushString(name string, typ Type, s string) {
	buf := append([]byte(s), 0)
	off := a.pushBytes(buf)
	a.infos = append(a.infos, Info{Name: name, Type: typ, Offset: off, Count: len(s)})
}

// Floats returns the count float64s stored at the given Info.
func (a *Arena) Floats(info Info) []float64 {
	out := make([]float64, info.Count)
	for i := range out {
		bits := binary.LittleEndian.Uint64(a.temp[info.Offset+i*8:])
		out[i] = math.Float64frombits(bits)
	}
	return out
}

// Ints returns the count int32s stored at the given Info.
func (a *Arena) Ints(info Info) []int32 {
	out := make([]int32, info.Count)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(a.temp[info.Offset+i*4:]))
	}
	return out
}

// Bools returns the count bools stored at the given Info.
func (a *Arena) Bools(info Info) []bool {
	out := make([]bool, info.Count)
	for i := range out {
		out[i] = a.temp[info.Offset+i] != 0
	}
	return out
}

// String returns the string (excluding its trailing null) stored at the
// given Info.
func (a *Arena) String(info Info) string {
	return string(a.temp[info.Offset : info.Offset+info.Count])
}

// Find scans this directive's parameters by name, returning the
// descriptor if present and its type is among allowed. Mirrors
// spec.md §4.H's find_param(name, allowed_type_set).
func (a *Arena) Find(name string, allowed ...Type) (Info, bool) {
	for _, info := range a.infos {
		if info.Name != name {
			continue
		}
		if len(allowed) == 0 {
			return info, true
		}
		for _, t := range allowed {
			if info.Type == t {
				return info, true
			}
		}
		return Info{}, false
	}
	return Info{}, false
}

// All returns every parameter recorded for the current directive, for
// handlers (like the per-shape material override detector) that need to
// scan the whole set rather than look up one name.
func (a *Arena) All() []Info { return a.infos }
