// Package ply implements a PLY mesh-interchange reader supporting ASCII,
// binary-little-endian, and binary-big-endian encodings, variable-size
// list properties, column extraction with type conversion, and on-the-fly
// polygon triangulation. Grounded on the teacher's internal/container
// package: PLY's "header declares element/property layout, then a fixed-
// or variable-size payload follows" shape is the same problem the
// teacher's RIFF chunk walker solves (container/parser.go's
// parseVP8XChunks iterating fixed 8-byte chunk headers followed by
// variable-length payloads), generalized from "one FourCC + size" headers
// to PLY's richer per-element property declarations.
package ply

import "fmt"

// ScalarType enumerates the eight PLY scalar types (spec.md §6 "Property
// type names and aliases").
type ScalarType int

const (
	Int8 ScalarType = iota
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Float32
	Float64
	noneType // sentinel: "this property is not a list" for ListCountType
)

// scalarSizes gives each type's size in bytes (spec.md §6 "Scalar sizes in
// bytes: {1,1,2,2,4,4,4,8}").
var scalarSizes = [...]int{Int8: 1, UInt8: 1, Int16: 2, UInt16: 2, Int32: 4, UInt32: 4, Float32: 4, Float64: 8}

func (t ScalarType) Size() int { return scalarSizes[t] }

// typeNames maps the on-disk spelling (including aliases) to ScalarType.
var typeNames = map[string]ScalarType{
	"char": Int8, "int8": Int8,
	"uchar": UInt8, "uint8": UInt8,
	"short": Int16, "int16": Int16,
	"ushort": UInt16, "uint16": UInt16,
	"int": Int32, "int32": Int32,
	"uint": UInt32, "uint32": UInt32,
	"float": Float32, "float32": Float32,
	"double": Float64, "float64": Float64,
}

func lookupScalarType(name string) (ScalarType, bool) {
	t, ok := typeNames[name]
	return t, ok
}

// isSigned reports whether t is a signed integer type.
func isSigned(t ScalarType) bool {
	return t == Int8 || t == Int16 || t == Int32
}

func isInteger(t ScalarType) bool {
	switch t {
	case Int8, UInt8, Int16, UInt16, Int32, UInt32:
		return true
	}
	return false
}

// Compatible reports whether src can be copied to dest with no conversion:
// equal types, or a same-size signed/unsigned pair (spec.md §4.E "Column
// extraction": "equal, or... the same-size signed/unsigned integer pair").
func Compatible(src, dest ScalarType) bool {
	if src == dest {
		return true
	}
	if src.Size() != dest.Size() {
		return false
	}
	if isInteger(src) && isInteger(dest) {
		return true
	}
	return false
}

// Format identifies the PLY file's overall encoding.
type Format int

const (
	ASCII Format = iota
	BinaryLittleEndian
	BinaryBigEndian
)

func (f Format) String() string {
	switch f {
	case ASCII:
		return "ascii"
	case BinaryLittleEndian:
		return "binary_little_endian"
	case BinaryBigEndian:
		return "binary_big_endian"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Property describes one element property: a scalar column (IsList
// false), or a list column whose length is read per-row (IsList true).
type Property struct {
	Name          string
	Type          ScalarType // item type for lists, scalar type otherwise
	IsList        bool
	ListCountType ScalarType // count-prefix type, meaningful iff IsList
	Offset        int        // byte offset within the fixed row; valid iff !IsList
}

// Element is a named group of rows sharing one property layout (spec.md
// §3 "PLY element").
type Element struct {
	Name       string
	Properties []Property
	Count      int
	FixedSize  bool // true iff no property is a list
	RowStride  int  // byte stride of the packed fixed row

	// Fixed holds Count*RowStride bytes once loaded: the packed, padding-
	// free concatenation of every non-list property in declaration order.
	Fixed []byte

	// ListData and ListCounts hold, per list-property name, the
	// concatenated item bytes and the per-row item counts.
	ListData   map[string][]byte
	ListCounts map[string][]int

	// bigEndian records the byte order multi-byte scalars in Fixed and
	// ListData were stored in. ASCII-loaded elements and little-endian
	// binary elements both use false (native little-endian arena
	// encoding); only binary_big_endian sets this true, so extraction
	// knows how to interpret the raw bytes.
	bigEndian bool
}

// propertyIndex finds a property by name, or -1.
func (e *Element) propertyIndex(name string) int {
	for i, p := range e.Properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// computeLayout assigns fixed-row byte offsets to every scalar property in
// declaration order and sets FixedSize/RowStride (spec.md §4.E "Layout
// computation").
func (e *Element) computeLayout() {
	e.FixedSize = true
	offset := 0
	for i := range e.Properties {
		p := &e.Properties[i]
		if p.IsList {
			e.FixedSize = false
			continue
		}
		p.Offset = offset
		offset += p.Type.Size()
	}
	e.RowStride = offset
}
