package ply

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func buildLEFixedVertexFile() []byte {
	header := "ply\nformat binary_little_endian 1.0\nelement vertex 3\n" +
		"property float x\nproperty float y\nproperty float z\nend_header\n"
	var buf bytes.Buffer
	buf.WriteString(header)
	verts := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	for _, v := range verts {
		for _, c := range v {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(c))
			buf.Write(b[:])
		}
	}
	return buf.Bytes()
}

func TestParseHeaderAndLoadFixedLE(t *testing.T) {
	data := buildLEFixedVertexFile()
	r := bufio.NewReader(bytes.NewReader(data))
	h, err := ParseHeader(r)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Format != BinaryLittleEndian {
		t.Fatalf("Format = %v, want BinaryLittleEndian", h.Format)
	}
	if len(h.Elements) != 1 || h.Elements[0].Name != "vertex" || h.Elements[0].Count != 3 {
		t.Fatalf("unexpected elements: %+v", h.Elements)
	}
	e := &h.Elements[0]
	if !e.FixedSize || e.RowStride != 12 {
		t.Fatalf("FixedSize=%v RowStride=%d, want true,12", e.FixedSize, e.RowStride)
	}
	if err := h.LoadElement(r, e); err != nil {
		t.Fatalf("LoadElement: %v", err)
	}

	out, err := e.Extract([]string{"x", "y", "z"}, Float32)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	if len(out) != len(want)*4 {
		t.Fatalf("len(out) = %d, want %d", len(out), len(want)*4)
	}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(out[i*4:]))
		if got != w {
			t.Errorf("out[%d] = %v, want %v", i, got, w)
		}
	}
}

func buildBEFixedVertexFile() []byte {
	header := "ply\nformat binary_big_endian 1.0\nelement vertex 2\n" +
		"property float x\nproperty float y\nend_header\n"
	var buf bytes.Buffer
	buf.WriteString(header)
	vals := []float32{1.5, -2.5, 3.25, 4.75}
	for _, v := range vals {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

func TestBigEndianExtractionMatchesValues(t *testing.T) {
	data := buildBEFixedVertexFile()
	r := bufio.NewReader(bytes.NewReader(data))
	h, err := ParseHeader(r)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	e := &h.Elements[0]
	if err := h.LoadElement(r, e); err != nil {
		t.Fatalf("LoadElement: %v", err)
	}
	out, err := e.Extract([]string{"x", "y"}, Float32)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []float32{1.5, -2.5, 3.25, 4.75}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(out[i*4:]))
		if got != w {
			t.Errorf("out[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestASCIIVertexLoad(t *testing.T) {
	src := "ply\nformat ascii 1.0\nelement vertex 2\n" +
		"property float x\nproperty float y\nproperty float z\nend_header\n" +
		"0 0 0\n1 2 3\n"
	r := bufio.NewReader(bytes.NewReader([]byte(src)))
	h, err := ParseHeader(r)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	e := &h.Elements[0]
	if err := h.LoadElement(r, e); err != nil {
		t.Fatalf("LoadElement: %v", err)
	}
	out, err := e.Extract([]string{"x", "y", "z"}, Float64)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []float64{0, 0, 0, 1, 2, 3}
	for i, w := range want {
		got := math.Float64frombits(binary.LittleEndian.Uint64(out[i*8:]))
		if got != w {
			t.Errorf("out[%d] = %v, want %v", i, got, w)
		}
	}
}

func TestVariableSizeListLoads(t *testing.T) {
	header := "ply\nformat binary_little_endian 1.0\nelement vertex 1\n" +
		"property float x\nproperty float y\nproperty float z\n" +
		"element face 1\nproperty list uchar int vertex_indices\nend_header\n"
	var buf bytes.Buffer
	buf.WriteString(header)
	// one vertex
	for _, c := range []float32{0, 0, 0} {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(c))
		buf.Write(b[:])
	}
	// one face: count=3, indices 0,1,2
	buf.WriteByte(3)
	for _, v := range []int32{0, 1, 2} {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf.Write(b[:])
	}

	r := bufio.NewReader(bytes.NewReader(buf.Bytes()))
	h, err := ParseHeader(r)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	vertex := &h.Elements[0]
	face := &h.Elements[1]
	if err := h.LoadElement(r, vertex); err != nil {
		t.Fatalf("load vertex: %v", err)
	}
	if err := h.LoadElement(r, face); err != nil {
		t.Fatalf("load face: %v", err)
	}
	counts := face.ListCounts["vertex_indices"]
	if len(counts) != 1 || counts[0] != 3 {
		t.Fatalf("counts = %v, want [3]", counts)
	}
}

func TestNegativeListCountRejectedASCII(t *testing.T) {
	src := "ply\nformat ascii 1.0\nelement face 1\n" +
		"property list uchar int vertex_indices\nend_header\n-1\n"
	r := bufio.NewReader(bytes.NewReader([]byte(src)))
	h, err := ParseHeader(r)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	e := &h.Elements[0]
	err = h.LoadElement(r, e)
	if err == nil {
		t.Fatal("expected error for negative list count")
	}
}

func TestCompatibleTypes(t *testing.T) {
	if !Compatible(Int32, UInt32) {
		t.Error("Int32/UInt32 should be compatible (same size, int/uint pair)")
	}
	if Compatible(Int32, Float32) {
		t.Error("Int32/Float32 should not be compatible")
	}
	if !Compatible(Float64, Float64) {
		t.Error("Float64/Float64 should be compatible (equal types)")
	}
}
