package ply

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Extract copies propNames' columns of element e into a freshly allocated
// buffer of e.Count rows, each row holding len(propNames) values of
// destType stored little-endian back to back — the "native" arena
// encoding used throughout this module (params.Arena uses the same
// convention). Extract picks the cheapest of four strategies, from fastest
// to slowest, exactly as spec.md §4.E "Column extraction" describes:
//
//  1. requested columns are the whole row, in declaration order, and need
//     no type conversion: one memcpy of the entire fixed block.
//  2. requested columns are contiguous within the row and need no
//     conversion: one memcpy per row.
//  3. requested columns need no conversion but are scattered: one memcpy
//     per column per row.
//  4. anything else: convert through a float64 intermediate, per column
//     per row.
func (e *Element) Extract(propNames []string, destType ScalarType) ([]byte, error) {
	idxs := make([]int, len(propNames))
	for i, name := range propNames {
		pi := e.propertyIndex(name)
		if pi < 0 {
			return nil, fmt.Errorf("ply: element %q has no property %q", e.Name, name)
		}
		if e.Properties[pi].IsList {
			return nil, fmt.Errorf("ply: property %q is a list, cannot extract as a fixed column", name)
		}
		idxs[i] = pi
	}

	destSize := destType.Size()
	out := make([]byte, e.Count*len(propNames)*destSize)

	allCompatible := true
	for _, pi := range idxs {
		if !Compatible(e.Properties[pi].Type, destType) {
			allCompatible = false
			break
		}
	}

	// Path 1: whole row, declared order, no conversion, not big-endian
	// (big-endian source bytes always need at least a byte-order swap).
	if allCompatible && !e.bigEndian && isWholeRowInOrder(e, idxs) && destSize == e.Properties[idxs[0]].Type.Size() {
		copy(out, e.Fixed)
		return out, nil
	}

	// Path 2: contiguous subset, no conversion: one memcpy per row.
	if allCompatible && !e.bigEndian && isContiguous(e, idxs) {
		lo := e.Properties[idxs[0]].Offset
		span := 0
		for _, pi := range idxs {
			span += e.Properties[pi].Type.Size()
		}
		rowOut := len(propNames) * destSize
		for row := 0; row < e.Count; row++ {
			src := e.Fixed[row*e.RowStride+lo : row*e.RowStride+lo+span]
			copy(out[row*rowOut:], src)
		}
		return out, nil
	}

	// Path 3: no conversion, scattered columns: memcpy per column per row.
	if allCompatible && !e.bigEndian {
		rowOut := len(propNames) * destSize
		for row := 0; row < e.Count; row++ {
			for ci, pi := range idxs {
				p := e.Properties[pi]
				src := e.Fixed[row*e.RowStride+p.Offset : row*e.RowStride+p.Offset+p.Type.Size()]
				copy(out[row*rowOut+ci*destSize:], src)
			}
		}
		return out, nil
	}

	// Path 4: general conversion through a float64 intermediate.
	order := binary.ByteOrder(binary.LittleEndian)
	if e.bigEndian {
		order = binary.BigEndian
	}
	rowOut := len(propNames) * destSize
	for row := 0; row < e.Count; row++ {
		for ci, pi := range idxs {
			p := e.Properties[pi]
			src := e.Fixed[row*e.RowStride+p.Offset : row*e.RowStride+p.Offset+p.Type.Size()]
			v := readScalarAsF64(src, p.Type, order)
			writeScalarF64(out[row*rowOut+ci*destSize:], destType, v)
		}
	}
	return out, nil
}

func isWholeRowInOrder(e *Element, idxs []int) bool {
	fixedIdxs := make([]int, 0, len(e.Properties))
	for i, p := range e.Properties {
		if !p.IsList {
			fixedIdxs = append(fixedIdxs, i)
		}
	}
	if len(fixedIdxs) != len(idxs) {
		return false
	}
	for i, pi := range idxs {
		if pi != fixedIdxs[i] {
			return false
		}
	}
	return true
}

func isContiguous(e *Element, idxs []int) bool {
	for i := 1; i < len(idxs); i++ {
		prev := e.Properties[idxs[i-1]]
		cur := e.Properties[idxs[i]]
		if cur.Offset != prev.Offset+prev.Type.Size() {
			return false
		}
	}
	return true
}

func readScalarAsF64(b []byte, t ScalarType, order binary.ByteOrder) float64 {
	switch t {
	case Int8:
		return float64(int8(b[0]))
	case UInt8:
		return float64(b[0])
	case Int16:
		return float64(int16(order.Uint16(b)))
	case UInt16:
		return float64(order.Uint16(b))
	case Int32:
		return float64(int32(order.Uint32(b)))
	case UInt32:
		return float64(order.Uint32(b))
	case Float32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case Float64:
		return math.Float64frombits(order.Uint64(b))
	}
	return 0
}

func writeScalarF64(dst []byte, t ScalarType, v float64) {
	switch t {
	case Int8, UInt8:
		dst[0] = byte(int64(v))
	case Int16, UInt16:
		binary.LittleEndian.PutUint16(dst, uint16(int64(v)))
	case Int32, UInt32:
		binary.LittleEndian.PutUint32(dst, uint32(int64(v)))
	case Float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
	case Float64:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
	}
}

// ReshapeListToFixed converts a list property whose every row has the
// same length k into 1+k fixed scalar properties named "<name>_count",
// "<name>_0".."<name>_{k-1}", letting the faster fixed-row Extract path
// handle it afterward (spec.md §4.E "List-to-fixed conversion"). It is the
// caller's responsibility to have verified every row's count equals k.
func (e *Element) ReshapeListToFixed(name string, k int) error {
	pi := e.propertyIndex(name)
	if pi < 0 || !e.Properties[pi].IsList {
		return fmt.Errorf("ply: %q is not a list property of element %q", name, e.Name)
	}
	p := e.Properties[pi]
	itemSize := p.Type.Size()

	newProps := make([]Property, 0, len(e.Properties)+k)
	newProps = append(newProps, e.Properties[:pi]...)
	newProps = append(newProps, Property{Name: name + "_count", Type: p.ListCountType})
	for i := 0; i < k; i++ {
		newProps = append(newProps, Property{Name: fmt.Sprintf("%s_%d", name, i), Type: p.Type})
	}
	newProps = append(newProps, e.Properties[pi+1:]...)

	oldFixed := e.Fixed
	oldStride := e.RowStride
	e.Properties = newProps
	e.computeLayout()

	newFixed := make([]byte, e.Count*e.RowStride)
	counts := e.ListCounts[name]
	items := e.ListData[name]
	for row := 0; row < e.Count; row++ {
		oldBase := row * oldStride
		newBase := row * e.RowStride
		// Copy properties that existed before the reshaped one.
		prefix := propsByteSpan(newProps[:pi])
		copy(newFixed[newBase:], oldFixed[oldBase:oldBase+prefix])

		countProp := newProps[pi]
		countSlot := newFixed[newBase+countProp.Offset : newBase+countProp.Offset+countProp.Type.Size()]
		writeScalarF64(countSlot, countProp.Type, float64(counts[row]))
		if e.bigEndian {
			// writeScalarF64 is little-endian; Fixed keeps the source order.
			for a, b := 0, len(countSlot)-1; a < b; a, b = a+1, b-1 {
				countSlot[a], countSlot[b] = countSlot[b], countSlot[a]
			}
		}

		rowItems := items[row*k*itemSize : (row+1)*k*itemSize]
		for i := 0; i < k; i++ {
			itemProp := newProps[pi+1+i]
			copy(newFixed[newBase+itemProp.Offset:newBase+itemProp.Offset+itemSize], rowItems[i*itemSize:(i+1)*itemSize])
		}

		// Copy properties declared after the reshaped one.
		tail := newBase + countProp.Offset + countProp.Type.Size() + k*itemSize
		copy(newFixed[tail:newBase+e.RowStride], oldFixed[oldBase+prefix:oldBase+oldStride])
	}
	e.Fixed = newFixed
	if e.ListData != nil {
		delete(e.ListData, name)
		delete(e.ListCounts, name)
	}
	return nil
}

func propsByteSpan(props []Property) int {
	span := 0
	for _, p := range props {
		if !p.IsList {
			span += p.Type.Size()
		}
	}
	return span
}
