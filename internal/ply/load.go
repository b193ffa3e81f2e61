package ply

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/deepteams/pbrtload/internal/pool"
)

var (
	ErrNegativeListCount = errors.New("ply: list property count is negative")
	ErrTruncated         = errors.New("ply: input truncated")
)

// LoadElement reads every row of element e from r, dispatching on h.Format
// (spec.md §4.E "Fixed-size element load" / "Variable-size element
// load"). For ASCII, r must be the same *bufio.Reader ParseHeader read the
// header from (so row text immediately follows end_header). For binary
// formats any io.Reader works.
func (h *Header) LoadElement(r io.Reader, e *Element) error {
	switch h.Format {
	case ASCII:
		br, ok := r.(*bufio.Reader)
		if !ok {
			br = bufio.NewReader(r)
		}
		return loadASCII(br, e)
	case BinaryLittleEndian:
		return loadBinary(r, e, binary.LittleEndian)
	case BinaryBigEndian:
		return loadBinary(r, e, binary.BigEndian)
	default:
		return fmt.Errorf("ply: unknown format %v", h.Format)
	}
}

func loadASCII(r *bufio.Reader, e *Element) error {
	e.Fixed = make([]byte, e.Count*e.RowStride)
	if !e.FixedSize {
		e.ListData = make(map[string][]byte)
		e.ListCounts = make(map[string][]int)
		for _, p := range e.Properties {
			if p.IsList {
				e.ListCounts[p.Name] = make([]int, 0, e.Count)
			}
		}
	}

	for row := 0; row < e.Count; row++ {
		line, err := readLine(r)
		if err != nil {
			return fmt.Errorf("%w: element %q row %d: %v", ErrTruncated, e.Name, row, err)
		}
		fields := strings.Fields(line)
		fi := 0
		rowBase := row * e.RowStride
		for _, p := range e.Properties {
			if !p.IsList {
				if fi >= len(fields) {
					return fmt.Errorf("%w: element %q row %d missing value for %q", ErrTruncated, e.Name, row, p.Name)
				}
				if err := writeScalarASCII(e.Fixed[rowBase+p.Offset:], p.Type, fields[fi]); err != nil {
					return err
				}
				fi++
				continue
			}
			if fi >= len(fields) {
				return fmt.Errorf("%w: element %q row %d missing list count for %q", ErrTruncated, e.Name, row, p.Name)
			}
			count, err := strconv.Atoi(fields[fi])
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedLine, err)
			}
			if count < 0 {
				return ErrNegativeListCount
			}
			fi++
			buf := make([]byte, p.Type.Size())
			for k := 0; k < count; k++ {
				if fi >= len(fields) {
					return fmt.Errorf("%w: element %q row %d short list for %q", ErrTruncated, e.Name, row, p.Name)
				}
				if err := writeScalarASCII(buf, p.Type, fields[fi]); err != nil {
					return err
				}
				e.ListData[p.Name] = append(e.ListData[p.Name], buf...)
				fi++
			}
			e.ListCounts[p.Name] = append(e.ListCounts[p.Name], count)
		}
	}
	return nil
}

func writeScalarASCII(dst []byte, t ScalarType, tok string) error {
	switch t {
	case Float32, Float64:
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedLine, err)
		}
		if t == Float32 {
			binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
		} else {
			binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
		}
	default:
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedLine, err)
		}
		putInt(dst, t, v, binary.LittleEndian)
	}
	return nil
}

// loadBinary reads e.Count*e.RowStride bytes of fixed-row data (for
// fixed-size elements) or walks rows one at a time reading list counts
// inline (for variable-size elements), per spec.md §4.E. Multi-byte
// scalars are left in their source byte order in Fixed/ListData; byte-
// order normalization to machine-native happens at extraction time so
// that a big-endian file's Fixed bytes, reinterpreted with the right
// order, still round-trip byte-for-byte.
func loadBinary(r io.Reader, e *Element, order binary.ByteOrder) error {
	e.bigEndian = order == binary.BigEndian
	if e.FixedSize {
		e.Fixed = make([]byte, e.Count*e.RowStride)
		if _, err := io.ReadFull(r, e.Fixed); err != nil {
			return fmt.Errorf("%w: element %q: %v", ErrTruncated, e.Name, err)
		}
		return nil
	}

	e.Fixed = make([]byte, e.Count*e.RowStride)
	e.ListData = make(map[string][]byte)
	e.ListCounts = make(map[string][]int)
	for _, p := range e.Properties {
		if p.IsList {
			e.ListCounts[p.Name] = make([]int, 0, e.Count)
		}
	}

	for row := 0; row < e.Count; row++ {
		rowBase := row * e.RowStride
		for _, p := range e.Properties {
			if !p.IsList {
				sz := p.Type.Size()
				if _, err := io.ReadFull(r, e.Fixed[rowBase+p.Offset:rowBase+p.Offset+sz]); err != nil {
					return fmt.Errorf("%w: element %q row %d: %v", ErrTruncated, e.Name, row, err)
				}
				continue
			}
			countBuf := pool.Get(p.ListCountType.Size())
			_, err := io.ReadFull(r, countBuf)
			count, cerr := int64(0), error(nil)
			if err == nil {
				count, cerr = readIntAs64(countBuf, p.ListCountType, order)
			}
			pool.Put(countBuf)
			if err != nil {
				return fmt.Errorf("%w: element %q row %d list count: %v", ErrTruncated, e.Name, row, err)
			}
			if cerr != nil {
				return cerr
			}
			if count < 0 {
				return ErrNegativeListCount
			}
			// Items are read into a pooled scratch buffer and copied into
			// ListData's growing slice, so the scratch buffer can be
			// returned to the pool immediately rather than living as long
			// as the element (spec.md §4.E variable-size row load is the
			// hottest allocation path for large face lists).
			itemBytes := int(count) * p.Type.Size()
			itemBuf := pool.Get(itemBytes)
			if _, err := io.ReadFull(r, itemBuf); err != nil {
				pool.Put(itemBuf)
				return fmt.Errorf("%w: element %q row %d list items: %v", ErrTruncated, e.Name, row, err)
			}
			e.ListData[p.Name] = append(e.ListData[p.Name], itemBuf...)
			pool.Put(itemBuf)
			e.ListCounts[p.Name] = append(e.ListCounts[p.Name], int(count))
		}
	}
	return nil
}

// readIntAs64 reads one scalar of type t from b (which must be exactly
// t.Size() bytes) as a signed 64-bit value, honoring order for multi-byte
// types. Used only for list counts, which the spec bounds by the
// declared count type and rejects if negative (spec.md §4.E).
func readIntAs64(b []byte, t ScalarType, order binary.ByteOrder) (int64, error) {
	switch t {
	case Int8:
		return int64(int8(b[0])), nil
	case UInt8:
		return int64(b[0]), nil
	case Int16:
		return int64(int16(order.Uint16(b))), nil
	case UInt16:
		return int64(order.Uint16(b)), nil
	case Int32:
		return int64(int32(order.Uint32(b))), nil
	case UInt32:
		return int64(order.Uint32(b)), nil
	default:
		return 0, fmt.Errorf("ply: list count type must be an integer type, got size %d", t.Size())
	}
}

func putInt(dst []byte, t ScalarType, v int64, order binary.ByteOrder) {
	switch t {
	case Int8, UInt8:
		dst[0] = byte(v)
	case Int16, UInt16:
		order.PutUint16(dst, uint16(v))
	case Int32, UInt32:
		order.PutUint32(dst, uint32(v))
	}
}
