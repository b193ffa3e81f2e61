package ply

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrBadMagic       = errors.New("ply: missing 'ply' magic header")
	ErrBadFormat      = errors.New("ply: malformed format line")
	ErrUnknownType    = errors.New("ply: unknown property type")
	ErrMissingHeader  = errors.New("ply: missing end_header terminator")
	ErrMalformedLine  = errors.New("ply: malformed header line")
)

// Header holds the parsed PLY header: overall format plus the ordered list
// of declared elements (with property layout, but no row data yet).
type Header struct {
	Format       Format
	MajorVersion int
	MinorVersion int
	Elements     []Element
}

// ParseHeader reads and parses a PLY header from r, up to and including
// the "end_header" line (spec.md §4.E "Header"). comment and obj_info
// lines are ignored.
func ParseHeader(r *bufio.Reader) (*Header, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(line) != "ply" {
		return nil, ErrBadMagic
	}

	h := &Header{}
	var cur *Element

	for {
		line, err = readLine(r)
		if err != nil {
			return nil, ErrMissingHeader
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "comment", "obj_info":
			continue

		case "format":
			if len(fields) != 3 {
				return nil, ErrBadFormat
			}
			switch fields[1] {
			case "ascii":
				h.Format = ASCII
			case "binary_little_endian":
				h.Format = BinaryLittleEndian
			case "binary_big_endian":
				h.Format = BinaryBigEndian
			default:
				return nil, fmt.Errorf("%w: %s", ErrBadFormat, fields[1])
			}
			major, minor, err := parseVersion(fields[2])
			if err != nil {
				return nil, err
			}
			h.MajorVersion, h.MinorVersion = major, minor

		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("%w: %s", ErrMalformedLine, line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: bad element count %q", ErrMalformedLine, fields[2])
			}
			h.Elements = append(h.Elements, Element{Name: fields[1], Count: count})
			cur = &h.Elements[len(h.Elements)-1]

		case "property":
			if cur == nil {
				return nil, fmt.Errorf("%w: property before any element", ErrMalformedLine)
			}
			prop, err := parseProperty(fields)
			if err != nil {
				return nil, err
			}
			cur.Properties = append(cur.Properties, prop)

		case "end_header":
			for i := range h.Elements {
				h.Elements[i].computeLayout()
			}
			return h, nil

		default:
			return nil, fmt.Errorf("%w: unknown header keyword %q", ErrMalformedLine, fields[0])
		}
	}
}

func parseVersion(s string) (major, minor int, err error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: version %q", ErrBadFormat, s)
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("%w: version %q", ErrBadFormat, s)
	}
	return major, minor, nil
}

// parseProperty handles both forms:
//
//	property <scalar-type> <name>
//	property list <count-type> <value-type> <name>
func parseProperty(fields []string) (Property, error) {
	if len(fields) >= 2 && fields[1] == "list" {
		if len(fields) != 5 {
			return Property{}, fmt.Errorf("%w: malformed list property", ErrMalformedLine)
		}
		countType, ok := lookupScalarType(fields[2])
		if !ok {
			return Property{}, fmt.Errorf("%w: %s", ErrUnknownType, fields[2])
		}
		valueType, ok := lookupScalarType(fields[3])
		if !ok {
			return Property{}, fmt.Errorf("%w: %s", ErrUnknownType, fields[3])
		}
		return Property{Name: fields[4], Type: valueType, IsList: true, ListCountType: countType}, nil
	}
	if len(fields) != 3 {
		return Property{}, fmt.Errorf("%w: malformed scalar property", ErrMalformedLine)
	}
	scalarType, ok := lookupScalarType(fields[1])
	if !ok {
		return Property{}, fmt.Errorf("%w: %s", ErrUnknownType, fields[1])
	}
	return Property{Name: fields[2], Type: scalarType}, nil
}

// readLine reads one newline-terminated header line, trimming the
// trailing "\r\n" or "\n".
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
