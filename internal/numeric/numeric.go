// Package numeric scans integer, double, and float literals out of a raw
// byte cursor without allocating. Each scanner reports the end position of
// the match only on success; the input cursor is never advanced past
// invalid input, mirroring the teacher codec's habit of leaving a reader
// untouched on a failed parse (see container.ReadChunkHeader).
package numeric

// maxIntDigits bounds int_literal to values representable in 32 signed
// bits; a run of more than this many digits is rejected as overflow
// rather than silently wrapping.
const maxIntDigits = 10

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentTail(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || isDigit(b)
}

// Int parses an optionally-signed decimal integer starting at s[start:].
// On success it returns the parsed value, the offset just past the last
// digit, and true. It rejects inputs immediately followed by an identifier
// character (so "123abc" is not a valid integer token) and inputs whose
// digit run would overflow a 32-bit signed integer.
func Int(s []byte, start int) (value int32, end int, ok bool) {
	i := start
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	digitsStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	n := i - digitsStart
	if n == 0 || n > maxIntDigits {
		return 0, start, false
	}
	if i < len(s) && isIdentTail(s[i]) {
		return 0, start, false
	}
	var v int64
	for _, b := range s[digitsStart:i] {
		v = v*10 + int64(b-'0')
	}
	if neg {
		v = -v
	}
	if v > 1<<31-1 || v < -(1<<31) {
		return 0, start, false
	}
	return int32(v), i, true
}

// Double parses an optionally-signed decimal literal with an optional
// fractional part and an optional e/E exponent. At least one digit must
// appear in the integer or fractional part. The literal may not be
// directly followed by '.', '_', or an alphanumeric character.
func Double(s []byte, start int) (value float64, end int, ok bool) {
	i := start
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	hasInt := i > intStart

	hasFrac := false
	if i < len(s) && s[i] == '.' {
		i++
		fracStart := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		hasFrac = i > fracStart
	}
	if !hasInt && !hasFrac {
		return 0, start, false
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j == expStart {
			return 0, start, false
		}
		i = j
	}

	if i < len(s) {
		c := s[i]
		if c == '.' || c == '_' || isIdentTail(c) {
			return 0, start, false
		}
	}

	v, perr := parseFloat(s[start:i])
	if perr {
		return 0, start, false
	}
	return v, i, true
}

// Float parses the same grammar as Double and narrows the result to
// float32.
func Float(s []byte, start int) (value float32, end int, ok bool) {
	d, end, ok := Double(s, start)
	if !ok {
		return 0, start, false
	}
	return float32(d), end, true
}

// parseFloat is a tiny hand-rolled decimal-to-float64 conversion so this
// package has no dependency on strconv's full grammar (which accepts
// things, like "Inf" and "NaN" literals, the PBRT grammar does not).
func parseFloat(tok []byte) (float64, bool) {
	i := 0
	neg := false
	if i < len(tok) && (tok[i] == '+' || tok[i] == '-') {
		neg = tok[i] == '-'
		i++
	}
	var mantissa float64
	for i < len(tok) && isDigit(tok[i]) {
		mantissa = mantissa*10 + float64(tok[i]-'0')
		i++
	}
	if i < len(tok) && tok[i] == '.' {
		i++
		frac := 0.1
		for i < len(tok) && isDigit(tok[i]) {
			mantissa += float64(tok[i]-'0') * frac
			frac /= 10
			i++
		}
	}
	exp := 0
	if i < len(tok) && (tok[i] == 'e' || tok[i] == 'E') {
		i++
		expNeg := false
		if i < len(tok) && (tok[i] == '+' || tok[i] == '-') {
			expNeg = tok[i] == '-'
			i++
		}
		for i < len(tok) && isDigit(tok[i]) {
			exp = exp*10 + int(tok[i]-'0')
			i++
		}
		if expNeg {
			exp = -exp
		}
	}
	v := mantissa * pow10(exp)
	if neg {
		v = -v
	}
	return v, false
}

func pow10(n int) float64 {
	neg := n < 0
	if neg {
		n = -n
	}
	r := 1.0
	base := 10.0
	for n > 0 {
		if n&1 == 1 {
			r *= base
		}
		base *= base
		n >>= 1
	}
	if neg {
		return 1 / r
	}
	return r
}
