package mat4

import (
	"math"
	"testing"
)

func approxEq(a, b Matrix) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(a[i][j]-b[i][j]) > 1e-9 {
				return false
			}
		}
	}
	return true
}

func TestIdentityMul(t *testing.T) {
	id := Identity()
	tr := Translate(1, 2, 3)
	if got := Mul(id, tr); !approxEq(got, tr) {
		t.Errorf("Identity*Translate = %v, want %v", got, tr)
	}
}

func TestInvertTranslate(t *testing.T) {
	tr := Translate(1, 2, 3)
	inv, ok := Invert(tr)
	if !ok {
		t.Fatal("Invert reported singular for a translation matrix")
	}
	got := Mul(tr, inv)
	if !approxEq(got, Identity()) {
		t.Errorf("Translate * Invert(Translate) = %v, want identity", got)
	}
}

func TestInvertSingular(t *testing.T) {
	var m Matrix // all zero
	if _, ok := Invert(m); ok {
		t.Error("Invert(zero matrix) reported ok=true, want false")
	}
}

func TestFromColumnMajor16Identity(t *testing.T) {
	v := [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	got := FromColumnMajor16(v)
	if !approxEq(got, Identity()) {
		t.Errorf("FromColumnMajor16(identity) = %v, want identity", got)
	}
}

func TestFromColumnMajor16Translate(t *testing.T) {
	// Column-major encoding of a translate-by-(5,6,7) matrix: the
	// translation components occupy the last column, so in column-major
	// serialization they appear as the first three values of the 4th
	// (last) group of four.
	col := Translate(5, 6, 7)
	var v [16]float64
	k := 0
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			v[k] = col[r][c]
			k++
		}
	}
	got := FromColumnMajor16(v)
	if !approxEq(got, col) {
		t.Errorf("round trip through column-major failed: got %v want %v", got, col)
	}
}
