package ima_test

import (
	"testing"

	"ima"
)

// TestIntCompareFlagLaw backs property 6: the fixed relationship between
// EQ/NE/LT/GE/LE/GT that must hold after any integer CMP.
func TestIntCompareFlagLaw(t *testing.T) {
	pairs := [][2]int32{{3, 3}, {5, 2}, {2, 5}, {-1, 1}, {0, 0}, {-5, -5}}
	for _, p := range pairs {
		a, b := p[0], p[1]
		var f ima.Flags
		f.SetCmpInt(a, b)

		wantEQ := a == b
		wantLT := b < a
		wantGE := !wantLT
		wantLE := wantLT || wantEQ
		wantGT := !wantLE
		wantNE := !wantEQ

		assert(t, f.EQ == wantEQ, "CMP %d,%d: EQ=%v want %v", a, b, f.EQ, wantEQ)
		assert(t, f.LT == wantLT, "CMP %d,%d: LT=%v want %v", a, b, f.LT, wantLT)
		assert(t, f.GE == wantGE, "CMP %d,%d: GE=%v want %v", a, b, f.GE, wantGE)
		assert(t, f.LE == wantLE, "CMP %d,%d: LE=%v want %v", a, b, f.LE, wantLE)
		assert(t, f.GT == wantGT, "CMP %d,%d: GT=%v want %v", a, b, f.GT, wantGT)
		assert(t, f.NE == wantNE, "CMP %d,%d: NE=%v want %v", a, b, f.NE, wantNE)
	}
}

func TestFloatCompareLEIsLTAndNE(t *testing.T) {
	var f ima.Flags
	f.SetCmpFloat(1.0, 1.0)
	assert(t, f.EQ && !f.LE && !f.LT, "equal floats: expected EQ && !LE && !LT (float LE is LT∧NE)")

	f.SetCmpFloat(2.0, 1.0)
	assert(t, f.LT && f.LE, "1 < 2: expected LT && LE")
}

func TestPointerCompareIsNonAntisymmetric(t *testing.T) {
	var f ima.Flags
	a := ima.HeapPtr(1)
	b := ima.HeapPtr(2)
	f.SetCmpPtr(a, b)
	assert(t, f.NE && f.LT, "distinct pointers: expected NE && LT by convention")

	f.SetCmpPtr(a, a)
	assert(t, f.EQ && !f.LT, "equal pointers: expected EQ && !LT")
}
