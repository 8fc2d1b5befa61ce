package ima

import "strings"

// Flags is the seven-boolean condition file (C2). Integer, float, and
// pointer comparisons each install the full six-flag ordering state through
// one of the three SetCmp* setters; OV is set independently by arithmetic
// opcodes.
type Flags struct {
	EQ, NE, GT, GE, LT, LE, OV bool
}

// NewFlags returns the machine's initial flag state.
func NewFlags() Flags {
	return Flags{NE: true, GT: true, GE: true}
}

func (f *Flags) SetOV(v bool) { f.OV = v }

// SetCmpInt establishes EQ/NE/LT/GE/LE/GT for an integer comparison of a
// against b. LE is the ordinary LT∨EQ form.
func (f *Flags) SetCmpInt(a, b int32) {
	eq := a == b
	lt := b < a
	f.setOrder(eq, lt, lt || eq)
}

// SetCmpFloat mirrors SetCmpInt except LE is LT∧NE rather than LT∨EQ, which
// is how this machine keeps NaN out of the "less-or-equal" family instead
// of ordinary IEEE comparison.
func (f *Flags) SetCmpFloat(a, b float32) {
	eq := a == b
	lt := b < a
	f.setOrder(eq, lt, lt && !eq)
}

// SetCmpPtr follows the machine's declared pointer-ordering convention:
// EQ is value equality, but LT is defined as NE rather than any real
// ordering — two distinct pointers are always "less than" each other. This
// is intentionally non-antisymmetric; see DESIGN.md.
func (f *Flags) SetCmpPtr(a, b Pointer) {
	eq := a.Equal(b)
	lt := !eq
	f.setOrder(eq, lt, lt && !eq)
}

func (f *Flags) setOrder(eq, lt, le bool) {
	f.EQ = eq
	f.NE = !eq
	f.LT = lt
	f.GE = !lt
	f.LE = le
	f.GT = !le
}

// Display renders the active flags, space separated, in the fixed order
// EQ NE GT GE LT LE OV.
func (f Flags) Display() string {
	names := []struct {
		name string
		set  bool
	}{
		{"EQ", f.EQ}, {"NE", f.NE}, {"GT", f.GT},
		{"GE", f.GE}, {"LT", f.LT}, {"LE", f.LE}, {"OV", f.OV},
	}
	var active []string
	for _, n := range names {
		if n.set {
			active = append(active, n.name)
		}
	}
	return strings.Join(active, " ")
}
