package ima

import (
	"fmt"
	"io"
)

// NumRegisters is the size of the general register file (C3): R0..R15.
const NumRegisters = 16

// RegisterIndex names a general register, 0..15.
type RegisterIndex uint8

func (r RegisterIndex) String() string { return fmt.Sprintf("R%d", r) }

// Registers holds the sixteen general registers. SP, GB, and LB are kept
// separately on the Machine as StackAddr values, not as part of this file.
type Registers struct {
	r [NumRegisters]Word
}

// NewRegisters returns a register file with every register Undefined.
func NewRegisters() *Registers {
	regs := &Registers{}
	for i := range regs.r {
		regs.r[i] = WordUndefined()
	}
	return regs
}

func (r *Registers) Get(i RegisterIndex) Word  { return r.r[i] }
func (r *Registers) Set(i RegisterIndex, w Word) { r.r[i] = w }

// Display writes the two-column register dump used by the `r` debug
// command: odd indices continue the line started by the preceding even
// index.
func (r *Registers) Display(w io.Writer) error {
	for i := 0; i < NumRegisters; i += 2 {
		if _, err := fmt.Fprintf(w, "R%-2d : %-20s", i, r.r[i].String()); err != nil {
			return err
		}
		if i+1 < NumRegisters {
			if _, err := fmt.Fprintf(w, "R%-2d : %s", i+1, r.r[i+1].String()); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
