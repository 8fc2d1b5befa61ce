package parser

import (
	"strings"

	"github.com/pkg/errors"

	"ima"
)

// ParseDVAL parses a value operand, trying in order: a bare register
// (Rn), a DADR (dereferenced), an immediate (#...), then a label lookup.
// The first form that matches wins, matching the original parser's
// try-in-order contract.
func ParseDVAL(s string, labels LabelMap) (ima.DVAL, error) {
	s = strings.TrimSpace(s)

	if idx, ok := ParseRegisterIndex(s); ok {
		return ima.DVAL{Kind: ima.DVALRegister, Reg: idx}, nil
	}
	if dadr, ok := ParseDADR(s); ok {
		return ima.DVAL{Kind: ima.DVALDadr, Dadr: dadr}, nil
	}
	if imm, ok := ParseImmediate(s); ok {
		return ima.DVAL{Kind: ima.DVALImmediate, Imm: imm}, nil
	}
	if addr, ok := labels[strings.ToLower(s)]; ok {
		return ima.DVAL{Kind: ima.DVALLabel, Label: addr}, nil
	}
	return ima.DVAL{}, errors.Errorf("cannot parse value operand %q", s)
}
