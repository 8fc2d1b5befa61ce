package parser

import (
	"regexp"
	"strconv"
	"strings"

	"ima"
)

var simpleDadrRe = regexp.MustCompile(`^([+-]?\d+)\s*\(\s*([A-Za-z0-9]+)\s*\)$`)
var displacedDadrRe = regexp.MustCompile(`^([+-]?\d+)\s*\(\s*([A-Za-z0-9]+)\s*,\s*([A-Za-z0-9]+)\s*\)$`)

// ParseDADR parses an address operand: `d(reg)` or `d(reg, Rk)`.
func ParseDADR(s string) (ima.DADR, bool) {
	s = strings.TrimSpace(s)
	if m := displacedDadrRe.FindStringSubmatch(s); m != nil {
		imm, err := strconv.ParseInt(m[1], 10, 32)
		if err != nil {
			return ima.DADR{}, false
		}
		base, ok := ParseBaseRegister(m[2])
		if !ok {
			return ima.DADR{}, false
		}
		regOff, ok := ParseRegisterIndex(m[3])
		if !ok {
			return ima.DADR{}, false
		}
		return ima.DADR{Displaced: true, Base: base, RegOffset: regOff, ImmOffset: int32(imm)}, true
	}
	if m := simpleDadrRe.FindStringSubmatch(s); m != nil {
		imm, err := strconv.ParseInt(m[1], 10, 32)
		if err != nil {
			return ima.DADR{}, false
		}
		base, ok := ParseBaseRegister(m[2])
		if !ok {
			return ima.DADR{}, false
		}
		return ima.DADR{Base: base, ImmOffset: int32(imm)}, true
	}
	return ima.DADR{}, false
}
