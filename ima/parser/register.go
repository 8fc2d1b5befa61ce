package parser

import (
	"strconv"
	"strings"

	"ima"
)

// ParseRegisterIndex parses "Rn" (case-insensitive, 0 <= n < 16).
func ParseRegisterIndex(s string) (ima.RegisterIndex, bool) {
	if len(s) < 2 {
		return 0, false
	}
	if s[0] != 'R' && s[0] != 'r' {
		return 0, false
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 || n >= ima.NumRegisters {
		return 0, false
	}
	return ima.RegisterIndex(n), true
}

// ParseBaseRegister parses a DADR base: SP, GB, LB, or Rn.
func ParseBaseRegister(s string) (ima.BaseRegister, bool) {
	switch strings.ToUpper(s) {
	case "SP":
		return ima.BaseRegister{Kind: ima.BaseSP}, true
	case "GB":
		return ima.BaseRegister{Kind: ima.BaseGB}, true
	case "LB":
		return ima.BaseRegister{Kind: ima.BaseLB}, true
	}
	if idx, ok := ParseRegisterIndex(s); ok {
		return ima.BaseRegister{Kind: ima.BaseR, Index: idx}, true
	}
	return ima.BaseRegister{}, false
}
