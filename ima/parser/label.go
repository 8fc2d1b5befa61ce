package parser

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// LabelMap maps a lowercased label name to the code address it denotes.
type LabelMap map[string]uint32

// ScanLabels is the parser's second pass (SPEC_FULL.md §4.8): it assigns a
// monotone code-address counter to each label. In release mode the counter
// only advances past lines that carry an Assembly token (comment/label-only
// lines never become instructions); in debug mode every source line
// advances the counter, since the debug program keeps one entry per line.
func ScanLabels(lines [][]Token, debugMode bool) (LabelMap, error) {
	labels := make(LabelMap)
	var counter uint32

	for i, toks := range lines {
		hasAssembly := lo.SomeBy(toks, func(t Token) bool { return t.Kind == TokAssembly })
		labelToks := lo.Filter(toks, func(t Token, _ int) bool { return t.Kind == TokLabel })
		for _, t := range labelToks {
			name := strings.ToLower(t.Text)
			if _, exists := labels[name]; exists {
				return nil, errors.Errorf("line %d: duplicate label %q", i+1, name)
			}
			labels[name] = counter
		}
		if debugMode || hasAssembly {
			counter++
		}
	}
	return labels, nil
}
