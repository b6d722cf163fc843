// Package modes discovers installed Apertium-style MT toolchains on disk and
// parses their mode descriptors into process-launch specifications.
package modes

import (
	"fmt"
	"strings"
)

// PairKey is an ordered pair of normalized 3-letter language codes
// identifying a translation direction.
type PairKey struct {
	Src string
	Tgt string
}

func (k PairKey) String() string { return k.Src + "-" + k.Tgt }

// Canonicalize trims, lowercases, and normalizes each code to its 3-letter
// form. Equality of PairKey values is only meaningful once both sides have
// been canonicalized.
func (k PairKey) Canonicalize() PairKey {
	return PairKey{Src: canonLang(k.Src), Tgt: canonLang(k.Tgt)}
}

// canonLang trims and lowercases code, then maps a 2-letter ISO 639-1 code
// to its 3-letter ISO 639-3 equivalent so lookups never split on code
// length (spec.md §3 invariant 6).
func canonLang(code string) string {
	code = strings.TrimSpace(code)

	b := make([]byte, 0, len(code))
	for _, r := range code {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b = append(b, byte(r))
	}
	lower := string(b)

	if len(lower) == 2 {
		return toAlpha3(lower)
	}
	return lower
}

// CommandSpec is one stage of a pipeline: a program, its argument vector,
// and the working directory it should be launched from.
type CommandSpec struct {
	Program string
	Args    []string
	Dir     string
}

func (c CommandSpec) String() string {
	return fmt.Sprintf("%s %v (dir=%s)", c.Program, c.Args, c.Dir)
}

// ParsedMode is the immutable, ordered sequence of process-launch
// specifications realizing one mode descriptor. A ParsedMode is cached per
// PairKey the first time it is requested (see Cache).
type ParsedMode struct {
	// Pair identifies which translation direction this mode realizes; the
	// zero value means the mode is not a pair (analyzer/generator/tagger).
	Pair PairKey

	// Stages is the ordered command chain; Stages[0]'s stdin is the
	// pipeline's input, Stages[len-1]'s stdout is its output.
	Stages []CommandSpec

	// Flushing reports whether every stage in the chain is known to
	// propagate a sentinel flush promptly (as opposed to block-buffering
	// until large amounts of input accumulate). The pool does not consult
	// this flag: non-flushing modes are pooled like flushing ones, and there
	// is no single-shot path for them.
	Flushing bool

	// SourcePath is the mode descriptor file this was parsed from, kept
	// for diagnostics.
	SourcePath string
}
