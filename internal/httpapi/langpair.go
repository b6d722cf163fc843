package httpapi

import (
	"fmt"
	"strings"

	"github.com/apertium/apertium-apy/internal/modes"
)

// parseLangPair parses the `langpair` query value (e.g. "eng|spa") into a
// PairKey. Accepts '|' as the separator per spec.md §6; '-' is also
// accepted since it is the on-disk convention and a common client typo.
func parseLangPair(raw string) (modes.PairKey, error) {
	sep := "|"
	if !strings.Contains(raw, sep) {
		sep = "-"
	}
	parts := strings.SplitN(raw, sep, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return modes.PairKey{}, fmt.Errorf("malformed langpair %q: expected SRC|TGT", raw)
	}
	return modes.PairKey{Src: parts[0], Tgt: parts[1]}.Canonicalize(), nil
}
