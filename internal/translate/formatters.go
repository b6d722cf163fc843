package translate

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// formatPair names the deformatter/reformatter binaries for one format.
// These are pair-independent, stateless filters — unlike the pooled MT
// chain, they are invoked as one-shot subprocesses per request rather than
// being baked into a persistent Pipeline (see DESIGN.md).
type formatPair struct {
	Deformat string
	Reformat string
}

var knownFormats = map[string]formatPair{
	"txt":  {Deformat: "apertium-destxt", Reformat: "apertium-retxt"},
	"html": {Deformat: "apertium-deshtml", Reformat: "apertium-rehtml"},
	"rtf":  {Deformat: "apertium-desrtf", Reformat: "apertium-rertf"},
}

// runFilter pipes input through program's stdin and returns its stdout.
// One-shot: no sentinel framing, the process runs to completion per call.
func runFilter(ctx context.Context, program string, input string) (string, error) {
	cmd := exec.CommandContext(ctx, program)
	cmd.Stdin = bytes.NewReader([]byte(input))

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("format filter %s: %w", program, err)
	}
	return out.String(), nil
}

// deformat applies the named format's deformatter, if any format was
// requested. An empty/unknown format name is a no-op (identity).
func deformat(ctx context.Context, format, text string) (string, error) {
	fp, ok := knownFormats[format]
	if !ok || fp.Deformat == "" {
		return text, nil
	}
	return runFilter(ctx, fp.Deformat, text)
}

// reformat applies the named format's reformatter, if any format was
// requested. An empty/unknown format name is a no-op (identity).
func reformat(ctx context.Context, format, text string) (string, error) {
	fp, ok := knownFormats[format]
	if !ok || fp.Reformat == "" {
		return text, nil
	}
	return runFilter(ctx, fp.Reformat, text)
}
