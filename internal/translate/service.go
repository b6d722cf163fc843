// Package translate implements the Translation Service: the orchestration
// layer between the HTTP façade and the pooled MT pipelines. It owns
// request-scoped concerns the pool/pipeline must not know about — per-request
// format filters, deadlines, missing-token accounting, and stats.
package translate

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/apertium/apertium-apy/internal/missingtokens"
	"github.com/apertium/apertium-apy/internal/modes"
	"github.com/apertium/apertium-apy/internal/pipeline"
	"github.com/apertium/apertium-apy/internal/pool"
	"github.com/apertium/apertium-apy/internal/stats"
	"go.uber.org/zap"
)

// unknownMarkRE matches an MT-marked unknown surface form: a leading '*'
// immediately followed by the token, terminated by whitespace or common
// punctuation. Carried over from the original implementation's marker
// convention verbatim.
var unknownMarkRE = regexp.MustCompile(`\*([^.,;:\t* ]+)`)

// Options carries the per-request knobs spec.md §6 exposes on /translate:
// an explicit wire format (selecting one-shot deformat/reformat filters),
// whether unknown-word markers should be left in the output, and whether
// missing tokens should be recorded for later curation.
type Options struct {
	Format      string
	MarkUnknown bool
	Nosplit     bool
	TrackUnseen bool
}

// Service is the collaborator the HTTP façade calls for every /translate
// request. It has no HTTP awareness; it only knows pairs, text and Options.
type Service struct {
	log     *zap.Logger
	pool    *pool.PairPool
	stats   *stats.Stats
	unseen  *missingtokens.Store
	timeout time.Duration
}

// New constructs a Service. unseen may be nil, in which case missing-token
// tracking is a no-op (no Redis backing configured).
func New(log *zap.Logger, p *pool.PairPool, st *stats.Stats, unseen *missingtokens.Store, timeout time.Duration) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		log:     log.Named("translate"),
		pool:    p,
		stats:   st,
		unseen:  unseen,
		timeout: timeout,
	}
}

// Translate implements spec.md §4.5's six steps: acquire a pipe, apply any
// requested deformat filter, run the sentinel-framed MT call under a
// deadline, apply any requested reformat filter, record stats and missing
// tokens, then release the pipe back to the pool and nudge the janitor.
func (s *Service) Translate(ctx context.Context, pair modes.PairKey, text string, opts Options) (string, error) {
	pair = pair.Canonicalize()
	start := time.Now()

	pipe, err := s.pool.Acquire(pair)
	if err != nil {
		return "", err
	}
	defer func() {
		s.pool.Release(pair, pipe)
		s.pool.TickJanitor()
	}()

	deformatted, err := deformat(ctx, opts.Format, text)
	if err != nil {
		return "", err
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := pipe.Translate(deadlineCtx, deformatted)
	if err != nil {
		return "", err
	}

	out, err := reformat(ctx, opts.Format, raw)
	if err != nil {
		return "", err
	}

	s.stats.RecordCompletion(pair, stats.TimingSample{
		Start:      start,
		End:        time.Now(),
		InputBytes: len(text),
	})
	s.stats.LogVMSize()

	out = s.handleUnknownMarks(ctx, pair, out, opts)
	return out, nil
}

// handleUnknownMarks records every marked-unknown surface form (when
// tracking is enabled) and strips the markers from the response unless the
// caller asked to keep them (markUnknown=true).
func (s *Service) handleUnknownMarks(ctx context.Context, pair modes.PairKey, text string, opts Options) string {
	if opts.TrackUnseen && s.unseen != nil {
		for _, m := range unknownMarkRE.FindAllStringSubmatch(text, -1) {
			s.unseen.Insert(ctx, pair, m[1])
		}
	}

	if opts.MarkUnknown {
		return text
	}
	return unknownMarkRE.ReplaceAllString(text, "$1")
}

// DeadlineExceeded reports whether err is the pipeline's own deadline error,
// used by the façade to map it to an HTTP 408 rather than a generic 500.
func DeadlineExceeded(err error) bool {
	var de *pipeline.DeadlineExceeded
	return errors.As(err, &de)
}
