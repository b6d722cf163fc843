// Package missingtokens buffers surface forms the MT marked unknown
// (leading '*') and periodically flushes their counts to Redis for later
// linguistic curation.
package missingtokens

import (
	"context"
	"fmt"
	"sync"

	"github.com/apertium/apertium-apy/internal/modes"
	"github.com/apertium/apertium-apy/internal/redisx"
	"go.uber.org/zap"
)

// Store is an append-only, in-memory counter of missing tokens, keyed by
// (pair, token), flushed to Redis in one atomic batch once the configured
// memory limit is reached. Adapted from a general-purpose Redis-backed
// CRUD index into a pure counter: there is no per-record identity here,
// only a running count per (pair, token) pair that gets merged into
// Redis's durable counters on flush.
type Store struct {
	log       *zap.Logger
	rdb       *redisx.Client
	keyPrefix string
	limit     int

	mu       sync.Mutex
	buffered map[bufferKey]int64
	inserted int
}

type bufferKey struct {
	pair  modes.PairKey
	token string
}

// NewStore constructs a Store flushing at most once every limit buffered
// insertions (spec.md's unknown-memory-limit).
func NewStore(log *zap.Logger, rdb *redisx.Client, keyPrefix string, limit int) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if limit <= 0 {
		limit = 1000
	}
	return &Store{
		log:       log.Named("missingtokens"),
		rdb:       rdb,
		keyPrefix: keyPrefix,
		limit:     limit,
		buffered:  make(map[bufferKey]int64),
	}
}

// Insert records one occurrence of token as unknown for pair. If the
// buffer has reached its memory limit, it is flushed to Redis before
// returning. Insert holds the mutex only while counting; the flush takes
// it again for its whole duration, so a flush never interleaves with a
// concurrent Insert's increment.
func (s *Store) Insert(ctx context.Context, pair modes.PairKey, token string) {
	pair = pair.Canonicalize()

	s.mu.Lock()
	s.buffered[bufferKey{pair: pair, token: token}]++
	s.inserted++
	shouldFlush := s.inserted >= s.limit
	s.mu.Unlock()

	if shouldFlush {
		if err := s.Flush(ctx); err != nil {
			s.log.Error("missing-token flush failed", zap.Error(err))
		}
	}
}

// Flush commits every buffered count to Redis in a single pipelined
// MULTI/EXEC transaction, then clears the buffer. Safe to call concurrently; only
// one flush actually executes at a time (serialized by the same mutex
// Insert uses), so a flush never observes a torn buffer.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buffered) == 0 {
		return nil
	}
	if s.rdb == nil {
		// No durable backing configured; drop the buffer (best-effort).
		s.buffered = make(map[bufferKey]int64)
		s.inserted = 0
		return nil
	}

	pipe := s.rdb.TxPipeline()
	for key, count := range s.buffered {
		redisKey := fmt.Sprintf("%s%s:%s", s.keyPrefix, key.pair.String(), key.token)
		pipe.IncrBy(ctx, redisKey, count)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("missingtokens: flush: %w", err)
	}

	s.log.Info("flushed missing tokens", zap.Int("distinct", len(s.buffered)), zap.Int("inserted", s.inserted))
	s.buffered = make(map[bufferKey]int64)
	s.inserted = 0
	return nil
}

// Close performs a final flush, used on graceful shutdown.
func (s *Store) Close(ctx context.Context) error {
	return s.Flush(ctx)
}
