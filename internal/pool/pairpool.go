// Package pool implements the per-pair bounded multiset of Pipelines:
// admission (acquire), release, and janitor-driven eviction.
package pool

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/apertium/apertium-apy/internal/modes"
	"github.com/apertium/apertium-apy/internal/pipeline"
	"go.uber.org/zap"
)

// Config holds the runtime-tunable knobs governing pool admission and
// eviction, sourced from the CLI surface (internal/config).
type Config struct {
	MaxPipesPerPair  int64
	MinPipesPerPair  int64
	MaxUsersPerPipe  int32
	MaxIdleSecs      int64
	RestartPipeAfter int64
}

// pairState is the per-pair mutable state: its Ready heap, spawn
// reservations, and a dedicated lock so unrelated pairs never contend.
type pairState struct {
	mu    sync.Mutex
	heap  *pairHeap
	slots *spawnSlots
}

// PairPool is the shared collaborator described by spec.md §4.4: it owns
// every pair's Pipelines plus the Holding Area of pipes evicted but still
// draining in-flight users.
type PairPool struct {
	log   *zap.Logger
	cfg   Config
	cache *modes.Cache
	env   []string

	debugIDs *debugIDAllocator

	mu      sync.Mutex
	pairs   map[modes.PairKey]*pairState
	holding map[int64]*pipeline.Pipeline
}

// New constructs a PairPool. env is the environment passed to every spawned
// Pipeline's child processes (inherited from the parent, never mutated
// after parse, per spec.md §4.2).
func New(log *zap.Logger, cfg Config, cache *modes.Cache) *PairPool {
	if log == nil {
		log = zap.NewNop()
	}
	return &PairPool{
		log:      log.Named("pool"),
		cfg:      cfg,
		cache:    cache,
		env:      os.Environ(),
		debugIDs: newDebugIDAllocator(),
		pairs:    make(map[modes.PairKey]*pairState),
		holding:  make(map[int64]*pipeline.Pipeline),
	}
}

func (p *PairPool) stateFor(pair modes.PairKey) *pairState {
	p.mu.Lock()
	defer p.mu.Unlock()

	ps, ok := p.pairs[pair]
	if !ok {
		ps = &pairState{heap: newPairHeap(), slots: newSpawnSlots(p.cfg.MaxPipesPerPair)}
		p.pairs[pair] = ps
	}
	return ps
}

var errNoPipelineAvailable = errors.New("pool: no pipeline available for pair")

// Acquire implements the §4.4 admission algorithm: spawn a new Pipeline
// when the least-loaded existing one is saturated and the pair is under
// max_pipes_per_pair, then hand back the least-loaded Ready pipe. The pool
// never refuses: if spawning is impossible (at capacity) and every pipe is
// saturated, the least-loaded one is returned anyway — backpressure comes
// from the per-pipe lock, not from refusal.
func (p *PairPool) Acquire(pair modes.PairKey) (*pipeline.Pipeline, error) {
	pair = pair.Canonicalize()
	ps := p.stateFor(pair)

	ps.mu.Lock()
	defer ps.mu.Unlock()

	least, hasLeast := ps.heap.Peek()
	needNew := !hasLeast || least.Users() >= p.cfg.MaxUsersPerPipe

	if needNew {
		attempted, err := p.trySpawn(pair, ps)
		switch {
		case err != nil && !hasLeast:
			// No pipe at all and creation failed: no fallback possible.
			return nil, err
		case err != nil:
			// A saturated pipe already exists; fall back to it per the
			// pool's never-refuse backpressure rule.
			p.log.Warn("spawn failed, falling back to saturated pipe",
				zap.Stringer("pair", pair), zap.Error(err))
		case attempted:
			least, hasLeast = ps.heap.Peek()
		}
	}

	if !hasLeast {
		return nil, errNoPipelineAvailable
	}

	pipe, _ := ps.heap.Peek()
	pipe.IncrUsers()
	ps.heap.Fix(pipe)
	return pipe, nil
}

// trySpawn attempts to create and insert a new Pipeline for pair.
// (false, nil) means the pair is already at max_pipes_per_pair — not an
// error, the caller falls back to a saturated pipe if one exists.
// (false, err) means capacity allowed the attempt but spawning itself
// failed; the caller propagates err when there is no fallback pipe.
func (p *PairPool) trySpawn(pair modes.PairKey, ps *pairState) (bool, error) {
	id := p.debugIDs.alloc()
	if !ps.slots.tryAcquire(id) {
		p.debugIDs.release(id)
		return false, nil
	}

	parsed, err := p.cache.Get(pair)
	if err != nil {
		ps.slots.release(id)
		p.debugIDs.release(id)
		return false, err
	}

	pipe, err := pipeline.Start(p.log, parsed, p.env, id)
	if err != nil {
		ps.slots.release(id)
		p.debugIDs.release(id)
		return false, err
	}

	ps.heap.Insert(pipe)
	p.log.Info("pipeline spawned", zap.Stringer("pair", pair), zap.Int64("debug_id", id))
	return true, nil
}

// Release decrements users and reheapifies. A pipe whose translate call
// ended in an error that marked it Dead is evicted to the Holding Area
// immediately, rather than waiting for the next janitor pass, since it can
// no longer serve any request (its stream framing is corrupted).
func (p *PairPool) Release(pair modes.PairKey, pipe *pipeline.Pipeline) {
	pair = pair.Canonicalize()
	ps := p.stateFor(pair)

	ps.mu.Lock()
	pipe.DecrUsers()

	if pipe.State() == pipeline.Dead {
		ps.heap.Remove(pipe)
		ps.slots.release(pipe.DebugID)
		ps.mu.Unlock()

		p.toHolding(pipe)
		return
	}

	ps.heap.Fix(pipe)
	ps.mu.Unlock()

	p.drainHoldingIfIdle(pipe)
}

func (p *PairPool) toHolding(pipe *pipeline.Pipeline) {
	pipe.SetDraining()
	p.mu.Lock()
	p.holding[pipe.DebugID] = pipe
	p.mu.Unlock()
	p.drainHoldingIfIdle(pipe)
}

func (p *PairPool) drainHoldingIfIdle(pipe *pipeline.Pipeline) {
	if pipe.Users() != 0 {
		return
	}
	p.mu.Lock()
	_, inHolding := p.holding[pipe.DebugID]
	if inHolding {
		delete(p.holding, pipe.DebugID)
	}
	p.mu.Unlock()

	if inHolding {
		p.debugIDs.release(pipe.DebugID)
		go pipe.Shutdown()
	}
}

// TickJanitor runs the eviction rules (spec.md §4.4): unconditional
// rotation past restart_pipe_after, and idle eviction beyond
// min_pipes_per_pair. Evicted pipes move to the Holding Area; any Holding
// pipe already at users=0 is shut down.
func (p *PairPool) TickJanitor() {
	p.mu.Lock()
	pairs := make([]modes.PairKey, 0, len(p.pairs))
	states := make([]*pairState, 0, len(p.pairs))
	for pair, ps := range p.pairs {
		pairs = append(pairs, pair)
		states = append(states, ps)
	}
	p.mu.Unlock()

	now := time.Now()
	for i, ps := range states {
		p.evictPair(pairs[i], ps, now)
	}

	p.mu.Lock()
	holdingSnapshot := make([]*pipeline.Pipeline, 0, len(p.holding))
	for _, pipe := range p.holding {
		holdingSnapshot = append(holdingSnapshot, pipe)
	}
	p.mu.Unlock()

	for _, pipe := range holdingSnapshot {
		p.drainHoldingIfIdle(pipe)
	}
}

func (p *PairPool) evictPair(pair modes.PairKey, ps *pairState, now time.Time) {
	ps.mu.Lock()
	var toEvict []*pipeline.Pipeline

	for _, pipe := range ps.heap.All() {
		if p.cfg.RestartPipeAfter > 0 && pipe.UseCount() > p.cfg.RestartPipeAfter {
			toEvict = append(toEvict, pipe)
		}
	}

	if p.cfg.MaxIdleSecs > 0 {
		idleEligible := ps.heap.AtOrAfterIndex(int(p.cfg.MinPipesPerPair))
		for _, pipe := range idleEligible {
			if alreadyMarked(toEvict, pipe) {
				continue
			}
			if now.Sub(pipe.LastUsage()) > time.Duration(p.cfg.MaxIdleSecs)*time.Second {
				toEvict = append(toEvict, pipe)
			}
		}
	}

	for _, pipe := range toEvict {
		ps.heap.Remove(pipe)
		ps.slots.release(pipe.DebugID)
	}
	ps.mu.Unlock()

	for _, pipe := range toEvict {
		p.log.Info("evicting pipeline", zap.Stringer("pair", pair), zap.Int64("debug_id", pipe.DebugID))
		p.toHolding(pipe)
	}
}

func alreadyMarked(list []*pipeline.Pipeline, pipe *pipeline.Pipeline) bool {
	for _, p := range list {
		if p == pipe {
			return true
		}
	}
	return false
}

// RunningPipes returns the number of Ready/Draining-but-pooled pipes for
// pair (used by /stats).
func (p *PairPool) RunningPipes(pair modes.PairKey) int {
	pair = pair.Canonicalize()
	p.mu.Lock()
	ps, ok := p.pairs[pair]
	p.mu.Unlock()
	if !ok {
		return 0
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.heap.Len()
}

// HoldingCount returns the total number of pipes currently in the Holding
// Area across all pairs.
func (p *PairPool) HoldingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.holding)
}

// Shutdown drains every pool and the Holding Area, blocking until all
// child processes have exited. Used during graceful server shutdown.
func (p *PairPool) Shutdown() {
	p.mu.Lock()
	states := make([]*pairState, 0, len(p.pairs))
	for _, ps := range p.pairs {
		states = append(states, ps)
	}
	holding := make([]*pipeline.Pipeline, 0, len(p.holding))
	for _, pipe := range p.holding {
		holding = append(holding, pipe)
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, ps := range states {
		ps.mu.Lock()
		for _, pipe := range ps.heap.All() {
			wg.Add(1)
			go func(pl *pipeline.Pipeline) { defer wg.Done(); pl.Shutdown() }(pipe)
		}
		ps.mu.Unlock()
	}
	for _, pipe := range holding {
		wg.Add(1)
		go func(pl *pipeline.Pipeline) { defer wg.Done(); pl.Shutdown() }(pipe)
	}
	wg.Wait()
}
