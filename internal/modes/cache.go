package modes

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Cache is a concurrent, in-memory ParsedMode store indexed by PairKey.
//
// Unlike a plain KV store, Cache knows how to produce an entry on first
// miss: it is seeded with the discovered mode-file path for every known
// pair and lazily parses the descriptor the first time that pair is
// requested, then serves the cached ParsedMode forever after (mode files
// are immutable for the lifetime of the process; hot-reloading is out of
// scope). Concurrent first-use requests for the same pair are coalesced so
// the descriptor is parsed exactly once.
//
// Reads use a shared lock; writes (first-use population) use an exclusive
// lock. Iteration (Pairs) is deterministic, sorted ascending by pair.
type Cache struct {
	log *zap.Logger

	mu        sync.RWMutex
	parsed    map[PairKey]*ParsedMode
	parseErrs map[PairKey]error
	sources   map[PairKey]string
	inflight  map[PairKey]*sync.WaitGroup
}

// NewCache constructs a Cache seeded with the discovered mode-file path for
// each known pair. Nothing is parsed until first Get.
func NewCache(log *zap.Logger, sources map[PairKey]string) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	srcCopy := make(map[PairKey]string, len(sources))
	for k, v := range sources {
		srcCopy[k.Canonicalize()] = v
	}
	return &Cache{
		log:       log,
		parsed:    make(map[PairKey]*ParsedMode),
		parseErrs: make(map[PairKey]error),
		sources:   srcCopy,
		inflight:  make(map[PairKey]*sync.WaitGroup),
	}
}

// Get returns the ParsedMode for pair, parsing its descriptor on first use.
// Returns NotFoundError if pair was never discovered.
func (c *Cache) Get(pair PairKey) (*ParsedMode, error) {
	pair = pair.Canonicalize()

	c.mu.RLock()
	if pm, ok := c.parsed[pair]; ok {
		c.mu.RUnlock()
		return pm, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if pm, ok := c.parsed[pair]; ok {
		c.mu.Unlock()
		return pm, nil
	}
	if wg, ok := c.inflight[pair]; ok {
		c.mu.Unlock()
		wg.Wait()
		c.mu.RLock()
		pm, ok := c.parsed[pair]
		parseErr := c.parseErrs[pair]
		c.mu.RUnlock()
		if !ok {
			if parseErr != nil {
				return nil, parseErr
			}
			return nil, &NotFoundError{Path: pair.String()}
		}
		return pm, nil
	}

	path, known := c.sources[pair]
	if !known {
		c.mu.Unlock()
		return nil, &NotFoundError{Path: pair.String()}
	}

	wg := &sync.WaitGroup{}
	wg.Add(1)
	c.inflight[pair] = wg
	c.mu.Unlock()

	pm, err := Parse(path)
	if pm != nil {
		pm.Pair = pair
	}

	c.mu.Lock()
	if err == nil {
		c.parsed[pair] = pm
		delete(c.parseErrs, pair)
	} else {
		c.parseErrs[pair] = err
	}
	delete(c.inflight, pair)
	wg.Done()
	c.mu.Unlock()

	if err != nil {
		c.log.Error("mode parse failed", zap.Stringer("pair", pair), zap.Error(err))
		return nil, err
	}
	return pm, nil
}

// Pairs returns every pair known to the cache (parsed or not yet), sorted
// ascending.
func (c *Cache) Pairs() []PairKey {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]PairKey, 0, len(c.sources))
	for k := range c.sources {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		return out[i].Tgt < out[j].Tgt
	})
	return out
}

// Known reports whether pair was discovered, regardless of parse state.
func (c *Cache) Known(pair PairKey) bool {
	pair = pair.Canonicalize()
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sources[pair]
	return ok
}
