package pool

import "sync"

// debugIDAllocator assigns small, process-local, wraparound debug ids to
// live Pipelines (Pipeline.DebugID), so logs and tests can distinguish
// pipe instances without relying on OS PIDs. The /pipedebug route does not
// include these ids in its dump.
type debugIDAllocator struct {
	mu    sync.Mutex
	next  int64
	inUse map[int64]struct{}
	max   int64
}

func newDebugIDAllocator() *debugIDAllocator {
	return &debugIDAllocator{
		next:  1,
		max:   1 << 20,
		inUse: make(map[int64]struct{}),
	}
}

// alloc returns the next available id, wrapping around max and skipping
// ids still in use. Panics only if the entire space is exhausted, which
// would require over a million simultaneously live Pipelines.
func (a *debugIDAllocator) alloc() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := a.next
	for {
		id := a.next
		a.next++
		if a.next > a.max {
			a.next = 1
		}
		if _, used := a.inUse[id]; !used {
			a.inUse[id] = struct{}{}
			return id
		}
		if a.next == start {
			panic("debugIDAllocator exhausted")
		}
	}
}

// release returns id to the free pool. No-op if id is not outstanding.
func (a *debugIDAllocator) release(id int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inUse, id)
}
