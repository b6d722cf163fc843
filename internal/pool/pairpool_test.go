package pool

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apertium/apertium-apy/internal/modes"
)

func newCatCache(t *testing.T, pair modes.PairKey) *modes.Cache {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, pair.String()+".mode")
	if err := os.WriteFile(path, []byte("cat\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return modes.NewCache(nil, map[modes.PairKey]string{pair: path})
}

func TestPairPool_AcquireRelease_Roundtrip(t *testing.T) {
	pair := modes.PairKey{Src: "idn", Tgt: "idn"}
	p := New(nil, Config{MaxPipesPerPair: 1, MaxUsersPerPipe: 5}, newCatCache(t, pair))
	defer p.Shutdown()

	pipe, err := p.Acquire(pair)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if pipe.Users() != 1 {
		t.Errorf("Users() = %d, want 1 after Acquire", pipe.Users())
	}
	if got := p.RunningPipes(pair); got != 1 {
		t.Errorf("RunningPipes() = %d, want 1", got)
	}

	p.Release(pair, pipe)
	if pipe.Users() != 0 {
		t.Errorf("Users() = %d, want 0 after Release", pipe.Users())
	}
}

func TestPairPool_Acquire_SpawnsUpToMax(t *testing.T) {
	pair := modes.PairKey{Src: "idn", Tgt: "idn"}
	p := New(nil, Config{MaxPipesPerPair: 2, MaxUsersPerPipe: 1}, newCatCache(t, pair))
	defer p.Shutdown()

	first, err := p.Acquire(pair)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	second, err := p.Acquire(pair)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if first == second {
		t.Error("second Acquire() returned the same saturated pipe, want a freshly spawned one")
	}
	if got := p.RunningPipes(pair); got != 2 {
		t.Errorf("RunningPipes() = %d, want 2", got)
	}
}

func TestPairPool_Acquire_UnknownPair(t *testing.T) {
	pair := modes.PairKey{Src: "idn", Tgt: "idn"}
	p := New(nil, Config{MaxPipesPerPair: 1, MaxUsersPerPipe: 5}, newCatCache(t, pair))
	defer p.Shutdown()

	if _, err := p.Acquire(modes.PairKey{Src: "zzz", Tgt: "zzz"}); err == nil {
		t.Fatal("Acquire() = nil error, want error for an undiscovered pair")
	}
}

func TestPairPool_TickJanitor_RestartPipeAfterZeroKeepsPipe(t *testing.T) {
	pair := modes.PairKey{Src: "idn", Tgt: "idn"}
	p := New(nil, Config{MaxPipesPerPair: 1, MaxUsersPerPipe: 5, RestartPipeAfter: 0}, newCatCache(t, pair))
	defer p.Shutdown()

	pipe, err := p.Acquire(pair)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	p.Release(pair, pipe)
	p.TickJanitor()

	// RestartPipeAfter of 0 disables rotation per the pool's own rule
	// (`> 0` guard in evictPair), so reacquiring should still return the
	// same pipe rather than spawning a fresh one.
	again, err := p.Acquire(pair)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if again != pipe {
		t.Error("Acquire() spawned a new pipe though RestartPipeAfter=0 disables rotation")
	}
}

func TestPairPool_Shutdown_DrainsAllPipes(t *testing.T) {
	pair := modes.PairKey{Src: "idn", Tgt: "idn"}
	p := New(nil, Config{MaxPipesPerPair: 2, MaxUsersPerPipe: 1}, newCatCache(t, pair))

	if _, err := p.Acquire(pair); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := p.Acquire(pair); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	done := make(chan struct{})
	go func() { p.Shutdown(); close(done) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown() did not return within 5s")
	}
}
