package translate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apertium/apertium-apy/internal/missingtokens"
	"github.com/apertium/apertium-apy/internal/modes"
	"github.com/apertium/apertium-apy/internal/pool"
	"github.com/apertium/apertium-apy/internal/stats"
)

// newCatStubService builds a Service backed by a single idn-idn pair whose
// mode descriptor is just "cat" — an identity pipeline, since cat passes the
// sentinel byte straight through along with everything else. This mirrors
// the stub pairs the original implementation's own test fixtures use.
func newCatStubService(t *testing.T, timeout time.Duration) (*Service, modes.PairKey) {
	t.Helper()

	dir := t.TempDir()
	modePath := filepath.Join(dir, "idn-idn.mode")
	if err := os.WriteFile(modePath, []byte("cat\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pair := modes.PairKey{Src: "idn", Tgt: "idn"}
	cache := modes.NewCache(nil, map[modes.PairKey]string{pair: modePath})
	p := pool.New(nil, pool.Config{
		MaxPipesPerPair: 1,
		MaxUsersPerPipe: 5,
	}, cache)
	t.Cleanup(p.Shutdown)

	st := stats.New(nil, time.Hour, false)
	unseen := missingtokens.NewStore(nil, nil, "test:", 1000)

	return New(nil, p, st, unseen, timeout), pair
}

func TestService_Translate_Identity(t *testing.T) {
	svc, pair := newCatStubService(t, 5*time.Second)

	out, err := svc.Translate(context.Background(), pair, "hello world", Options{})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if out != "hello world" {
		t.Errorf("Translate() = %q, want %q", out, "hello world")
	}

	if got := svc.stats.UseCount(pair); got != 1 {
		t.Errorf("UseCount() = %d, want 1", got)
	}
}

func TestService_Translate_StripsUnknownMarksByDefault(t *testing.T) {
	svc, pair := newCatStubService(t, 5*time.Second)

	out, err := svc.Translate(context.Background(), pair, "*gloop is unknown", Options{})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if out != "gloop is unknown" {
		t.Errorf("Translate() = %q, want unknown marker stripped", out)
	}
}

func TestService_Translate_PreservesUnknownMarksWhenRequested(t *testing.T) {
	svc, pair := newCatStubService(t, 5*time.Second)

	out, err := svc.Translate(context.Background(), pair, "*gloop is unknown", Options{MarkUnknown: true})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if out != "*gloop is unknown" {
		t.Errorf("Translate() = %q, want unknown marker preserved", out)
	}
}

func TestService_Translate_TracksUnseenTokens(t *testing.T) {
	svc, pair := newCatStubService(t, 5*time.Second)

	_, err := svc.Translate(context.Background(), pair, "*gloop text", Options{TrackUnseen: true})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}

	if err := svc.unseen.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func TestService_Translate_DeadlineExceeded(t *testing.T) {
	svc, pair := newCatStubService(t, 1*time.Nanosecond)

	_, err := svc.Translate(context.Background(), pair, "hello", Options{})
	if err == nil {
		t.Fatal("Translate() = nil error, want a deadline error")
	}
	if !DeadlineExceeded(err) {
		t.Errorf("DeadlineExceeded(%v) = false, want true", err)
	}
}

func TestService_Translate_UnknownPair(t *testing.T) {
	svc, _ := newCatStubService(t, 5*time.Second)

	_, err := svc.Translate(context.Background(), modes.PairKey{Src: "zzz", Tgt: "zzz"}, "hello", Options{})
	if err == nil {
		t.Fatal("Translate() = nil error, want error for an undiscovered pair")
	}
	var nf *modes.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Translate() error = %v (%T), want *modes.NotFoundError", err, err)
	}
}
