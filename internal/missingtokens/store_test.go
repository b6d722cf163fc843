package missingtokens

import (
	"context"
	"testing"

	"github.com/apertium/apertium-apy/internal/modes"
)

func TestStore_Insert_BuffersUntilFlush(t *testing.T) {
	s := NewStore(nil, nil, "test:", 1000)
	pair := modes.PairKey{Src: "eng", Tgt: "spa"}

	s.Insert(context.Background(), pair, "gloop")
	s.Insert(context.Background(), pair, "gloop")
	s.Insert(context.Background(), pair, "other")

	if s.inserted != 3 {
		t.Errorf("inserted = %d, want 3", s.inserted)
	}
	if got := s.buffered[bufferKey{pair: pair, token: "gloop"}]; got != 2 {
		t.Errorf("buffered count for gloop = %d, want 2", got)
	}
}

func TestStore_Flush_NoRedisDropsBuffer(t *testing.T) {
	s := NewStore(nil, nil, "test:", 1000)
	pair := modes.PairKey{Src: "eng", Tgt: "spa"}
	s.Insert(context.Background(), pair, "gloop")

	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(s.buffered) != 0 || s.inserted != 0 {
		t.Errorf("Flush() left buffered=%v inserted=%d, want both cleared", s.buffered, s.inserted)
	}
}

func TestStore_Insert_AutoFlushesAtLimit(t *testing.T) {
	s := NewStore(nil, nil, "test:", 2)
	pair := modes.PairKey{Src: "eng", Tgt: "spa"}

	s.Insert(context.Background(), pair, "a")
	s.Insert(context.Background(), pair, "b")

	if s.inserted != 0 {
		t.Errorf("inserted after hitting limit = %d, want 0 (auto-flushed)", s.inserted)
	}
}

func TestStore_Close_FlushesOnShutdown(t *testing.T) {
	s := NewStore(nil, nil, "test:", 1000)
	s.Insert(context.Background(), modes.PairKey{Src: "eng", Tgt: "spa"}, "gloop")

	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(s.buffered) != 0 {
		t.Errorf("buffered after Close() = %v, want empty", s.buffered)
	}
}

func TestNewStore_DefaultsInvalidLimit(t *testing.T) {
	s := NewStore(nil, nil, "test:", 0)
	if s.limit != 1000 {
		t.Errorf("limit = %d, want default 1000 for a non-positive input", s.limit)
	}
}
