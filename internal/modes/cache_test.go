package modes

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCache_Get_ParsesOnFirstUseAndCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eng-spa.mode")
	if err := os.WriteFile(path, []byte("cat\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pair := PairKey{Src: "eng", Tgt: "spa"}
	cache := NewCache(nil, map[PairKey]string{pair: path})

	pm1, err := cache.Get(pair)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	pm2, err := cache.Get(pair)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if pm1 != pm2 {
		t.Error("Get() returned different pointers on second call, want the cached instance")
	}
	if pm1.Pair != pair {
		t.Errorf("Pair = %+v, want %+v", pm1.Pair, pair)
	}
}

func TestCache_Get_UnknownPair(t *testing.T) {
	cache := NewCache(nil, map[PairKey]string{})
	_, err := cache.Get(PairKey{Src: "zzz", Tgt: "zzz"})
	if err == nil {
		t.Fatal("Get() = nil error, want NotFoundError for an undiscovered pair")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("Get() error type = %T, want *NotFoundError", err)
	}
}

func TestCache_Known(t *testing.T) {
	pair := PairKey{Src: "eng", Tgt: "spa"}
	cache := NewCache(nil, map[PairKey]string{pair: "/irrelevant/path.mode"})

	if !cache.Known(PairKey{Src: "ENG", Tgt: "SPA"}) {
		t.Error("Known() = false for a discovered pair (case-insensitively), want true")
	}
	if cache.Known(PairKey{Src: "fra", Tgt: "deu"}) {
		t.Error("Known() = true for an undiscovered pair, want false")
	}
}

func TestCache_Pairs_SortedAscending(t *testing.T) {
	sources := map[PairKey]string{
		{Src: "spa", Tgt: "eng"}: "/a",
		{Src: "eng", Tgt: "fra"}: "/b",
		{Src: "eng", Tgt: "deu"}: "/c",
	}
	cache := NewCache(nil, sources)

	got := cache.Pairs()
	want := []PairKey{
		{Src: "eng", Tgt: "deu"},
		{Src: "eng", Tgt: "fra"},
		{Src: "spa", Tgt: "eng"},
	}
	if len(got) != len(want) {
		t.Fatalf("Pairs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Pairs()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
