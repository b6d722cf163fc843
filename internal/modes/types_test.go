package modes

import "testing"

func TestPairKey_Canonicalize(t *testing.T) {
	k := PairKey{Src: "ENG", Tgt: "Spa"}
	got := k.Canonicalize()
	want := PairKey{Src: "eng", Tgt: "spa"}
	if got != want {
		t.Errorf("Canonicalize() = %+v, want %+v", got, want)
	}
}

func TestPairKey_String(t *testing.T) {
	k := PairKey{Src: "eng", Tgt: "spa"}
	if got := k.String(); got != "eng-spa" {
		t.Errorf("String() = %q, want %q", got, "eng-spa")
	}
}
