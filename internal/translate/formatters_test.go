package translate

import (
	"context"
	"testing"
)

func TestDeformat_UnknownFormatIsIdentity(t *testing.T) {
	got, err := deformat(context.Background(), "nope", "hello world")
	if err != nil {
		t.Fatalf("deformat() error = %v", err)
	}
	if got != "hello world" {
		t.Errorf("deformat() = %q, want unchanged input", got)
	}
}

func TestReformat_EmptyFormatIsIdentity(t *testing.T) {
	got, err := reformat(context.Background(), "", "hello world")
	if err != nil {
		t.Fatalf("reformat() error = %v", err)
	}
	if got != "hello world" {
		t.Errorf("reformat() = %q, want unchanged input", got)
	}
}

func TestRunFilter_PipesStdinToStdout(t *testing.T) {
	out, err := runFilter(context.Background(), "cat", "round trip me")
	if err != nil {
		t.Fatalf("runFilter() error = %v", err)
	}
	if out != "round trip me" {
		t.Errorf("runFilter() = %q, want %q", out, "round trip me")
	}
}

func TestRunFilter_MissingProgram(t *testing.T) {
	if _, err := runFilter(context.Background(), "definitely-not-a-real-binary", "x"); err == nil {
		t.Fatal("runFilter() = nil error, want error for a nonexistent program")
	}
}
