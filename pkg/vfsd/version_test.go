package vfsd

import "testing"

func TestVersionStringMatchesComponents(t *testing.T) {
	want := "0.1.0"
	if Version != want {
		t.Fatalf("expected %q, got %q", want, Version)
	}
}
