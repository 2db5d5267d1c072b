package vpath

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"/", "/", false},
		{"/a//b/./c/../d", "/a/b/d", false},
		{"/a/b/..", "/a", false},
		{"/..", "/", false},
		{"", "", true},
		{"relative/path", "", true},
	}
	for _, test := range tests {
		got, err := Clean(test.input)
		if test.wantErr {
			if err == nil {
				t.Errorf("Clean(%q): expected error", test.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Clean(%q): unexpected error: %v", test.input, err)
		} else if got != test.want {
			t.Errorf("Clean(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{"/a//b/./c/../d", "/", "/x/y/z"}
	for _, input := range inputs {
		once, err := Clean(input)
		if err != nil {
			t.Fatalf("Clean(%q): %v", input, err)
		}
		twice, err := Clean(once)
		if err != nil {
			t.Fatalf("Clean(%q): %v", once, err)
		}
		if once != twice {
			t.Errorf("Clean not idempotent: Clean(%q)=%q, Clean(%q)=%q", input, once, once, twice)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		input      string
		wantParent string
		wantName   string
	}{
		{"/", "/", ""},
		{"/a", "/", "a"},
		{"/a/b/c", "/a/b", "c"},
	}
	for _, test := range tests {
		parent, name := Split(test.input)
		if parent != test.wantParent || name != test.wantName {
			t.Errorf("Split(%q) = (%q, %q), want (%q, %q)", test.input, parent, name, test.wantParent, test.wantName)
		}
	}
}

func TestSegments(t *testing.T) {
	if got := Segments("/"); len(got) != 0 {
		t.Errorf("Segments(/) = %v, want empty", got)
	}
	got := Segments("/a/b/c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Segments(/a/b/c) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Segments(/a/b/c)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
