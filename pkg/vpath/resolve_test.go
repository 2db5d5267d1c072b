package vpath

import "testing"

// fakeLookup is a minimal in-memory Lookup used to test Resolve without
// depending on pkg/vfs.
type fakeLookup struct {
	dirs     map[string]bool
	symlinks map[string]string
}

func (f *fakeLookup) Stat(p string) (bool, bool, string, error) {
	if target, ok := f.symlinks[p]; ok {
		return true, false, target, nil
	}
	if f.dirs[p] {
		return true, true, "", nil
	}
	// Any other path under a known directory is treated as an existing
	// regular file for the purposes of these tests.
	parent, _ := Split(p)
	if f.dirs[parent] {
		return true, false, "", nil
	}
	return false, false, "", nil
}

func TestResolveSymlinkLoop(t *testing.T) {
	lookup := &fakeLookup{
		dirs: map[string]bool{"/": true},
		symlinks: map[string]string{
			"/x": "/y",
			"/y": "/x",
		},
	}
	if _, err := Resolve(lookup, "/x"); err == nil {
		t.Fatal("expected ELOOP for circular symlinks")
	} else if kind, ok := KindOf(err); !ok || kind != ELOOP {
		t.Errorf("expected ELOOP, got %v", err)
	}
}

func TestResolveFollowsChain(t *testing.T) {
	lookup := &fakeLookup{
		dirs: map[string]bool{"/": true, "/a": true},
		symlinks: map[string]string{
			"/link": "/a/real",
		},
	}
	resolved, err := Resolve(lookup, "/link")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != "/a/real" {
		t.Errorf("Resolve(/link) = %q, want /a/real", resolved)
	}
}

func TestResolveMissingIntermediate(t *testing.T) {
	// "/" is left out of dirs so the fake reports "/missing" as absent
	// rather than as a regular file under a known directory.
	lookup := &fakeLookup{dirs: map[string]bool{}}
	_, err := Resolve(lookup, "/missing/child")
	if err == nil {
		t.Fatal("expected error for missing intermediate component")
	} else if kind, ok := KindOf(err); !ok || kind != ENOENT {
		t.Errorf("expected ENOENT, got %v", err)
	}
}
