package pattern

import "testing"

// TestConeSparseView exercises a single-cone scenario: cones =
// ["packages/core/src/"].
func TestConeSparseView(t *testing.T) {
	cone := NewCone([]string{"packages/core/src/"})

	included := []string{
		"packages/core/src/index.ts",
		"packages/core/index.ts",
		"packages/index.ts",
		"package.json",
	}
	for _, path := range included {
		if !cone.ShouldInclude(path, false) {
			t.Errorf("expected %q to be included", path)
		}
	}

	excluded := []string{
		"packages/other/index.ts",
		"packages/core/test/x.ts",
	}
	for _, path := range excluded {
		if cone.ShouldInclude(path, false) {
			t.Errorf("expected %q to be excluded", path)
		}
	}
}

func TestConeTraversal(t *testing.T) {
	cone := NewCone([]string{"packages/core/src/"})

	if !cone.ShouldTraverse("") {
		t.Error("expected root to be traversable")
	}
	if !cone.ShouldTraverse("packages") {
		t.Error("expected packages to be traversable (ancestor of cone)")
	}
	if !cone.ShouldTraverse("packages/core") {
		t.Error("expected packages/core to be traversable (ancestor of cone)")
	}
	if !cone.ShouldTraverse("packages/core/src") {
		t.Error("expected packages/core/src to be traversable (is cone)")
	}
	if cone.ShouldTraverse("packages/other") {
		t.Error("expected packages/other to be pruned")
	}
}
