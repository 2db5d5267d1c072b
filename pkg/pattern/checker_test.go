package pattern

import "testing"

func TestIncludeCheckerBasic(t *testing.T) {
	checker, err := NewIncludeChecker([]string{"**/*.ts"}, nil, 0)
	if err != nil {
		t.Fatalf("unable to compile checker: %v", err)
	}

	if !checker.ShouldInclude("/src/a.ts", false) {
		t.Error("expected /src/a.ts to be included")
	}
	if checker.ShouldInclude("/src/a.js", false) {
		t.Error("expected /src/a.js to be excluded")
	}
}

func TestIncludeCheckerEmptyIncludeExcludesEverything(t *testing.T) {
	checker, err := NewIncludeChecker(nil, nil, 0)
	if err != nil {
		t.Fatalf("unable to compile checker: %v", err)
	}
	if checker.ShouldInclude("/anything", false) {
		t.Error("empty include list should exclude everything")
	}
}

func TestIncludeCheckerNegation(t *testing.T) {
	checker, err := NewIncludeChecker(
		[]string{"**/*.ts"},
		[]string{"**/node_modules/**", "!**/node_modules/keep.ts"},
		0,
	)
	if err != nil {
		t.Fatalf("unable to compile checker: %v", err)
	}

	if checker.ShouldInclude("/node_modules/drop.ts", false) {
		t.Error("expected /node_modules/drop.ts to be excluded")
	}
	if !checker.ShouldInclude("/node_modules/keep.ts", false) {
		t.Error("expected /node_modules/keep.ts to be re-included by negation")
	}
}

func TestIncludeCheckerConsistencyWithShouldTraverse(t *testing.T) {
	checker, err := NewIncludeChecker([]string{"src/deep/*.ts"}, nil, 0)
	if err != nil {
		t.Fatalf("unable to compile checker: %v", err)
	}

	if !checker.ShouldInclude("/src/deep/a.ts", false) {
		t.Fatal("expected /src/deep/a.ts to be included")
	}
	// Invariant 8: shouldInclude(p) true implies shouldTraverse(ancestor)
	// true for every ancestor.
	if !checker.ShouldTraverse("/src") {
		t.Error("expected /src to be traversable")
	}
	if !checker.ShouldTraverse("/src/deep") {
		t.Error("expected /src/deep to be traversable")
	}
}

func TestBraceExpansion(t *testing.T) {
	checker, err := NewIncludeChecker([]string{"*.{ts,js}"}, nil, 0)
	if err != nil {
		t.Fatalf("unable to compile checker: %v", err)
	}
	if !checker.ShouldInclude("/a.ts", false) {
		t.Error("expected /a.ts to be included")
	}
	if !checker.ShouldInclude("/a.js", false) {
		t.Error("expected /a.js to be included")
	}
	if checker.ShouldInclude("/a.go", false) {
		t.Error("expected /a.go to be excluded")
	}
}

func TestCompileStableAcrossRepeatedCompilations(t *testing.T) {
	first, err := NewIncludeChecker([]string{"**/*.ts"}, []string{"**/node_modules/**"}, 0)
	if err != nil {
		t.Fatalf("unable to compile checker: %v", err)
	}
	second, err := NewIncludeChecker([]string{"**/*.ts"}, []string{"**/node_modules/**"}, 0)
	if err != nil {
		t.Fatalf("unable to compile checker: %v", err)
	}

	paths := []string{"/a.ts", "/node_modules/a.ts", "/src/b.ts"}
	for _, path := range paths {
		if first.ShouldInclude(path, false) != second.ShouldInclude(path, false) {
			t.Errorf("compilation instability for %q", path)
		}
	}
}
