// Package pattern implements the gitignore-compatible glob engine: pattern
// compilation, negation-aware include/exclude checking, a directory-prefix
// index powering traversal pruning, and a restricted cone mode matching git
// sparse-checkout semantics.
package pattern

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// pattern is a single compiled glob entry.
type pattern struct {
	// raw is the original pattern text, post brace-expansion, pre-negation
	// stripping.
	raw string
	// negated is true if the pattern began with an (unescaped) '!'.
	negated bool
	// directoryOnly is true if the pattern ended in a literal '/', meaning
	// it may only match directories.
	directoryOnly bool
	// anchored is true if the pattern contains a '/' anywhere but its last
	// character, meaning it is matched against the full path rather than
	// just the basename.
	anchored bool
	// glob is the doublestar-ready glob text (leading '/' stripped).
	glob string
}

// compile parses a single gitignore-style line (already brace-expanded)
// into a pattern. Blank lines and comment lines are rejected by the caller
// before compile is invoked.
func compile(text string) (*pattern, error) {
	negated := false
	for strings.HasPrefix(text, "!") {
		negated = !negated
		text = text[1:]
	}
	// An escaped leading '!' or '#' is unescaped here, after negation
	// parsing has consumed any real negation markers.
	text = strings.TrimPrefix(text, "\\")

	directoryOnly := strings.HasSuffix(text, "/") && len(text) > 1
	if directoryOnly {
		text = strings.TrimSuffix(text, "/")
	}

	glob := strings.TrimPrefix(text, "/")
	// A pattern containing a non-trailing '/' is anchored to its own root;
	// one with no '/' at all matches at any depth (gitignore semantics),
	// which this package achieves by matching against the basename.
	anchored := strings.Contains(text, "/")

	if err := validateGlob(glob); err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", text)
	}

	return &pattern{
		raw:           text,
		negated:       negated,
		directoryOnly: directoryOnly,
		anchored:      anchored,
		glob:          glob,
	}, nil
}

// validateGlob performs an eager syntax check of a doublestar glob.
func validateGlob(glob string) error {
	_, err := doublestar.Match(glob, "probe")
	return err
}

// matches reports whether the pattern matches the candidate path (cleaned,
// with a leading '/' stripped, using '/' separators) given whether the
// candidate itself is a directory.
func (p *pattern) matches(relPath string, isDir bool) bool {
	if p.directoryOnly && !isDir {
		return false
	}

	if p.anchored {
		if ok, _ := doublestar.Match(p.glob, relPath); ok {
			return true
		}
		// A leading "**/"-less anchored pattern can still match starting
		// at any depth if it was written without an initial '/'; gitignore
		// treats any pattern containing a slash (other than a trailing
		// one) as anchored to the pattern's own root, so no additional
		// basename fallback applies here.
		return false
	}

	// Unanchored patterns match against the basename at any depth.
	base := relPath
	if idx := strings.LastIndexByte(relPath, '/'); idx >= 0 {
		base = relPath[idx+1:]
	}
	if ok, _ := doublestar.Match(p.glob, base); ok {
		return true
	}
	// Also allow "**/pattern" semantics explicitly for clarity/readability
	// at call sites that pass already-prefixed globs.
	ok, _ := doublestar.Match("**/"+p.glob, relPath)
	return ok
}
