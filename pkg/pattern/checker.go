package pattern

import (
	"strings"

	"github.com/golang/groupcache/lru"
	"github.com/pkg/errors"
)

// DefaultCacheSize is the default bound on the shouldInclude/shouldTraverse
// memoization caches.
const DefaultCacheSize = 10000

// patternList holds the compiled patterns for one ordered list (include or
// exclude), plus the prefix index derived from its non-negated entries.
type patternList struct {
	patterns []*pattern

	// excludedDirs holds basenames matched by a "NAME/**" or "**/NAME/**"
	// pattern that is not negated; directories whose final segment appears
	// here are pruning candidates.
	excludedDirs map[string]bool

	// includePrefixes holds the static (non-wildcard) leading path of every
	// pattern, plus every ancestor of that prefix, so shouldTraverse can
	// recognize "this directory is on the way to a matchable include".
	includePrefixes map[string]bool

	// hasDoubleStarInclude is true if any non-negated pattern in this list
	// contains "**", is unanchored, or has a wildcard in a directory
	// segment; each of these can match below directories that are not in
	// includePrefixes and therefore makes every directory a traversal
	// candidate.
	hasDoubleStarInclude bool
}

// IncludeChecker evaluates gitignore-style include/exclude decisions with
// negation: an empty include list excludes everything; a path must finally
// match include and must not finally match exclude.
type IncludeChecker struct {
	include *patternList
	exclude *patternList

	includeCache *lru.Cache
	traverCache  *lru.Cache
}

// NewIncludeChecker compiles the given include/exclude pattern lists (in
// gitignore syntax, each possibly brace-expanded) into a checker. cacheSize
// bounds the shouldInclude/shouldTraverse memoization caches; a value <= 0
// selects DefaultCacheSize.
func NewIncludeChecker(include, exclude []string, cacheSize int) (*IncludeChecker, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	includeList, err := compileList(include)
	if err != nil {
		return nil, errors.Wrap(err, "unable to compile include patterns")
	}
	excludeList, err := compileList(exclude)
	if err != nil {
		return nil, errors.Wrap(err, "unable to compile exclude patterns")
	}

	return &IncludeChecker{
		include:      includeList,
		exclude:      excludeList,
		includeCache: lru.New(cacheSize),
		traverCache:  lru.New(cacheSize),
	}, nil
}

// compileList compiles every line in rawPatterns, skipping blank lines and
// '#' comments (with '\#' preserved as a literal), expanding braces first.
func compileList(rawPatterns []string) (*patternList, error) {
	list := &patternList{
		excludedDirs:    make(map[string]bool),
		includePrefixes: make(map[string]bool),
	}

	for _, raw := range rawPatterns {
		line := raw
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.ReplaceAll(line, "\\#", "#")

		for _, expanded := range expandBraces(line) {
			compiled, err := compile(expanded)
			if err != nil {
				return nil, err
			}
			list.patterns = append(list.patterns, compiled)

			if !compiled.negated {
				indexPattern(list, compiled)
			}
		}
	}

	return list, nil
}

// indexPattern updates the prefix index for a single non-negated compiled
// pattern.
func indexPattern(list *patternList, p *pattern) {
	segments := strings.Split(p.glob, "/")

	// An unanchored pattern matches at any depth, as does one using "**" or
	// a wildcard in a directory segment.
	if strings.Contains(p.glob, "**") || !p.anchored {
		list.hasDoubleStarInclude = true
	}
	for _, segment := range segments[:len(segments)-1] {
		if strings.ContainsAny(segment, "*?[{") {
			list.hasDoubleStarInclude = true
		}
	}

	// Record the static prefix (segments before the first wildcard
	// character) and all of its ancestors.
	var staticSegments []string
	for _, segment := range segments {
		if strings.ContainsAny(segment, "*?[{") {
			break
		}
		staticSegments = append(staticSegments, segment)
	}
	prefix := ""
	for _, segment := range staticSegments {
		if prefix == "" {
			prefix = segment
		} else {
			prefix = prefix + "/" + segment
		}
		list.includePrefixes[prefix] = true
	}

	// A pattern of the form "NAME/**" or "**/NAME/**", where NAME is a
	// single literal segment, contributes NAME as an excluded-directory
	// basename.
	name := strings.TrimPrefix(strings.TrimSuffix(p.glob, "/**"), "**/")
	if strings.HasSuffix(p.glob, "/**") && name != "" && !strings.ContainsAny(name, "/*?[{") {
		list.excludedDirs[name] = true
	}
}

// evaluate applies a pattern list's ordered rules to relPath, returning the
// final matched state: later non-negated matches set it true, later
// negated matches (whose body matches) set it false.
func (l *patternList) evaluate(relPath string, isDir bool) bool {
	matched := false
	for _, p := range l.patterns {
		if p.matches(relPath, isDir) {
			matched = !p.negated
		}
	}
	return matched
}

// relativePath strips the leading '/' from a cleaned absolute path so glob
// matching operates on gitignore-style relative text.
func relativePath(absPath string) string {
	return strings.TrimPrefix(absPath, "/")
}

// ShouldInclude decides whether the file or directory at absPath is
// included: an empty include list excludes everything; the path must
// finally match include and must not finally match exclude.
func (c *IncludeChecker) ShouldInclude(absPath string, isDir bool) bool {
	if absPath == "" || absPath == "/" {
		return false
	}
	if len(c.include.patterns) == 0 {
		return false
	}

	cacheKey := includeCacheKey{absPath, isDir}
	if cached, ok := c.includeCache.Get(cacheKey); ok {
		return cached.(bool)
	}

	rel := relativePath(absPath)
	result := c.include.evaluate(rel, isDir)
	if result && len(c.exclude.patterns) > 0 {
		if c.exclude.evaluate(rel, isDir) {
			result = false
		}
	}

	c.includeCache.Add(cacheKey, result)
	return result
}

// includeCacheKey distinguishes file and directory lookups of the same
// path, since directory-only patterns affect the outcome.
type includeCacheKey struct {
	path  string
	isDir bool
}

// ShouldTraverse decides whether some path under dir could possibly be
// included. It is conservative: it may return true when no descendant
// actually matches, but must never return false when one does.
func (c *IncludeChecker) ShouldTraverse(dir string) bool {
	if dir == "/" {
		return len(c.include.patterns) > 0
	}
	if len(c.include.patterns) == 0 {
		return false
	}

	if cached, ok := c.traverCache.Get(dir); ok {
		return cached.(bool)
	}

	result := c.shouldTraverseUncached(dir)
	c.traverCache.Add(dir, result)
	return result
}

func (c *IncludeChecker) shouldTraverseUncached(dir string) bool {
	rel := relativePath(dir)
	_, name := lastSegment(rel)

	// A directory whose name is excluded by a non-negated exclude pattern
	// is pruned unless a negated exclude or include could still apply;
	// for conservativeness we only prune via the prefix index when no
	// double-star include exists at all (a "**" include could re-admit
	// anything, so we never prune in that case).
	if !c.include.hasDoubleStarInclude && c.exclude.excludedDirs[name] {
		if !c.include.includePrefixes[rel] {
			return false
		}
	}

	if c.include.hasDoubleStarInclude {
		return true
	}
	if c.include.includePrefixes[rel] {
		return true
	}

	// Check whether rel is itself an ancestor of some recorded include
	// prefix (i.e. some include pattern's static prefix extends beyond
	// this directory).
	for prefix := range c.include.includePrefixes {
		if strings.HasPrefix(prefix+"/", rel+"/") {
			return true
		}
	}

	return false
}

func lastSegment(rel string) (parent, name string) {
	idx := strings.LastIndexByte(rel, '/')
	if idx == -1 {
		return "", rel
	}
	return rel[:idx], rel[idx+1:]
}
