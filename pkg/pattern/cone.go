package pattern

import "strings"

// Cone implements git sparse-checkout cone mode: each configured cone is a
// directory prefix (no wildcards). Toplevel files are always included;
// everything recursively under a cone is included; ancestors of a cone
// include only their own direct files (not sibling subdirectories); every
// other path is excluded.
type Cone struct {
	// cones holds each configured cone path, cleaned of leading/trailing
	// slashes, e.g. "packages/core/src".
	cones []string
	// coneSet allows O(1) exact-cone membership tests.
	coneSet map[string]bool
	// ancestors holds every proper ancestor directory of every cone, so
	// that directory's direct files (but not its subdirectories) are
	// included.
	ancestors map[string]bool
}

// NewCone constructs a Cone matcher from a list of directory-prefix
// patterns. Entries are cleaned of surrounding slashes; wildcards are not
// supported and are treated as literal text, matching git's cone-mode
// restriction.
func NewCone(cones []string) *Cone {
	c := &Cone{
		coneSet:   make(map[string]bool),
		ancestors: make(map[string]bool),
	}
	for _, raw := range cones {
		clean := strings.Trim(raw, "/")
		if clean == "" {
			continue
		}
		c.cones = append(c.cones, clean)
		c.coneSet[clean] = true

		segments := strings.Split(clean, "/")
		prefix := ""
		for _, segment := range segments[:len(segments)-1] {
			if prefix == "" {
				prefix = segment
			} else {
				prefix = prefix + "/" + segment
			}
			c.ancestors[prefix] = true
		}
	}
	return c
}

// ShouldInclude decides inclusion for relPath (no leading slash) given
// whether it names a directory.
func (c *Cone) ShouldInclude(relPath string, isDir bool) bool {
	if relPath == "" {
		return true
	}

	dir, name := lastSegment(relPath)

	// Toplevel rule: a file (not a directory) with no '/' in its path is
	// always included.
	if dir == "" && !isDir {
		return true
	}

	if c.underCone(relPath) {
		return true
	}

	// Ancestor directories of a cone include their own direct files only.
	if dir == "" {
		dir = name
		name = ""
	}
	if !isDir && c.ancestors[dir] {
		return true
	}
	if isDir && (c.ancestors[relPath] || c.isAncestorPrefix(relPath)) {
		return true
	}

	return false
}

// underCone reports whether relPath is equal to, or nested under, some
// configured cone.
func (c *Cone) underCone(relPath string) bool {
	for _, cone := range c.cones {
		if relPath == cone || strings.HasPrefix(relPath, cone+"/") {
			return true
		}
	}
	return false
}

// isAncestorPrefix reports whether relPath is a strict prefix of some
// configured cone (i.e. it must be traversed to reach that cone).
func (c *Cone) isAncestorPrefix(relPath string) bool {
	for _, cone := range c.cones {
		if strings.HasPrefix(cone, relPath+"/") {
			return true
		}
	}
	return c.ancestors[relPath]
}

// ShouldTraverse decides whether dir (no leading slash) might lead to an
// included descendant: true for the root ("") itself, for any cone, for any ancestor
// of a cone, and for any directory nested within a cone.
func (c *Cone) ShouldTraverse(dir string) bool {
	if dir == "" {
		return true
	}
	if c.underCone(dir) {
		return true
	}
	return c.isAncestorPrefix(dir) || c.ancestors[dir]
}
