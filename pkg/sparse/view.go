// Package sparse implements the read-only sparse view: a filtered façade
// over a vfs.Backend driven by a pattern.IncludeChecker (or cone), so
// callers see only the subset of the namespace the checker admits.
package sparse

import (
	"sort"
	"strings"

	"github.com/vfscore/vfscore/pkg/pattern"
	"github.com/vfscore/vfscore/pkg/vfs"
	"github.com/vfscore/vfscore/pkg/vpath"
)

// checker is the subset of pattern.IncludeChecker the view needs, keyed on
// absolute (leading-slash) paths, matching IncludeChecker's own contract.
type checker interface {
	ShouldInclude(absPath string, isDir bool) bool
	ShouldTraverse(dir string) bool
}

var _ checker = (*pattern.IncludeChecker)(nil)

// ConeAdapter lets a pattern.Cone (which works in terms of slash-less
// relative paths) back a View (which works in terms of absolute paths).
type ConeAdapter struct {
	Cone *pattern.Cone
}

// ShouldInclude strips the leading separator before delegating to the cone.
func (a *ConeAdapter) ShouldInclude(absPath string, isDir bool) bool {
	return a.Cone.ShouldInclude(strings.TrimPrefix(absPath, "/"), isDir)
}

// ShouldTraverse strips the leading separator before delegating to the
// cone.
func (a *ConeAdapter) ShouldTraverse(dir string) bool {
	return a.Cone.ShouldTraverse(strings.TrimPrefix(dir, "/"))
}

var _ checker = (*ConeAdapter)(nil)

// View is a read-only, filtered façade over a backend.
type View struct {
	backend *vfs.Backend
	checker checker
}

// New constructs a View over backend, admitting only paths the checker
// includes.
func New(backend *vfs.Backend, c checker) *View {
	return &View{backend: backend, checker: c}
}

func notIncluded(path string) error {
	return vpath.New(vpath.ENOENT, path, "excluded from sparse view")
}

// admitted reports whether path is visible through the view: directories
// are gated by ShouldTraverse (root is always traversable, regardless of
// whether it would itself match an include pattern), files by
// ShouldInclude.
func (v *View) admitted(path string, isDir bool) bool {
	if isDir {
		return v.checker.ShouldTraverse(path)
	}
	return v.checker.ShouldInclude(path, false)
}

// Stat returns the attributes at path if the view admits it, ENOENT
// otherwise.
func (v *View) Stat(path string) (vfs.Attr, error) {
	attr, err := v.backend.StatAttr(path)
	if err != nil {
		return vfs.Attr{}, err
	}
	if !v.admitted(path, attr.Kind == vfs.Directory) {
		return vfs.Attr{}, notIncluded(path)
	}
	return attr, nil
}

// Read returns the content at path if the view admits it, ENOENT
// otherwise.
func (v *View) Read(path string) ([]byte, error) {
	attr, err := v.backend.StatAttr(path)
	if err != nil {
		return nil, err
	}
	if !v.admitted(path, attr.Kind == vfs.Directory) {
		return nil, notIncluded(path)
	}
	return v.backend.Read(path)
}

// Readdir lists only the children of path that the view admits: files
// surviving ShouldInclude, directories surviving ShouldTraverse.
func (v *View) Readdir(path string) ([]vfs.DirEntry, error) {
	attr, err := v.backend.StatAttr(path)
	if err != nil {
		return nil, err
	}
	if !v.admitted(path, attr.Kind == vfs.Directory) {
		return nil, notIncluded(path)
	}

	entries, err := v.backend.Readdir(path)
	if err != nil {
		return nil, err
	}

	filtered := make([]vfs.DirEntry, 0, len(entries))
	for _, e := range entries {
		childPath := vpath.Join(path, e.Name)
		if e.Kind == vfs.Directory {
			if v.checker.ShouldTraverse(childPath) {
				filtered = append(filtered, e)
			}
			continue
		}
		if v.checker.ShouldInclude(childPath, false) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// WalkOptions configures Walk.
type WalkOptions struct {
	MaxDepth     int // -1 means unconstrained
	HideDotfiles bool
}

// Walk returns every admitted path under root in depth-first, pre-order
// traversal order, honoring opts.MaxDepth and opts.HideDotfiles.
func (v *View) Walk(root string, opts WalkOptions) ([]string, error) {
	clean, err := vpath.Clean(root)
	if err != nil {
		return nil, err
	}
	var results []string
	if err := v.walk(clean, 0, opts, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (v *View) walk(path string, depth int, opts WalkOptions, results *[]string) error {
	attr, err := v.backend.StatAttr(path)
	if err != nil {
		return err
	}
	if !v.admitted(path, attr.Kind == vfs.Directory) {
		return nil
	}

	*results = append(*results, path)

	if attr.Kind != vfs.Directory {
		return nil
	}
	if opts.MaxDepth >= 0 && depth >= opts.MaxDepth {
		return nil
	}

	entries, err := v.backend.Readdir(path)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	for _, e := range entries {
		if opts.HideDotfiles && len(e.Name) > 0 && e.Name[0] == '.' {
			continue
		}
		childPath := vpath.Join(path, e.Name)
		if e.Kind == vfs.Directory && !v.checker.ShouldTraverse(childPath) {
			continue
		}
		if err := v.walk(childPath, depth+1, opts, results); err != nil {
			return err
		}
	}
	return nil
}
