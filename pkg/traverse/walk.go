// Package traverse implements the predicate-ordered, cancellable,
// cycle-safe directory walker: a find-like query over a vfs.Backend
// filtered by depth, type, name, size, and time, with directory pruning
// and bounded-concurrency fan-out across sibling subdirectories.
package traverse

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/vfscore/vfscore/pkg/vfs"
	"github.com/vfscore/vfscore/pkg/vpath"
)

// subdirectoryConcurrency bounds how many sibling subdirectories are
// walked at once; it exists so a wide, shallow tree doesn't spawn one
// goroutine per entry.
const subdirectoryConcurrency = 8

// Kind distinguishes the two ways a walk can end early.
type Kind string

const (
	Cancelled Kind = "CANCELLED"
	Timeout   Kind = "TIMEOUT"
)

// CancellationError is returned when a walk is cancelled or times out
// before completing; per the no-partial-results rule, it is always
// returned alongside a nil result slice.
type CancellationError struct {
	Root string
	Kind Kind
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("%s: walk of %s did not complete", e.Kind, e.Root)
}

func cancellationFrom(ctx context.Context, root string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &CancellationError{Root: root, Kind: Timeout}
	}
	return &CancellationError{Root: root, Kind: Cancelled}
}

// Walk evaluates criteria against backend, starting at criteria.RootPath,
// and returns matching paths sorted ascending. Cancelling or timing out ctx
// before the walk completes returns a nil slice and a *CancellationError,
// never a partial result set.
func Walk(ctx context.Context, backend *vfs.Backend, criteria Criteria) ([]string, error) {
	r, err := criteria.resolve()
	if err != nil {
		return nil, err
	}

	clean, err := vpath.Clean(r.rootPath)
	if err != nil {
		return nil, err
	}
	r.rootPath = clean

	rootAttr, err := backend.LstatAttr(clean)
	if err != nil {
		return nil, err
	}

	w := &walker{backend: backend, criteria: r, now: time.Now(), visited: make(map[vfs.InodeID]bool)}

	if err := w.visit(ctx, clean, rootAttr.Kind, 0); err != nil {
		if ctx.Err() != nil {
			return nil, cancellationFrom(ctx, clean)
		}
		return nil, err
	}

	w.mu.Lock()
	results := w.results
	w.mu.Unlock()

	sort.Strings(results)
	return results, nil
}

type walker struct {
	backend  *vfs.Backend
	criteria resolved
	now      time.Time

	mu      sync.Mutex
	results []string
	// visited guards against substrate cycles: directories are keyed by
	// inode identity and recursed into at most once, regardless of how
	// many names reach them. The backend's own path resolution already
	// forbids constructing a cycle, so this is defense-in-depth rather
	// than the primary safeguard.
	visited map[vfs.InodeID]bool
}

func (w *walker) addResult(path string) {
	w.mu.Lock()
	w.results = append(w.results, path)
	w.mu.Unlock()
}

// markVisited records id as seen and reports whether this is the first
// time, so the caller can skip recursing into an already-visited
// directory.
func (w *walker) markVisited(id vfs.InodeID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.visited[id] {
		return false
	}
	w.visited[id] = true
	return true
}

func matchesAnyGlob(patterns []string, basename string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, basename); ok {
			return true
		}
	}
	return false
}

// visit applies the predicate chain (depth, then type, name, size, mtime,
// ctime, atime, empty, in that mandatory order since cost grows down the
// list) to path, then recurses into it if it's a directory that survived
// pruning. Symlinks are never followed, only recorded as leaf entries.
func (w *walker) visit(ctx context.Context, path string, kind vfs.Kind, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, basename := vpath.Split(path)
	if kind == vfs.Directory && depth > 0 && matchesAnyGlob(w.criteria.prune, basename) {
		return nil
	}

	if w.criteria.maxDepth >= 0 && depth > w.criteria.maxDepth {
		return nil
	}

	attr, err := w.backend.LstatAttr(path)
	if err != nil {
		return err
	}

	if w.evaluate(attr, depth, basename, path) {
		w.addResult(path)
	}

	if attr.Kind != vfs.Directory {
		return nil
	}
	if !w.markVisited(attr.ID) {
		return nil
	}
	return w.walkChildren(ctx, path, depth)
}

func (w *walker) evaluate(attr vfs.Attr, depth int, basename, path string) bool {
	if w.criteria.minDepth >= 0 && depth < w.criteria.minDepth {
		return false
	}
	if w.criteria.typ != nil && attr.Kind != *w.criteria.typ {
		return false
	}
	if w.criteria.nameGlob != "" {
		ok, _ := doublestar.Match(w.criteria.nameGlob, basename)
		if !ok {
			return false
		}
	}
	if w.criteria.size != nil {
		if attr.Kind != vfs.Regular || !w.criteria.size.matches(attr.Size) {
			return false
		}
	}
	if w.criteria.mtime != nil && !w.criteria.mtime.matches(attr.Mtime, w.now) {
		return false
	}
	if w.criteria.ctime != nil && !w.criteria.ctime.matches(attr.Ctime, w.now) {
		return false
	}
	if w.criteria.atime != nil && !w.criteria.atime.matches(attr.Atime, w.now) {
		return false
	}
	if w.criteria.empty != nil {
		isEmpty := w.isEmpty(attr, path)
		if isEmpty != *w.criteria.empty {
			return false
		}
	}
	return true
}

func (w *walker) isEmpty(attr vfs.Attr, path string) bool {
	switch attr.Kind {
	case vfs.Directory:
		entries, err := w.backend.Readdir(path)
		return err == nil && len(entries) == 0
	case vfs.Regular:
		return attr.Size == 0
	default:
		return false
	}
}

func (w *walker) walkChildren(ctx context.Context, path string, depth int) error {
	entries, err := w.backend.Readdir(path)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(subdirectoryConcurrency)

	for _, entry := range entries {
		entry := entry
		childPath := vpath.Join(path, entry.Name)
		g.Go(func() error {
			return w.visit(gctx, childPath, entry.Kind, depth+1)
		})
	}

	return g.Wait()
}
