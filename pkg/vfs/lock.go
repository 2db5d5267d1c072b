package vfs

import (
	"strings"
	"sync"
)

// pathLocker keeps subtree-wide operations apart: Rename locks its source
// path and removeTree the directory it removes, so the two never run
// concurrently on overlapping subtrees. Single-file operations such as
// Write and Append do not take it; they, like every operation, hold
// Backend.mu, so a write that started before a rename finishes against
// the pre-rename path.
//
// It is a simple exclusive lock per path prefix: locking "/a/b" blocks any
// other caller from locking a path equal to or nested under "/a/b", and
// vice versa, but does not block unrelated paths.
type pathLocker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	locked  []string
}

func newPathLocker() *pathLocker {
	l := &pathLocker{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func overlaps(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasPrefix(a+"/", b+"/") || strings.HasPrefix(b+"/", a+"/")
}

// lock blocks until no currently-locked path overlaps p, then locks p.
func (l *pathLocker) lock(p string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		conflict := false
		for _, held := range l.locked {
			if overlaps(held, p) {
				conflict = true
				break
			}
		}
		if !conflict {
			l.locked = append(l.locked, p)
			return
		}
		l.cond.Wait()
	}
}

// unlock releases p, waking any blocked lockers.
func (l *pathLocker) unlock(p string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, held := range l.locked {
		if held == p {
			l.locked = append(l.locked[:i], l.locked[i+1:]...)
			break
		}
	}
	l.cond.Broadcast()
}
