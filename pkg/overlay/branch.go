// Package overlay implements the copy-on-write branch overlay: a named
// layer over a base vfs.Backend that intercepts writes, tracks a dirty-path
// map of superseding blob ids, and can later commit those changes into the
// base or discard them outright.
package overlay

import (
	"sync"
	"time"

	"github.com/vfscore/vfscore/pkg/blob"
	"github.com/vfscore/vfscore/pkg/identifier"
	"github.com/vfscore/vfscore/pkg/logging"
	"github.com/vfscore/vfscore/pkg/vfs"
	"github.com/vfscore/vfscore/pkg/vpath"
)

// dirtyEntry is one branch-local override: the content a path currently
// resolves to within this branch (or a tombstone marking it removed), and
// the write epoch it was last touched at. Commit does not consult the
// epoch; a repeated Commit is a no-op because the branch is marked
// committed.
type dirtyEntry struct {
	deleted bool
	kind    vfs.Kind // Regular or Symlink; meaningless when deleted
	blobID  blob.ID  // populated for Regular
	size    int64
	target  string // populated for Symlink
	epoch   uint64
}

// metaOverride is a branch-local attribute change (chmod/chown/utimes) that
// doesn't itself touch content, recorded separately from dirtyEntry so a
// metadata-only change doesn't need to pull a path's content into the
// branch just to carry it.
type metaOverride struct {
	mode     vfs.Mode
	hasMode  bool
	uid, gid int
	hasOwner bool
	atime, mtime time.Time
	hasTimes     bool
}

type dirOpKind int

const (
	dirCreate dirOpKind = iota
	dirRemove
	dirRename
)

// dirOp is a structural change (mkdir, rmdir, or a rename whose source has
// no branch-local content) replayed directly against the base at commit,
// in recorded order. Because these paths carry no blob content, the branch
// has nothing local to show for them before commit: Read of a renamed or
// newly created path recorded only here falls through to the base's
// pre-commit shape until Commit runs.
type dirOp struct {
	kind      dirOpKind
	path      string
	newPath   string // dirRename only
	recursive bool   // dirCreate/dirRemove only
}

// Branch is a copy-on-write overlay over a base backend. Reads prefer the
// branch's own dirty map and fall through to the base for anything the
// branch hasn't touched; writes only ever touch the dirty map (or the
// structural op log) until Commit folds them into the base.
type Branch struct {
	logger *logging.Logger

	id    string
	base  *vfs.Backend
	blobs *blob.Store

	mu        sync.Mutex
	dirty     map[string]dirtyEntry
	meta      map[string]metaOverride
	dirOps    []dirOp
	nextEpoch uint64
	createdAt int64
	committed bool
	discarded bool
}

// New creates a branch over base, backed by the same blob store the base
// uses for content.
func New(logger *logging.Logger, base *vfs.Backend, blobs *blob.Store, createdAt int64) (*Branch, error) {
	id, err := identifier.New(identifier.PrefixBranch)
	if err != nil {
		return nil, err
	}
	return &Branch{
		logger:    logger,
		id:        id,
		base:      base,
		blobs:     blobs,
		dirty:     make(map[string]dirtyEntry),
		meta:      make(map[string]metaOverride),
		createdAt: createdAt,
	}, nil
}

// ID returns the branch's collision-resistant identifier (brch_...).
func (br *Branch) ID() string { return br.id }

// DirtyPaths returns every path the branch has overridden, whether by
// content or by metadata alone, for inspection and testing.
func (br *Branch) DirtyPaths() []string {
	br.mu.Lock()
	defer br.mu.Unlock()
	seen := make(map[string]bool, len(br.dirty)+len(br.meta))
	for p := range br.dirty {
		seen[p] = true
	}
	for p := range br.meta {
		seen[p] = true
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	return paths
}

func (br *Branch) active() error {
	if br.committed || br.discarded {
		return vpath.New(vpath.EINVAL, "", "branch is no longer active")
	}
	return nil
}

// Read returns the content of p as seen through the branch: the
// branch-local override if one exists, otherwise whatever the base
// returns.
func (br *Branch) Read(p string) ([]byte, error) {
	clean, err := vpath.Clean(p)
	if err != nil {
		return nil, err
	}

	br.mu.Lock()
	entry, overridden := br.dirty[clean]
	br.mu.Unlock()

	if !overridden {
		return br.base.Read(clean)
	}
	if entry.deleted {
		return nil, vpath.New(vpath.ENOENT, clean, "no such file or directory")
	}
	if entry.kind == vfs.Symlink {
		if len(entry.target) > 0 && entry.target[0] == '/' {
			return br.Read(entry.target)
		}
		return nil, vpath.New(vpath.EINVAL, clean, "is a symbolic link")
	}
	return br.blobs.Get(entry.blobID)
}

// readEffective is like Read but used internally by Append/Truncate, which
// need the current bytes of a regular file before computing their new
// content.
func (br *Branch) readEffective(clean string) ([]byte, error) {
	br.mu.Lock()
	entry, overridden := br.dirty[clean]
	br.mu.Unlock()

	if !overridden {
		return br.base.Read(clean)
	}
	if entry.deleted {
		return nil, vpath.New(vpath.ENOENT, clean, "no such file or directory")
	}
	if entry.kind != vfs.Regular {
		return nil, vpath.New(vpath.EINVAL, clean, "not a regular file")
	}
	return br.blobs.Get(entry.blobID)
}

// assignDirty installs newID as clean's content within the branch. newID
// must already carry whatever reference count it needs (freshly Put, or
// explicitly AddRef'd by the caller for a shared/linked blob); assignDirty
// releases the reference the path's previous dirty entry (if any) was
// pinning, never the one it's installing.
func (br *Branch) assignDirty(clean string, kind vfs.Kind, newID blob.ID, size int64, target string) error {
	br.mu.Lock()
	defer br.mu.Unlock()

	if err := br.active(); err != nil {
		if newID != "" {
			br.blobs.ReleaseRef(newID)
		}
		return err
	}

	if prior, ok := br.dirty[clean]; ok && !prior.deleted && prior.blobID != "" && prior.blobID != newID {
		br.blobs.ReleaseRef(prior.blobID)
	}
	br.nextEpoch++
	br.dirty[clean] = dirtyEntry{kind: kind, blobID: newID, size: size, target: target, epoch: br.nextEpoch}
	return nil
}

// supersede is the core COW write path shared by Write, Append, Truncate,
// and Symlink: the base's current blob (if any) is pinned by reference
// before the new content's blob displaces it, so the base is never left
// observing a dangling reference mid-write.
func (br *Branch) supersede(clean string, kind vfs.Kind, data []byte, target string) error {
	baseID, err := br.base.LookupBlob(clean)
	if err != nil {
		if k, ok := vpath.KindOf(err); !ok || k != vpath.ENOENT {
			return err
		}
		baseID = ""
	}
	if baseID != "" {
		br.blobs.AddRef(baseID)
	}

	var newID blob.ID
	if kind == vfs.Regular {
		newID, err = br.blobs.Put(data, nil)
		if err != nil {
			if baseID != "" {
				br.blobs.ReleaseRef(baseID)
			}
			return err
		}
	}
	if baseID != "" {
		br.blobs.ReleaseRef(baseID)
	}

	if err := br.assignDirty(clean, kind, newID, int64(len(data)), target); err != nil {
		return err
	}

	if br.logger != nil {
		br.logger.Debugf("overlay %s: wrote %s", br.id, clean)
	}
	return nil
}

// Write supersedes p within the branch, creating it if necessary.
func (br *Branch) Write(p string, data []byte) error {
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	return br.supersede(clean, vfs.Regular, data, "")
}

// Append supersedes p with its current content (branch-local if dirty,
// otherwise the base's) followed by data.
func (br *Branch) Append(p string, data []byte) error {
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	current, err := br.readEffective(clean)
	if err != nil {
		if kind, ok := vpath.KindOf(err); !ok || kind != vpath.ENOENT {
			return err
		}
		current = nil
	}
	return br.supersede(clean, vfs.Regular, append(append([]byte{}, current...), data...), "")
}

// Truncate supersedes p with its current content resized to size,
// zero-padding on growth.
func (br *Branch) Truncate(p string, size int64) error {
	if size < 0 {
		return vpath.New(vpath.EINVAL, p, "negative size")
	}
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	current, err := br.readEffective(clean)
	if err != nil {
		if kind, ok := vpath.KindOf(err); !ok || kind != vpath.ENOENT {
			return err
		}
		current = nil
	}
	resized := make([]byte, size)
	copy(resized, current)
	return br.supersede(clean, vfs.Regular, resized, "")
}

// Symlink supersedes p within the branch as a symlink pointing at target.
func (br *Branch) Symlink(target, p string) error {
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	return br.supersede(clean, vfs.Symlink, nil, target)
}

// Link records newPath as a second name for existingPath's current
// content, sharing its blob by reference rather than copying it.
func (br *Branch) Link(existingPath, newPath string) error {
	existingClean, err := vpath.Clean(existingPath)
	if err != nil {
		return err
	}
	newClean, err := vpath.Clean(newPath)
	if err != nil {
		return err
	}

	br.mu.Lock()
	entry, overridden := br.dirty[existingClean]
	br.mu.Unlock()

	var srcID blob.ID
	var srcSize int64
	if overridden {
		if entry.deleted {
			return vpath.New(vpath.ENOENT, existingPath, "no such file or directory")
		}
		if entry.kind != vfs.Regular {
			return vpath.New(vpath.EPERM, existingPath, "cannot link a symbolic link or directory")
		}
		srcID, srcSize = entry.blobID, entry.size
	} else {
		id, lerr := br.base.LookupBlob(existingClean)
		if lerr != nil {
			return lerr
		}
		attr, aerr := br.base.LstatAttr(existingClean)
		if aerr != nil {
			return aerr
		}
		if attr.Kind != vfs.Regular {
			return vpath.New(vpath.EPERM, existingPath, "cannot link a directory")
		}
		srcID, srcSize = id, attr.Size
	}

	if srcID != "" {
		br.blobs.AddRef(srcID)
	}
	return br.assignDirty(newClean, vfs.Regular, srcID, srcSize, "")
}

// Unlink removes p from the branch's view: a tombstone dirty entry, so
// reads see ENOENT regardless of what the base (or an earlier write in
// this same branch) holds at that path.
func (br *Branch) Unlink(p string) error {
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}

	br.mu.Lock()
	defer br.mu.Unlock()

	if err := br.active(); err != nil {
		return err
	}

	if prior, ok := br.dirty[clean]; ok && !prior.deleted && prior.blobID != "" {
		br.blobs.ReleaseRef(prior.blobID)
	}
	br.nextEpoch++
	br.dirty[clean] = dirtyEntry{deleted: true, epoch: br.nextEpoch}
	delete(br.meta, clean)

	if br.logger != nil {
		br.logger.Debugf("overlay %s: unlinked %s", br.id, clean)
	}
	return nil
}

// Chmod records a branch-local permission-bits override for p.
func (br *Branch) Chmod(p string, mode vfs.Mode) error {
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	if err := br.active(); err != nil {
		return err
	}
	m := br.meta[clean]
	m.mode, m.hasMode = mode, true
	br.meta[clean] = m
	return nil
}

// Chown records a branch-local owner/group override for p.
func (br *Branch) Chown(p string, uid, gid int) error {
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	if err := br.active(); err != nil {
		return err
	}
	m := br.meta[clean]
	m.uid, m.gid, m.hasOwner = uid, gid, true
	br.meta[clean] = m
	return nil
}

// Utimes records a branch-local access/modification time override for p.
func (br *Branch) Utimes(p string, atime, mtime time.Time) error {
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	if err := br.active(); err != nil {
		return err
	}
	m := br.meta[clean]
	m.atime, m.mtime, m.hasTimes = atime, mtime, true
	br.meta[clean] = m
	return nil
}

// Mkdir records a directory creation, replayed against the base at
// commit.
func (br *Branch) Mkdir(p string, recursive bool) error {
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	if err := br.active(); err != nil {
		return err
	}
	br.dirOps = append(br.dirOps, dirOp{kind: dirCreate, path: clean, recursive: recursive})
	return nil
}

// Rmdir records a directory removal, replayed against the base at commit.
func (br *Branch) Rmdir(p string, recursive bool) error {
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	if err := br.active(); err != nil {
		return err
	}
	br.dirOps = append(br.dirOps, dirOp{kind: dirRemove, path: clean, recursive: recursive})
	return nil
}

// Rename moves oldPath to newPath within the branch. If oldPath already
// carries branch-local content, that content (and its blob reference)
// moves to newPath and oldPath is tombstoned, exactly like any other
// supersession. Otherwise — the common case, since oldPath's content lives
// only in the base — the rename is recorded as a structural op and
// replayed directly against the base at commit.
func (br *Branch) Rename(oldPath, newPath string) error {
	oldClean, err := vpath.Clean(oldPath)
	if err != nil {
		return err
	}
	newClean, err := vpath.Clean(newPath)
	if err != nil {
		return err
	}

	br.mu.Lock()
	defer br.mu.Unlock()

	if err := br.active(); err != nil {
		return err
	}

	entry, ok := br.dirty[oldClean]
	if !ok {
		br.dirOps = append(br.dirOps, dirOp{kind: dirRename, path: oldClean, newPath: newClean})
		return nil
	}

	if prior, ok := br.dirty[newClean]; ok && !prior.deleted && prior.blobID != "" && prior.blobID != entry.blobID {
		br.blobs.ReleaseRef(prior.blobID)
	}
	br.nextEpoch++
	entry.epoch = br.nextEpoch
	br.dirty[newClean] = entry

	if m, ok := br.meta[oldClean]; ok {
		br.meta[newClean] = m
		delete(br.meta, oldClean)
	}

	br.nextEpoch++
	br.dirty[oldClean] = dirtyEntry{deleted: true, epoch: br.nextEpoch}
	return nil
}

// Commit folds every recorded change into the base: directory ops replay
// first (in recorded order), then dirty content, then metadata overrides.
// Commit is idempotent — calling it twice is a no-op the second time.
func (br *Branch) Commit() error {
	br.mu.Lock()
	if br.committed {
		br.mu.Unlock()
		return nil
	}
	if br.discarded {
		br.mu.Unlock()
		return vpath.New(vpath.EINVAL, "", "branch already discarded")
	}
	entries := make(map[string]dirtyEntry, len(br.dirty))
	for p, e := range br.dirty {
		entries[p] = e
	}
	metas := make(map[string]metaOverride, len(br.meta))
	for p, m := range br.meta {
		metas[p] = m
	}
	dirOps := append([]dirOp(nil), br.dirOps...)
	br.committed = true
	br.mu.Unlock()

	for _, op := range dirOps {
		switch op.kind {
		case dirCreate:
			if err := br.base.Mkdir(op.path, vfs.MkdirOptions{Recursive: op.recursive}); err != nil {
				if kind, ok := vpath.KindOf(err); !ok || kind != vpath.EEXIST {
					return err
				}
			}
		case dirRemove:
			if err := br.base.Rmdir(op.path, op.recursive); err != nil {
				if kind, ok := vpath.KindOf(err); !ok || kind != vpath.ENOENT {
					return err
				}
			}
		case dirRename:
			if err := br.base.Rename(op.path, op.newPath); err != nil {
				return err
			}
		}
	}

	for p, e := range entries {
		if e.deleted {
			if err := br.base.Unlink(p); err != nil {
				if kind, ok := vpath.KindOf(err); !ok || kind != vpath.ENOENT {
					return err
				}
			}
			continue
		}
		if e.kind == vfs.Symlink {
			if err := br.base.Unlink(p); err != nil {
				if kind, ok := vpath.KindOf(err); !ok || kind != vpath.ENOENT {
					return err
				}
			}
			if err := br.base.Symlink(e.target, p); err != nil {
				return err
			}
			continue
		}
		if err := br.base.AssignBlob(p, e.blobID, e.size); err != nil {
			return err
		}
		if e.blobID != "" {
			br.blobs.ReleaseRef(e.blobID)
		}
	}

	for p, m := range metas {
		if m.hasMode {
			if err := br.base.Chmod(p, m.mode); err != nil {
				return err
			}
		}
		if m.hasOwner {
			if err := br.base.Chown(p, m.uid, m.gid); err != nil {
				return err
			}
		}
		if m.hasTimes {
			if err := br.base.Utimes(p, m.atime, m.mtime); err != nil {
				return err
			}
		}
	}

	if br.logger != nil {
		br.logger.Infof("overlay %s: committed %d paths, %d directory ops", br.id, len(entries), len(dirOps))
	}
	return nil
}

// Discard releases every blob reference the branch is holding without
// applying any change to the base.
func (br *Branch) Discard() error {
	br.mu.Lock()
	if br.discarded || br.committed {
		br.mu.Unlock()
		return nil
	}
	entries := make(map[string]dirtyEntry, len(br.dirty))
	for p, e := range br.dirty {
		entries[p] = e
	}
	br.discarded = true
	br.dirty = nil
	br.meta = nil
	br.dirOps = nil
	br.mu.Unlock()

	for _, e := range entries {
		if !e.deleted && e.kind == vfs.Regular && e.blobID != "" {
			br.blobs.ReleaseRef(e.blobID)
		}
	}

	if br.logger != nil {
		br.logger.Debugf("overlay %s: discarded %d paths", br.id, len(entries))
	}
	return nil
}
