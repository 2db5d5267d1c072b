package vfs

import (
	"sync"
	"time"

	"github.com/vfscore/vfscore/pkg/blob"
	"github.com/vfscore/vfscore/pkg/logging"
	"github.com/vfscore/vfscore/pkg/vpath"
)

// Backend is a single POSIX-semantic in-memory filesystem instance: an
// inode table rooted at "/", a pool of open file handles, and a blob store
// for regular-file content. There is exactly one concrete backend type,
// parameterized by the blob store it is given, rather than an inheritance
// hierarchy of implementations.
type Backend struct {
	logger *logging.Logger
	blobs  *blob.Store

	mu      sync.Mutex
	inodes  map[ino]*inode
	nextIno ino
	root    ino

	handles    map[uint64]*Handle
	nextHandle uint64
	maxHandles int

	paths *pathLocker
}

// New constructs an empty Backend rooted at "/", backed by the given blob
// store.
func New(logger *logging.Logger, blobs *blob.Store) *Backend {
	b := &Backend{
		logger:     logger,
		blobs:      blobs,
		inodes:     make(map[ino]*inode),
		nextIno:    1,
		handles:    make(map[uint64]*Handle),
		nextHandle: 3, // descriptor pool starts at 3, leaving 0-2 free for stdio-like reservations.
		maxHandles: 0, // 0 means unbounded.
		paths:      newPathLocker(),
	}

	now := nowFunc()
	root := &inode{
		id:        b.allocateIno(),
		kind:      Directory,
		mode:      DefaultDirMode,
		nlink:     2, // "." and the entry in its own children via convention.
		atime:     now,
		mtime:     now,
		ctime:     now,
		birthtime: now,
		children:  make(map[string]ino),
	}
	b.inodes[root.id] = root
	b.root = root.id

	return b
}

// nowFunc is a seam for deterministic testing; production code always
// calls time.Now.
var nowFunc = time.Now

// Blobs returns the blob store backing this instance's regular-file
// content, so a COW overlay branch can share it.
func (b *Backend) Blobs() *blob.Store {
	return b.blobs
}

// WithMaxHandles bounds the number of simultaneously open file handles;
// exceeding it fails opens with EMFILE.
func (b *Backend) WithMaxHandles(max int) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxHandles = max
	return b
}

func (b *Backend) allocateIno() ino {
	id := b.nextIno
	b.nextIno++
	return id
}

// lookupChild resolves name within the directory inode dir, returning
// vpath.ENOENT if absent.
func (b *Backend) lookupChild(dir *inode, name string) (*inode, error) {
	id, ok := dir.children[name]
	if !ok {
		return nil, vpath.New(vpath.ENOENT, name, "no such file or directory")
	}
	return b.inodes[id], nil
}

// resolveParent cleans p and resolves its parent directory (following
// symlinks), returning the parent directory inode and the final component
// name. The root has no parent (EINVAL); a parent that is not a directory
// fails with ENOTDIR.
func (b *Backend) resolveParent(p string) (parentDir *inode, name string, err error) {
	clean, err := vpath.Clean(p)
	if err != nil {
		return nil, "", err
	}
	if vpath.IsRoot(clean) {
		return nil, "", vpath.New(vpath.EINVAL, p, "path has no parent")
	}
	parentPath, childName := vpath.Split(clean)
	parentNode, err := b.resolve(parentPath, true)
	if err != nil {
		return nil, "", err
	}
	if parentNode.kind != Directory {
		return nil, "", vpath.New(vpath.ENOTDIR, parentPath, "not a directory")
	}
	return parentNode, childName, nil
}

// resolve walks p from the root, following symlinks at every component
// (including, if followFinal is true, the final component) up to the
// maximum hop bound enforced by vpath.Resolve's lookup-based twin logic
// inlined here for direct inode access.
func (b *Backend) resolve(p string, followFinal bool) (*inode, error) {
	clean, err := vpath.Clean(p)
	if err != nil {
		return nil, err
	}

	current := b.inodes[b.root]
	segments := vpath.Segments(clean)
	hops := 0

	for i := 0; i < len(segments); i++ {
		name := segments[i]
		if current.kind != Directory {
			return nil, vpath.New(vpath.ENOTDIR, p, "not a directory")
		}
		child, err := b.lookupChild(current, name)
		if err != nil {
			return nil, vpath.New(vpath.ENOENT, p, "no such file or directory")
		}

		isFinal := i == len(segments)-1
		if child.kind == Symlink && (!isFinal || followFinal) {
			hops++
			if hops > 40 {
				return nil, vpath.New(vpath.ELOOP, p, "too many levels of symbolic links")
			}
			target := child.target
			var targetSegments []string
			if len(target) > 0 && target[0] == '/' {
				tc, err := vpath.Clean(target)
				if err != nil {
					return nil, err
				}
				targetSegments = vpath.Segments(tc)
				current = b.inodes[b.root]
			} else {
				tc, err := vpath.Clean(vpath.Join(pathOfSegments(segments[:i]), target))
				if err != nil {
					return nil, err
				}
				targetSegments = vpath.Segments(tc)
				current = b.inodes[b.root]
			}
			segments = append(append([]string{}, targetSegments...), segments[i+1:]...)
			i = -1
			continue
		}

		current = child
	}

	return current, nil
}

func pathOfSegments(segments []string) string {
	p := "/"
	for _, s := range segments {
		p = vpath.Join(p, s)
	}
	return p
}

// Stat implements vpath.Lookup so pkg/vpath.Resolve can be reused for pure
// realpath queries. It does not follow a final symlink: for one it reports
// the link's raw target. StatAttr is the symlink-following attribute query.
func (b *Backend) Stat(p string) (exists bool, isDir bool, symlinkTarget string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	node, err := b.resolve(p, false)
	if err != nil {
		if kind, ok := vpath.KindOf(err); ok && kind == vpath.ENOENT {
			return false, false, "", nil
		}
		return false, false, "", err
	}
	if node.kind == Symlink {
		return true, false, node.target, nil
	}
	return true, node.kind == Directory, "", nil
}
