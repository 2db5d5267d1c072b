package vfs

import (
	"sort"

	"github.com/vfscore/vfscore/pkg/vpath"
)

// MkdirOptions configures Mkdir.
type MkdirOptions struct {
	Recursive bool
	Mode      Mode
}

// Mkdir creates a directory at p. Without Recursive, an existing path
// fails with EEXIST and a missing parent fails with ENOENT. With
// Recursive, missing ancestors are created and an already-existing
// directory at p is not an error (mkdir -p idempotence).
func (b *Backend) Mkdir(p string, opts MkdirOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	if vpath.IsRoot(clean) {
		if opts.Recursive {
			return nil
		}
		return vpath.New(vpath.EEXIST, p, "root already exists")
	}

	mode := opts.Mode
	if mode == 0 {
		mode = DefaultDirMode
	}

	if !opts.Recursive {
		parentDir, name, err := b.resolveParent(clean)
		if err != nil {
			return err
		}
		if _, exists := parentDir.children[name]; exists {
			return vpath.New(vpath.EEXIST, p, "already exists")
		}
		b.createDir(parentDir, name, mode)
		return nil
	}

	current := b.inodes[b.root]
	for _, name := range vpath.Segments(clean) {
		if current.kind != Directory {
			return vpath.New(vpath.ENOTDIR, p, "not a directory")
		}
		if id, ok := current.children[name]; ok {
			current = b.inodes[id]
			continue
		}
		current = b.createDir(current, name, mode)
	}
	return nil
}

func (b *Backend) createDir(parent *inode, name string, mode Mode) *inode {
	now := nowFunc()
	child := &inode{
		id:        b.allocateIno(),
		kind:      Directory,
		mode:      mode,
		nlink:     1,
		atime:     now,
		mtime:     now,
		ctime:     now,
		birthtime: now,
		children:  make(map[string]ino),
	}
	b.inodes[child.id] = child
	parent.children[name] = child.id
	parent.childOrder = append(parent.childOrder, name)
	parent.mtime = now
	parent.ctime = now
	return child
}

// Rmdir removes the directory at p. Without Recursive, a non-empty
// directory fails with ENOTEMPTY. Removing root always fails with EPERM.
func (b *Backend) Rmdir(p string, recursive bool) error {
	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	if vpath.IsRoot(clean) {
		return vpath.New(vpath.EPERM, p, "cannot remove root")
	}

	if recursive {
		return b.removeTree(clean)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	parentDir, name, err := b.resolveParent(clean)
	if err != nil {
		return err
	}
	childID, ok := parentDir.children[name]
	if !ok {
		return vpath.New(vpath.ENOENT, p, "no such file or directory")
	}
	child := b.inodes[childID]
	if child.kind != Directory {
		return vpath.New(vpath.ENOTDIR, p, "not a directory")
	}
	if len(child.children) != 0 {
		return vpath.New(vpath.ENOTEMPTY, p, "directory not empty")
	}

	b.unlinkChild(parentDir, name)
	return nil
}

// unlinkChild removes name from parent's children and releases the child
// inode's directory reference, reclaiming it if it becomes deletable.
func (b *Backend) unlinkChild(parent *inode, name string) {
	childID := parent.children[name]
	delete(parent.children, name)
	for i, n := range parent.childOrder {
		if n == name {
			parent.childOrder = append(parent.childOrder[:i], parent.childOrder[i+1:]...)
			break
		}
	}
	now := nowFunc()
	parent.mtime = now
	parent.ctime = now

	child := b.inodes[childID]
	child.nlink--
	if child.kind == Regular && child.isDeletable() {
		if child.blobID != "" {
			b.blobs.ReleaseRef(child.blobID)
		}
		delete(b.inodes, childID)
	} else if child.kind == Directory && child.isDeletable() {
		delete(b.inodes, childID)
	} else if child.kind == Symlink && child.isDeletable() {
		delete(b.inodes, childID)
	}
}

// DirEntry is one entry returned by Readdir.
type DirEntry struct {
	Name string
	Kind Kind
}

// Readdir lists the children of the directory at p, in a stable order.
func (b *Backend) Readdir(p string) ([]DirEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	node, err := b.resolve(p, true)
	if err != nil {
		return nil, err
	}
	if node.kind != Directory {
		return nil, vpath.New(vpath.ENOTDIR, p, "not a directory")
	}

	names := append([]string{}, node.childOrder...)
	sort.Strings(names)

	entries := make([]DirEntry, 0, len(names))
	for _, name := range names {
		child := b.inodes[node.children[name]]
		entries = append(entries, DirEntry{Name: name, Kind: child.kind})
	}
	return entries, nil
}

// Rename moves old to new. Renaming a directory moves its whole subtree;
// an existing destination file is overwritten atomically. The move holds
// the source subtree's path lock and the backend mutex for its duration,
// so no other operation observes it half-done.
func (b *Backend) Rename(oldPath, newPath string) error {
	oldClean, err := vpath.Clean(oldPath)
	if err != nil {
		return err
	}
	newClean, err := vpath.Clean(newPath)
	if err != nil {
		return err
	}

	b.paths.lock(oldClean)
	defer b.paths.unlock(oldClean)

	b.mu.Lock()
	defer b.mu.Unlock()

	oldParent, oldName, err := b.resolveParent(oldClean)
	if err != nil {
		return err
	}
	childID, ok := oldParent.children[oldName]
	if !ok {
		return vpath.New(vpath.ENOENT, oldPath, "no such file or directory")
	}

	newParent, newName, err := b.resolveParent(newClean)
	if err != nil {
		return err
	}

	if existingID, exists := newParent.children[newName]; exists {
		existing := b.inodes[existingID]
		moved := b.inodes[childID]
		if existing.kind == Directory && moved.kind != Directory {
			return vpath.New(vpath.EISDIR, newPath, "destination is a directory")
		}
		if existing.kind != Directory && moved.kind == Directory {
			return vpath.New(vpath.ENOTDIR, newPath, "destination is not a directory")
		}
		if existing.kind == Directory && len(existing.children) != 0 {
			return vpath.New(vpath.ENOTEMPTY, newPath, "directory not empty")
		}
		b.unlinkChild(newParent, newName)
	}

	delete(oldParent.children, oldName)
	for i, n := range oldParent.childOrder {
		if n == oldName {
			oldParent.childOrder = append(oldParent.childOrder[:i], oldParent.childOrder[i+1:]...)
			break
		}
	}

	newParent.children[newName] = childID
	newParent.childOrder = append(newParent.childOrder, newName)

	now := nowFunc()
	oldParent.mtime, oldParent.ctime = now, now
	newParent.mtime, newParent.ctime = now, now

	return nil
}
