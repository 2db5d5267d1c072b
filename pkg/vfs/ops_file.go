package vfs

import "github.com/vfscore/vfscore/pkg/vpath"

// Open resolves path according to flags, creating or truncating the target
// as directed, and returns a new Handle positioned at 0 (or EOF, if
// flags.Append).
func (b *Backend) Open(p string, flags OpenFlags, mode Mode) (*Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxHandles > 0 && len(b.handles) >= b.maxHandles {
		return nil, vpath.New(vpath.EMFILE, p, "too many open files")
	}

	clean, err := vpath.Clean(p)
	if err != nil {
		return nil, err
	}

	parentDir, name, perr := b.resolveParent(clean)
	if perr != nil {
		return nil, perr
	}

	childID, exists := parentDir.children[name]
	var node *inode

	if exists {
		if flags.Exclusive {
			return nil, vpath.New(vpath.EEXIST, p, "already exists")
		}
		node = b.inodes[childID]
		if node.kind == Symlink {
			node, err = b.resolve(clean, true)
			if err != nil {
				return nil, err
			}
		}
		if node.kind == Directory {
			return nil, vpath.New(vpath.EISDIR, p, "is a directory")
		}
		if flags.Truncate && flags.Write {
			oldID := node.blobID
			newID, err := b.blobs.Put(nil, nil)
			if err != nil {
				return nil, err
			}
			node.blobID = newID
			node.size = 0
			now := nowFunc()
			node.mtime, node.ctime = now, now
			if oldID != "" && oldID != newID {
				b.blobs.ReleaseRef(oldID)
			}
		}
	} else {
		if !flags.Create {
			return nil, vpath.New(vpath.ENOENT, p, "no such file or directory")
		}
		node = b.createFile(parentDir, name, mode, nil)
	}

	pos := int64(0)
	if flags.Append {
		pos = node.size
	}

	node.openHandles++
	handle := &Handle{
		id:      b.nextHandle,
		backend: b,
		node:    node,
		flags:   flags,
		pos:     pos,
	}
	b.nextHandle++
	b.handles[handle.id] = handle

	return handle, nil
}

func (b *Backend) createFile(parent *inode, name string, mode Mode, content []byte) *inode {
	if mode == 0 {
		mode = DefaultFileMode
	}
	blobID, _ := b.blobs.Put(content, nil)

	now := nowFunc()
	child := &inode{
		id:        b.allocateIno(),
		kind:      Regular,
		mode:      mode,
		nlink:     1,
		atime:     now,
		mtime:     now,
		ctime:     now,
		birthtime: now,
		blobID:    blobID,
		size:      int64(len(content)),
	}
	b.inodes[child.id] = child
	parent.children[name] = child.id
	parent.childOrder = append(parent.childOrder, name)
	parent.mtime = now
	parent.ctime = now
	return child
}

// Read reads the entire contents of the regular file at p.
func (b *Backend) Read(p string) ([]byte, error) {
	b.mu.Lock()
	node, err := b.resolve(p, true)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	if node.kind == Directory {
		b.mu.Unlock()
		return nil, vpath.New(vpath.EISDIR, p, "is a directory")
	}
	blobID := node.blobID
	node.atime = nowFunc()
	b.mu.Unlock()

	return b.blobs.Get(blobID)
}

// WriteResult is returned by Write.
type WriteResult struct {
	BytesWritten int
}

// Write replaces the entire contents of the file at p with data, creating
// it (and the entry, not intermediate directories) if necessary.
func (b *Backend) Write(p string, data []byte, mode Mode) (WriteResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clean, err := vpath.Clean(p)
	if err != nil {
		return WriteResult{}, err
	}
	parentDir, name, err := b.resolveParent(clean)
	if err != nil {
		return WriteResult{}, err
	}

	childID, exists := parentDir.children[name]
	if exists {
		node := b.inodes[childID]
		if node.kind == Symlink {
			node, err = b.resolve(clean, true)
			if err != nil {
				return WriteResult{}, err
			}
		}
		if node.kind == Directory {
			return WriteResult{}, vpath.New(vpath.EISDIR, p, "is a directory")
		}
		newID, err := b.blobs.Put(data, nil)
		if err != nil {
			return WriteResult{}, err
		}
		oldID := node.blobID
		node.blobID = newID
		node.size = int64(len(data))
		now := nowFunc()
		node.mtime, node.ctime = now, now
		if oldID != "" && oldID != newID {
			b.blobs.ReleaseRef(oldID)
		}
	} else {
		b.createFile(parentDir, name, mode, data)
	}

	return WriteResult{BytesWritten: len(data)}, nil
}

// Append appends data to the end of the file at p, creating it if
// necessary.
func (b *Backend) Append(p string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	parentDir, name, err := b.resolveParent(clean)
	if err != nil {
		return err
	}

	childID, exists := parentDir.children[name]
	var node *inode
	var current []byte
	if exists {
		node = b.inodes[childID]
		if node.kind == Symlink {
			node, err = b.resolve(clean, true)
			if err != nil {
				return err
			}
		}
		if node.kind == Directory {
			return vpath.New(vpath.EISDIR, p, "is a directory")
		}
		current, err = b.blobs.Get(node.blobID)
		if err != nil {
			return err
		}
	} else {
		node = b.createFile(parentDir, name, 0, nil)
	}

	combined := append(append([]byte{}, current...), data...)
	newID, err := b.blobs.Put(combined, nil)
	if err != nil {
		return err
	}
	oldID := node.blobID
	node.blobID = newID
	node.size = int64(len(combined))
	now := nowFunc()
	node.mtime, node.ctime = now, now
	if oldID != "" && oldID != newID {
		b.blobs.ReleaseRef(oldID)
	}

	return nil
}

// Unlink removes the directory entry at p, which must not name a
// directory.
func (b *Backend) Unlink(p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	parentDir, name, err := b.resolveParent(clean)
	if err != nil {
		return err
	}
	childID, exists := parentDir.children[name]
	if !exists {
		return vpath.New(vpath.ENOENT, p, "no such file or directory")
	}
	if b.inodes[childID].kind == Directory {
		return vpath.New(vpath.EISDIR, p, "is a directory")
	}
	b.unlinkChild(parentDir, name)
	return nil
}

// CopyFile copies the content of src to dst, creating or replacing dst.
func (b *Backend) CopyFile(src, dst string) error {
	b.mu.Lock()
	srcNode, err := b.resolve(src, true)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	if srcNode.kind == Directory {
		b.mu.Unlock()
		return vpath.New(vpath.EISDIR, src, "is a directory")
	}
	blobID := srcNode.blobID
	mode := srcNode.mode
	b.mu.Unlock()

	data, err := b.blobs.Get(blobID)
	if err != nil {
		return err
	}

	_, err = b.Write(dst, data, mode)
	return err
}

// Symlink creates a symlink at p pointing at target.
func (b *Backend) Symlink(target, p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	clean, err := vpath.Clean(p)
	if err != nil {
		return err
	}
	parentDir, name, err := b.resolveParent(clean)
	if err != nil {
		return err
	}
	if _, exists := parentDir.children[name]; exists {
		return vpath.New(vpath.EEXIST, p, "already exists")
	}

	now := nowFunc()
	child := &inode{
		id:        b.allocateIno(),
		kind:      Symlink,
		mode:      DefaultFileMode,
		nlink:     1,
		atime:     now,
		mtime:     now,
		ctime:     now,
		birthtime: now,
		target:    target,
	}
	b.inodes[child.id] = child
	parentDir.children[name] = child.id
	parentDir.childOrder = append(parentDir.childOrder, name)
	parentDir.mtime, parentDir.ctime = now, now

	return nil
}

// Link creates a new hard link at newPath pointing at the same inode as
// existingPath. Linking a directory fails with EPERM.
func (b *Backend) Link(existingPath, newPath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existingNode, err := b.resolve(existingPath, true)
	if err != nil {
		return err
	}
	if existingNode.kind == Directory {
		return vpath.New(vpath.EPERM, existingPath, "cannot link a directory")
	}

	clean, err := vpath.Clean(newPath)
	if err != nil {
		return err
	}
	parentDir, name, err := b.resolveParent(clean)
	if err != nil {
		return err
	}
	if _, exists := parentDir.children[name]; exists {
		return vpath.New(vpath.EEXIST, newPath, "already exists")
	}

	if existingNode.blobID != "" {
		b.blobs.AddRef(existingNode.blobID)
	}
	existingNode.nlink++
	now := nowFunc()
	existingNode.ctime = now

	parentDir.children[name] = existingNode.id
	parentDir.childOrder = append(parentDir.childOrder, name)
	parentDir.mtime, parentDir.ctime = now, now

	return nil
}
