package vfs

import (
	"github.com/vfscore/vfscore/pkg/blob"
	"github.com/vfscore/vfscore/pkg/vpath"
)

// LookupBlob returns the blob id backing the regular file at p, without
// reading its content. It exists for the COW overlay, which needs to pin a
// base blob by reference before superseding it with a branch-local write.
func (b *Backend) LookupBlob(p string) (blob.ID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	node, err := b.resolve(p, true)
	if err != nil {
		return "", err
	}
	if node.kind == Directory {
		return "", vpath.New(vpath.EISDIR, p, "is a directory")
	}
	return node.blobID, nil
}

// AssignBlob points the regular file at p directly at the given blob id,
// creating the entry if it doesn't already exist, and releases the
// displaced blob's reference. It is the mechanism a COW overlay uses to
// fold a committed branch's dirty paths into this backend without
// re-hashing already-digested content.
func (b *Backend) AssignBlob(p string, id blob.ID, size int64) error {
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

	b.blobs.AddRef(id)

	childID, exists := parentDir.children[name]
	now := nowFunc()
	if exists {
		node := b.inodes[childID]
		if node.kind == Directory {
			b.blobs.ReleaseRef(id)
			return vpath.New(vpath.EISDIR, p, "is a directory")
		}
		oldID := node.blobID
		node.blobID = id
		node.size = size
		node.mtime, node.ctime = now, now
		if oldID != "" && oldID != id {
			b.blobs.ReleaseRef(oldID)
		}
		return nil
	}

	child := &inode{
		id:        b.allocateIno(),
		kind:      Regular,
		mode:      DefaultFileMode,
		nlink:     1,
		atime:     now,
		mtime:     now,
		ctime:     now,
		birthtime: now,
		blobID:    id,
		size:      size,
	}
	b.inodes[child.id] = child
	parentDir.children[name] = child.id
	parentDir.childOrder = append(parentDir.childOrder, name)
	parentDir.mtime, parentDir.ctime = now, now

	return nil
}
