package vfs

import (
	"time"

	"github.com/vfscore/vfscore/pkg/vpath"
)

// StatAttr returns the attributes of the inode that p resolves to,
// following symlinks.
func (b *Backend) StatAttr(p string) (Attr, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	node, err := b.resolve(p, true)
	if err != nil {
		return Attr{}, err
	}
	return node.attr(), nil
}

// LstatAttr returns the attributes of the link itself, not its target.
func (b *Backend) LstatAttr(p string) (Attr, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	node, err := b.resolve(p, false)
	if err != nil {
		return Attr{}, err
	}
	return node.attr(), nil
}

// Access checks whether p exists, following symlinks. It takes no access
// mode and does not check permission bits. A full credential model is
// out of scope; this module tracks uid/gid/mode bookkeeping only, not true
// POSIX ACLs.
func (b *Backend) Access(p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.resolve(p, true)
	return err
}

// Chmod sets the permission bits of the inode p resolves to.
func (b *Backend) Chmod(p string, mode Mode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	node, err := b.resolve(p, true)
	if err != nil {
		return err
	}
	node.mode = (node.mode &^ ModePermissionsMask) | (mode & ModePermissionsMask)
	node.ctime = nowFunc()
	return nil
}

// Chown sets the owner and group of the inode p resolves to. A value of -1
// for either leaves that attribute unchanged.
func (b *Backend) Chown(p string, uid, gid int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	node, err := b.resolve(p, true)
	if err != nil {
		return err
	}
	if uid >= 0 {
		node.uid = uid
	}
	if gid >= 0 {
		node.gid = gid
	}
	node.ctime = nowFunc()
	return nil
}

// Utimes sets the access and modification times of the inode p resolves
// to.
func (b *Backend) Utimes(p string, atime, mtime time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	node, err := b.resolve(p, true)
	if err != nil {
		return err
	}
	node.atime = atime
	node.mtime = mtime
	node.ctime = nowFunc()
	return nil
}

// Readlink returns the target of the symlink at p. Calling it on a
// non-symlink fails with EINVAL.
func (b *Backend) Readlink(p string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	node, err := b.resolve(p, false)
	if err != nil {
		return "", err
	}
	if node.kind != Symlink {
		return "", vpath.New(vpath.EINVAL, p, "not a symbolic link")
	}
	return node.target, nil
}

// Realpath performs symlink-expanding canonical resolution, failing with
// ELOOP past the 40-hop bound.
func (b *Backend) Realpath(p string) (string, error) {
	return vpath.Resolve(b, p)
}
