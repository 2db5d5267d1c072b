// Package vfs implements the POSIX-semantic in-memory filesystem backend:
// inodes, file handles, flag parsing, and the filesystem operation surface,
// layered over pkg/blob for content storage and pkg/vpath for path
// canonicalization and the error taxonomy.
package vfs

import (
	"time"

	"github.com/vfscore/vfscore/pkg/blob"
)

// Kind identifies the type of filesystem object an inode represents.
type Kind int

const (
	Regular Kind = iota
	Directory
	Symlink
	BlockDevice
	CharDevice
	FIFO
	Socket
)

// Mode bits, following the standard POSIX permission and special-bit layout.
type Mode uint32

const (
	ModeSetUID Mode = 1 << 11
	ModeSetGID Mode = 1 << 10
	ModeSticky Mode = 1 << 9

	ModeOwnerRead  Mode = 1 << 8
	ModeOwnerWrite Mode = 1 << 7
	ModeOwnerExec  Mode = 1 << 6
	ModeGroupRead  Mode = 1 << 5
	ModeGroupWrite Mode = 1 << 4
	ModeGroupExec  Mode = 1 << 3
	ModeOtherRead  Mode = 1 << 2
	ModeOtherWrite Mode = 1 << 1
	ModeOtherExec  Mode = 1 << 0

	ModePermissionsMask Mode = 0o7777

	DefaultFileMode Mode = ModeOwnerRead | ModeOwnerWrite | ModeGroupRead | ModeOtherRead
	DefaultDirMode  Mode = DefaultFileMode | ModeOwnerExec | ModeGroupExec | ModeOtherExec
)

// ino is an inode's process-unique numeric identity.
type ino uint64

// InodeID is the exported form of an inode's identity, stable for the
// lifetime of the backend and safe to compare across Attr snapshots. Two
// paths with equal InodeID name the same inode, which is what lets callers
// (notably pkg/traverse) detect a substrate cycle without depending on
// inode internals.
type InodeID uint64

// inode is the attribute record of one filesystem object, independent of
// the names by which it is reached. Inodes are never exposed directly by
// the package; callers see the Attr snapshot returned by Stat/Lstat.
type inode struct {
	id   ino
	kind Kind
	mode Mode
	uid  int
	gid  int

	nlink int

	atime, mtime, ctime, birthtime time.Time

	// blobID is populated for Regular inodes.
	blobID blob.ID
	// size mirrors the size of the current blob (or the logical size after
	// a truncate, before the next blob is committed) so stat doesn't need
	// to consult the blob store on every call.
	size int64

	// target is populated for Symlink inodes.
	target string

	// children is populated for Directory inodes: ordered name -> inode
	// id, plus a slice preserving insertion order for deterministic
	// readdir output.
	children   map[string]ino
	childOrder []string

	// openHandles counts live open file handles against this inode, which
	// contributes to the effective nlink (see effectiveNlink).
	openHandles int
}

// Attr is the attribute snapshot returned to callers by Stat/Lstat.
type Attr struct {
	ID     InodeID
	Kind   Kind
	Mode   Mode
	UID    int
	GID    int
	NLink  int
	Size   int64
	Atime  time.Time
	Mtime  time.Time
	Ctime  time.Time
	Birth  time.Time
	Target string // populated for Symlink
}

func (n *inode) attr() Attr {
	return Attr{
		ID:     InodeID(n.id),
		Kind:   n.kind,
		Mode:   n.mode,
		UID:    n.uid,
		GID:    n.gid,
		NLink:  n.effectiveNlink(),
		Size:   n.size,
		Atime:  n.atime,
		Mtime:  n.mtime,
		Ctime:  n.ctime,
		Birth:  n.birthtime,
		Target: n.target,
	}
}

// effectiveNlink computes nlink as the number of directory entries
// referring to the inode, plus 1 iff any open handle holds the inode.
// n.nlink tracks directory-entry references directly; the open-handle
// contribution is added here rather than stored, so the
// lookup-count-style bookkeeping lives in one place (handle open/close).
func (n *inode) effectiveNlink() int {
	if n.openHandles > 0 {
		return n.nlink + 1
	}
	return n.nlink
}

// isDeletable reports whether the inode has no remaining directory
// references and no open handles, meaning its storage can be reclaimed.
func (n *inode) isDeletable() bool {
	return n.nlink == 0 && n.openHandles == 0
}
