package vfs

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vfscore/vfscore/pkg/vpath"
)

// removeTree implements recursive directory removal: the subtree's files
// are deleted with a bounded concurrent fan-out (order
// doesn't matter — each descendant is confined to the subtree being
// removed, and no caller outside this call can observe it mid-removal
// because the backend mutex and the subtree's path lock are held for the
// duration), then
// its directories are deleted deepest-first. The first file-deletion
// failure aborts the whole operation.
func (b *Backend) removeTree(path string) error {
	b.paths.lock(path)
	defer b.paths.unlock(path)

	b.mu.Lock()
	defer b.mu.Unlock()

	parentDir, name, err := b.resolveParent(path)
	if err != nil {
		return err
	}
	rootID, ok := parentDir.children[name]
	if !ok {
		return vpath.New(vpath.ENOENT, path, "no such file or directory")
	}
	root := b.inodes[rootID]
	if root.kind != Directory {
		return vpath.New(vpath.ENOTDIR, path, "not a directory")
	}

	type descendant struct {
		parent *inode
		name   string
	}
	var files []descendant
	var dirs []descendant

	var walk func(dirNode *inode)
	walk = func(dirNode *inode) {
		for _, childName := range dirNode.childOrder {
			child := b.inodes[dirNode.children[childName]]
			d := descendant{parent: dirNode, name: childName}
			if child.kind == Directory {
				dirs = append(dirs, d)
				walk(child)
			} else {
				files = append(files, d)
			}
		}
	}
	walk(root)

	// The backend's maps aren't safe for unsynchronized concurrent
	// mutation, so fan-out is bounded by a local mutex rather than by
	// granting each goroutine free rein over shared state.
	var mutationLock sync.Mutex
	g := new(errgroup.Group)
	for _, d := range files {
		d := d
		g.Go(func() error {
			mutationLock.Lock()
			b.unlinkChild(d.parent, d.name)
			mutationLock.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		b.unlinkChild(d.parent, d.name)
	}

	b.unlinkChild(parentDir, name)
	return nil
}
