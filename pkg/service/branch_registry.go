package service

import (
	"sync"

	"github.com/vfscore/vfscore/pkg/logging"
	"github.com/vfscore/vfscore/pkg/overlay"
)

// branchRegistry tracks live COW overlay branches by id, the same way
// sessionRegistry tracks streaming sessions.
type branchRegistry struct {
	mu       sync.Mutex
	branches map[string]*overlay.Branch
	logger   *logging.Logger
}

func newBranchRegistry(logger *logging.Logger) *branchRegistry {
	return &branchRegistry{
		branches: make(map[string]*overlay.Branch),
		logger:   logger,
	}
}

func (r *branchRegistry) add(br *overlay.Branch) {
	r.mu.Lock()
	r.branches[br.ID()] = br
	r.mu.Unlock()
}

func (r *branchRegistry) get(id string) (*overlay.Branch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	br, ok := r.branches[id]
	if !ok {
		return nil, newError(InvalidBranch, "unknown branch "+id)
	}
	return br, nil
}

func (r *branchRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.branches, id)
	r.mu.Unlock()
}
