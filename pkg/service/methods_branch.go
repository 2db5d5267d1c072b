package service

import (
	"encoding/base64"
	"time"

	"github.com/vfscore/vfscore/pkg/overlay"
)

// BranchCreateResult carries the newly allocated branch's identifier.
type BranchCreateResult struct {
	BranchID string `json:"branchId"`
}

func (s *Service) branchCreate() (interface{}, error) {
	br, err := overlay.New(s.logger, s.backend, s.backend.Blobs(), time.Now().Unix())
	if err != nil {
		return nil, newError(InvalidData, "failed to allocate branch: "+err.Error())
	}
	s.branches.add(br)
	return BranchCreateResult{BranchID: br.ID()}, nil
}

// BranchReadParams names the branch and path to read through it.
type BranchReadParams struct {
	BranchID string `json:"branchId"`
	Path     string `json:"path"`
}

func (s *Service) branchRead(p BranchReadParams) (interface{}, error) {
	br, err := s.branches.get(p.BranchID)
	if err != nil {
		return nil, err
	}
	data, err := br.Read(p.Path)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"data": base64.StdEncoding.EncodeToString(data)}, nil
}

// BranchWriteParams names the branch, path, and base64 content to write
// through it.
type BranchWriteParams struct {
	BranchID string `json:"branchId"`
	Path     string `json:"path"`
	Data     string `json:"data"` // base64
	Append   bool   `json:"append"`
}

func (s *Service) branchWrite(p BranchWriteParams) (interface{}, error) {
	br, err := s.branches.get(p.BranchID)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, newError(InvalidData, "invalid base64 payload for "+p.Path)
	}
	if p.Append {
		err = br.Append(p.Path, raw)
	} else {
		err = br.Write(p.Path, raw)
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"bytesWritten": len(raw)}, nil
}

// BranchUnlinkParams names the branch and path to remove within it.
type BranchUnlinkParams struct {
	BranchID string `json:"branchId"`
	Path     string `json:"path"`
}

func (s *Service) branchUnlink(p BranchUnlinkParams) (interface{}, error) {
	br, err := s.branches.get(p.BranchID)
	if err != nil {
		return nil, err
	}
	if err := br.Unlink(p.Path); err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": true}, nil
}

// BranchIDParams names a branch for a lifecycle operation (commit/discard).
type BranchIDParams struct {
	BranchID string `json:"branchId"`
}

func (s *Service) branchCommit(p BranchIDParams) (interface{}, error) {
	br, err := s.branches.get(p.BranchID)
	if err != nil {
		return nil, err
	}
	if err := br.Commit(); err != nil {
		return nil, err
	}
	s.branches.remove(p.BranchID)
	return map[string]interface{}{"committed": true}, nil
}

func (s *Service) branchDiscard(p BranchIDParams) (interface{}, error) {
	br, err := s.branches.get(p.BranchID)
	if err != nil {
		return nil, err
	}
	if err := br.Discard(); err != nil {
		return nil, err
	}
	s.branches.remove(p.BranchID)
	return map[string]interface{}{"discarded": true}, nil
}
