// Package service implements a JSON/HTTP request-response adapter over
// pkg/vfs: a single-endpoint envelope protocol, the streaming session
// registry the stream methods need, and a registry of COW
// overlay branches the branch* methods operate on.
package service

import (
	"context"
	"encoding/json"

	"github.com/vfscore/vfscore/pkg/logging"
	"github.com/vfscore/vfscore/pkg/vfs"
)

// Service dispatches decoded Requests against a single backend instance.
type Service struct {
	backend  *vfs.Backend
	sessions *sessionRegistry
	branches *branchRegistry
	logger   *logging.Logger
}

// New constructs a Service over backend. logger may be nil.
func New(logger *logging.Logger, backend *vfs.Backend) *Service {
	return &Service{
		backend:  backend,
		sessions: newSessionRegistry(logger),
		branches: newBranchRegistry(logger),
		logger:   logger,
	}
}

// SweepSessions reclaims idle streaming sessions, returning how many were
// removed. It is meant to be called from the daemon's shared housekeeping
// ticker, not from a per-service goroutine.
func (s *Service) SweepSessions() int {
	return s.sessions.sweep()
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return newError(InvalidData, "malformed params: "+err.Error())
	}
	return nil
}

// Dispatch routes req to the method it names and returns the envelope to
// send back to the caller. Dispatch itself never returns a Go error —
// every failure is folded into the Response's Error field; an
// unrecognized method is reported the same way, with code
// METHOD_NOT_FOUND.
func (s *Service) Dispatch(ctx context.Context, req Request) Response {
	data, err := s.dispatch(ctx, req)
	if err != nil {
		return fail(err)
	}
	return ok(data)
}

func (s *Service) dispatch(ctx context.Context, req Request) (interface{}, error) {
	switch req.Method {
	case "ping":
		return map[string]interface{}{"pong": true}, nil

	case "batchRead":
		var p BatchReadParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.batchRead(p)
	case "batchWrite":
		var p BatchWriteParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.batchWrite(p)
	case "batchDelete":
		var p BatchDeleteParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.batchDelete(p)
	case "batchStat":
		var p BatchStatParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.batchStat(p)

	case "streamReadStart":
		var p StreamReadStartParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.streamReadStart(p)
	case "streamReadChunk":
		var p StreamReadChunkParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.streamReadChunk(p)
	case "streamReadEnd":
		var p StreamReadEndParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.streamReadEnd(p)
	case "streamWriteStart":
		var p StreamWriteStartParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.streamWriteStart(p)
	case "streamWriteChunk":
		var p StreamWriteChunkParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.streamWriteChunk(p)
	case "streamWriteEnd":
		var p StreamWriteEndParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.streamWriteEnd(p)
	case "streamAbort":
		var p StreamAbortParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.streamAbort(p)

	case "copyTree":
		var p CopyTreeParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.copyTree(ctx, p)
	case "moveTree":
		var p MoveTreeParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.moveTree(ctx, p)
	case "dirSize":
		var p DirSizeParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.dirSize(ctx, p)
	case "checksum":
		var p ChecksumParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.checksum(ctx, p)
	case "verify":
		var p VerifyParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.verify(ctx, p)

	case "branchCreate":
		return s.branchCreate()
	case "branchRead":
		var p BranchReadParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.branchRead(p)
	case "branchWrite":
		var p BranchWriteParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.branchWrite(p)
	case "branchUnlink":
		var p BranchUnlinkParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.branchUnlink(p)
	case "branchCommit":
		var p BranchIDParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.branchCommit(p)
	case "branchDiscard":
		var p BranchIDParams
		if err := decodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		return s.branchDiscard(p)

	default:
		return nil, newError(MethodNotFound, "unknown method "+req.Method)
	}
}
