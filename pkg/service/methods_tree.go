package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/vfscore/vfscore/pkg/traverse"
	"github.com/vfscore/vfscore/pkg/vfs"
	"github.com/vfscore/vfscore/pkg/vpath"
)

// CopyTreeParams names the source and destination of a recursive copy.
type CopyTreeParams struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// descendants lists every path under root (root included) in an order
// where a directory always precedes its own children, suitable for
// replaying as a sequence of mkdir/write operations at a new root.
func (s *Service) descendants(ctx context.Context, root string) ([]string, error) {
	return traverse.Walk(ctx, s.backend, traverse.Criteria{
		RootPath: root,
		MinDepth: -1,
		MaxDepth: -1,
	})
}

func rebase(path, oldRoot, newRoot string) string {
	if path == oldRoot {
		return newRoot
	}
	suffix := strings.TrimPrefix(path, oldRoot)
	return vpath.Join(newRoot, strings.TrimPrefix(suffix, "/"))
}

func (s *Service) copyTree(ctx context.Context, p CopyTreeParams) (interface{}, error) {
	paths, err := s.descendants(ctx, p.Source)
	if err != nil {
		return nil, err
	}

	copied := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil, newError(Cancelled, "copyTree cancelled")
		}
		dst := rebase(path, p.Source, p.Destination)
		attr, err := s.backend.LstatAttr(path)
		if err != nil {
			return nil, err
		}
		switch attr.Kind {
		case vfs.Directory:
			if err := s.backend.Mkdir(dst, vfs.MkdirOptions{Recursive: true, Mode: attr.Mode}); err != nil {
				return nil, err
			}
		case vfs.Symlink:
			if err := s.backend.Symlink(attr.Target, dst); err != nil {
				return nil, err
			}
		default:
			if err := s.backend.CopyFile(path, dst); err != nil {
				return nil, err
			}
		}
		copied++
	}

	return map[string]interface{}{"copied": copied}, nil
}

// MoveTreeParams names the source and destination of a recursive move.
type MoveTreeParams struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

func (s *Service) moveTree(ctx context.Context, p MoveTreeParams) (interface{}, error) {
	if err := s.backend.Rename(p.Source, p.Destination); err != nil {
		return nil, err
	}
	return map[string]interface{}{"moved": true}, nil
}

// DirSizeParams names the directory whose recursive size should be
// measured.
type DirSizeParams struct {
	Path string `json:"path"`
}

func (s *Service) dirSize(ctx context.Context, p DirSizeParams) (interface{}, error) {
	paths, err := s.descendants(ctx, p.Path)
	if err != nil {
		return nil, err
	}

	var total int64
	fileCount := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil, newError(Cancelled, "dirSize cancelled")
		}
		attr, err := s.backend.LstatAttr(path)
		if err != nil {
			return nil, err
		}
		if attr.Kind == vfs.Regular {
			total += attr.Size
			fileCount++
		}
	}

	return map[string]interface{}{
		"bytes":      total,
		"files":      fileCount,
		"humanBytes": humanize.Bytes(uint64(total)),
	}, nil
}

// ChecksumParams names the file whose content digest should be computed.
type ChecksumParams struct {
	Path string `json:"path"`
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Service) checksum(ctx context.Context, p ChecksumParams) (interface{}, error) {
	data, err := s.backend.Read(p.Path)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"sha256": sha256Hex(data)}, nil
}

// VerifyParams pairs a path with the digest the caller expects it to
// produce. Mismatches are reported, never auto-healed.
type VerifyParams struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
}

func (s *Service) verify(ctx context.Context, p VerifyParams) (interface{}, error) {
	data, err := s.backend.Read(p.Path)
	if err != nil {
		return nil, err
	}
	actual := sha256Hex(data)
	return map[string]interface{}{
		"match":    actual == p.Expected,
		"expected": p.Expected,
		"actual":   actual,
	}, nil
}
