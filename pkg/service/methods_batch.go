package service

import (
	"encoding/base64"

	"github.com/vfscore/vfscore/pkg/vfs"
)

// BatchResult is one item's outcome within a batch response: exactly one
// of Data or Error is populated.
type BatchResult struct {
	Path  string      `json:"path"`
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

// BatchResponse is the {total, succeeded, failed, results[]} shape common
// to every batch* method.
type BatchResponse struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Results   []BatchResult `json:"results"`
}

// runBatch applies fn to every item, honoring continueOnError: when false,
// the first failure aborts the whole batch and is surfaced as the call's
// own error rather than folded into the response.
func runBatch(paths []string, continueOnError bool, fn func(string) (interface{}, error)) (*BatchResponse, error) {
	resp := &BatchResponse{Total: len(paths), Results: make([]BatchResult, 0, len(paths))}
	for _, p := range paths {
		data, err := fn(p)
		if err != nil {
			if !continueOnError {
				return nil, err
			}
			resp.Failed++
			resp.Results = append(resp.Results, BatchResult{Path: p, Error: errorFrom(err)})
			continue
		}
		resp.Succeeded++
		resp.Results = append(resp.Results, BatchResult{Path: p, Data: data})
	}
	return resp, nil
}

// BatchReadParams lists the paths to read, optionally tolerating per-item
// failures.
type BatchReadParams struct {
	Paths           []string `json:"paths"`
	ContinueOnError bool     `json:"continueOnError"`
}

func (s *Service) batchRead(p BatchReadParams) (interface{}, error) {
	return runBatch(p.Paths, p.ContinueOnError, func(path string) (interface{}, error) {
		data, err := s.backend.Read(path)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"data": base64.StdEncoding.EncodeToString(data),
		}, nil
	})
}

// BatchWriteItem is one file to write within a batchWrite call.
type BatchWriteItem struct {
	Path string   `json:"path"`
	Data string   `json:"data"` // base64
	Mode vfs.Mode `json:"mode"`
}

// BatchWriteParams lists the files to write, optionally tolerating
// per-item failures.
type BatchWriteParams struct {
	Items           []BatchWriteItem `json:"items"`
	ContinueOnError bool             `json:"continueOnError"`
}

func (s *Service) batchWrite(p BatchWriteParams) (interface{}, error) {
	byPath := make(map[string]BatchWriteItem, len(p.Items))
	paths := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		byPath[item.Path] = item
		paths = append(paths, item.Path)
	}
	return runBatch(paths, p.ContinueOnError, func(path string) (interface{}, error) {
		item := byPath[path]
		raw, err := base64.StdEncoding.DecodeString(item.Data)
		if err != nil {
			return nil, newError(InvalidData, "invalid base64 payload for "+path)
		}
		result, err := s.backend.Write(path, raw, item.Mode)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"bytesWritten": result.BytesWritten}, nil
	})
}

// BatchDeleteParams lists the paths to remove, optionally tolerating
// per-item failures.
type BatchDeleteParams struct {
	Paths           []string `json:"paths"`
	Recursive       bool     `json:"recursive"`
	ContinueOnError bool     `json:"continueOnError"`
}

func (s *Service) batchDelete(p BatchDeleteParams) (interface{}, error) {
	return runBatch(p.Paths, p.ContinueOnError, func(path string) (interface{}, error) {
		attr, err := s.backend.LstatAttr(path)
		if err != nil {
			return nil, err
		}
		if attr.Kind == vfs.Directory {
			if err := s.backend.Rmdir(path, p.Recursive); err != nil {
				return nil, err
			}
		} else if err := s.backend.Unlink(path); err != nil {
			return nil, err
		}
		return map[string]interface{}{"deleted": true}, nil
	})
}

// BatchStatParams lists the paths to stat, optionally tolerating per-item
// failures.
type BatchStatParams struct {
	Paths           []string `json:"paths"`
	ContinueOnError bool     `json:"continueOnError"`
}

func (s *Service) batchStat(p BatchStatParams) (interface{}, error) {
	return runBatch(p.Paths, p.ContinueOnError, func(path string) (interface{}, error) {
		attr, err := s.backend.LstatAttr(path)
		if err != nil {
			return nil, err
		}
		return attrToJSON(attr), nil
	})
}

func attrToJSON(attr vfs.Attr) map[string]interface{} {
	return map[string]interface{}{
		"kind":  attr.Kind,
		"mode":  attr.Mode,
		"uid":   attr.UID,
		"gid":   attr.GID,
		"nlink": attr.NLink,
		"size":  attr.Size,
		"atime": attr.Atime,
		"mtime": attr.Mtime,
		"ctime": attr.Ctime,
	}
}
