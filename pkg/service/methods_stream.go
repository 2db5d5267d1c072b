package service

import (
	"encoding/base64"
)

// defaultChunkSize is used when a streamReadStart caller doesn't specify
// one.
const defaultChunkSize = 64 * 1024

// StreamReadStartParams names the file to stream and the chunk size to
// slice it into.
type StreamReadStartParams struct {
	Path      string `json:"path"`
	ChunkSize int64  `json:"chunkSize"`
}

func (s *Service) streamReadStart(p StreamReadStartParams) (interface{}, error) {
	data, err := s.backend.Read(p.Path)
	if err != nil {
		return nil, err
	}

	chunkSize := p.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	sess, err := s.sessions.create(streamRead, p.Path, int64(len(data)), chunkSize)
	if err != nil {
		return nil, err
	}
	sess.data = data

	return map[string]interface{}{
		"sessionId":   sess.id,
		"totalSize":   sess.totalSize,
		"totalChunks": sess.totalChunks,
		"chunkSize":   sess.chunkSize,
	}, nil
}

// StreamReadChunkParams identifies the session and the chunk to fetch.
type StreamReadChunkParams struct {
	SessionID string `json:"sessionId"`
	Index     int    `json:"index"`
}

func (s *Service) streamReadChunk(p StreamReadChunkParams) (interface{}, error) {
	sess, err := s.sessions.get(p.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.direction != streamRead {
		return nil, newError(InvalidSession, "session is not a read session")
	}
	if p.Index < 0 || p.Index >= sess.totalChunks {
		return nil, newError(SizeMismatch, "chunk index out of range")
	}

	offset := int64(p.Index) * sess.chunkSize
	end := offset + sess.chunkSize
	if end > sess.totalSize {
		end = sess.totalSize
	}
	chunk := sess.data[offset:end]

	return map[string]interface{}{
		"index":  p.Index,
		"offset": offset,
		"data":   base64.StdEncoding.EncodeToString(chunk),
		"isLast": p.Index == sess.totalChunks-1,
	}, nil
}

// StreamReadEndParams identifies the session to close.
type StreamReadEndParams struct {
	SessionID string `json:"sessionId"`
}

func (s *Service) streamReadEnd(p StreamReadEndParams) (interface{}, error) {
	if _, err := s.sessions.get(p.SessionID); err != nil {
		return nil, err
	}
	s.sessions.delete(p.SessionID)
	return map[string]interface{}{}, nil
}

// StreamWriteStartParams declares the destination and the total size the
// client intends to send, up front.
type StreamWriteStartParams struct {
	Path      string `json:"path"`
	TotalSize int64  `json:"totalSize"`
	ChunkSize int64  `json:"chunkSize"`
}

func (s *Service) streamWriteStart(p StreamWriteStartParams) (interface{}, error) {
	chunkSize := p.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	sess, err := s.sessions.create(streamWrite, p.Path, p.TotalSize, chunkSize)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"sessionId":       sess.id,
		"expectedChunks":  sess.totalChunks,
		"chunkSize":       sess.chunkSize,
	}, nil
}

// StreamWriteChunkParams carries one indexed, offset-tagged chunk of a
// streamed write.
type StreamWriteChunkParams struct {
	SessionID string `json:"sessionId"`
	Index     int    `json:"index"`
	Offset    int64  `json:"offset"`
	Data      string `json:"data"`
	IsLast    bool   `json:"isLast"`
}

func (s *Service) streamWriteChunk(p StreamWriteChunkParams) (interface{}, error) {
	sess, err := s.sessions.get(p.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.direction != streamWrite {
		return nil, newError(InvalidSession, "session is not a write session")
	}
	if p.Index < 0 || p.Index >= sess.totalChunks {
		return nil, newError(SizeMismatch, "chunk index out of range")
	}

	raw, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, newError(InvalidData, "invalid base64 chunk payload")
	}
	sess.written[p.Index] = raw

	return map[string]interface{}{"received": len(sess.written)}, nil
}

// StreamWriteEndParams identifies the session to finalize.
type StreamWriteEndParams struct {
	SessionID string `json:"sessionId"`
}

func (s *Service) streamWriteEnd(p StreamWriteEndParams) (interface{}, error) {
	sess, err := s.sessions.get(p.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.direction != streamWrite {
		return nil, newError(InvalidSession, "session is not a write session")
	}

	assembled := make([]byte, 0, sess.totalSize)
	for i := 0; i < sess.totalChunks; i++ {
		chunk, ok := sess.written[i]
		if !ok {
			return nil, newError(SizeMismatch, "missing chunk before streamWriteEnd")
		}
		assembled = append(assembled, chunk...)
	}
	if int64(len(assembled)) != sess.totalSize {
		return nil, newError(SizeMismatch, "assembled size does not match declared totalSize")
	}

	result, err := s.backend.Write(sess.path, assembled, 0)
	if err != nil {
		return nil, err
	}
	s.sessions.delete(p.SessionID)

	return map[string]interface{}{"bytesWritten": result.BytesWritten}, nil
}

// StreamAbortParams identifies the session to discard without finalizing.
type StreamAbortParams struct {
	SessionID string `json:"sessionId"`
}

func (s *Service) streamAbort(p StreamAbortParams) (interface{}, error) {
	if _, err := s.sessions.get(p.SessionID); err != nil {
		return nil, err
	}
	s.sessions.delete(p.SessionID)
	return map[string]interface{}{}, nil
}
