package vfs

import "github.com/vfscore/vfscore/pkg/vpath"

// Handle is an open file handle: immutable access mode and append bit
// captured at open time, plus a mutable implicit position.
type Handle struct {
	id     uint64
	backend *Backend
	node   *inode
	flags  OpenFlags
	pos    int64
	closed bool
}

// ID returns the handle's descriptor-pool-assigned numeric identity.
func (h *Handle) ID() uint64 { return h.id }

func (h *Handle) checkOpen() error {
	if h.closed {
		return vpath.New(vpath.EBADF, "", "file handle is closed")
	}
	return nil
}

// Read reads up to length bytes starting at position (or, if position is
// nil, the handle's implicit position, which it then advances). It
// requires read capability and is short at EOF.
func (h *Handle) Read(length int, position *int64) ([]byte, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}
	if !h.flags.Read {
		return nil, vpath.New(vpath.EBADF, "", "handle not open for reading")
	}

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()

	data, err := h.backend.blobs.Get(h.node.blobID)
	if err != nil {
		return nil, err
	}

	readPos := h.pos
	if position != nil {
		readPos = *position
	}
	if readPos < 0 || readPos >= int64(len(data)) {
		if position == nil {
			h.pos = readPos
		}
		return nil, nil
	}

	end := readPos + int64(length)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	result := make([]byte, end-readPos)
	copy(result, data[readPos:end])

	if position == nil {
		h.pos = end
	}
	h.node.atime = nowFunc()

	return result, nil
}

// Write writes data at position (or, if nil, the handle's implicit
// position, which it then advances unless the handle is in append mode,
// in which case every write is forced to EOF regardless of position).
// Writes past EOF extend the file zero-filled.
func (h *Handle) Write(data []byte, position *int64) (int, error) {
	if err := h.checkOpen(); err != nil {
		return 0, err
	}
	if !h.flags.Write {
		return 0, vpath.New(vpath.EBADF, "", "handle not open for writing")
	}

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()

	current, err := h.backend.blobs.Get(h.node.blobID)
	if err != nil {
		return 0, err
	}

	writePos := h.pos
	if h.flags.Append {
		writePos = int64(len(current))
	} else if position != nil {
		writePos = *position
	}

	needed := writePos + int64(len(data))
	buffer := current
	if needed > int64(len(buffer)) {
		grown := make([]byte, needed)
		copy(grown, buffer)
		buffer = grown
	}
	copy(buffer[writePos:], data)

	newID, err := h.backend.blobs.Put(buffer, nil)
	if err != nil {
		return 0, err
	}
	oldID := h.node.blobID
	h.node.blobID = newID
	h.node.size = int64(len(buffer))
	now := nowFunc()
	h.node.mtime = now
	h.node.ctime = now
	if oldID != newID && oldID != "" {
		h.backend.blobs.ReleaseRef(oldID)
	}

	if !h.flags.Append && position == nil {
		h.pos = writePos + int64(len(data))
	} else if h.flags.Append {
		h.pos = int64(len(buffer))
	}

	return len(data), nil
}

// Truncate resizes the file to len bytes: data is lost on shrink and the
// tail is zero-filled on grow. The handle's position is clamped to <= len.
func (h *Handle) Truncate(length int64) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	if !h.flags.Write {
		return vpath.New(vpath.EBADF, "", "handle not open for writing")
	}
	if length < 0 {
		return vpath.New(vpath.EINVAL, "", "negative length")
	}

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()

	current, err := h.backend.blobs.Get(h.node.blobID)
	if err != nil {
		return err
	}

	buffer := make([]byte, length)
	copy(buffer, current)

	newID, err := h.backend.blobs.Put(buffer, nil)
	if err != nil {
		return err
	}
	oldID := h.node.blobID
	h.node.blobID = newID
	h.node.size = length
	now := nowFunc()
	h.node.mtime = now
	h.node.ctime = now
	if oldID != newID && oldID != "" {
		h.backend.blobs.ReleaseRef(oldID)
	}

	if h.pos > length {
		h.pos = length
	}

	return nil
}

// Sync and Datasync are permitted no-ops on this in-memory substrate; they
// still require an open handle.
func (h *Handle) Sync() error     { return h.checkOpen() }
func (h *Handle) Datasync() error { return h.checkOpen() }

// Close is idempotent; subsequent operations on a closed handle fail with
// EBADF.
func (h *Handle) Close() error {
	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.node.openHandles--
	delete(h.backend.handles, h.id)

	if h.node.isDeletable() && h.node.kind == Regular {
		if h.node.blobID != "" {
			h.backend.blobs.ReleaseRef(h.node.blobID)
		}
		delete(h.backend.inodes, h.node.id)
	}

	return nil
}
