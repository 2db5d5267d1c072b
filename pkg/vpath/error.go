// Package vpath implements path canonicalization and symlink-aware
// resolution for the virtual filesystem, along with the closed taxonomy of
// POSIX-style errors that every other package in this module reports.
package vpath

import (
	"errors"
	"fmt"
)

// Kind is a POSIX-style error classification. The set is closed: every
// failure that the filesystem surfaces carries one of these kinds.
type Kind int

const (
	_ Kind = iota
	ENOENT
	EEXIST
	EISDIR
	ENOTDIR
	ENOTEMPTY
	EACCES
	EPERM
	EBADF
	EINVAL
	ELOOP
	ENAMETOOLONG
	ENOSPC
	EROFS
	EBUSY
	EMFILE
	ENFILE
	EXDEV
)

// String renders the kind using its conventional POSIX macro name.
func (k Kind) String() string {
	switch k {
	case ENOENT:
		return "ENOENT"
	case EEXIST:
		return "EEXIST"
	case EISDIR:
		return "EISDIR"
	case ENOTDIR:
		return "ENOTDIR"
	case ENOTEMPTY:
		return "ENOTEMPTY"
	case EACCES:
		return "EACCES"
	case EPERM:
		return "EPERM"
	case EBADF:
		return "EBADF"
	case EINVAL:
		return "EINVAL"
	case ELOOP:
		return "ELOOP"
	case ENAMETOOLONG:
		return "ENAMETOOLONG"
	case ENOSPC:
		return "ENOSPC"
	case EROFS:
		return "EROFS"
	case EBUSY:
		return "EBUSY"
	case EMFILE:
		return "EMFILE"
	case ENFILE:
		return "ENFILE"
	case EXDEV:
		return "EXDEV"
	default:
		return "EUNKNOWN"
	}
}

// Error is the error type returned by every filesystem operation in this
// module. It carries a stable kind, the offending path (when meaningful),
// and a message that may change between versions.
type Error struct {
	Kind    Kind
	Path    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New constructs an Error with the specified kind, path, and message.
func New(kind Kind, path, message string) *Error {
	return &Error{Kind: kind, Path: path, Message: message}
}

// Is allows errors.Is(err, vpath.New(kind, "", "")) to match solely on kind.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error, returning
// ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
