package vfs

import (
	"testing"
	"time"

	"github.com/vfscore/vfscore/pkg/blob"
	"github.com/vfscore/vfscore/pkg/vpath"
)

func newTestBackend() *Backend {
	return New(nil, blob.New(nil))
}

func wantKind(t *testing.T, err error, kind vpath.Kind) {
	t.Helper()
	got, ok := vpath.KindOf(err)
	if !ok {
		t.Fatalf("expected a vpath.Error, got %v", err)
	}
	if got != kind {
		t.Fatalf("expected kind %v, got %v", kind, got)
	}
}

func TestMkdirAndStat(t *testing.T) {
	b := newTestBackend()

	if err := b.Mkdir("/a", MkdirOptions{}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	attr, err := b.StatAttr("/a")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if attr.Kind != Directory {
		t.Fatalf("expected directory, got %v", attr.Kind)
	}

	if err := b.Mkdir("/a", MkdirOptions{}); err == nil {
		t.Fatal("expected EEXIST on non-recursive re-mkdir")
	} else {
		wantKind(t, err, vpath.EEXIST)
	}

	if err := b.Mkdir("/missing/child", MkdirOptions{}); err == nil {
		t.Fatal("expected ENOENT for missing parent")
	} else {
		wantKind(t, err, vpath.ENOENT)
	}
}

func TestMkdirRecursiveIdempotent(t *testing.T) {
	b := newTestBackend()

	if err := b.Mkdir("/a/b/c", MkdirOptions{Recursive: true}); err != nil {
		t.Fatalf("mkdir -p: %v", err)
	}
	if err := b.Mkdir("/a/b/c", MkdirOptions{Recursive: true}); err != nil {
		t.Fatalf("mkdir -p should be idempotent: %v", err)
	}
	if _, err := b.StatAttr("/a/b/c"); err != nil {
		t.Fatalf("expected /a/b/c to exist: %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	b := newTestBackend()

	if _, err := b.Write("/file.txt", []byte("hello world"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := b.Read("/file.txt")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("got %q", data)
	}
}

func TestAppendCreatesAndAppends(t *testing.T) {
	b := newTestBackend()

	if err := b.Append("/log.txt", []byte("first\n")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := b.Append("/log.txt", []byte("second\n")); err != nil {
		t.Fatalf("append: %v", err)
	}
	data, err := b.Read("/log.txt")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "first\nsecond\n" {
		t.Fatalf("got %q", data)
	}
}

func TestOpenAppendFlagForcesEOFRegardlessOfPosition(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/f", []byte("0123456789"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}

	flags, err := ParseTextFlags("a")
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	h, err := b.Open("/f", flags, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()

	zero := int64(0)
	if _, err := h.Write([]byte("XYZ"), &zero); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := b.Read("/f")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "0123456789XYZ" {
		t.Fatalf("append did not force EOF, got %q", data)
	}
}

func TestTruncateGrowZeroFillsAndShrinkLosesData(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/f", []byte("hello"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}

	flags, _ := ParseTextFlags("r+")
	h, err := b.Open("/f", flags, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := h.Truncate(8); err != nil {
		t.Fatalf("truncate grow: %v", err)
	}
	data, err := b.Read("/f")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) != 8 || string(data[:5]) != "hello" || data[5] != 0 || data[6] != 0 || data[7] != 0 {
		t.Fatalf("expected zero-filled grow, got %q", data)
	}

	if err := h.Truncate(2); err != nil {
		t.Fatalf("truncate shrink: %v", err)
	}
	data, err = b.Read("/f")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "he" {
		t.Fatalf("expected shrink to 2 bytes, got %q", data)
	}
	h.Close()
}

func TestUnlinkRemovesEntry(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/f", []byte("x"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Unlink("/f"); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if _, err := b.StatAttr("/f"); err == nil {
		t.Fatal("expected ENOENT after unlink")
	} else {
		wantKind(t, err, vpath.ENOENT)
	}
}

func TestUnlinkOnDirectoryFailsWithEISDIR(t *testing.T) {
	b := newTestBackend()
	if err := b.Mkdir("/d", MkdirOptions{}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := b.Unlink("/d"); err == nil {
		t.Fatal("expected EISDIR")
	} else {
		wantKind(t, err, vpath.EISDIR)
	}
}

func TestRmdirNonEmptyFailsWithoutRecursive(t *testing.T) {
	b := newTestBackend()
	if err := b.Mkdir("/d", MkdirOptions{}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := b.Write("/d/f", []byte("x"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Rmdir("/d", false); err == nil {
		t.Fatal("expected ENOTEMPTY")
	} else {
		wantKind(t, err, vpath.ENOTEMPTY)
	}
}

func TestRmdirRecursiveRemovesSubtree(t *testing.T) {
	b := newTestBackend()
	if err := b.Mkdir("/d/sub", MkdirOptions{Recursive: true}); err != nil {
		t.Fatalf("mkdir -p: %v", err)
	}
	if _, err := b.Write("/d/a.txt", []byte("1"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := b.Write("/d/sub/b.txt", []byte("2"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := b.Rmdir("/d", true); err != nil {
		t.Fatalf("recursive rmdir: %v", err)
	}
	if _, err := b.StatAttr("/d"); err == nil {
		t.Fatal("expected /d to be gone")
	} else {
		wantKind(t, err, vpath.ENOENT)
	}
}

func TestRmdirRootFailsWithEPERM(t *testing.T) {
	b := newTestBackend()
	if err := b.Rmdir("/", true); err == nil {
		t.Fatal("expected EPERM removing root")
	} else {
		wantKind(t, err, vpath.EPERM)
	}
}

func TestReaddirStableOrder(t *testing.T) {
	b := newTestBackend()
	for _, name := range []string{"/c", "/a", "/b"} {
		if _, err := b.Write(name, []byte("x"), 0); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	entries, err := b.Readdir("/")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"a", "b", "c"} {
		if entries[i].Name != want {
			t.Fatalf("expected sorted order, got %v", entries)
		}
	}
}

func TestRenameMovesFile(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/old", []byte("payload"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Rename("/old", "/new"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := b.StatAttr("/old"); err == nil {
		t.Fatal("expected /old to be gone")
	}
	data, err := b.Read("/new")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("got %q", data)
	}
}

func TestRenameOverwritesDestination(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/old", []byte("new-content"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := b.Write("/new", []byte("stale-content"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Rename("/old", "/new"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	data, err := b.Read("/new")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "new-content" {
		t.Fatalf("got %q", data)
	}
}

func TestRenameOntoNonEmptyDirectoryFailsWithENOTEMPTY(t *testing.T) {
	b := newTestBackend()
	if err := b.Mkdir("/old", MkdirOptions{}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := b.Mkdir("/new", MkdirOptions{}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := b.Mkdir("/new/child", MkdirOptions{}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err := b.Rename("/old", "/new")
	wantKind(t, err, vpath.ENOTEMPTY)

	if _, err := b.StatAttr("/new/child"); err != nil {
		t.Fatalf("expected /new/child to survive the failed rename, got %v", err)
	}
	if _, err := b.StatAttr("/old"); err != nil {
		t.Fatalf("expected /old to survive the failed rename, got %v", err)
	}
}

func TestRenameOntoEmptyDirectorySucceeds(t *testing.T) {
	b := newTestBackend()
	if err := b.Mkdir("/old", MkdirOptions{}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := b.Mkdir("/new", MkdirOptions{}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := b.Rename("/old", "/new"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := b.StatAttr("/old"); err == nil {
		t.Fatal("expected /old to be gone")
	}
	if _, err := b.StatAttr("/new"); err != nil {
		t.Fatalf("expected /new to exist: %v", err)
	}
}

func TestSymlinkReadlinkAndRealpath(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/target", []byte("data"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Symlink("/target", "/link"); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	target, err := b.Readlink("/link")
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != "/target" {
		t.Fatalf("got %q", target)
	}

	data, err := b.Read("/link")
	if err != nil {
		t.Fatalf("read through symlink: %v", err)
	}
	if string(data) != "data" {
		t.Fatalf("got %q", data)
	}

	real, err := b.Realpath("/link")
	if err != nil {
		t.Fatalf("realpath: %v", err)
	}
	if real != "/target" {
		t.Fatalf("got %q", real)
	}
}

func TestWriteThroughSymlinkWritesTarget(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/target", []byte("original"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Symlink("/target", "/link"); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if _, err := b.Write("/link", []byte("replaced"), 0); err != nil {
		t.Fatalf("write through symlink: %v", err)
	}

	data, err := b.Read("/target")
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(data) != "replaced" {
		t.Fatalf("got %q", data)
	}

	linkTarget, err := b.Readlink("/link")
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if linkTarget != "/target" {
		t.Fatalf("link was corrupted into a regular file, target now %q", linkTarget)
	}
}

func TestAppendThroughSymlinkAppendsToTarget(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/target", []byte("foo"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Symlink("/target", "/link"); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := b.Append("/link", []byte("bar")); err != nil {
		t.Fatalf("append through symlink: %v", err)
	}

	data, err := b.Read("/target")
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(data) != "foobar" {
		t.Fatalf("got %q", data)
	}
	if _, err := b.Readlink("/link"); err != nil {
		t.Fatalf("link was corrupted: %v", err)
	}
}

func TestOpenThroughSymlinkTruncatesTarget(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/target", []byte("original"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Symlink("/target", "/link"); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	handle, err := b.Open("/link", OpenFlags{Write: true, Truncate: true}, 0)
	if err != nil {
		t.Fatalf("open through symlink: %v", err)
	}
	handle.Close()

	data, err := b.Read("/target")
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected truncated target, got %q", data)
	}
	if _, err := b.Readlink("/link"); err != nil {
		t.Fatalf("link was corrupted: %v", err)
	}
}

func TestRealpathDetectsSymlinkLoop(t *testing.T) {
	b := newTestBackend()
	if err := b.Symlink("/y", "/x"); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := b.Symlink("/x", "/y"); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if _, err := b.Realpath("/x"); err == nil {
		t.Fatal("expected ELOOP")
	} else {
		wantKind(t, err, vpath.ELOOP)
	}
}

func TestLinkCreatesHardLinkAndSharesContent(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/a", []byte("shared"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Link("/a", "/b"); err != nil {
		t.Fatalf("link: %v", err)
	}

	attrA, err := b.StatAttr("/a")
	if err != nil {
		t.Fatalf("stat a: %v", err)
	}
	if attrA.NLink != 2 {
		t.Fatalf("expected nlink 2, got %d", attrA.NLink)
	}

	if err := b.Unlink("/a"); err != nil {
		t.Fatalf("unlink a: %v", err)
	}
	data, err := b.Read("/b")
	if err != nil {
		t.Fatalf("read b after unlinking a: %v", err)
	}
	if string(data) != "shared" {
		t.Fatalf("got %q", data)
	}
}

func TestLinkOnDirectoryFailsWithEPERM(t *testing.T) {
	b := newTestBackend()
	if err := b.Mkdir("/d", MkdirOptions{}); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := b.Link("/d", "/d2"); err == nil {
		t.Fatal("expected EPERM")
	} else {
		wantKind(t, err, vpath.EPERM)
	}
}

func TestOpenExclusiveFailsIfExists(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/f", []byte("x"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	flags, err := ParseTextFlags("wx")
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := b.Open("/f", flags, 0); err == nil {
		t.Fatal("expected EEXIST")
	} else {
		wantKind(t, err, vpath.EEXIST)
	}
}

func TestOpenEMFILEWhenHandlePoolExhausted(t *testing.T) {
	b := newTestBackend().WithMaxHandles(1)
	if _, err := b.Write("/f", []byte("x"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	flags, _ := ParseTextFlags("r")

	h1, err := b.Open("/f", flags, 0)
	if err != nil {
		t.Fatalf("open 1: %v", err)
	}
	defer h1.Close()

	if _, err := b.Open("/f", flags, 0); err == nil {
		t.Fatal("expected EMFILE")
	} else {
		wantKind(t, err, vpath.EMFILE)
	}
}

func TestCloseIsIdempotentAndBadfAfterClose(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/f", []byte("x"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	flags, _ := ParseTextFlags("r")
	h, err := b.Open("/f", flags, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
	if _, err := h.Read(1, nil); err == nil {
		t.Fatal("expected EBADF after close")
	} else {
		wantKind(t, err, vpath.EBADF)
	}
}

func TestCopyFileDuplicatesContent(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/src", []byte("abc"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.CopyFile("/src", "/dst"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	data, err := b.Read("/dst")
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	if string(data) != "abc" {
		t.Fatalf("got %q", data)
	}
	// Mutating the source afterward must not affect the copy.
	if _, err := b.Write("/src", []byte("xyz"), 0); err != nil {
		t.Fatalf("rewrite src: %v", err)
	}
	data, err = b.Read("/dst")
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	if string(data) != "abc" {
		t.Fatalf("copy should be independent of source, got %q", data)
	}
}

func TestChmodChownUtimes(t *testing.T) {
	b := newTestBackend()
	if _, err := b.Write("/f", []byte("x"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := b.Chmod("/f", ModeOwnerRead|ModeOwnerWrite); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if err := b.Chown("/f", 42, 7); err != nil {
		t.Fatalf("chown: %v", err)
	}
	attr, err := b.StatAttr("/f")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if attr.Mode != ModeOwnerRead|ModeOwnerWrite {
		t.Fatalf("got mode %o", attr.Mode)
	}
	if attr.UID != 42 || attr.GID != 7 {
		t.Fatalf("got uid=%d gid=%d", attr.UID, attr.GID)
	}

	stamp := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := b.Utimes("/f", stamp, stamp); err != nil {
		t.Fatalf("utimes: %v", err)
	}
	attr, err = b.StatAttr("/f")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !attr.Atime.Equal(stamp) || !attr.Mtime.Equal(stamp) {
		t.Fatalf("utimes did not stick: %+v", attr)
	}
}
