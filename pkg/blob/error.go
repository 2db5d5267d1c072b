package blob

import "github.com/vfscore/vfscore/pkg/vpath"

// errNoSuchBlob constructs the ENOENT error returned when a blob ID is not
// present in the store.
func errNoSuchBlob(id ID) error {
	return vpath.New(vpath.ENOENT, string(id), "no such blob")
}
