package vfs

import "github.com/vfscore/vfscore/pkg/vpath"

// OpenFlags is the parsed, access-mode-normalized result of either numeric
// or text open flags.
type OpenFlags struct {
	Read, Write      bool
	Create           bool
	Exclusive        bool
	Truncate         bool
	Append           bool
	Sync             bool
	MustExist        bool
}

// Numeric flag bits: a stable value set composed by bitwise OR.
const (
	ORDONLY = 0
	OWRONLY = 1
	ORDWR   = 2

	OCREAT = 1 << 6
	OEXCL  = 1 << 7
	OTRUNC = 1 << 9
	OAPPEND = 1 << 10
	OSYNC   = 1 << 12
)

// ParseNumericFlags decodes a numeric flag bitmask into OpenFlags.
func ParseNumericFlags(flags int) (OpenFlags, error) {
	access := flags & 0b11
	var f OpenFlags
	switch access {
	case ORDONLY:
		f.Read = true
	case OWRONLY:
		f.Write = true
	case ORDWR:
		f.Read = true
		f.Write = true
	default:
		return OpenFlags{}, vpath.New(vpath.EINVAL, "", "invalid access mode")
	}

	f.Create = flags&OCREAT != 0
	f.Exclusive = flags&OEXCL != 0
	f.Truncate = flags&OTRUNC != 0
	f.Append = flags&OAPPEND != 0
	f.Sync = flags&OSYNC != 0
	f.MustExist = !f.Create

	if f.Exclusive && !f.Create {
		return OpenFlags{}, vpath.New(vpath.EINVAL, "", "EXCL without CREAT")
	}

	return f, nil
}

// textFlagTable maps fopen-style mode strings directly to OpenFlags.
var textFlagTable = map[string]OpenFlags{
	"r":  {Read: true, MustExist: true},
	"r+": {Read: true, Write: true, MustExist: true},
	"w":  {Write: true, Create: true, Truncate: true},
	"wx": {Write: true, Create: true, Exclusive: true, Truncate: true},
	"w+": {Read: true, Write: true, Create: true, Truncate: true},
	"a":  {Write: true, Create: true, Append: true},
	"ax": {Write: true, Create: true, Exclusive: true, Append: true},
	"a+": {Read: true, Write: true, Create: true, Append: true},
}

// ParseTextFlags decodes a text open-mode string, with an optional
// trailing "s" modifier requesting synchronous writes. Any combination not
// present in the table is EINVAL.
func ParseTextFlags(text string) (OpenFlags, error) {
	sync := false
	if len(text) > 0 && text[len(text)-1] == 's' {
		sync = true
		text = text[:len(text)-1]
	}
	f, ok := textFlagTable[text]
	if !ok {
		return OpenFlags{}, vpath.New(vpath.EINVAL, "", "invalid open mode")
	}
	f.Sync = sync
	return f, nil
}
