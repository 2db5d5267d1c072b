package traverse

import "github.com/vfscore/vfscore/pkg/vfs"

// Criteria configures a Walk. RootPath is required. MinDepth and MaxDepth
// use -1 for "unconstrained" (0 is a real bound); for every other field the
// zero value means "unconstrained".
type Criteria struct {
	RootPath string

	MinDepth int // -1 means unconstrained
	MaxDepth int // -1 means unconstrained

	Type *vfs.Kind // nil means any kind

	NameMatch string // glob against the basename; "" means any name

	SizeFilter string // "[+-]?N[BKMG]"; "" means unconstrained

	MtimeFilter string // "[+-]?N[mhdwM]"; "" means unconstrained
	CtimeFilter string
	AtimeFilter string

	Empty *bool // nil means unconstrained

	Prune []string // basename globs; matching directories are skipped entirely
}

// resolved is the parsed, ready-to-evaluate form of Criteria.
type resolved struct {
	rootPath string
	minDepth int
	maxDepth int
	typ      *vfs.Kind
	nameGlob string
	size     *sizeFilter
	mtime    *timeFilter
	ctime    *timeFilter
	atime    *timeFilter
	empty    *bool
	prune    []string
}

func (c Criteria) resolve() (resolved, error) {
	r := resolved{
		rootPath: c.RootPath,
		minDepth: c.MinDepth,
		maxDepth: c.MaxDepth,
		typ:      c.Type,
		nameGlob: c.NameMatch,
		empty:    c.Empty,
		prune:    c.Prune,
	}

	if c.SizeFilter != "" {
		f, err := parseSizeFilter(c.SizeFilter)
		if err != nil {
			return resolved{}, err
		}
		r.size = &f
	}
	if c.MtimeFilter != "" {
		f, err := parseTimeFilter(c.MtimeFilter)
		if err != nil {
			return resolved{}, err
		}
		r.mtime = &f
	}
	if c.CtimeFilter != "" {
		f, err := parseTimeFilter(c.CtimeFilter)
		if err != nil {
			return resolved{}, err
		}
		r.ctime = &f
	}
	if c.AtimeFilter != "" {
		f, err := parseTimeFilter(c.AtimeFilter)
		if err != nil {
			return resolved{}, err
		}
		r.atime = &f
	}

	return r, nil
}
