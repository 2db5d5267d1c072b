package vpath

// maxSymlinkHops bounds realpath resolution; exceeding it fails with ELOOP.
const maxSymlinkHops = 40

// Lookup is the capability that Resolve needs from a filesystem backend: for
// a cleaned absolute path, report whether it exists, whether it is a
// directory, and, if it is a symlink, its (unresolved) target.
type Lookup interface {
	// Stat returns, for the cleaned path p, whether it exists, whether it
	// names a directory, and (if it names a symlink) the link's raw target.
	// If the path does not exist, exists is false and the other return
	// values are unspecified.
	Stat(p string) (exists bool, isDir bool, symlinkTarget string, err error)
}

// Resolve performs symlink-expanding resolution of p, walking components
// left to right. Any intermediate component that is not a directory fails
// with ENOTDIR; a missing intermediate component fails with ENOENT.
// Relative symlink targets are resolved against the directory containing
// the link. Chains exceeding maxSymlinkHops fail with ELOOP.
func Resolve(lookup Lookup, p string) (string, error) {
	cleaned, err := Clean(p)
	if err != nil {
		return "", err
	}

	hops := 0
	current := "/"
	remaining := Segments(cleaned)

	for len(remaining) > 0 {
		name := remaining[0]
		remaining = remaining[1:]

		candidate := Join(current, name)
		exists, isDir, target, err := lookup.Stat(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			if len(remaining) == 0 {
				// The final component is permitted to be missing; the
				// caller may be about to create it. Report the cleaned
				// path without attempting further resolution.
				return Join(current, name), nil
			}
			return "", New(ENOENT, candidate, "no such file or directory")
		}

		if target != "" {
			hops++
			if hops > maxSymlinkHops {
				return "", New(ELOOP, candidate, "too many levels of symbolic links")
			}
			targetClean, err := resolveSymlinkTarget(current, target)
			if err != nil {
				return "", err
			}
			remaining = append(Segments(targetClean), remaining...)
			current = "/"
			continue
		}

		if !isDir && len(remaining) > 0 {
			return "", New(ENOTDIR, candidate, "not a directory")
		}

		current = candidate
	}

	return current, nil
}

// resolveSymlinkTarget cleans a symlink target relative to the directory
// containing the link, or as an absolute path if the target itself is
// absolute.
func resolveSymlinkTarget(linkDir, target string) (string, error) {
	if len(target) > 0 && target[0] == Separator {
		return Clean(target)
	}
	return Clean(Join(linkDir, target))
}
