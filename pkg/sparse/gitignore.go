package sparse

import "github.com/vfscore/vfscore/pkg/pattern"

// AppendGitignoreExcludes parses contents as a .gitignore file and appends
// its patterns (comments and blank lines stripped, negation kept) to
// existingExcludes.
func AppendGitignoreExcludes(contents string, existingExcludes []string) []string {
	parsed := pattern.ParseGitignore(contents)
	if len(parsed) == 0 {
		return existingExcludes
	}
	combined := make([]string, 0, len(existingExcludes)+len(parsed))
	combined = append(combined, existingExcludes...)
	combined = append(combined, parsed...)
	return combined
}
