package pattern

import "strings"

// Syntax converts an ignore-file's raw lines into the ordered pattern lines
// NewIncludeChecker expects. The gitignore syntax is the only
// implementation required by this module, but the seam keeps the door open
// for a Docker-ignore variant without touching callers.
type Syntax interface {
	// Parse converts the raw lines of an ignore file into exclude pattern
	// lines (already stripped of comments and blank lines, negation
	// markers preserved).
	Parse(lines []string) []string
}

// GitignoreSyntax implements Syntax for standard .gitignore files: blank
// lines and '#'-comment lines are dropped (with '\#' preserved as a
// literal leading '#'), and '!' negation is preserved verbatim.
type GitignoreSyntax struct{}

// Parse implements Syntax.Parse.
func (GitignoreSyntax) Parse(lines []string) []string {
	var result []string
	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

// ParseGitignore parses the contents of a .gitignore file (already split
// into lines) into an exclude pattern list suitable for NewIncludeChecker.
func ParseGitignore(contents string) []string {
	return GitignoreSyntax{}.Parse(strings.Split(contents, "\n"))
}
