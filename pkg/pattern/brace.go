package pattern

import "strings"

// expandBraces recursively expands `{a,b,c}` groups in text, including
// nested groups, producing every literal alternative. It runs before glob
// compilation so doublestar never sees brace syntax.
func expandBraces(text string) []string {
	open := strings.IndexByte(text, '{')
	if open == -1 {
		return []string{text}
	}
	close := matchingBrace(text, open)
	if close == -1 {
		return []string{text}
	}

	prefix := text[:open]
	body := text[open+1 : close]
	suffix := text[close+1:]

	var results []string
	for _, alt := range splitTopLevel(body) {
		for _, expandedSuffix := range expandBraces(suffix) {
			for _, expandedAlt := range expandBraces(alt) {
				results = append(results, prefix+expandedAlt+expandedSuffix)
			}
		}
	}
	if len(results) == 0 {
		return []string{text}
	}
	return results
}

// matchingBrace finds the index of the '}' matching the '{' at openIndex,
// accounting for nested braces. Returns -1 if unmatched.
func matchingBrace(text string, openIndex int) int {
	depth := 0
	for i := openIndex; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits body on commas that are not nested inside an inner
// brace group.
func splitTopLevel(body string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, body[start:])
	return parts
}
