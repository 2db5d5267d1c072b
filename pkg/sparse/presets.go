package sparse

// Presets are named bundles of exclude patterns for common project
// layouts, kept as a plain data table rather than code so adding one is a
// one-line change.
var Presets = map[string][]string{
	"node": {
		"node_modules/",
		"dist/",
		"build/",
		"*.log",
		"coverage/",
	},
	"go": {
		"vendor/",
		"bin/",
		"*.test",
	},
	"git": {
		".git/",
	},
	"python": {
		"__pycache__/",
		"*.pyc",
		".venv/",
		"dist/",
		"*.egg-info/",
	},
}

// Preset looks up a named bundle, returning a copy so callers can safely
// append to it.
func Preset(name string) ([]string, bool) {
	patterns, ok := Presets[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(patterns))
	copy(out, patterns)
	return out, true
}
