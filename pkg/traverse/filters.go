package traverse

import (
	"strconv"
	"time"

	"github.com/vfscore/vfscore/pkg/vpath"
)

// sizeFilter is a parsed "[+-]?N[BKMG]" size predicate: cmp is +1 for
// "larger than", -1 for "smaller than", 0 for "equal to".
type sizeFilter struct {
	cmp   int
	bytes int64
}

func (f sizeFilter) matches(size int64) bool {
	switch {
	case f.cmp > 0:
		return size > f.bytes
	case f.cmp < 0:
		return size < f.bytes
	default:
		return size == f.bytes
	}
}

func parseSizeFilter(text string) (sizeFilter, error) {
	if text == "" {
		return sizeFilter{}, vpath.New(vpath.EINVAL, "", "empty size filter")
	}

	cmp := 0
	i := 0
	switch text[0] {
	case '+':
		cmp = 1
		i = 1
	case '-':
		cmp = -1
		i = 1
	}

	if i >= len(text) {
		return sizeFilter{}, vpath.New(vpath.EINVAL, text, "missing size value")
	}

	unit := int64(1)
	last := text[len(text)-1]
	numericEnd := len(text)
	switch last {
	case 'B', 'b':
		unit = 1
		numericEnd--
	case 'K', 'k':
		unit = 1024
		numericEnd--
	case 'M', 'm':
		unit = 1024 * 1024
		numericEnd--
	case 'G', 'g':
		unit = 1024 * 1024 * 1024
		numericEnd--
	}

	n, err := strconv.ParseInt(text[i:numericEnd], 10, 64)
	if err != nil {
		return sizeFilter{}, vpath.New(vpath.EINVAL, text, "malformed size filter")
	}

	return sizeFilter{cmp: cmp, bytes: n * unit}, nil
}

// timeFilter is a parsed "[+-]?N[mhdwM]" time predicate: + means older than
// the threshold, - means newer than, none means within one day of it.
type timeFilter struct {
	sign      int
	threshold time.Duration
}

func (f timeFilter) matches(reference time.Time, now time.Time) bool {
	cutoff := now.Add(-f.threshold)
	switch {
	case f.sign > 0:
		return reference.Before(cutoff)
	case f.sign < 0:
		return reference.After(cutoff)
	default:
		diff := reference.Sub(cutoff)
		if diff < 0 {
			diff = -diff
		}
		return diff <= 24*time.Hour
	}
}

func parseTimeFilter(text string) (timeFilter, error) {
	if text == "" {
		return timeFilter{}, vpath.New(vpath.EINVAL, "", "empty time filter")
	}

	sign := 0
	i := 0
	switch text[0] {
	case '+':
		sign = 1
		i = 1
	case '-':
		sign = -1
		i = 1
	}

	if i >= len(text) {
		return timeFilter{}, vpath.New(vpath.EINVAL, text, "missing time value")
	}

	unit := 24 * time.Hour // bare number means days
	numericEnd := len(text)
	switch text[len(text)-1] {
	case 'm':
		unit = time.Minute
		numericEnd--
	case 'h':
		unit = time.Hour
		numericEnd--
	case 'd':
		unit = 24 * time.Hour
		numericEnd--
	case 'w':
		unit = 7 * 24 * time.Hour
		numericEnd--
	case 'M':
		unit = 30 * 24 * time.Hour
		numericEnd--
	}

	n, err := strconv.ParseInt(text[i:numericEnd], 10, 64)
	if err != nil {
		return timeFilter{}, vpath.New(vpath.EINVAL, text, "malformed time filter")
	}

	return timeFilter{sign: sign, threshold: time.Duration(n) * unit}, nil
}
