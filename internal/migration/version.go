// Package migration runs versioned, backed-up rewrites of the persisted
// collections: renaming legacy product names to short codes, and enriching
// cart and order items with their product hierarchy.
package migration

import (
	"strconv"
	"strings"
)

// DefaultVersion is assumed when no version has been persisted.
const DefaultVersion = "1.0.0"

// CompareVersions compares dotted versions segment by segment as numbers.
// Missing and non-numeric segments count as 0. It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	as, bs := segments(a), segments(b)
	n := max(len(as), len(bs))
	for i := range n {
		x, y := at(as, i), at(bs, i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func segments(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return strings.Split(v, ".")
}

func at(segs []string, i int) int {
	if i >= len(segs) {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(segs[i]))
	if err != nil {
		return 0
	}
	return n
}
