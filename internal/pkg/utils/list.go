package utils

import "strings"

// SplitList splits a comma separated value, trimming blanks and dropping
// empty items. An empty input gives a nil slice.
func SplitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
