package main

import (
	"sort"
	"strings"
)

func stringInSlice(a string, list []string) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

// dedupStrings returns a sorted copy with duplicates removed.
func dedupStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// joinMulti flattens a multi-valued attribute for display.
func joinMulti(values []string) string {
	return strings.Join(values, ", ")
}
