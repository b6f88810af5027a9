package utils

import (
	"fmt"
	"strconv"
	"strings"
)

const utf8BOM = "\uFEFF"

// CleanHeader normalizes a header cell: strips a BOM, whitespace and all quotes.
func CleanHeader(h string) string {
	h = strings.TrimPrefix(h, utf8BOM)
	h = strings.TrimSpace(h)
	h = strings.ReplaceAll(h, `"`, "")
	return strings.TrimSpace(h)
}

// ParseNonNegative parses s as an int >= 0, returning def for an empty string.
func ParseNonNegative(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid number %q: must be >= 0", s)
	}
	return n, nil
}

// SplitList splits a comma separated list, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
