package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeItemID coerces a wire representation of a video or task
// identifier to its canonical numeric form, so "7", " 7 " and "vid-7" all
// address the same completed-set entry. Route parameters and payload
// fields reach the client as strings as often as numbers; set membership
// must not depend on which one it was.
func NormalizeItemID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty item id")
	}
	// Keep the trailing digit run: "vid-7" → "7".
	start := len(s)
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if start == len(s) {
		return 0, fmt.Errorf("item id %q has no numeric component", raw)
	}
	id, err := strconv.ParseInt(s[start:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse item id %q: %w", raw, err)
	}
	return id, nil
}
