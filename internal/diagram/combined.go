package diagram

import (
	"fmt"
	"strings"
)

// Combined accumulates per-file diagram bodies into one document.
// Bodies keep the order in which they were added.
type Combined struct {
	parts []string
}

// Add appends a body tagged with the file it came from.
// Bodies that are empty after trimming are skipped; Add reports whether the
// body was kept.
func (c *Combined) Add(path, body string) bool {
	body = strings.TrimSpace(body)
	if body == "" {
		return false
	}
	c.parts = append(c.parts, fmt.Sprintf("%s\n%s", ProvenanceTag(path), body))
	return true
}

// Len returns the number of bodies added.
func (c *Combined) Len() int {
	return len(c.parts)
}

// Empty reports whether no body has been added.
func (c *Combined) Empty() bool {
	return len(c.parts) == 0
}

// Document wraps all bodies once with the start and end markers.
func (c *Combined) Document() string {
	var sb strings.Builder
	sb.WriteString(StartMarker)
	sb.WriteString("\n")
	for i, part := range c.parts {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(part)
		sb.WriteString("\n")
	}
	sb.WriteString(EndMarker)
	sb.WriteString("\n")
	return sb.String()
}

// ProvenanceTag returns the comment line naming a body's source file.
func ProvenanceTag(path string) string {
	return "' File: " + path
}
