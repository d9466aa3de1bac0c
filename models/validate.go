package models

import (
	"sort"
	"strings"
)

// A ValidationError enumerates the fields that failed validation. The
// record it describes has not been persisted.
type ValidationError struct {
	// Fields maps a field name to the reason it was rejected.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(" ")
		b.WriteString(e.Fields[name])
	}
	return b.String()
}
