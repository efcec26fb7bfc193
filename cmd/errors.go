package cmd

import (
	"fmt"
	"strings"
)

// UnsupportedFormatError reports an output format a command cannot render.
type UnsupportedFormatError struct {
	Format  string
	Allowed []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q (use %s)", e.Format, strings.Join(e.Allowed, "|"))
}

// parseFormat normalizes a --format value and checks it against allowed.
func parseFormat(raw string, allowed ...string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if format == a {
			return format, nil
		}
	}
	return "", &UnsupportedFormatError{Format: raw, Allowed: allowed}
}
