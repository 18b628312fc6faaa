package records

import "strings"

// Lookup returns the value of the first alias present on r, even if empty.
func Lookup(r *Record, aliases []string) (string, bool) {
	for _, alias := range aliases {
		if v, ok := r.Get(alias); ok {
			return v, true
		}
	}
	return "", false
}

// FirstNonEmpty returns the first alias value on r that is not blank, or
// fallback when none is.
func FirstNonEmpty(r *Record, aliases []string, fallback string) string {
	for _, alias := range aliases {
		if v := r.Value(alias); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return fallback
}
