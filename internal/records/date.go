package records

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MonthDay is the recurring part of a birth date.
type MonthDay struct {
	Month int
	Day   int
}

// Of returns the month and day of t.
func Of(t time.Time) MonthDay {
	return MonthDay{Month: int(t.Month()), Day: t.Day()}
}

// dateLayouts are tried in order; the first full match wins.
var dateLayouts = []string{
	"2/1/2006",
	"2006-1-2",
	"2-1-2006",
	"1/2/2006",
	"2 1 2006",
	"2.1.2006",
}

var nonDigits = regexp.MustCompile(`\D+`)

// ParseDate extracts the month and day from a free-form birth date. It reports
// false for empty or unrecognisable input.
func ParseDate(raw string) (MonthDay, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MonthDay{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		return Of(t), true
	}

	// Split keeps empty tokens at the edges ("x12/5" -> "", "12", "5"), and an
	// empty token fails conversion below.
	parts := nonDigits.Split(raw, -1)
	if len(parts) < 2 {
		return MonthDay{}, false
	}
	d, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthDay{}, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return MonthDay{}, false
	}
	// Always day first, even when the first token could be a month. Stored
	// sheets were flagged with this ordering.
	return MonthDay{Month: m, Day: d}, true
}
