package records

import "testing"

func TestParseDate_Templates(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want MonthDay
	}{
		{name: "day/month/year", raw: "09/12/1990", want: MonthDay{Month: 12, Day: 9}},
		{name: "iso", raw: "1990-12-09", want: MonthDay{Month: 12, Day: 9}},
		{name: "day-month-year", raw: "09-12-1990", want: MonthDay{Month: 12, Day: 9}},
		{name: "month/day/year when day/month is impossible", raw: "12/25/1990", want: MonthDay{Month: 12, Day: 25}},
		{name: "spaces", raw: "9 12 1990", want: MonthDay{Month: 12, Day: 9}},
		{name: "dots", raw: "09.12.1990", want: MonthDay{Month: 12, Day: 9}},
		{name: "single digits", raw: "1/2/2001", want: MonthDay{Month: 2, Day: 1}},
		{name: "surrounding whitespace", raw: "  15/06/1985 \t", want: MonthDay{Month: 6, Day: 15}},
		{name: "leap day", raw: "29/02/2000", want: MonthDay{Month: 2, Day: 29}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.raw)
			if !ok {
				t.Fatalf("ParseDate(%q) returned no result", tt.raw)
			}
			if got != tt.want {
				t.Fatalf("ParseDate(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDate_YearIsIgnored(t *testing.T) {
	for _, raw := range []string{"09/12/1950", "09/12/1990", "09/12/2024", "2010-12-09"} {
		got, ok := ParseDate(raw)
		if !ok || got != (MonthDay{Month: 12, Day: 9}) {
			t.Fatalf("ParseDate(%q) = %+v, %v", raw, got, ok)
		}
	}
}

func TestParseDate_Fallback(t *testing.T) {
	tests := []struct {
		raw  string
		want MonthDay
	}{
		// Calendar-invalid dates skip every template and fall back to the
		// split, which still reads day first.
		{raw: "31/02/1990", want: MonthDay{Month: 2, Day: 31}},
		{raw: "29/02/1991", want: MonthDay{Month: 2, Day: 29}},
		{raw: "12 - 05", want: MonthDay{Month: 5, Day: 12}},
		{raw: "05/12", want: MonthDay{Month: 12, Day: 5}},
		{raw: "25_06_90", want: MonthDay{Month: 6, Day: 25}},
		// The first token is not swapped into the month even when <= 12.
		{raw: "3 | 7", want: MonthDay{Month: 7, Day: 3}},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.raw)
		if !ok {
			t.Fatalf("ParseDate(%q) returned no result", tt.raw)
		}
		if got != tt.want {
			t.Fatalf("ParseDate(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestParseDate_NoResult(t *testing.T) {
	for _, raw := range []string{"", "   ", "invalid", "1990", "x12/05", "12/"} {
		if got, ok := ParseDate(raw); ok {
			t.Fatalf("ParseDate(%q) = %+v, expected no result", raw, got)
		}
	}
}
