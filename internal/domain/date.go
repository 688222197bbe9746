package domain

import "time"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// DateOf drops the clock part of t, keeping the calendar date as seen in t's location.
// The result is midnight UTC so that dates compare and persist uniformly.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func FormatDate(t time.Time) string { return t.Format(DateLayout) }
