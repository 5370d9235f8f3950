package domain

import "time"

const DateLayout = "2006-01-02"

// DateOf returns the calendar day of t (in t's own location) as midnight UTC.
// All record dates are compared in this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
