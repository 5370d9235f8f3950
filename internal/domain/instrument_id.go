package domain

import "regexp"

var instrumentIDRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,32}$`)

// ValidateInstrumentID reports whether id can be persisted or displayed.
func ValidateInstrumentID(id string) bool {
	return instrumentIDRe.MatchString(id)
}
