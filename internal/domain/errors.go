package domain

import "errors"

var (
	ErrInvalidInstrument = errors.New("invalid instrument id")
	ErrUnknownCategory   = errors.New("unknown category")
)
