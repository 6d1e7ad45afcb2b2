package vehicle

import "errors"

var (
	ErrUnknownAction = errors.New("unknown input action")
	ErrInvalidParams = errors.New("invalid submarine params")
	ErrNilHull       = errors.New("hull is nil")
	ErrNilInput      = errors.New("input source is nil")
)
