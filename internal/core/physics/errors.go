package physics

import "errors"

var (
	ErrInvalidShape  = errors.New("invalid shape")
	ErrInvalidBounds = errors.New("invalid tank bounds")
	ErrInvalidMass   = errors.New("mass must be positive")
)
