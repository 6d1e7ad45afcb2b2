package config

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid scene config")
	ErrUnknownFormat = errors.New("unknown config format")
)
