package world

import "errors"

var (
	ErrNilScene      = errors.New("scene is nil")
	ErrAgentExists   = errors.New("agent already exists")
	ErrAgentNotFound = errors.New("agent not found")
	ErrWorldStopped  = errors.New("world stopped")
	ErrInvalidConfig = errors.New("invalid world config")
)
