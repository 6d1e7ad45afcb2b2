package steering

import "errors"

var (
	ErrInvalidParams = errors.New("invalid steering params")
	ErrInvalidSpawn  = errors.New("spawn transform is not finite")
	ErrEmptyID       = errors.New("agent id is empty")
)
