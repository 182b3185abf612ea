package scene

import "errors"

var (
	ErrInvalidConfig = errors.New("scene: invalid configuration")
	ErrUnknownShape  = errors.New("scene: unknown shape")
)
