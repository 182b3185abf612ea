package systems

import "errors"

var (
	ErrNilSystem       = errors.New("systems: nil system")
	ErrDuplicateSystem = errors.New("systems: system already registered")
	ErrSystemNotFound  = errors.New("systems: system not found")
	ErrSystemPanicked  = errors.New("systems: system panicked")
)
