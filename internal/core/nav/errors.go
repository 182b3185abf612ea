package nav

import "errors"

var (
	ErrUnknownMode   = errors.New("nav: unknown mode")
	ErrModeNotBound  = errors.New("nav: no source or rig bound for mode")
	ErrInvalidConfig = errors.New("nav: invalid configuration")
)
