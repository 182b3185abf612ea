package settings

import "errors"

var (
	ErrNotFound           = errors.New("settings: no saved settings")
	ErrInvalidSettings    = errors.New("settings: invalid settings")
	ErrPreconditionFailed = errors.New("settings: stored settings changed")
)
