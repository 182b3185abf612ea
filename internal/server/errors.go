package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMaxSessionsReached   = errors.New("maximum sessions reached")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrUnknownMessage       = errors.New("unknown message type")
	ErrModeNotAllowed       = errors.New("navigation mode not allowed")
	ErrInvalidConfig        = errors.New("invalid server configuration")
	ErrPreconditionFailed   = errors.New("settings changed since they were read")
)
