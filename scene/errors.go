package scene

import "errors"

var (
	// ErrCallbackRegistered is returned when a change callback is installed
	// while another one is registered.
	ErrCallbackRegistered = errors.New("scene: change callback already registered")

	// ErrSurfaceNotFound is returned when a surface is not in the stack.
	ErrSurfaceNotFound = errors.New("scene: surface not in stack")

	// ErrSurfaceAttached is returned when adding a surface that already
	// belongs to a stack.
	ErrSurfaceAttached = errors.New("scene: surface already in a stack")
)
