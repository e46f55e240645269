package compositor

import "errors"

var (
	// ErrNilScene is returned by New when no scene is given.
	ErrNilScene = errors.New("compositor: nil scene")

	// ErrNilDisplay is returned by New when no display is given.
	ErrNilDisplay = errors.New("compositor: nil display")

	// ErrNilFactory is returned when no compositor or renderer factory is given.
	ErrNilFactory = errors.New("compositor: nil factory")

	// ErrOutputPanicked wraps a panic recovered on an output goroutine.
	ErrOutputPanicked = errors.New("compositor: output goroutine panicked")
)
