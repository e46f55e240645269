package compositor

// State is the lifecycle state of a MultiThreadedCompositor.
//
// Starting and Stopping are transient: they are only observable while
// Start or Stop is running, and exist so that a failed Start can unwind
// to Stopped.
type State uint8

const (
	StateStopped State = iota
	StateStarting
	StateStarted
	StateStopping
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
