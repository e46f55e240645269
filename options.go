package compositor

import (
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/compositor/frameclock"
)

const (
	// DefaultHeartbeat is how long an idle output waits before compositing
	// anyway.
	DefaultHeartbeat = time.Second

	// DefaultSnoozeDelay is how long a snoozed output waits for a
	// client-driven frame before forcing one.
	DefaultSnoozeDelay = 100 * time.Millisecond

	// DefaultMaxBufferQueueDepth is the deepest buffer queue a client may
	// have. Restart draining consumes twice this many frames.
	DefaultMaxBufferQueueDepth = 3
)

// Option configures a MultiThreadedCompositor during creation.
// Use functional options to customize its behavior.
//
// Example:
//
//	// Defaults: no report, compose on demand, one second heartbeat
//	c, err := compositor.New(stack, display, factory)
//
//	// Log every event and composite as soon as outputs are up
//	c, err := compositor.New(stack, display, factory,
//	    compositor.WithReport(compositor.NewLogReport(nil)),
//	    compositor.WithComposeOnStart(true))
type Option func(*options)

// options holds optional configuration for a MultiThreadedCompositor.
type options struct {
	report         Report
	composeOnStart bool
	heartbeat      time.Duration
	snoozeDelay    time.Duration
	maxQueueDepth  int
	fatal          func(error)
	clock          *frameclock.Clock
}

// defaultOptions returns the default compositor options.
func defaultOptions() options {
	return options{
		report:        NullReport{},
		heartbeat:     DefaultHeartbeat,
		snoozeDelay:   DefaultSnoozeDelay,
		maxQueueDepth: DefaultMaxBufferQueueDepth,
		fatal:         exitOnFatal,
	}
}

// WithReport sets the sink for lifecycle and frame events.
// A nil report discards events.
func WithReport(r Report) Option {
	return func(o *options) {
		if r == nil {
			r = NullReport{}
		}
		o.report = r
	}
}

// WithComposeOnStart makes Start schedule a frame as soon as every output
// goroutine is running. Restarts always compose on start.
func WithComposeOnStart(enabled bool) Option {
	return func(o *options) {
		o.composeOnStart = enabled
	}
}

// WithHeartbeat sets how long an output waits without scheduled frames
// before compositing one anyway. Non-positive values are ignored.
func WithHeartbeat(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.heartbeat = d
		}
	}
}

// WithSnoozeDelay sets how long a snoozed output waits for a client frame
// before forcing one. Negative values are ignored.
func WithSnoozeDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.snoozeDelay = d
		}
	}
}

// WithMaxBufferQueueDepth sets the deepest client buffer queue, used to size
// the drain after a restart. Values below 1 are ignored.
func WithMaxBufferQueueDepth(depth int) Option {
	return func(o *options) {
		if depth >= 1 {
			o.maxQueueDepth = depth
		}
	}
}

// WithFatalHandler replaces the handler called when an output goroutine
// fails. The default logs the error and exits the process with status 1.
//
// A custom handler that returns lets the failed output goroutine exit; the
// other outputs keep running. This is meant for embedding and tests.
func WithFatalHandler(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.fatal = fn
		}
	}
}

// WithClock shares a frame clock with other consumers, e.g. a second
// compositor driving outputs of the same scene.
func WithClock(c *frameclock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// exitOnFatal logs err and terminates the process.
func exitOnFatal(err error) {
	Logger().Error("compositor: fatal rendering error", slog.Any("err", err))
	os.Exit(1)
}
