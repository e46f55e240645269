package compositor

import "log/slog"

// CompositorID identifies one output's compositor in reports.
// IDs are unique for the lifetime of a MultiThreadedCompositor, including
// across restarts.
type CompositorID uint64

// Report receives compositor lifecycle and per-frame events.
//
// Report is an observability sink: implementations must not block and must
// be safe for concurrent use, since every output goroutine reports
// independently.
type Report interface {
	Started()
	Stopped()
	Scheduled()
	AddedDisplay(width, height, x, y int, id CompositorID)
	BeganFrame(id CompositorID)
	FinishedFrame(bypassed bool, id CompositorID)
}

// NullReport discards all events.
type NullReport struct{}

func (NullReport) Started()                                      {}
func (NullReport) Stopped()                                      {}
func (NullReport) Scheduled()                                    {}
func (NullReport) AddedDisplay(int, int, int, int, CompositorID) {}
func (NullReport) BeganFrame(CompositorID)                       {}
func (NullReport) FinishedFrame(bool, CompositorID)              {}

// LogReport writes events to a slog.Logger.
// Lifecycle events are logged at Info, per-frame events at Debug.
type LogReport struct {
	logger *slog.Logger
}

// NewLogReport returns a report writing to l. A nil l follows the package
// logger configured with SetLogger.
func NewLogReport(l *slog.Logger) *LogReport {
	return &LogReport{logger: l}
}

func (r *LogReport) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}

// Started logs that compositing started.
func (r *LogReport) Started() {
	r.log().Info("compositor started")
}

// Stopped logs that compositing stopped.
func (r *LogReport) Stopped() {
	r.log().Info("compositor stopped")
}

// Scheduled logs a scheduling request.
func (r *LogReport) Scheduled() {
	r.log().Debug("compositing scheduled")
}

// AddedDisplay logs a new output.
func (r *LogReport) AddedDisplay(width, height, x, y int, id CompositorID) {
	r.log().Info("output added",
		slog.Uint64("id", uint64(id)),
		slog.Int("width", width), slog.Int("height", height),
		slog.Int("x", x), slog.Int("y", y))
}

// BeganFrame logs the start of a frame.
func (r *LogReport) BeganFrame(id CompositorID) {
	r.log().Debug("frame begin", slog.Uint64("id", uint64(id)))
}

// FinishedFrame logs the end of a frame.
func (r *LogReport) FinishedFrame(bypassed bool, id CompositorID) {
	r.log().Debug("frame end", slog.Uint64("id", uint64(id)), slog.Bool("bypassed", bypassed))
}

// Ensure both reports implement Report.
var (
	_ Report = NullReport{}
	_ Report = (*LogReport)(nil)
)
