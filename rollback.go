package compositor

// rollback records undo steps for a multi-step operation.
//
// Steps run in reverse order when run is called, unless dismiss was called
// first. The intended use is
//
//	var rb rollback
//	defer rb.run()
//	... rb.add(undo) after each completed step ...
//	rb.dismiss()
type rollback struct {
	steps []func()
}

// add records an undo step.
func (rb *rollback) add(undo func()) {
	rb.steps = append(rb.steps, undo)
}

// dismiss forgets all steps; the operation succeeded.
func (rb *rollback) dismiss() {
	rb.steps = nil
}

// run undoes the recorded steps, newest first.
func (rb *rollback) run() {
	for i := len(rb.steps) - 1; i >= 0; i-- {
		rb.steps[i]()
	}
	rb.steps = nil
}
