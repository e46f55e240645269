// Package compositor is the compositing engine of a display server.
//
// # Overview
//
// Given a changing scene of client surfaces and a set of physical outputs,
// the compositor decides for every output what to draw and drives one
// rendering pass per output at the right cadence. Each output composites
// on its own goroutine, so a slow monitor never stalls a fast one.
//
// # Quick Start
//
//	stack := scene.NewStack()
//	display := headless.NewDisplay(headless.OutputConfig{Area: image.Rect(0, 0, 1920, 1080)})
//
//	factory, _ := compositor.NewDefaultFactory(stack, render.SoftwareRendererFactory{})
//	c, _ := compositor.New(stack, display, factory, compositor.WithComposeOnStart(true))
//
//	if err := c.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Stop()
//
// # Architecture
//
//	              scene change
//	                   │
//	                   ▼
//	      MultiThreadedCompositor ── ScheduleCompositing(n)
//	      ┌────────────┼────────────┐
//	      ▼            ▼            ▼
//	   functor      functor      functor        one goroutine per output
//	      │            │            │
//	      ▼            ▼            ▼
//	DisplayBufferCompositor (per output)
//	      │
//	      ├── bypass.Check     topmost buffer fills the output?
//	      │       └─ yes: DisplayBuffer.PostRenderablesIfOptimizable
//	      └── occlusion.Filter + Renderer
//	              └─ DisplayBuffer.PostUpdate
//
// The collaborators (scene, renderer, display) are interfaces defined in
// package graphics. Reference implementations live in packages scene,
// render and headless.
//
// # Scheduling
//
// Every output owes a number of frames. ScheduleCompositing(n) with n > 0
// raises it to at least n on all outputs; a scene reports 1 for ordinary
// changes and the number of queued buffers when a client runs ahead.
// A negative n snoozes: the output waits a short delay for a client frame
// and then forces one. An output with nothing owed still composites once per
// heartbeat interval.
//
// # Frame Clock
//
// All outputs share a frameclock.Clock. Scene snapshots are taken for a
// frame number, so a surface's buffer queue advances once per frame no
// matter how many outputs show it.
//
// # Failure
//
// Errors from a renderer or display during a composite are fatal: the
// error is logged and the process exits (see WithFatalHandler). Failures
// during Start are rolled back and returned.
package compositor
