// Package scene provides an in-memory implementation of graphics.Scene.
//
// A [Stack] holds surfaces in stacking order. Each [Surface] owns a
// [BufferStream] that queues the buffers its client submits. The compositor
// pulls snapshots with [Stack.Snapshot]; the window manager mutates the
// stack and its surfaces from any goroutine.
//
// # Change Notifications
//
// Every mutation reports a frame count to the registered change callback:
// 1 for geometry, stacking or visibility changes, and the number of queued
// buffers when a client submits content. Notifications are delivered after
// the mutation is visible to Snapshot and never while the stack's internal
// lock is held, so the callback may freely call back into the stack.
//
// [Stack.Batch] coalesces the notifications of several mutations into a
// single callback carrying the largest frame count requested:
//
//	stack.Batch(func() {
//	    win.Move(image.Pt(100, 100))
//	    win.Resize(image.Pt(640, 480))
//	    stack.Raise(win)
//	})
//
// # Locking
//
// Lock and Unlock freeze the stack: mutations block until Unlock while
// Snapshot keeps working. This lets a reader take several consistent
// snapshots in a row.
package scene
