/*
Package interaction turns pointer and keyboard events into edits of the
pipeline.

A Machine sits in one of four states:

	Idle -> DraggingStep       pointer down on a step body
	Idle -> DrawingConnection  pointer down on an output anchor
	Idle -> ConnectionSelected pointer down on a connection curve

Pointer up ends a drag (commit, or select when the pointer did not travel) or
a connection (connect when released over an input anchor, discard otherwise).
Escape deselects a connection, Backspace and Delete remove it.

A Dispatcher delivers events to subscribed listeners on a single goroutine.
*/
package interaction
