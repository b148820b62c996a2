// Package studytools declares the tools offered to the model during a chat
// turn and executes the calls it makes.
//
// Tool arguments are typed structs; [Decode] turns a tool name and its raw
// JSON arguments into one of them, and the [Dispatcher] executes the result
// with an exhaustive type switch. JSON Schemas for the registry are reflected
// from the same structs, so declaration and decoding cannot drift apart.
//
// A [Session] carries the per-request state the tools operate on: the open
// Bible panels, the presentation being edited, the active presentation id
// and the catalog of saved presentations. Dispatch emits the tool_call event,
// any tool-specific UI events and finally the tool_result event to the
// session's sink, in that order.
//
// Domain failures (unknown book, invalid slide, mode mismatch) never surface
// as Go errors: they become {"error": "..."} results the model can react to.
// Dispatch only returns an error when the sink fails or the context ends.
package studytools
