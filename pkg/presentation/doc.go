// Package presentation implements the in-memory canvas the assistant edits
// during a chat turn.
//
// A [Document] is either a single HTML page (document mode) or an ordered
// deck of slide fragments sharing one theme stylesheet (slides mode). The
// two shapes are mutually exclusive: [Document.Write] replaces everything and
// clears the other mode's fields, while every read and edit operation checks
// the current mode and fails with [ErrModeMismatch] instead of returning
// partial data.
//
// Content is addressed by 1-based line numbers so the model can read a
// numbered listing and then splice an exact range with [Document.EditLines].
//
// A Document is owned by a single request and is not safe for concurrent
// use.
package presentation
