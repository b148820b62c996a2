// Package engine runs the tool-augmented streaming chat turn. A turn
// reconstructs the client's history, trims it to the token budget and then
// alternates model rounds with tool execution until the model stops asking
// for tools or the round bound is reached. Every model delta and tool side
// effect is forwarded to an events.Sink in order.
//
// The package also owns the server configuration and the provider factory
// registry that turns a ProviderConfig into a modeladapter.Streamer.
package engine
