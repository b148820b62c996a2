// Package modeladapter defines the streaming contract between the chat
// engine and model providers.
//
// It contains:
//   - [Request], [Streamer], [Stream] and [StreamEvent], the provider-neutral
//     shape of one streamed model round
//   - [Accumulator], which assembles the assistant message from stream events
//   - [TokenCounter] for providers that can count input tokens
//   - the embeddable [ModelAdapter] base struct with HTTP helpers, auth and
//     custom headers
//   - [RetryingStreamer], which retries rate-limited stream opens
//   - [github.com/germanamz/koinonia/pkg/modeladapter/usage], a thread-safe
//     token usage tracker
//
// This package contains no provider-specific wire code. Concrete adapters
// live in separate packages that import modeladapter.
package modeladapter
