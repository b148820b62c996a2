// Package chats provides the provider-neutral message model the study engine
// speaks internally.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/koinonia/pkg/chats/role]: conversation roles (user, assistant)
//   - [github.com/germanamz/koinonia/pkg/chats/content]: content parts (text, thinking, tool call/result)
//   - [github.com/germanamz/koinonia/pkg/chats/message]: messages composed of a role and content parts
//   - [github.com/germanamz/koinonia/pkg/chats/chat]: mutable conversation container
//
// No provider or API code is included. Adapters translate these types to and
// from their wire formats.
package chats
