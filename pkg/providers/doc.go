// Package providers groups the model provider adapters. Each sub-package
// implements [github.com/germanamz/koinonia/pkg/modeladapter.Streamer] for
// one vendor API and registers with the engine's provider registry by kind:
//   - [github.com/germanamz/koinonia/pkg/providers/anthropic]: Messages API streaming with extended thinking, tool use and token counting
package providers
