// Package tools groups the tool plumbing shared by the chat engine and the
// MCP surface:
//   - [github.com/germanamz/koinonia/pkg/tools/toolbox]: Tool type and ToolBox for registering, listing and calling tools
//   - [github.com/germanamz/koinonia/pkg/tools/mcpserver]: exposes a ToolBox over MCP with the official Go SDK
package tools
