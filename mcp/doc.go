// Package mcp exposes a promptreg.Source to MCP (Model Context Protocol) clients.
//
// Server registers every entry of the Source as an MCP prompt on a
// github.com/modelcontextprotocol/go-sdk server. prompts/list keeps the Source's
// registration order and prompts/get invokes the entry. It serves over stdio
// (ServeStdio), any SDK transport (Run), or the Streamable HTTP transport
// (Server implements http.Handler).
//
// Only the prompts capability is offered; tools and resources are not.
package mcp
