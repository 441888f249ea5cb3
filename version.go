// Package imimcp exposes the imi worktree manager as MCP tools.
package imimcp

// Version is the imi-mcp release version.
const Version = "v0.2.0"
