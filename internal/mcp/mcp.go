// Package mcp provides the imi MCP server, registering the worktree tools
// and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	imimcp "github.com/imihq/imi-mcp"
	"github.com/imihq/imi-mcp/internal/runner"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	runner *runner.Runner
	log    zerolog.Logger
}

// WorktreeResult is the normalised response returned by every tool.
type WorktreeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewServer creates an MCP server with all imi tools registered.
func NewServer(r *runner.Runner, log zerolog.Logger) *mcp.Server {
	h := &handler{runner: r, log: log}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "imi", Version: imimcp.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "imi_create_worktree",
		Description: `Create a new git worktree of the given type.

Supports built-in types (feat, fix, aiops, devops, review) and custom
user-defined types. The result includes the worktree path.`,
	}, h.createWorktreeHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "imi_review_worktree",
		Description: `Create a worktree for reviewing a pull request.

Fetches the PR branch and creates a dedicated review worktree.
Requires gh CLI authentication.`,
	}, h.reviewWorktreeHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "imi_list_worktrees",
		Description: `List active worktrees and repositories.

Returns paths, branches, and activity status.`,
	}, h.listWorktreesHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "imi_status",
		Description: "Show git status, uncommitted changes, and activity for each worktree.",
	}, h.statusHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "imi_create_project",
		Description: `Create a new project with a GitHub repository and boilerplate.

Detects the stack (Python/FastAPI, React/Vite, generic), writes boilerplate,
initialises git and pushes. Requires GITHUB_TOKEN.`,
	}, h.createProjectHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "imi_navigate",
		Description: `Locate a worktree by fuzzy search and return its absolute path.

Use the returned target path for subsequent file operations.`,
	}, h.navigateHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "imi_remove_worktree",
		Description: `Remove a worktree and optionally its branches.

Cleans up the worktree directory and associated git references.`,
	}, h.removeWorktreeHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "imi_sync",
		Description: `Reconcile the imi database with the git worktrees on disk.

Useful after manual git operations or external worktree changes.`,
	}, h.syncHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "imi_prune",
		Description: "Remove stale worktree references that no longer exist on disk.",
	}, h.pruneHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "imi_list_types",
		Description: "List built-in and user-defined worktree types.",
	}, h.listTypesHandler)

	return s
}

// run invokes imi and logs one event per call, keyed by the run ID.
func (h *handler) run(ctx context.Context, tool string, args []string) runner.Outcome {
	start := time.Now()
	raw := h.runner.Invoke(ctx, args)
	out := runner.Extract(raw)
	h.log.Info().
		Str("tool", tool).
		Str("run_id", raw.RunID).
		Strs("args", args).
		Bool("ok", out.OK).
		Int("exit_code", out.ExitCode).
		Dur("duration", time.Since(start)).
		Msg("imi call")
	return out
}

// worktreeResult renders res as JSON text content, mirroring success
// onto the MCP error flag.
func worktreeResult(res WorktreeResult) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("encoding result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: !res.Success,
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}

// orUnknown substitutes a placeholder for an empty error message.
func orUnknown(msg string) string {
	if msg == "" {
		return "Unknown error"
	}
	return msg
}
