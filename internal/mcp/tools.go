package mcp

import (
	"context"
	"fmt"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type createWorktreeParams struct {
	Name string `json:"name" jsonschema:"descriptive name for the worktree (e.g. user-authentication)"`
	Type string `json:"worktree_type,omitempty" jsonschema:"worktree type: feat, fix, aiops, devops, review, or a custom type (default feat)"`
	Repo string `json:"repo,omitempty" jsonschema:"repository name (defaults to the current repo)"`
}

func (h *handler) createWorktreeHandler(ctx context.Context, req *mcp.CallToolRequest, params createWorktreeParams) (*mcp.CallToolResult, any, error) {
	if params.Name == "" {
		return errorResult("name is required")
	}
	wtype := params.Type
	if wtype == "" {
		wtype = "feat"
	}

	args := []string{"add", wtype, params.Name}
	if params.Repo != "" {
		args = append(args, "--repo", params.Repo)
	}

	out := h.run(ctx, "imi_create_worktree", args)
	if out.OK && out.Payload != nil {
		return worktreeResult(WorktreeResult{
			Success: true,
			Message: fmt.Sprintf("Worktree %q created successfully", params.Name),
			Data:    out.Payload,
		})
	}
	return worktreeResult(WorktreeResult{
		Success: false,
		Message: fmt.Sprintf("Failed to create worktree %q", params.Name),
		Error:   orUnknown(out.Error),
	})
}

type reviewWorktreeParams struct {
	PRNumber int    `json:"pr_number" jsonschema:"pull request number to review"`
	Repo     string `json:"repo,omitempty" jsonschema:"repository name (defaults to the current repo)"`
}

func (h *handler) reviewWorktreeHandler(ctx context.Context, req *mcp.CallToolRequest, params reviewWorktreeParams) (*mcp.CallToolResult, any, error) {
	if params.PRNumber <= 0 {
		return errorResult("pr_number must be a positive integer")
	}

	args := []string{"review", strconv.Itoa(params.PRNumber)}
	if params.Repo != "" {
		args = append(args, params.Repo)
	}

	out := h.run(ctx, "imi_review_worktree", args)
	if out.OK && out.Payload != nil {
		return worktreeResult(WorktreeResult{
			Success: true,
			Message: fmt.Sprintf("Review worktree for PR #%d created successfully", params.PRNumber),
			Data:    out.Payload,
		})
	}
	return worktreeResult(WorktreeResult{
		Success: false,
		Message: fmt.Sprintf("Failed to create review worktree for PR #%d", params.PRNumber),
		Error:   orUnknown(out.Error),
	})
}

type listWorktreesParams struct {
	Repo          string `json:"repo,omitempty" jsonschema:"repository name (defaults to all repos)"`
	WorktreesOnly bool   `json:"worktrees_only,omitempty" jsonschema:"list only worktrees, excluding projects"`
	ProjectsOnly  bool   `json:"projects_only,omitempty" jsonschema:"list only projects, excluding worktrees"`
}

func (h *handler) listWorktreesHandler(ctx context.Context, req *mcp.CallToolRequest, params listWorktreesParams) (*mcp.CallToolResult, any, error) {
	args := []string{"list"}
	if params.Repo != "" {
		args = append(args, "--repo", params.Repo)
	}
	if params.WorktreesOnly {
		args = append(args, "--worktrees")
	}
	if params.ProjectsOnly {
		args = append(args, "--projects")
	}

	out := h.run(ctx, "imi_list_worktrees", args)
	if out.OK {
		// Some imi builds answer list with plain text only.
		data := out.Payload
		if data == nil {
			data = map[string]any{"output": out.Stdout}
		}
		return worktreeResult(WorktreeResult{
			Success: true,
			Message: "Worktrees listed successfully",
			Data:    data,
		})
	}
	return worktreeResult(WorktreeResult{
		Success: false,
		Message: "Failed to list worktrees",
		Error:   orUnknown(out.Error),
	})
}

type statusParams struct {
	Repo string `json:"repo,omitempty" jsonschema:"repository name (defaults to all repos)"`
}

func (h *handler) statusHandler(ctx context.Context, req *mcp.CallToolRequest, params statusParams) (*mcp.CallToolResult, any, error) {
	args := []string{"status"}
	if params.Repo != "" {
		args = append(args, "--repo", params.Repo)
	}

	out := h.run(ctx, "imi_status", args)
	if out.OK {
		data := out.Payload
		if data == nil {
			data = map[string]any{"output": out.Stdout}
		}
		return worktreeResult(WorktreeResult{
			Success: true,
			Message: "Status retrieved successfully",
			Data:    data,
		})
	}
	return worktreeResult(WorktreeResult{
		Success: false,
		Message: "Failed to retrieve status",
		Error:   orUnknown(out.Error),
	})
}

type createProjectParams struct {
	Concept string `json:"concept,omitempty" jsonschema:"project concept description in natural language"`
	PRD     string `json:"prd,omitempty" jsonschema:"path to a PRD markdown file"`
	Name    string `json:"name,omitempty" jsonschema:"explicit project name (inferred from concept or PRD when omitted)"`
	Payload string `json:"payload,omitempty" jsonschema:"JSON payload for a structured project definition"`
}

func (h *handler) createProjectHandler(ctx context.Context, req *mcp.CallToolRequest, params createProjectParams) (*mcp.CallToolResult, any, error) {
	args := []string{"project", "create"}
	if params.Concept != "" {
		args = append(args, "--concept", params.Concept)
	}
	if params.PRD != "" {
		args = append(args, "--prd", params.PRD)
	}
	if params.Name != "" {
		args = append(args, "--name", params.Name)
	}
	if params.Payload != "" {
		args = append(args, "--payload", params.Payload)
	}

	out := h.run(ctx, "imi_create_project", args)
	if out.OK && out.Payload != nil {
		return worktreeResult(WorktreeResult{
			Success: true,
			Message: "Project created successfully",
			Data:    out.Payload,
		})
	}
	return worktreeResult(WorktreeResult{
		Success: false,
		Message: "Failed to create project",
		Error:   orUnknown(out.Error),
	})
}

type navigateParams struct {
	Query string `json:"query,omitempty" jsonschema:"fuzzy search query: worktree name, branch name, or repo name"`
	Repo  string `json:"repo,omitempty" jsonschema:"exact repository name (skips fuzzy search within this repo)"`
}

func (h *handler) navigateHandler(ctx context.Context, req *mcp.CallToolRequest, params navigateParams) (*mcp.CallToolResult, any, error) {
	args := []string{"go"}
	if params.Query != "" {
		args = append(args, params.Query)
	}
	if params.Repo != "" {
		args = append(args, "--repo", params.Repo)
	}

	out := h.run(ctx, "imi_navigate", args)
	if out.OK && out.Payload != nil {
		return worktreeResult(WorktreeResult{
			Success: true,
			Message: "Worktree located successfully",
			Data:    out.Payload,
		})
	}
	return worktreeResult(WorktreeResult{
		Success: false,
		Message: "Failed to locate worktree",
		Error:   orUnknown(out.Error),
	})
}

type removeWorktreeParams struct {
	Name       string `json:"name" jsonschema:"name of the worktree to remove"`
	Repo       string `json:"repo,omitempty" jsonschema:"repository name (defaults to the current repo)"`
	KeepBranch bool   `json:"keep_branch,omitempty" jsonschema:"keep the local branch after removing the worktree"`
	KeepRemote bool   `json:"keep_remote,omitempty" jsonschema:"keep the remote branch after removing the worktree (requires keep_branch)"`
}

func (h *handler) removeWorktreeHandler(ctx context.Context, req *mcp.CallToolRequest, params removeWorktreeParams) (*mcp.CallToolResult, any, error) {
	if params.Name == "" {
		return errorResult("name is required")
	}

	args := []string{"remove", params.Name}
	if params.Repo != "" {
		args = append(args, "--repo", params.Repo)
	}
	if params.KeepBranch {
		args = append(args, "--keep-branch")
	}
	if params.KeepRemote {
		args = append(args, "--keep-remote")
	}

	out := h.run(ctx, "imi_remove_worktree", args)
	if out.OK && out.Payload != nil {
		return worktreeResult(WorktreeResult{
			Success: true,
			Message: fmt.Sprintf("Worktree %q removed successfully", params.Name),
			Data:    out.Payload,
		})
	}
	return worktreeResult(WorktreeResult{
		Success: false,
		Message: fmt.Sprintf("Failed to remove worktree %q", params.Name),
		Error:   orUnknown(out.Error),
	})
}

type syncParams struct {
	Repo string `json:"repo,omitempty" jsonschema:"repository name (defaults to all repos)"`
}

func (h *handler) syncHandler(ctx context.Context, req *mcp.CallToolRequest, params syncParams) (*mcp.CallToolResult, any, error) {
	args := []string{"sync"}
	if params.Repo != "" {
		args = append(args, "--repo", params.Repo)
	}

	out := h.run(ctx, "imi_sync", args)
	if out.OK && out.Payload != nil {
		return worktreeResult(WorktreeResult{
			Success: true,
			Message: "Worktrees synced successfully",
			Data:    out.Payload,
		})
	}
	return worktreeResult(WorktreeResult{
		Success: false,
		Message: "Failed to sync worktrees",
		Error:   orUnknown(out.Error),
	})
}

type pruneParams struct {
	Repo   string `json:"repo,omitempty" jsonschema:"repository name (defaults to the current repo)"`
	DryRun bool   `json:"dry_run,omitempty" jsonschema:"show what would be removed without removing it"`
}

func (h *handler) pruneHandler(ctx context.Context, req *mcp.CallToolRequest, params pruneParams) (*mcp.CallToolResult, any, error) {
	args := []string{"prune"}
	if params.Repo != "" {
		args = append(args, "--repo", params.Repo)
	}
	if params.DryRun {
		args = append(args, "--dry-run")
	}

	out := h.run(ctx, "imi_prune", args)
	if out.OK && out.Payload != nil {
		return worktreeResult(WorktreeResult{
			Success: true,
			Message: "Prune completed successfully",
			Data:    out.Payload,
		})
	}
	return worktreeResult(WorktreeResult{
		Success: false,
		Message: "Failed to prune worktrees",
		Error:   orUnknown(out.Error),
	})
}

type listTypesParams struct{}

func (h *handler) listTypesHandler(ctx context.Context, req *mcp.CallToolRequest, _ listTypesParams) (*mcp.CallToolResult, any, error) {
	out := h.run(ctx, "imi_list_types", []string{"types", "list"})
	if out.OK && out.Payload != nil {
		return worktreeResult(WorktreeResult{
			Success: true,
			Message: "Worktree types listed successfully",
			Data:    out.Payload,
		})
	}
	return worktreeResult(WorktreeResult{
		Success: false,
		Message: "Failed to list worktree types",
		Error:   orUnknown(out.Error),
	})
}
