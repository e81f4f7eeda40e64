package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/recommend"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Orchestrator *recommend.Orchestrator
	Version      string
}

// NewMCPServer creates an MCP server with the learning-path tools and
// resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"lms",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("lms: recommend a staged learning path of courses for a goal and curate the courses the user keeps."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("generate_learning_path",
			mcp.WithDescription("Recommend courses for a learning goal, grouped into foundation, intermediate, advanced and specialization stages."),
			mcp.WithString("goal", mcp.Description("What the learner wants to achieve"), mcp.Required()),
			mcp.WithString("level", mcp.Description("Current level of the learner")),
			mcp.WithString("preferences", mcp.Description("Comma or pipe separated topics to favour")),
			mcp.WithString("mode", mcp.Description("guided (more explanation) or direct"), mcp.Enum("guided", "direct")),
		),
		mcpGenerate(deps),
	)

	s.AddTool(
		mcp.NewTool("get_learning_path",
			mcp.WithDescription("Return the current recommendation by stage and the courses the user has kept."),
		),
		mcpGetPath(deps),
	)

	s.AddTool(
		mcp.NewTool("add_to_path",
			mcp.WithDescription("Keep a recommended course in the user's learning path."),
			mcp.WithNumber("course_id", mcp.Description("Course id"), mcp.Required()),
		),
		mcpPathItem(deps, true),
	)

	s.AddTool(
		mcp.NewTool("remove_from_path",
			mcp.WithDescription("Remove a course from the user's learning path."),
			mcp.WithNumber("course_id", mcp.Description("Course id"), mcp.Required()),
		),
		mcpPathItem(deps, false),
	)

	s.AddTool(
		mcp.NewTool("save_learning_path",
			mcp.WithDescription("Save the kept courses on the LMS as a named learning path for the current recommendation."),
			mcp.WithString("name", mcp.Description("Name of the saved path (defaults to one built from the goal)")),
		),
		mcpSavePath(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"lms://path",
			"Learning Path",
			mcp.WithResourceDescription("Courses the user has kept, in the order they were added"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourcePath(deps),
	)

	return s
}

func mcpGenerate(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		goal, err := req.RequireString("goal")
		if err != nil {
			return mcpError("goal is required"), nil
		}

		in := recommend.Input{
			Goal:           goal,
			CurrentLevel:   req.GetString("level", ""),
			PreferenceText: req.GetString("preferences", ""),
			Mode:           recommend.Mode(req.GetString("mode", string(recommend.ModeGuided))),
		}
		if _, err := deps.Orchestrator.Generate(ctx, in); err != nil {
			return mcpError(fmt.Sprintf("generating learning path failed: %v", err)), nil
		}
		if err := deps.Orchestrator.WaitHydrated(ctx); err != nil {
			return mcpError(fmt.Sprintf("loading course details: %v", err)), nil
		}

		v, _ := currentView(deps.Orchestrator)
		return mcpJSON(v)
	}
}

func mcpGetPath(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := map[string]any{"path": pathView(deps.Orchestrator)}
		if v, ok := currentView(deps.Orchestrator); ok {
			out["recommendation"] = v
		}
		return mcpJSON(out)
	}
}

func mcpPathItem(deps MCPDeps, add bool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := req.GetInt("course_id", 0)
		if id <= 0 {
			return mcpError("course_id must be a positive integer"), nil
		}

		var err error
		if add {
			err = deps.Orchestrator.AddToPath(int64(id))
		} else {
			err = deps.Orchestrator.RemoveFromPath(int64(id))
		}
		if err != nil {
			return mcpError(fmt.Sprintf("updating path failed: %v", err)), nil
		}
		return mcpJSON(pathView(deps.Orchestrator))
	}
}

func mcpSavePath(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.GetString("name", "")
		id, err := deps.Orchestrator.SavePathToServer(ctx, "", name, deps.Orchestrator.Path())
		if err != nil {
			return mcpError(fmt.Sprintf("saving learning path failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Saved learning path %d", id)), nil
	}
}

func mcpResourcePath(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(pathView(deps.Orchestrator))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal path: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
