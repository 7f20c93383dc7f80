// Package mcp exposes the analyzer over the Model Context Protocol so
// editor agents can ask for dead-code findings directly.
package mcp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mamaar/sweeper/pkg/analysis"
	"github.com/mamaar/sweeper/pkg/report"
	"github.com/mamaar/sweeper/pkg/types"
)

// Version is the advertised server version.
const Version = "0.1.0"

// resultCache remembers the last rendered report per request shape, so an
// agent polling the same directory does not pay for a full re-analysis.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func (c *resultCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *resultCache) put(key, json string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = json
}

// NewServer builds the MCP server with the analysis tools registered.
func NewServer(workspace string, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"sweeper-mcp",
		Version,
		server.WithToolCapabilities(true),
	)
	cache := &resultCache{entries: make(map[string]string)}
	addAnalyzeWorkspaceTool(s, workspace, logger, cache)
	addListIssueTypesTool(s)
	return s
}

// addAnalyzeWorkspaceTool adds the analyze_workspace tool to the MCP server
func addAnalyzeWorkspaceTool(s *server.MCPServer, workspace string, logger *slog.Logger, cache *resultCache) {
	tool := mcp.NewTool("analyze_workspace",
		mcp.WithDescription("Analyze a JavaScript or TypeScript source tree for unused files, dependencies, exports, and binaries"),
		mcp.WithString("directory",
			mcp.Description("Directory to analyze (defaults to the server workspace)"),
		),
		mcp.WithString("include",
			mcp.Description("Comma-separated issue categories to report ("+types.FormatIssueTypes(types.AllIssueTypes)+")"),
		),
		mcp.WithString("exclude",
			mcp.Description("Comma-separated issue categories to suppress"),
		),
		mcp.WithString("workspace",
			mcp.Description("Restrict the report to one workspace by name"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Re-run the analysis even when a cached result exists"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		dir, _ := args["directory"].(string)
		if dir == "" {
			dir = workspace
		}
		include, _ := args["include"].(string)
		exclude, _ := args["exclude"].(string)
		only, _ := args["workspace"].(string)
		refresh, _ := args["refresh"].(bool)

		key := strings.Join([]string{dir, include, exclude, only}, "\x00")
		if !refresh {
			if cached, ok := cache.get(key); ok {
				return mcp.NewToolResultText(cached), nil
			}
		}

		runner := analysis.NewRunner(analysis.Options{
			Dir:       dir,
			Include:   splitList(include),
			Exclude:   splitList(exclude),
			Workspace: only,
			Logger:    logger,
		})
		result, err := runner.Run(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
		}

		var buf bytes.Buffer
		if err := report.WriteJSON(&buf, result, dir); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		cache.put(key, buf.String())
		return mcp.NewToolResultText(buf.String()), nil
	})
}

// addListIssueTypesTool adds the list_issue_types tool to the MCP server
func addListIssueTypesTool(s *server.MCPServer) {
	tool := mcp.NewTool("list_issue_types",
		mcp.WithDescription("List the issue categories the analyzer can report"),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var b strings.Builder
		for _, t := range types.AllIssueTypes {
			fmt.Fprintf(&b, "%s: %s\n", t, t.Title())
		}
		return mcp.NewToolResultText(b.String()), nil
	})
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
