// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the plugin registry to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/plugreg/plugreg/internal/pluginservice"
	"github.com/plugreg/plugreg/internal/store"
)

// Server wraps the MCP server with plugin registry tools.
type Server struct {
	mcp *server.MCPServer
	svc *pluginservice.Service
}

// New creates a new MCP server with all registry tools registered.
func New(svc *pluginservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Plugreg",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_plugins",
		mcp.WithDescription("Search registered Capacitor plugins by id, name and keywords."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPlugins)

	s.mcp.AddTool(mcp.NewTool("get_plugin",
		mcp.WithDescription("Get a registered plugin with its like and rating counters."),
		mcp.WithString("package_id", mcp.Required(), mcp.Description("npm package id (e.g. @capacitor/camera)")),
	), s.getPlugin)

	s.mcp.AddTool(mcp.NewTool("get_plugin_readme",
		mcp.WithDescription("Fetch the README of the latest published version of a plugin."),
		mcp.WithString("package_id", mcp.Required(), mcp.Description("npm package id")),
	), s.getPluginReadme)

	s.mcp.AddTool(mcp.NewTool("lookup_npm_package",
		mcp.WithDescription("Look up an npm package's latest manifest and verify it is a Capacitor plugin."),
		mcp.WithString("package_id", mcp.Required(), mcp.Description("npm package id")),
	), s.lookupNPMPackage)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchPlugins(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summaries, _, err := s.svc.Search(ctx, store.SearchQuery{Query: query, Limit: 20})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPlugin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	packageID, err := req.RequireString("package_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary, err := s.svc.Get(ctx, packageID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPluginReadme(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	packageID, err := req.RequireString("package_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contents, _, err := s.svc.Readme(ctx, packageID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(contents), nil
}

func (s *Server) lookupNPMPackage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	packageID, err := req.RequireString("package_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.svc.Lookup(ctx, packageID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(m.Raw)), nil
}
