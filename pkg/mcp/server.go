// Package mcp exposes the theme engine as MCP tools, so an assistant can
// resolve variable files, derive shades and split stylesheets without a
// build.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/lesstheme/pkg/mcplog"
	"github.com/gnana997/lesstheme/pkg/palette"
	"github.com/gnana997/lesstheme/pkg/shade"
)

const serverVersion = "0.1.0-dev"

// Options configures the tools.
type Options struct {
	// UI selects built-in derived templates for derive_shades and
	// substitute_colors.
	UI string

	// DerivedVars are extra templates.
	DerivedVars []string

	// CustomColorPatterns extend color validation.
	CustomColorPatterns []string
}

// Server implements the lesstheme MCP server.
type Server struct {
	mcpServer *server.MCPServer
	validator *palette.Validator
	resolver  *palette.Resolver
	generator *shade.Generator
	logger    *mcplog.Logger // nil disables the tool-call log
}

// NewServer creates a server. callLog may be nil.
func NewServer(opts Options, callLog *mcplog.Logger, logger *slog.Logger) (*Server, error) {
	validator, err := palette.NewValidator(opts.CustomColorPatterns...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		validator: validator,
		resolver:  palette.NewResolver(validator, logger),
		generator: shade.NewGenerator(opts.UI, opts.DerivedVars...),
		logger:    callLog,
	}

	serverOpts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if callLog != nil {
		serverOpts = append(serverOpts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("lesstheme", serverVersion, serverOpts...)
	s.mcpServer.AddTools(
		server.ServerTool{Tool: resolveVariablesTool(), Handler: s.handleResolveVariables},
		server.ServerTool{Tool: validateColorTool(), Handler: s.handleValidateColor},
		server.ServerTool{Tool: deriveShadesTool(), Handler: s.handleDeriveShades},
		server.ServerTool{Tool: extractColorsTool(), Handler: s.handleExtractColors},
		server.ServerTool{Tool: reduceColorsTool(), Handler: s.handleReduceColors},
		server.ServerTool{Tool: substituteColorsTool(), Handler: s.handleSubstituteColors},
	)

	return s, nil
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
