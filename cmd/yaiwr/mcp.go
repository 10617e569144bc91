package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	yaiwr "github.com/softdevteam/pavel.yaiwr"
)

// session is one persistent interpreter shared by every MCP tool call.
type session struct {
	mu  sync.Mutex
	ip  *yaiwr.Interpreter
	out bytes.Buffer
}

func newSession(cfg Config, logger *slog.Logger) *session {
	s := &session{}
	s.ip = yaiwr.NewInterpreter(
		yaiwr.WithOutput(&s.out),
		yaiwr.WithLogger(logger),
		yaiwr.WithMaxCallDepth(cfg.MaxCallDepth),
	)
	return s
}

func (s *session) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := request.RequireString("src")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	persistent := request.GetBool("persistent", true)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Reset()

	eval := s.ip.EvalPersistentSource
	if !persistent {
		eval = s.ip.EvalSource
	}
	v, ok, err := eval(src)
	printed := s.out.String()
	if err != nil {
		return mcp.NewToolResultError(printed + errorText(err)), nil
	}

	var b strings.Builder
	b.WriteString(printed)
	if ok {
		fmt.Fprintf(&b, "=> %s", v)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *session) handleCompile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := request.RequireString("src")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listing, err := yaiwr.Disassemble(src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(listing), nil
}

func (s *session) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ip.Reset()
	return mcp.NewToolResultText("session cleared"), nil
}

func (s *session) handleScope(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mcp.NewToolResultText(strings.Join(s.ip.Global.Names(), "\n")), nil
}

func newMCPServer(s *session) *server.MCPServer {
	srv := server.NewMCPServer(
		"yaiwr",
		yaiwr.Version,
		server.WithToolCapabilities(false),
	)

	srv.AddTool(
		mcp.NewTool("yaiwr_eval",
			mcp.WithDescription("Evaluate yaiwr source in the session. Returns printed output and the final value."),
			mcp.WithString("src",
				mcp.Required(),
				mcp.Description("yaiwr statements, e.g. fun add(a, b) { return a + b; } add(1, 2)"),
			),
			mcp.WithBoolean("persistent",
				mcp.Description("Keep declarations in the session scope (default true)."),
			),
		),
		s.handleEval,
	)

	srv.AddTool(
		mcp.NewTool("yaiwr_compile",
			mcp.WithDescription("Compile yaiwr source and return the bytecode listing without running it."),
			mcp.WithString("src",
				mcp.Required(),
				mcp.Description("yaiwr source to compile"),
			),
		),
		s.handleCompile,
	)

	srv.AddTool(
		mcp.NewTool("yaiwr_scope",
			mcp.WithDescription("List the names bound in the session scope."),
		),
		s.handleScope,
	)

	srv.AddTool(
		mcp.NewTool("yaiwr_reset",
			mcp.WithDescription("Drop every binding in the session scope."),
		),
		s.handleReset,
	)

	return srv
}

func (a *app) cmdMCP(args []string) int {
	if len(args) != 0 {
		fmt.Fprintf(a.stderr, "usage: %s mcp\n", appName)
		return 2
	}
	logger, err := a.cfg.logger(a.stderr)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return 2
	}
	logger.Info("serving MCP on stdio")
	if err := server.ServeStdio(newMCPServer(newSession(a.cfg, logger))); err != nil {
		fmt.Fprintf(a.stderr, "%s: mcp server: %v\n", appName, err)
		return 1
	}
	return 0
}
