// Package mcp exposes the coaching data to LLM assistants over the
// Model Context Protocol: exercise history, the max ledger, program
// definitions, and the locally active session.
package mcp

import (
	"log/slog"

	"github.com/claude/liftlog/internal/sessionstore"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
// snaps may be nil when no local session state exists (remote mode);
// the active-session resource then reports no session.
func New(ds DataSource, snaps *sessionstore.Store, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout coaching server. Query an athlete's logged sets, personal record history, workout programs, and scheduled sessions."),
	)

	h := &handlers{ds: ds, snaps: snaps, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetExerciseLogs, Handler: h.getExerciseLogs},
		server.ServerTool{Tool: toolGetAthleteMaxes, Handler: h.getAthleteMaxes},
		server.ServerTool{Tool: toolGetWorkoutProgram, Handler: h.getWorkoutProgram},
		server.ServerTool{Tool: toolListInstances, Handler: h.listInstances},
	)

	s.AddResources(
		server.ServerResource{Resource: resActiveSession, Handler: h.activeSession},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds    DataSource
	snaps *sessionstore.Store
	log   *slog.Logger
}
