package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/sessionstore"
	"github.com/claude/liftlog/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (local mode, queries Postgres directly)")
	serverURL := flag.String("server", "", "LiftLog server URL (remote mode, queries the REST API)")
	apiKey := flag.String("api-key", os.Getenv("LIFTLOG_AUTH_API_KEY"), "API key for remote mode")
	stateDir := flag.String("state-dir", "", "session state directory for the active_session resource")
	flag.Parse()

	// Logs go to stderr; stdout carries the MCP stdio transport.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	switch {
	case *serverURL != "":
		if *apiKey == "" {
			fmt.Fprintln(os.Stderr, "Error: -api-key (or LIFTLOG_AUTH_API_KEY) is required with -server")
			os.Exit(1)
		}
		ds = mcp.NewHTTPClient(*serverURL, *apiKey)
		log.Info("remote mode", "server", *serverURL)
	case *configPath != "":
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		db, err := storage.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if *stateDir == "" {
			*stateDir = cfg.Session.StateDirOrDefault()
		}
		ds = db
		log.Info("local mode", "database", cfg.Database.Name)
	default:
		fmt.Fprintln(os.Stderr, "Usage: liftlog-mcp -config config.yaml | -server <URL> -api-key <key>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var snaps *sessionstore.Store
	if *stateDir != "" {
		var err error
		snaps, err = sessionstore.Open(*stateDir)
		if err != nil {
			log.Warn("session state unavailable", "error", err)
		} else {
			defer snaps.Close()
		}
	}

	s := mcp.New(ds, snaps, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
