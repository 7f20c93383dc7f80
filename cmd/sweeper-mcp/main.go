package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mamaar/sweeper/internal/mcp"
)

func main() {
	var (
		workspaceFlag = flag.String("workspace", "", "Root workspace directory (defaults to current directory)")
		portFlag      = flag.Int("port", 0, "TCP port to listen on (0 for stdio)")
		debugFlag     = flag.Bool("debug", false, "Enable debug logging")
		versionFlag   = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("sweeper-mcp v%s\n", mcp.Version)
		fmt.Println("Model Context Protocol server for dead code analysis")
		os.Exit(0)
	}

	log.SetFlags(0)

	workspace := *workspaceFlag
	if workspace == "" {
		var err error
		workspace, err = os.Getwd()
		if err != nil {
			log.Fatalf("Failed to get current directory: %v", err)
		}
	}
	workspace, err := filepath.Abs(workspace)
	if err != nil {
		log.Fatalf("Failed to resolve workspace path: %v", err)
	}

	level := slog.LevelWarn
	if *debugFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	log.Printf("Starting MCP server for workspace: %s", workspace)

	srv := mcp.NewServer(workspace, logger)
	if *portFlag == 0 {
		if err := server.ServeStdio(srv); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	} else {
		httpServer := server.NewStreamableHTTPServer(srv)
		log.Printf("Starting HTTP server on port %d", *portFlag)
		if err := httpServer.Start(fmt.Sprintf(":%d", *portFlag)); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}
}
