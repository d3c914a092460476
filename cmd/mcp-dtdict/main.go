package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-dtdict/internal/config"
	"github.com/a3tai/mcp-dtdict/internal/logging"
	"github.com/a3tai/mcp-dtdict/internal/mcp"
	"github.com/a3tai/mcp-dtdict/internal/service"
	"github.com/a3tai/mcp-dtdict/internal/watch"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode. In stdio mode
// stdout carries the protocol, so logs go to stderr and only in debug.
func setupLogging(cfg *config.Config) *slog.Logger {
	return logging.Setup(os.Stderr, cfg.LogLevel, cfg.IsStdioMode())
}

// run serves MCP until ctx is done, watching the inbox alongside when
// configured.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	svc, err := service.New(cfg, service.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	server, err := mcp.NewServer(cfg, svc)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchErr := make(chan error, 1)
	if cfg.Watch {
		w := watch.New(cfg.XMLDirectory, func(ctx context.Context, path string) error {
			_, err := svc.Process(ctx, path)
			return err
		}, watch.WithLogger(logger))
		go func() { watchErr <- w.Run(ctx) }()
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Run(ctx) }()

	select {
	case err := <-serveErr:
		return err
	case err := <-watchErr:
		if err != nil {
			cancel()
			<-serveErr
			return fmt.Errorf("inbox watch failed: %w", err)
		}
		return <-serveErr
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsServerMode() {
		logger.Debug("starting", "config", cfg.String())
	}

	// In stdio mode the parent process controls our lifecycle; signals
	// matter in server mode.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP DT/DICT\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
