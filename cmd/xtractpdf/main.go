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

	"github.com/a3tai/xtractpdf/internal/config"
	"github.com/a3tai/xtractpdf/internal/export"
	"github.com/a3tai/xtractpdf/internal/jobs"
	"github.com/a3tai/xtractpdf/internal/logging"
	"github.com/a3tai/xtractpdf/internal/mcp"
	"github.com/a3tai/xtractpdf/internal/pipeline"
	"github.com/a3tai/xtractpdf/internal/tables"
)

var (
	version   = "dev"     // set by build flags
	buildTime = "unknown" // set by build flags
	gitCommit = "unknown" // set by build flags
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if version != "dev" {
		cfg.Version = version
	}
	slog.Debug("starting", "config", cfg.String())

	runner := newRunner(cfg)

	server, err := mcp.NewServer(cfg, runner)
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := server.Run(ctx); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}

	// Let running jobs deliver their outcomes before exiting.
	runner.Wait()
	slog.Info("server stopped")
}

func newRunner(cfg *config.Config) *jobs.Runner {
	return jobs.NewRunner(
		tables.NewPDFReader(cfg.MaxFileSize),
		export.NewXLSXSink(),
		jobs.WithInvoiceProfile(pipeline.DefaultInvoiceProfile().WithRowsAfter(cfg.RowsAfter)),
	)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "xtractpdf\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
