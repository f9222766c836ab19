package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/xtractpdf/internal/config"
	"github.com/a3tai/xtractpdf/internal/descriptions"
	"github.com/a3tai/xtractpdf/internal/jobs"
	"github.com/a3tai/xtractpdf/internal/logging"
	"github.com/a3tai/xtractpdf/internal/pipeline"
	"github.com/a3tai/xtractpdf/internal/security"
)

const (
	previewRows     = 5
	shutdownTimeout = 10 * time.Second
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	runner    *jobs.Runner
	inputs    *security.PathValidator
	outputs   *security.PathValidator
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, runner *jobs.Runner) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}

	inputs, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	outputs, err := security.NewPathValidator(cfg.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("output directory: %w", err)
	}

	s := &Server{
		config:  cfg,
		runner:  runner,
		inputs:  inputs,
		outputs: outputs,
		mcpServer: server.NewMCPServer(
			cfg.ServerName,
			cfg.Version,
			server.WithToolCapabilities(false),
		),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolInvoiceExtract,
		mcp.WithDescription(descriptions.InvoiceExtractDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Invoice PDF, absolute or relative to the input directory"),
		),
	), s.handleInvoiceExtract)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolManifestCompare,
		mcp.WithDescription(descriptions.ManifestCompareDescription),
		mcp.WithString("parent_1",
			mcp.Required(),
			mcp.Description("First parent manifest PDF"),
		),
		mcp.WithString("parent_2",
			mcp.Required(),
			mcp.Description("Second parent manifest PDF"),
		),
		mcp.WithString("child",
			mcp.Required(),
			mcp.Description("Child manifest PDF carrying secondary tracking numbers"),
		),
	), s.handleManifestCompare)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExportResult,
		mcp.WithDescription(descriptions.ExportResultDescription),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID returned by invoice_extract or manifest_compare"),
		),
		mcp.WithString("output_path",
			mcp.Required(),
			mcp.Description("Spreadsheet path, absolute or relative to the output directory"),
		),
	), s.handleExportResult)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolJobStatus,
		mcp.WithDescription(descriptions.JobStatusDescription),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job ID to look up"),
		),
	), s.handleJobStatus)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	), s.handleServerInfo)
}

// Handler functions
func (s *Server) handleInvoiceExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	abs, err := s.inputs.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, done, err := s.runner.SubmitInvoice(ctx, abs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.awaitOutcome(ctx, id, done), nil
}

func (s *Server) handleManifestCompare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var paths []string
	for _, name := range []string{"parent_1", "parent_2", "child"} {
		p, err := request.RequireString(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		abs, err := s.inputs.Resolve(p)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", name, err)), nil
		}
		paths = append(paths, abs)
	}

	id, done, err := s.runner.SubmitManifest(ctx, paths[:2], paths[2])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.awaitOutcome(ctx, id, done), nil
}

func (s *Server) handleExportResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := request.RequireString("output_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	abs, err := s.outputs.Resolve(out)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	dest, err := s.runner.Export(ctx, id, abs)
	if err != nil {
		if pipeline.KindOf(err) == pipeline.KindExportFailure {
			return mcp.NewToolResultError(fmt.Sprintf("%v\nThe result is kept; call %s again with another path.",
				err, descriptions.ToolExportResult)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Saved job %s to %s", id, dest)), nil
}

func (s *Server) handleJobStatus(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	job, ok := s.runner.Job(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %s", jobs.ErrUnknownJob, id)), nil
	}

	return mcp.NewToolResultText(formatJob(job)), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Input Directory: %s\n", s.inputs.Root())
	text += fmt.Sprintf("Output Directory: %s\n", s.outputs.Root())
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Invoice rows after anchor: %d\n\n", s.config.RowsAfter)

	pdfs := listPDFs(s.inputs.Root())
	if len(pdfs) > 0 {
		text += fmt.Sprintf("Input Contents (%d PDF files found):\n", len(pdfs))
		for i, name := range pdfs {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(pdfs)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s\n", i+1, name)
		}
		text += "\n"
	} else {
		text += "Input Contents: No PDF files found\n\n"
	}

	text += "Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		desc := descriptions.GetToolDescription(name)
		if first, _, ok := strings.Cut(desc, "\n"); ok {
			desc = first
		}
		text += fmt.Sprintf("• %s: %s\n", name, desc)
	}

	return mcp.NewToolResultText(text), nil
}

// awaitOutcome waits for a job and formats its outcome. When the caller
// goes away first the job keeps running and its ID is reported instead.
func (s *Server) awaitOutcome(ctx context.Context, id string, done <-chan jobs.Outcome) *mcp.CallToolResult {
	select {
	case outcome := <-done:
		return formatOutcome(outcome)
	case <-ctx.Done():
		return mcp.NewToolResultText(fmt.Sprintf("Job %s is still running; check it with %s.", id, descriptions.ToolJobStatus))
	}
}

// Formatting methods
func formatOutcome(o jobs.Outcome) *mcp.CallToolResult {
	if o.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Job %s failed [%s]: %v", o.JobID, pipeline.KindOf(o.Err), o.Err))
	}
	if o.Empty {
		return mcp.NewToolResultText(fmt.Sprintf("Job ID: %s\n%s", o.JobID, o.Message))
	}

	text := fmt.Sprintf("Job ID: %s\n", o.JobID)
	text += fmt.Sprintf("Kind: %s\n", o.Kind)
	text += fmt.Sprintf("Rows: %d\n", o.Records.Len())
	text += fmt.Sprintf("Columns: %s\n\n", strings.Join(o.Records.Columns, ", "))
	text += formatPreview(o.Records, previewRows)
	text += fmt.Sprintf("\nUse %s with this job ID to save the full result.", descriptions.ToolExportResult)
	return mcp.NewToolResultText(text)
}

func formatPreview(set pipeline.RecordSet, limit int) string {
	rows := set.Values()
	shown := min(limit, len(rows))

	var b strings.Builder
	fmt.Fprintf(&b, "Preview (%d of %d rows):\n", shown, len(rows))
	b.WriteString(strings.Join(set.Columns, "\t"))
	b.WriteByte('\n')
	for _, row := range rows[:shown] {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatJob(job jobs.Job) string {
	text := fmt.Sprintf("Job ID: %s\n", job.ID)
	text += fmt.Sprintf("Kind: %s\n", job.Kind)
	text += fmt.Sprintf("Status: %s\n", job.Status)
	text += fmt.Sprintf("Documents: %s\n", strings.Join(job.Documents, ", "))
	text += fmt.Sprintf("Started: %s\n", job.StartedAt.Format(time.RFC3339))
	if !job.FinishedAt.IsZero() {
		text += fmt.Sprintf("Finished: %s\n", job.FinishedAt.Format(time.RFC3339))
	}
	if job.Outcome != nil {
		switch {
		case job.Outcome.Err != nil:
			text += fmt.Sprintf("Error: %v\n", job.Outcome.Err)
		case job.Outcome.Empty:
			text += job.Outcome.Message + "\n"
		default:
			text += fmt.Sprintf("Rows: %d\n", job.Outcome.Records.Len())
		}
	}
	if job.ExportedTo != "" {
		text += fmt.Sprintf("Exported to: %s\n", job.ExportedTo)
	}
	if job.Kind == jobs.KindManifest && job.Outcome != nil && !job.Outcome.Records.Empty() {
		records := pipeline.ManifestRecords(job.Outcome.Records)
		records = records[:min(previewRows, len(records))]
		if data, err := json.MarshalIndent(records, "", "  "); err == nil {
			text += fmt.Sprintf("Records (first %d):\n%s\n", len(records), data)
		}
	}
	return text
}

func listPDFs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	return names
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	slog.Debug("starting MCP server in stdio mode", "dir", s.config.PDFDirectory)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// Handler returns the HTTP routes of server mode: the SSE transport at
// /sse and /message plus /healthz.
func (s *Server) Handler() http.Handler {
	sse := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s", s.config.Address())),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Requests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/sse", sse)
	r.Handle("/message", sse)

	return r
}

// runServerMode serves the SSE transport over HTTP until ctx is done.
func (s *Server) runServerMode(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening", "addr", srv.Addr, "dir", s.config.PDFDirectory)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
