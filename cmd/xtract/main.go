// Command xtract runs the invoice and manifest workflows from the shell and
// writes the result to an .xlsx file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/xtractpdf/internal/config"
	"github.com/a3tai/xtractpdf/internal/export"
	"github.com/a3tai/xtractpdf/internal/jobs"
	"github.com/a3tai/xtractpdf/internal/logging"
	"github.com/a3tai/xtractpdf/internal/pipeline"
	"github.com/a3tai/xtractpdf/internal/tables"
)

const (
	cmdInvoice  = "invoice"
	cmdManifest = "manifest"
)

var errUsage = errors.New("usage")

// options holds the parsed command line.
type options struct {
	command   string
	invoice   string
	parents   []string
	child     string
	output    string
	rowsAfter int
	maxSize   int64
	logLevel  string
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) || errors.Is(err, errUsage) {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logging.Setup(opts.logLevel, config.FormatText)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := tables.NewPDFReader(opts.maxSize)
	if err := run(ctx, opts, source, export.NewXLSXSink(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	if len(args) == 0 {
		return nil, errUsage
	}

	opts := &options{command: args[0]}
	fs := pflag.NewFlagSet("xtract "+opts.command, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.output, "output", "o", "", "Output .xlsx path (required)")
	fs.Int64Var(&opts.maxSize, "maxfilesize", config.DefaultMaxFileSize, "Maximum PDF file size in bytes")
	fs.StringVar(&opts.logLevel, "loglevel", config.DefaultLogLevel, "Log level (debug, info, warn, error)")

	switch opts.command {
	case cmdInvoice:
		fs.IntVar(&opts.rowsAfter, "rowsafter", pipeline.DefaultRowsAfter, "Rows read after each anchor row")
	case cmdManifest:
		fs.StringArrayVar(&opts.parents, "parent", nil, "Parent manifest PDF (repeatable)")
		fs.StringVar(&opts.child, "child", "", "Child manifest PDF")
	case "-h", "--help", "help":
		return nil, pflag.ErrHelp
	default:
		return nil, fmt.Errorf("unknown command %q", opts.command)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	if opts.output == "" {
		return nil, fmt.Errorf("%s: --output is required", opts.command)
	}
	if opts.maxSize <= 0 {
		return nil, fmt.Errorf("--maxfilesize must be positive")
	}
	if !logging.ValidLevel(opts.logLevel) {
		return nil, fmt.Errorf("invalid log level %q", opts.logLevel)
	}

	switch opts.command {
	case cmdInvoice:
		if fs.NArg() != 1 {
			return nil, fmt.Errorf("invoice: expected exactly one PDF, got %d", fs.NArg())
		}
		if opts.rowsAfter < 0 {
			return nil, fmt.Errorf("--rowsafter cannot be negative")
		}
		opts.invoice = fs.Arg(0)
	case cmdManifest:
		if len(opts.parents) == 0 || opts.child == "" {
			return nil, fmt.Errorf("manifest: at least one --parent and a --child are required")
		}
		if fs.NArg() != 0 {
			return nil, fmt.Errorf("manifest: unexpected arguments %v", fs.Args())
		}
	}
	return opts, nil
}

func run(ctx context.Context, opts *options, source tables.Source, sink export.Sink, stdout io.Writer) error {
	runner := jobs.NewRunner(source, sink,
		jobs.WithInvoiceProfile(pipeline.DefaultInvoiceProfile().WithRowsAfter(opts.rowsAfter)))
	defer runner.Wait()

	var (
		id      string
		results <-chan jobs.Outcome
		err     error
	)
	switch opts.command {
	case cmdInvoice:
		id, results, err = runner.SubmitInvoice(ctx, opts.invoice)
	case cmdManifest:
		id, results, err = runner.SubmitManifest(ctx, opts.parents, opts.child)
	default:
		return fmt.Errorf("unknown command %q", opts.command)
	}
	if err != nil {
		return err
	}

	var outcome jobs.Outcome
	select {
	case outcome = <-results:
	case <-ctx.Done():
		return fmt.Errorf("interrupted while job %s was running", id)
	}

	if outcome.Err != nil {
		return outcome.Err
	}
	if outcome.Empty {
		fmt.Fprintln(stdout, outcome.Message)
		return nil
	}

	dest, err := runner.Export(ctx, id, opts.output)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Saved %d rows to %s\n", outcome.Records.Len(), dest)
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage:
  xtract invoice <file.pdf> -o <out.xlsx> [--rowsafter N]
  xtract manifest --parent <a.pdf> [--parent <b.pdf>] --child <c.pdf> -o <out.xlsx>

Common flags:
  -o, --output       Output .xlsx path (extension added when missing)
      --maxfilesize  Maximum PDF file size in bytes (default %d)
      --loglevel     Log level: debug, info, warn, error (default %s)
`, config.DefaultMaxFileSize, config.DefaultLogLevel)
}
