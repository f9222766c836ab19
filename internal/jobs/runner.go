// Package jobs runs extraction workflows in the background.
//
// Each submitted job runs on its own goroutine and delivers exactly one
// Outcome. A started job is never cancelled and never retried. At most one
// active job may hold a given document. Finished outcomes are retained by
// job ID so a failed export can be retried.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/xtractpdf/internal/export"
	"github.com/a3tai/xtractpdf/internal/logging"
	"github.com/a3tai/xtractpdf/internal/pipeline"
	"github.com/a3tai/xtractpdf/internal/tables"
)

// Kind names a workflow.
type Kind string

const (
	KindInvoice  Kind = "invoice"
	KindManifest Kind = "manifest"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Messages reported with empty results.
const (
	NoInvoiceData  = "No matching data found."
	NoParentData   = "Parent manifests produced no data"
	noExportRecord = "No data to save"
)

var (
	// ErrJobActive is returned when a document is already held by a
	// running job.
	ErrJobActive = errors.New("a job for this document is already running")
	// ErrUnknownJob is returned for IDs the runner never issued.
	ErrUnknownJob = errors.New("unknown job")
	// ErrNoResult is returned when exporting a job that is still running,
	// failed, or found no data.
	ErrNoResult = errors.New("job has no result to export")
)

// Outcome is the single report of a finished job.
type Outcome struct {
	JobID   string             `json:"job_id"`
	Kind    Kind               `json:"kind"`
	Records pipeline.RecordSet `json:"-"`
	// Empty is set when the workflow found nothing; Message says why.
	Empty   bool   `json:"empty"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// Job is a snapshot of a submitted job.
type Job struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Documents  []string  `json:"documents"`
	Status     Status    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	ExportedTo string    `json:"exported_to,omitempty"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
}

// Runner submits and tracks jobs.
type Runner struct {
	source   tables.Source
	sink     export.Sink
	invoice  pipeline.InvoiceProfile
	manifest pipeline.ManifestProfile

	mu     sync.Mutex
	jobs   map[string]*Job
	active map[string]string
	wg     sync.WaitGroup
}

// Option configures a Runner.
type Option func(*Runner)

// WithInvoiceProfile overrides the invoice configuration.
func WithInvoiceProfile(p pipeline.InvoiceProfile) Option {
	return func(r *Runner) { r.invoice = p }
}

// WithManifestProfile overrides the manifest configuration.
func WithManifestProfile(p pipeline.ManifestProfile) Option {
	return func(r *Runner) { r.manifest = p }
}

// NewRunner creates a runner reading grids from source and exporting
// through sink.
func NewRunner(source tables.Source, sink export.Sink, opts ...Option) *Runner {
	r := &Runner{
		source:   source,
		sink:     sink,
		invoice:  pipeline.DefaultInvoiceProfile(),
		manifest: pipeline.DefaultManifestProfile(),
		jobs:     make(map[string]*Job),
		active:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SubmitInvoice starts an invoice extraction for path.
func (r *Runner) SubmitInvoice(ctx context.Context, path string) (string, <-chan Outcome, error) {
	if path == "" {
		return "", nil, fmt.Errorf("invoice path cannot be empty")
	}
	return r.submit(ctx, KindInvoice, []string{path}, func(ctx context.Context) Outcome {
		grids, err := r.source.ExtractGrids(ctx, path)
		if err != nil {
			return Outcome{Err: err}
		}
		set := pipeline.ExtractInvoice(grids, r.invoice)
		if set.Empty() {
			return Outcome{Records: set, Empty: true, Message: NoInvoiceData}
		}
		return Outcome{Records: set}
	})
}

// SubmitManifest starts a manifest comparison of the parent documents
// against the child document. The documents are read concurrently.
func (r *Runner) SubmitManifest(ctx context.Context, parents []string, child string) (string, <-chan Outcome, error) {
	if len(parents) == 0 {
		return "", nil, fmt.Errorf("at least one parent manifest is required")
	}
	docs := append(append([]string(nil), parents...), child)
	for _, d := range docs {
		if d == "" {
			return "", nil, fmt.Errorf("manifest paths cannot be empty")
		}
	}

	return r.submit(ctx, KindManifest, docs, func(ctx context.Context) Outcome {
		grids := make([][]pipeline.RawTableGrid, len(docs))
		g, gctx := errgroup.WithContext(ctx)
		for i, doc := range docs {
			g.Go(func() error {
				out, err := r.source.ExtractGrids(gctx, doc)
				if err != nil {
					return err
				}
				grids[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Outcome{Err: err}
		}

		var parentGrids []pipeline.RawTableGrid
		for _, gs := range grids[:len(parents)] {
			parentGrids = append(parentGrids, gs...)
		}

		set, err := pipeline.CompareManifests(parentGrids, grids[len(parents)], r.manifest)
		if err != nil {
			return Outcome{Err: err}
		}
		if set.Empty() {
			return Outcome{Records: set, Empty: true, Message: NoParentData}
		}
		return Outcome{Records: set}
	})
}

func (r *Runner) submit(ctx context.Context, kind Kind, docs []string, work func(context.Context) Outcome) (string, <-chan Outcome, error) {
	id := uuid.New().String()

	keys := make([]string, len(docs))
	for i, d := range docs {
		keys[i] = filepath.Clean(d)
	}

	r.mu.Lock()
	for _, k := range keys {
		if holder, busy := r.active[k]; busy {
			r.mu.Unlock()
			return "", nil, fmt.Errorf("%w: %s (job %s)", ErrJobActive, k, holder)
		}
	}
	for _, k := range keys {
		r.active[k] = id
	}
	job := &Job{
		ID:        id,
		Kind:      kind,
		Documents: append([]string(nil), docs...),
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	r.jobs[id] = job
	r.mu.Unlock()

	// The job outlives the caller's context.
	jobCtx := context.WithoutCancel(ctx)
	logger := logging.WithJob(jobCtx, id, string(kind))
	logger.Info("job started", "documents", docs)

	done := make(chan Outcome, 1)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		outcome := r.run(jobCtx, work)
		outcome.JobID = id
		outcome.Kind = kind

		r.finish(job, keys, outcome)
		if outcome.Err != nil {
			logger.Error("job failed", "error", outcome.Err, "kind", pipeline.KindOf(outcome.Err).String())
		} else {
			logger.Info("job finished", "rows", outcome.Records.Len(), "empty", outcome.Empty)
		}

		done <- outcome
		close(done)
	}()

	return id, done, nil
}

func (r *Runner) run(ctx context.Context, work func(context.Context) Outcome) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = Outcome{Err: fmt.Errorf("internal error: %v", rec)}
		}
	}()
	return work(ctx)
}

func (r *Runner) finish(job *Job, keys []string, outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range keys {
		if r.active[k] == job.ID {
			delete(r.active, k)
		}
	}

	job.FinishedAt = time.Now()
	job.Outcome = &outcome
	if outcome.Err != nil {
		job.Status = StatusFailed
	} else {
		job.Status = StatusSucceeded
	}
}

// Job returns a snapshot of the job with the given ID.
func (r *Runner) Job(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	snap := *job
	snap.Documents = append([]string(nil), job.Documents...)
	if job.Outcome != nil {
		o := *job.Outcome
		snap.Outcome = &o
	}
	return snap, true
}

// Export writes the retained records of a finished job to path, adding the
// .xlsx extension when missing. A failed export leaves the records in place
// for another attempt.
func (r *Runner) Export(ctx context.Context, id, path string) (string, error) {
	job, ok := r.Job(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	if job.Status != StatusSucceeded || job.Outcome == nil || job.Outcome.Records.Empty() {
		return "", fmt.Errorf("%w: %s", ErrNoResult, noExportRecord)
	}

	logger := logging.WithJob(ctx, id, string(job.Kind))
	dest, err := r.sink.Save(job.Outcome.Records, path)
	if err != nil {
		logger.Warn("export failed", "path", path, "error", err)
		return "", err
	}

	r.mu.Lock()
	if j, ok := r.jobs[id]; ok {
		j.ExportedTo = dest
	}
	r.mu.Unlock()

	logger.Info("export written", "path", dest, "rows", job.Outcome.Records.Len())
	return dest, nil
}

// Wait blocks until every submitted job has delivered its outcome.
func (r *Runner) Wait() {
	r.wg.Wait()
}
