// Package engine advances leads through their flows one queued job at a time.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/leadflow/pkg/activity"
	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/otelhelper"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// FlowSource loads normalized flows.
type FlowSource interface {
	LoadFlow(ctx context.Context, flowID string) (*models.Flow, error)
}

// ExecutorSource resolves the executor of a stored node type.
type ExecutorSource interface {
	Executor(nodeType string) protocol.NodeExecutor
}

// Dependencies are the collaborators of a Processor.
type Dependencies struct {
	Queue     persistence.QueueRepository
	Leads     persistence.LeadRepository
	Flows     FlowSource
	Executors ExecutorSource
	Activity  activity.Recorder
	Publisher eventbus.EventPublisher
	Tracer    trace.Tracer
}

// Processor runs batches of due jobs. It keeps no state between batches.
type Processor struct {
	deps        Dependencies
	logger      *slog.Logger
	concurrency int
	staleAfter  time.Duration
	now         func() time.Time
}

type Option func(*Processor)

// WithConcurrency processes up to n jobs of a batch at once.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithStaleAfter returns jobs stuck in processing for longer than d to pending
// at the start of every batch. Zero disables it.
func WithStaleAfter(d time.Duration) Option {
	return func(p *Processor) {
		p.staleAfter = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

func NewProcessor(logger *slog.Logger, deps Dependencies, opts ...Option) *Processor {
	if deps.Activity == nil {
		deps.Activity = activity.Noop{}
	}

	if deps.Tracer == nil {
		deps.Tracer = otelhelper.NoopTracer()
	}

	p := &Processor{
		deps:        deps,
		logger:      logger.With("module", "processor"),
		concurrency: 1,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ClampLimit applies the default batch size and the upper bound.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

type jobOutcome int

const (
	jobSkipped jobOutcome = iota
	jobDone
	jobFailed
)

// ProcessBatch claims and runs up to limit due jobs. Only a failure to select
// due jobs is returned; every per-job problem is recorded on the job itself.
// Successors created here are left for the next batch.
func (p *Processor) ProcessBatch(ctx context.Context, limit int) (models.BatchResult, error) {
	limit = ClampLimit(limit)
	now := p.now().UTC()

	ctx, span := otelhelper.StartSpan(ctx, p.deps.Tracer, "ProcessBatch", attribute.Int(otelhelper.BatchKey, limit))
	defer span.End()

	if p.staleAfter > 0 {
		requeued, err := p.deps.Queue.RequeueStale(ctx, now.Add(-p.staleAfter), now)
		if err != nil {
			p.logger.WarnContext(ctx, "Failed to requeue stale jobs", "error", err)
		} else if requeued > 0 {
			p.logger.InfoContext(ctx, "Requeued stale jobs", "count", requeued)
		}
	}

	jobs, err := p.deps.Queue.DueJobs(ctx, now, limit)
	if err != nil {
		if !persistence.IsStoreUnavailable(err) {
			err = persistence.Unavailable("DueJobs", "", err)
		}

		otelhelper.SetError(span, err)
		p.logger.ErrorContext(ctx, "Failed to get due jobs", "error", err)

		return models.BatchResult{}, err
	}

	result := models.BatchResult{Found: len(jobs)}
	if len(jobs) == 0 {
		return result, nil
	}

	p.logger.InfoContext(ctx, "Processing due jobs", "count", len(jobs))

	var mu sync.Mutex

	tally := func(outcome jobOutcome) {
		mu.Lock()
		defer mu.Unlock()

		switch outcome {
		case jobDone:
			result.Processed++
		case jobFailed:
			result.Failed++
		case jobSkipped:
		}
	}

	if p.concurrency <= 1 {
		for _, job := range jobs {
			tally(p.processJob(ctx, job))
		}
	} else {
		var g errgroup.Group

		g.SetLimit(p.concurrency)

		for _, job := range jobs {
			g.Go(func() error {
				tally(p.processJob(ctx, job))

				return nil
			})
		}

		_ = g.Wait()
	}

	p.logger.InfoContext(ctx, "Batch processed",
		"found", result.Found,
		"processed", result.Processed,
		"failed", result.Failed,
	)

	return result, nil
}

// processJob never panics and never returns an error: whatever happens is
// written to the job row.
func (p *Processor) processJob(ctx context.Context, job *models.QueueJob) (outcome jobOutcome) {
	logger := p.logger.With("job_id", job.ID, "flow_id", job.FlowID, "lead_id", job.LeadID, "node_id", job.NextNodeID)

	claimed, err := p.deps.Queue.Claim(ctx, job.ID, p.now().UTC())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to claim job", "error", err)

		return jobSkipped
	}

	if !claimed {
		logger.DebugContext(ctx, "Job already claimed")

		return jobSkipped
	}

	job.Status = models.JobStatusProcessing
	job.Attempts++

	ctx, span := otelhelper.StartSpan(ctx, p.deps.Tracer, "ProcessJob",
		attribute.String(otelhelper.JobIDKey, job.ID),
		attribute.String(otelhelper.FlowIDKey, job.FlowID),
		attribute.String(otelhelper.LeadIDKey, job.LeadID),
		attribute.String(otelhelper.NodeIDKey, job.NextNodeID),
		attribute.Int(otelhelper.AttemptsKey, job.Attempts),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := NewJobError("Execute", job.ID, fmt.Errorf("panic: %v", r))
			otelhelper.SetError(span, err)

			// A job already written as done or failed keeps its status.
			switch job.Status {
			case models.JobStatusDone:
				logger.ErrorContext(ctx, "Panic after job was marked done", "error", err)
				outcome = jobDone
			case models.JobStatusFailed:
				logger.ErrorContext(ctx, "Panic after job was marked failed", "error", err)
				outcome = jobFailed
			default:
				outcome = p.fail(ctx, logger, job, err)
			}
		}
	}()

	step, err := p.execute(ctx, job)
	if err != nil {
		otelhelper.SetError(span, err)

		return p.fail(ctx, logger, job, err)
	}

	span.SetAttributes(attribute.String(otelhelper.NodeTypeKey, step.node.Type))

	return p.advance(ctx, logger, job, step)
}

type executedStep struct {
	flow    *models.Flow
	node    *models.Node
	lead    *models.Lead
	outcome protocol.Outcome
}
