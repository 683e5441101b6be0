package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/leadflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// BatchProcessor runs one invocation of the queue processor.
type BatchProcessor interface {
	Process(ctx context.Context, limit int) (services.ProcessResult, error)
}

// RunnerSettings configures the periodic invocation.
type RunnerSettings struct {
	Schedule   string `validate:"required"`
	BatchLimit int    `validate:"min=0,max=100"`
}

func (s RunnerSettings) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(s)
	if err != nil {
		return fmt.Errorf("invalid worker settings: %w", err)
	}

	_, err = cron.ParseStandard(s.Schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.Schedule, err)
	}

	return nil
}

// Runner invokes the processor on a cron schedule. A tick that fires while the
// previous batch is still running is skipped.
type Runner struct {
	logger    *slog.Logger
	processor BatchProcessor
	settings  RunnerSettings
	cron      *cron.Cron
}

func NewRunner(logger *slog.Logger, processor BatchProcessor, settings RunnerSettings) *Runner {
	clog := cronLogger{logger: logger}

	return &Runner{
		logger:    logger,
		processor: processor,
		settings:  settings,
		cron: cron.New(
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
	}
}

// Run blocks until ctx is done, then waits for the running batch.
func (r *Runner) Run(ctx context.Context) error {
	err := r.settings.Validate()
	if err != nil {
		return err
	}

	_, err = r.cron.AddFunc(r.settings.Schedule, func() { r.Tick(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule processor: %w", err)
	}

	r.logger.InfoContext(ctx, "Starting processor schedule", "schedule", r.settings.Schedule, "limit", r.settings.BatchLimit)

	r.cron.Start()

	<-ctx.Done()

	r.logger.InfoContext(ctx, "Stopping processor schedule")

	<-r.cron.Stop().Done()

	return nil
}

// Tick runs one batch and logs its counts.
func (r *Runner) Tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := r.processor.Process(ctx, r.settings.BatchLimit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Batch failed", "error", err)

		return
	}

	if result.Skipped {
		r.logger.DebugContext(ctx, "Batch skipped, queue is locked")

		return
	}

	r.logger.InfoContext(ctx, "Batch finished",
		"found", result.Found,
		"processed", result.Processed,
		"failed", result.Failed,
	)
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
