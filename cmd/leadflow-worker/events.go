package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/events"
	"github.com/dukex/leadflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

var ErrNoEventBus = errors.New("no event bus configured")

func NewEventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Print job transition events as they are published",
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("leadflow-worker").With("action", "events")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stack, err := cmd.NewStack(ctx, logger, cmd.ConfigFromCommand("leadflow-worker", command))
			if err != nil {
				return err
			}

			defer func() {
				if err := stack.Close(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to close resources", "error", err)
				}
			}()

			if stack.EventBus == nil {
				return ErrNoEventBus
			}

			err = tailEvents(ctx, logger, stack.EventBus)
			if err != nil {
				return err
			}

			<-ctx.Done()

			return nil
		},
	}
}

func tailEvents(ctx context.Context, logger *slog.Logger, bus eventbus.EventSubscriber) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.JobEnqueuedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.JobEnqueued)
			if !ok {
				return nil
			}

			logger.InfoContext(ctx, "Job enqueued",
				"job_id", e.JobID,
				"flow_id", e.FlowID,
				"lead_id", e.LeadID,
				"node_id", e.NextNodeID,
				"run_at", e.RunAt,
			)

			return nil
		},
		events.JobCompletedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.JobCompleted)
			if !ok {
				return nil
			}

			logger.InfoContext(ctx, "Job completed",
				"job_id", e.JobID,
				"flow_id", e.FlowID,
				"lead_id", e.LeadID,
				"node_id", e.NodeID,
				"node_type", e.NodeType,
				"flow_finished", e.FlowFinished,
			)

			return nil
		},
		events.JobFailedEvent: func(ctx context.Context, event any) error {
			e, ok := event.(*events.JobFailed)
			if !ok {
				return nil
			}

			logger.WarnContext(ctx, "Job failed",
				"job_id", e.JobID,
				"flow_id", e.FlowID,
				"lead_id", e.LeadID,
				"node_id", e.NodeID,
				"error", e.Error,
			)

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}
