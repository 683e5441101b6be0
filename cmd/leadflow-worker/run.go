package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/log"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Process due jobs on a schedule",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression or descriptor (@every 1m) for invocations",
				Value:   "@every 1m",
				Sources: cli.EnvVars("SCHEDULE"),
			},
			&cli.IntFlag{
				Name:    "limit",
				Usage:   "Jobs per invocation (default 25, max 100)",
				Sources: cli.EnvVars("BATCH_LIMIT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("leadflow-worker").With("worker_id", workerID)

			settings := RunnerSettings{
				Schedule:   command.String("schedule"),
				BatchLimit: command.Int("limit"),
			}

			err := settings.Validate()
			if err != nil {
				return err
			}

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

			return NewRunner(logger, stack.Queue, settings).Run(ctx)
		},
	}
}
