package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

var ErrInvalidFlow = errors.New("invalid flow")

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Check a stored flow for problems that would fail its jobs",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "flow-id",
				Usage:    "Flow to validate, may be repeated",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("leadflow-worker").With("action", "validate")

			stack, err := cmd.NewStack(ctx, logger, cmd.ConfigFromCommand("leadflow-worker", command))
			if err != nil {
				return err
			}

			defer func() {
				if err := stack.Close(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to close resources", "error", err)
				}
			}()

			invalid := 0

			for _, flowID := range command.StringSlice("flow-id") {
				report, err := stack.Flows.Validate(ctx, flowID)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to load flow", "flow_id", flowID, "error", err)

					invalid++

					continue
				}

				for _, warning := range report.Warnings {
					logger.WarnContext(ctx, warning, "flow_id", flowID)
				}

				for _, problem := range report.Problems {
					logger.ErrorContext(ctx, problem, "flow_id", flowID)
				}

				if !report.Valid {
					invalid++

					continue
				}

				logger.InfoContext(ctx, "Flow is valid",
					"flow_id", flowID,
					"nodes", report.Nodes,
					"edges", report.Edges,
					"entry_node_id", report.EntryID,
				)
			}

			if invalid > 0 {
				return fmt.Errorf("%w: %d of %d flows", ErrInvalidFlow, invalid, len(command.StringSlice("flow-id")))
			}

			return nil
		},
	}
}
