package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

// processOutput mirrors the body of the HTTP invocation endpoint.
type processOutput struct {
	OK        bool   `json:"ok"`
	Now       string `json:"now"`
	Found     int    `json:"found"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

func NewProcessCommand() *cli.Command {
	return &cli.Command{
		Name:  "process",
		Usage: "Process one batch of due jobs and exit",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Usage:   "Jobs to process (default 25, max 100)",
				Sources: cli.EnvVars("BATCH_LIMIT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("leadflow-worker").With("action", "process")

			stack, err := cmd.NewStack(ctx, logger, cmd.ConfigFromCommand("leadflow-worker", command))
			if err != nil {
				return err
			}

			defer func() {
				if err := stack.Close(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to close resources", "error", err)
				}
			}()

			result, err := stack.Queue.Process(ctx, command.Int("limit"))

			out := processOutput{OK: err == nil}
			if err != nil {
				out.Error = err.Error()
			} else {
				out.Now = result.Now.Format(time.RFC3339Nano)
				out.Found = result.Found
				out.Processed = result.Processed
				out.Failed = result.Failed
				out.Skipped = result.Skipped
			}

			encoder := json.NewEncoder(os.Stdout)
			if encErr := encoder.Encode(out); encErr != nil {
				return encErr
			}

			return err
		},
	}
}
