package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"exchangeengine/internal/application/dto"
	"exchangeengine/internal/infrastructure/di"
)

type RunOptions struct {
	*RootOptions
	Limit    int
	WorkerID string
}

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Run one task once: claim a batch, send it, record the outcome",
		Long: `Run one task once: claim a batch, send it, record the outcome.

The run summary is written to stdout as JSON. A limit of 0 uses the task's
maximum batch size; larger limits are capped to it.

Example:
  exchange run whatsapp.send_messages --limit 20`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Limit < 0 {
				return fmt.Errorf("invalid --limit %d: must not be negative", opts.Limit)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of items to claim")
	cmd.Flags().StringVar(&opts.WorkerID, "worker-id", "", "lock owner recorded on claimed items (defaults to WORKER_ID)")

	return cmd
}

func runTask(cmd *cobra.Command, opts *RunOptions, taskName string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	container, err := di.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("dependency wiring error: %w", err)
	}
	defer closeContainer(container, logger)

	workerID := opts.WorkerID
	if workerID == "" {
		workerID = cfg.WorkerID
	}
	output, appErr := container.RunTaskUseCase.Execute(ctx, dto.RunTaskCommand{
		TaskName: taskName,
		Limit:    opts.Limit,
		WorkerID: workerID,
	})
	if appErr != nil {
		return fmt.Errorf("run %s failed code=%s: %w", taskName, appErr.Code, appErr)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
