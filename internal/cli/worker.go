package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func NewWorkerCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Poll the configured tasks until interrupted",
		Long: `Poll the configured tasks until interrupted.

WORKER_TASKS restricts the loop to a comma-separated list of task names;
by default every registered task is polled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			container, err := startContainer(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeContainer(container, logger)

			return container.Worker.Start(ctx)
		},
	}
}
