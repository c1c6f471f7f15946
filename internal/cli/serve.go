package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"exchangeengine/internal/infrastructure/config"
	"exchangeengine/internal/infrastructure/di"
)

type ServeOptions struct {
	*RootOptions
	WithWorker bool
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API: webhooks, messages, reservations, queue ops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.WithWorker, "with-worker", false, "also poll the configured tasks in this process")

	return cmd
}

func serve(parent context.Context, opts *ServeOptions) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := startContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeContainer(container, logger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(container.Server.Start)
	if opts.WithWorker {
		group.Go(func() error {
			return container.Worker.Start(groupCtx)
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := container.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// startContainer makes sure the schema is current before any pool is opened,
// then wires everything and syncs the endpoint catalog.
func startContainer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*di.Container, error) {
	if err := initializePersistence(ctx, cfg, di.BuildMigrator(cfg, logger), false, logger); err != nil {
		return nil, err
	}
	container, err := di.Build(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("dependency wiring error: %w", err)
	}
	if err := initializePersistence(ctx, cfg, container.InitializePersistenceUseCase, true, logger); err != nil {
		closeContainer(container, logger)
		return nil, err
	}
	return container, nil
}

func closeContainer(container *di.Container, logger *slog.Logger) {
	if err := container.Close(); err != nil {
		logger.Warn("container close warning", "error", err)
	}
}
