package cli

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"exchangeengine/internal/infrastructure/config"
	"exchangeengine/internal/infrastructure/logging"
)

const defaultEnvFile = ".env"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange integration engine",
		Long: `Delivers queued outbound operations to external providers in homogeneous
batches and ingests inbound provider webhooks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.EnvFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewWorkerCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// loadEnvFile never overrides variables already set in the environment. A
// missing default file is fine; a missing explicit one is not.
func loadEnvFile(path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	err := godotenv.Load(trimmed)
	if err == nil {
		return nil
	}
	if trimmed == defaultEnvFile && stderrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", trimmed, err)
}

func loadRuntime() (config.Config, *slog.Logger, error) {
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		return config.Config{}, nil, fmt.Errorf("startup config error code=%s: %w", cfgErr.Code, cfgErr)
	}
	return cfg, logging.New(cfg.LogLevel), nil
}
