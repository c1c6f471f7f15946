package cli

import (
	"github.com/spf13/cobra"

	"exchangeengine/internal/infrastructure/di"
)

func NewMigrateCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Wait for the database and apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			return initializePersistence(cmd.Context(), cfg, di.BuildMigrator(cfg, logger), false, logger)
		},
	}
}
