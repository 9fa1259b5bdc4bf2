package commands

import (
	"github.com/spf13/cobra"

	"dtp/internal/config"
	"dtp/internal/migration"
)

// MigrateCommand handles the migrate command
type MigrateCommand struct {
	config   *config.Config
	migrator migration.Migrator
}

// NewMigrateCommand creates a new MigrateCommand
func NewMigrateCommand(cfg *config.Config, migrator migration.Migrator) *MigrateCommand {
	return &MigrateCommand{config: cfg, migrator: migrator}
}

// Execute runs the command
func (mc *MigrateCommand) Execute(cmd *cobra.Command, args []string) error {
	mc.config.LoadEnv()
	return mc.migrator.Run(mc.config.Processors, mc.config.Flags.NoFresh)
}
