package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dtp/internal/cli"
	"dtp/internal/cli/commands"
	"dtp/internal/config"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "dtp",
		Short:   "Distributed PHPUnit test processor",
		Long:    `Run PHPUnit test suites on parallel worker nodes with work stealing, so fast workers take over the remaining tests of slow ones instead of idling.`,
		Version: version,
	}

	cfg := config.New()
	var flags cli.Flags

	cmds := commands.NewCommands(cfg)
	cmds.Register(rootCmd, &flags, cfg)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
