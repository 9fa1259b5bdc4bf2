package commands

import (
	"github.com/spf13/cobra"

	"dtp/internal/storage"
	"dtp/internal/ui"
)

// FaillsCommand handles the faills command
type FaillsCommand struct {
	storage storage.Storage
	viewer  *ui.ErrorViewer
}

// NewFaillsCommand creates a new FaillsCommand
func NewFaillsCommand(st storage.Storage, viewer *ui.ErrorViewer) *FaillsCommand {
	return &FaillsCommand{storage: st, viewer: viewer}
}

// Execute runs the command
func (fc *FaillsCommand) Execute(cmd *cobra.Command, args []string) error {
	results, err := fc.storage.Load()
	if err != nil {
		return err
	}
	return fc.viewer.View(results)
}
