package tracks

import (
	"github.com/spf13/cobra"
)

var (
	fromDB  bool // use the database instead of the track directory
	replace bool // replace existing definitions on import
)

func NewTracksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "commands to manage sector definitions",
	}
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newFetchCmd())
	return cmd
}
