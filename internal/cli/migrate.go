package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCommands = map[string]bool{
	"up": true, "down": true, "status": true, "version": true, "redo": true, "reset": true,
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|version|redo|reset]",
		Short: "Run database schema migrations",
		Long: `Run goose migrations embedded in the binary. Defaults to "up".

Examples:
  meterctl migrate
  meterctl migrate status`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			if !migrateCommands[command] {
				return fmt.Errorf("unknown migrate command %q", command)
			}

			repo, err := opts.connect()
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Migrate(cmd.Context(), command); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", command)
			return nil
		},
	}
}
