package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/meter-reading-system/internal/validation"
)

func newSeedCommand(opts *options) *cobra.Command {
	in := validation.UserInput{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial administrator",
		Long: `Create an ADMIN user with the given credentials unless a user with that email already exists.

Examples:
  meterctl seed --email admin@example.com --password 'change-me-now' --name 'System Administrator'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.newService()
			if err != nil {
				return err
			}
			defer svc.Close()

			u, created, err := svc.EnsureAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}

			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "user %s already exists (%s, role %s)\n", u.Email, u.ID, u.Role)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "administrator email")
	cmd.Flags().StringVar(&in.Password, "password", "", "administrator password (at least 8 characters)")
	cmd.Flags().StringVar(&in.Name, "name", "System Administrator", "administrator name")
	cmd.Flags().StringVar(&in.ContactNumber, "contact", "", "contact number")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
