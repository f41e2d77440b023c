package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the administrator account if it does not exist",
	Long:  "Create an ADMIN user from ADMIN_EMAIL, ADMIN_PASSWORD and ADMIN_NAME. Existing accounts are left unchanged.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		admin := a.cfg.Admin
		if admin.Password == "" {
			return errors.New("ADMIN_PASSWORD must be set")
		}

		user, created, err := a.credentials.EnsureAdmin(cmd.Context(), admin.Email, admin.Password, admin.Name)
		if err != nil {
			return err
		}
		if created {
			cmd.Printf("Created admin %s (%s)\n", user.Email, user.ID)
		} else {
			cmd.Printf("Admin %s already exists\n", user.Email)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)
}
