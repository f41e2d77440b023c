package main

import (
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired and revoked sessions",
	Long:  "Delete refresh token sessions that can no longer be used. Meant to run from cron.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.auth.Sweep(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("Removed %d sessions\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
