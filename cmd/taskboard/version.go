package main

import (
	"github.com/spf13/cobra"

	"github.com/dtroode/taskboard-server/internal/logger"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Build version: %s\nBuild date: %s\nBuild commit: %s\n", buildVersion, buildDate, buildCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func logAppVersion(l *logger.Logger) {
	l.Info("build info", "version", buildVersion, "date", buildDate, "commit", buildCommit)
}
