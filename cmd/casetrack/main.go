package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "casetrack",
	Short: "casetrack - case tracking service",
	Long: `casetrack tracks support cases with notes and file attachments.

Run "casetrack serve" to start the HTTP API. Configuration comes from the
environment, optionally overlaid by a YAML file given with --config or
CASETRACK_CONFIG.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	adminCmd.AddCommand(adminGrantCmd, adminRevokeCmd, adminListCmd)
	rootCmd.AddCommand(serveCmd, adminCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
