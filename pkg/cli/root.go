// Package cli implements the deskctl operator CLI.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		host   string
		apiKey string
		token  string
		output string
	)

	client := NewClient(host, apiKey, token)

	rootCmd := &cobra.Command{
		Use:           "deskctl",
		Short:         "Licence desk CLI",
		Long:          "Command-line interface for the licence desk API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Precedence: flag > environment > default.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("DESK_HOST"); v != "" {
					host = v
				}
			}
			if !cmd.Flags().Changed("api-key") {
				if v := os.Getenv("DESK_API_KEY"); v != "" {
					apiKey = v
				}
			}
			if !cmd.Flags().Changed("token") {
				if v := os.Getenv("DESK_TOKEN"); v != "" {
					token = v
				}
			}
			if output != "table" && output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
			}
			client.BaseURL = trimHost(host)
			client.APIKey = apiKey
			client.Token = token
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "JWT token for authentication")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newCompaniesCmd(client))
	rootCmd.AddCommand(newComplianceCmd(client))
	rootCmd.AddCommand(newExportCmd(client))
	rootCmd.AddCommand(newApplyCmd(client))
	rootCmd.AddCommand(newAPIKeyCmd(client))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
