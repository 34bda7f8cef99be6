package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/collate/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running collate server via HTTP.

These commands require a running server (collate serve).
Use --server to specify a custom server URL.

Examples:
  collate api health                 # Check server health
  collate api books list             # List staged books
  collate api books validate <id>    # Validate a book's page numbering`,
}

var apiBooksCmd = &cobra.Command{
	Use:   "books",
	Short: "Book management commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// Books as subcommand group
	apiBooksCmd.AddCommand((&endpoints.IngestEndpoint{}).Command(getServerURL))
	apiBooksCmd.AddCommand((&endpoints.ListBooksEndpoint{}).Command(getServerURL))
	apiBooksCmd.AddCommand((&endpoints.GetBookEndpoint{}).Command(getServerURL))
	apiBooksCmd.AddCommand((&endpoints.DeleteBookEndpoint{}).Command(getServerURL))
	apiBooksCmd.AddCommand((&endpoints.ValidateBookEndpoint{}).Command(getServerURL))
	apiBooksCmd.AddCommand((&endpoints.GetReportEndpoint{}).Command(getServerURL))
	apiBooksCmd.AddCommand((&endpoints.ListRunsEndpoint{}).Command(getServerURL))
	apiBooksCmd.AddCommand((&endpoints.ListPagesEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(apiBooksCmd)
	rootCmd.AddCommand(apiCmd)
}
