package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axon-labs/axon/internal/cli"
	"github.com/axon-labs/axon/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "axon",
		Short: "Axon CLI - Personal knowledge capture and recall",
		Long: `Axon CLI captures notes, links, and insights and answers questions over them.

Environment variables:
  AXON_API_KEY   API key for authentication (required)
  AXON_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.CaptureCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.SummarizeCmd())
	rootCmd.AddCommand(client.TagsCmd())
	rootCmd.AddCommand(client.AttachCmd())
	rootCmd.AddCommand(client.AuthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
