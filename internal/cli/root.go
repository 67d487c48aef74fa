package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "cqgame",
		Short: "CLI tool for the conquest game server",
		Long: `cqgame is a CLI tool for the conquest game server.

It reads the lobby, live match snapshots and finished match summaries over
the JSON API, plays interactively over the websocket protocol, and decodes
match journals written by the server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.ServerURL)
			if cfg.Verbose {
				client.trace = os.Stderr
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: CQGAME_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Print each HTTP request to stderr")

	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newLobbyCmd())
	rootCmd.AddCommand(newMatchesCmd())
	rootCmd.AddCommand(newSummariesCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newJournalCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
