package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/conquestgame-go/internal/api/response"
	"github.com/mcoot/conquestgame-go/internal/protocol"
)

func newMatchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Inspect stored match snapshots",
	}

	cmd.AddCommand(newMatchesListCmd())
	cmd.AddCommand(newMatchesGetCmd())

	return cmd
}

func newMatchesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List match snapshot ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MatchList

			if err := client.Get("/api/v1/matches", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <match-id>",
		Short: "Show the latest snapshot of a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result protocol.StateView

			if err := client.Get("/api/v1/matches/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSummariesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summaries [match-id]",
		Short: "Show finished match summaries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			if len(args) == 1 {
				var result protocol.SummaryView
				if err := client.Get("/api/v1/summaries/"+url.PathEscape(args[0]), &result); err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			var result response.SummaryList
			if err := client.Get("/api/v1/summaries", &result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}
}
