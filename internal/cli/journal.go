package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/conquestgame-go/internal/journal"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Read match journals written by the server",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "cat <file>",
		Short: "Decode a compressed match journal",
		Long: `Decode a match journal (<match-id>.jsonl.zst) from the server's JOURNAL_DIR.

Every applied, rejected and ignored command is printed in order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := journal.ReadFile(args[0])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(entries)
			return nil
		},
	})

	return cmd
}
