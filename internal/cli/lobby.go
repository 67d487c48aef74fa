package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/conquestgame-go/internal/protocol"
)

func newLobbyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lobby",
		Short: "Show the players waiting in the lobby",
		Long: `Show the players waiting in the lobby.

Joining, readying up and starting happen over the websocket; see "cqgame play".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result protocol.LobbyView

			if err := client.Get("/api/v1/lobby", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
