package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/protocol"
)

var (
	errQuit = errors.New("quit")
	errHelp = errors.New("help")
)

const playHelp = `Commands:
  join <name> <faction>        enter the lobby (Humans, Robots, Aliens)
  ready                        toggle ready
  solo on [difficulty]         enable AI opponents (Easy, Medium, Hard)
  solo off                     disable AI opponents
  ai <faction>                 add an AI opponent
  start                        start the match
  annex <x> <y>                claim a neutral tile
  occupy <x> <y>               take an enemy tile
  build <x> <y> <structure>    build Economy, Military or Defense
  demolish <x> <y>             remove your structure
  reconnect <player> <match>   resume a player after a dropped connection
  ping                         liveness probe
  help                         show this help
  quit                         disconnect`

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play interactively over the websocket",
		Long: `Connect to the game socket and send commands read from stdin.

Frames from the server are printed as they arrive. Type "help" for the
command list. Press Ctrl+C or type "quit" to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return play(ctx, client.WebSocketURL(), os.Stdin, NewOutput(cfg.Output))
		},
	}
}

// playSession remembers who we are playing as
type playSession struct {
	mu       sync.Mutex
	playerID string
	matchID  string
}

func (s *playSession) match() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchID
}

// resumeHint is the command that picks this session up again, if it is in a match
func (s *playSession) resumeHint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playerID == "" || s.matchID == "" {
		return ""
	}
	return fmt.Sprintf("reconnect %s %s", s.playerID, s.matchID)
}

// track updates the session from a server frame
func (s *playSession) track(env protocol.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch model.EventType(env.Type) {
	case model.EventLobbyJoined:
		var p protocol.LobbyJoined
		if json.Unmarshal(env.Payload, &p) == nil {
			s.playerID = p.PlayerID
		}
	case model.EventMatchStarted:
		var p protocol.MatchStarted
		if json.Unmarshal(env.Payload, &p) == nil {
			s.matchID = p.MatchID
		}
	case model.EventStateSnapshot:
		var p protocol.StateSnapshot
		if json.Unmarshal(env.Payload, &p) == nil {
			s.matchID = p.MatchID
		}
	}
}

// remember records the identity a reconnect asks for
func (s *playSession) remember(playerID, matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerID = playerID
	s.matchID = matchID
}

func play(ctx context.Context, wsURL string, in io.Reader, out *Output) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer func() { _ = conn.Close() }()

	// Frames are printed from the read loop while commands echo errors
	out = newOutputTo(out.format, &syncWriter{w: out.w})
	out.PrintMessage("Connected to " + wsURL + ". Type \"help\" for commands.")

	session := &playSession{}
	readDone := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readDone <- err
				return
			}
			var env protocol.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				out.PrintMessage(string(data))
				continue
			}
			session.track(env)
			if out.format == "json" {
				fmt.Fprintln(out.w, string(data))
			} else {
				fmt.Fprintln(out.w, describeFrame(env))
			}
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return closeSocket(conn)
		case err := <-readDone:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				out.PrintMessage("Server closed the connection")
				return nil
			}
			if hint := session.resumeHint(); hint != "" {
				out.PrintMessage("To resume from a new session: " + hint)
			}
			return fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return closeSocket(conn)
			}
			t, payload, err := parseCommand(line, session.match())
			switch {
			case errors.Is(err, errQuit):
				return closeSocket(conn)
			case errors.Is(err, errHelp):
				fmt.Fprintln(out.w, playHelp)
				continue
			case err != nil:
				out.PrintError(err)
				continue
			case t == "":
				continue
			}
			if r, ok := payload.(protocol.Reconnect); ok {
				session.remember(r.PlayerID, r.MatchID)
			}
			frame, err := protocol.Encode(t, payload)
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func closeSocket(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// parseCommand turns one input line into an outbound frame.
// An empty line yields an empty type and no error.
func parseCommand(line, matchID string) (protocol.MessageType, any, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return "", nil, errQuit
	case "help", "?":
		return "", nil, errHelp
	case "ping":
		return protocol.TypeLivenessProbe, struct{}{}, nil
	case "ready":
		return protocol.TypeToggleReady, struct{}{}, nil
	case "start":
		return protocol.TypeStartMatch, struct{}{}, nil

	case "join":
		if len(args) < 2 {
			return "", nil, errors.New("usage: join <name> <faction>")
		}
		name := strings.Join(args[:len(args)-1], " ")
		faction, err := factionArg(args[len(args)-1])
		if err != nil {
			return "", nil, err
		}
		return protocol.TypeJoinLobby, protocol.JoinLobby{Name: name, Faction: faction}, nil

	case "solo":
		if len(args) == 0 || len(args) > 2 {
			return "", nil, errors.New("usage: solo on [difficulty] | solo off")
		}
		switch strings.ToLower(args[0]) {
		case "on":
			m := protocol.SetSoloMode{Enabled: true}
			if len(args) == 2 {
				m.Difficulty = titleCase(args[1])
			}
			return protocol.TypeSetSoloMode, m, nil
		case "off":
			return protocol.TypeSetSoloMode, protocol.SetSoloMode{Enabled: false}, nil
		}
		return "", nil, errors.New("usage: solo on [difficulty] | solo off")

	case "ai":
		if len(args) != 1 {
			return "", nil, errors.New("usage: ai <faction>")
		}
		faction, err := factionArg(args[0])
		if err != nil {
			return "", nil, err
		}
		return protocol.TypeAddAIPlayer, protocol.AddAIPlayer{Faction: faction}, nil

	case "reconnect":
		if len(args) != 2 {
			return "", nil, errors.New("usage: reconnect <player> <match>")
		}
		return protocol.TypeReconnect, protocol.Reconnect{PlayerID: args[0], MatchID: args[1]}, nil

	case "annex", "occupy", "demolish", "build":
		return parseAction(cmd, args, matchID)
	}
	return "", nil, fmt.Errorf("unknown command %q (try \"help\")", fields[0])
}

func parseAction(cmd string, args []string, matchID string) (protocol.MessageType, any, error) {
	if matchID == "" {
		return "", nil, errors.New("no match in progress")
	}

	wantArgs, usage := 2, cmd+" <x> <y>"
	if cmd == "build" {
		wantArgs, usage = 3, "build <x> <y> <structure>"
	}
	if len(args) != wantArgs {
		return "", nil, errors.New("usage: " + usage)
	}
	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil {
		return "", nil, errors.New("coordinates must be integers")
	}

	req := protocol.ActionRequest{
		Kind:    titleCase(cmd),
		Payload: protocol.ActionPayload{X: &x, Y: &y},
	}
	if cmd == "build" {
		req.Payload.Structure = titleCase(args[2])
	}
	return protocol.TypeGameAction, protocol.GameAction{MatchID: matchID, Action: req}, nil
}

func factionArg(s string) (string, error) {
	f := model.Faction(titleCase(s))
	if f.IsValid() {
		return string(f), nil
	}
	names := make([]string, 0, 3)
	for _, v := range model.ValidFactions() {
		names = append(names, string(v))
	}
	return "", fmt.Errorf("unknown faction %q (one of %s)", s, strings.Join(names, ", "))
}

// titleCase maps "humans" and "HUMANS" to "Humans"
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// describeFrame renders a server frame as one line of text
func describeFrame(env protocol.Envelope) string {
	prefix := "[" + string(env.Type) + "] "

	switch model.EventType(env.Type) {
	case model.EventLobbySnapshot:
		var p protocol.LobbySnapshot
		if json.Unmarshal(env.Payload, &p) == nil {
			names := make([]string, len(p.Players))
			for i, pl := range p.Players {
				names[i] = pl.Name
				if pl.IsReady {
					names[i] += "*"
				}
			}
			return prefix + fmt.Sprintf("%d waiting: %s", len(p.Players), strings.Join(names, ", "))
		}
	case model.EventLobbyJoined:
		var p protocol.LobbyJoined
		if json.Unmarshal(env.Payload, &p) == nil {
			return prefix + fmt.Sprintf("you are %s (%s)", p.Player.Name, p.PlayerID)
		}
	case model.EventMatchStarted:
		var p protocol.MatchStarted
		if json.Unmarshal(env.Payload, &p) == nil {
			return prefix + fmt.Sprintf("match %s with %d players, %ds", p.MatchID, len(p.Players), p.State.TimeRemaining)
		}
	case model.EventStateUpdate:
		var p protocol.StateUpdate
		if json.Unmarshal(env.Payload, &p) == nil {
			line := prefix + p.Kind
			if p.AppliedAction.PlayerID != nil {
				line += " by " + *p.AppliedAction.PlayerID
			}
			if p.AppliedAction.X != nil && p.AppliedAction.Y != nil {
				line += fmt.Sprintf(" at (%d,%d)", *p.AppliedAction.X, *p.AppliedAction.Y)
			}
			return line + fmt.Sprintf(", %ds left", p.State.TimeRemaining)
		}
	case model.EventActionAccepted:
		var p protocol.ActionAccepted
		if json.Unmarshal(env.Payload, &p) == nil {
			return prefix + p.Kind + " ok"
		}
	case model.EventActionRejected:
		var p protocol.ActionRejected
		if json.Unmarshal(env.Payload, &p) == nil {
			return prefix + p.Kind + ": " + p.Reason
		}
	case model.EventMatchOver:
		var p protocol.MatchOver
		if json.Unmarshal(env.Payload, &p) == nil {
			if p.Winner == nil {
				return prefix + "tie"
			}
			return prefix + "winner " + *p.Winner
		}
	case model.EventPlayerDisconnected, model.EventPlayerRemoved:
		var p protocol.PlayerRemoved
		if json.Unmarshal(env.Payload, &p) == nil {
			return prefix + p.PlayerID
		}
	case model.EventPlayerRebound:
		var p protocol.PlayerRebound
		if json.Unmarshal(env.Payload, &p) == nil {
			return prefix + p.PlayerID + " is back"
		}
	case model.EventStateSnapshot:
		var p protocol.StateSnapshot
		if json.Unmarshal(env.Payload, &p) == nil {
			return prefix + fmt.Sprintf("match %s, %ds left", p.MatchID, p.State.TimeRemaining)
		}
	case model.EventReconnectRejected:
		var p protocol.ReconnectRejected
		if json.Unmarshal(env.Payload, &p) == nil {
			return prefix + p.Reason
		}
	case model.EventError:
		var p protocol.Error
		if json.Unmarshal(env.Payload, &p) == nil {
			return prefix + p.Message
		}
	}
	if env.Type == protocol.TypeLivenessAck {
		return prefix + "pong"
	}
	return prefix + string(env.Payload)
}
