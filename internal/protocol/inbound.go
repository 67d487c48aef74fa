package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/conquestgame-go/internal/model"
)

// validate is the package-level validator instance
var validate = validator.New()

func init() {
	// Report json names in validation errors
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("faction", func(fl validator.FieldLevel) bool {
		return model.Faction(fl.Field().String()).IsValid()
	})
	_ = validate.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return model.Difficulty(fl.Field().String()).IsValid()
	})
}

// JoinLobby asks to enter the lobby
type JoinLobby struct {
	Name    string `json:"name" validate:"required,max=32"`
	Faction string `json:"faction" validate:"required,faction"`
}

type ToggleReady struct{}

type StartMatch struct{}

// SetSoloMode switches AI opponents on or off
type SetSoloMode struct {
	Enabled    bool   `json:"enabled"`
	Difficulty string `json:"difficulty" validate:"omitempty,difficulty"`
}

// AddAIPlayer adds an AI opponent to a solo lobby
type AddAIPlayer struct {
	Faction string `json:"faction" validate:"required,faction"`
}

// GameAction submits an action to a running match
type GameAction struct {
	MatchID string        `json:"matchId" validate:"required"`
	Action  ActionRequest `json:"action"`
}

// ActionRequest is the client form of a model.Action.
// Kind is not restricted so unknown kinds reach the engine as no-ops.
type ActionRequest struct {
	Kind    string        `json:"kind" validate:"required"`
	Payload ActionPayload `json:"payload"`
}

// ActionPayload carries the target tile and structure
type ActionPayload struct {
	X         *int   `json:"x,omitempty"`
	Y         *int   `json:"y,omitempty"`
	Structure string `json:"structure,omitempty"`
}

// ToAction converts the request into an engine action for the given player
func (r ActionRequest) ToAction(playerID model.PlayerID) (model.Action, error) {
	a := model.Action{
		Kind:      model.ActionKind(r.Kind),
		PlayerID:  playerID,
		Structure: model.StructureType(r.Payload.Structure),
	}
	if a.Targeted() {
		if r.Payload.X == nil || r.Payload.Y == nil {
			return model.Action{}, ErrMissingTarget
		}
		a.Target = model.Position{X: *r.Payload.X, Y: *r.Payload.Y}
	}
	return a, nil
}

// Reconnect resumes a player slot on a new connection
type Reconnect struct {
	PlayerID string `json:"playerId" validate:"required"`
	MatchID  string `json:"matchId" validate:"required"`
}

type LivenessProbe struct{}

var inboundTypes = map[MessageType]func() any{
	TypeJoinLobby:     func() any { return &JoinLobby{} },
	TypeToggleReady:   func() any { return &ToggleReady{} },
	TypeStartMatch:    func() any { return &StartMatch{} },
	TypeSetSoloMode:   func() any { return &SetSoloMode{} },
	TypeAddAIPlayer:   func() any { return &AddAIPlayer{} },
	TypeGameAction:    func() any { return &GameAction{} },
	TypeReconnect:     func() any { return &Reconnect{} },
	TypeLivenessProbe: func() any { return &LivenessProbe{} },
}

// Decode parses and validates an inbound frame.
// The returned message is a pointer to one of the inbound structs above.
func Decode(data []byte) (MessageType, any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	newMsg, ok := inboundTypes[env.Type]
	if !ok {
		return env.Type, nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}

	msg := newMsg()
	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, msg); err != nil {
			return env.Type, nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, env.Type, err)
		}
	}
	if err := validate.Struct(msg); err != nil {
		return env.Type, nil, newValidationError(env.Type, err)
	}
	return env.Type, msg, nil
}

// IsClientError reports whether err came from a bad frame rather than the server
func IsClientError(err error) bool {
	var verr *ValidationError
	return errors.Is(err, ErrMalformedFrame) ||
		errors.Is(err, ErrUnknownMessageType) ||
		errors.Is(err, ErrMissingTarget) ||
		errors.As(err, &verr)
}
