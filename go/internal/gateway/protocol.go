package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/quizlive/go/internal/game"
	"github.com/mcdev12/quizlive/go/internal/gameerr"
	"github.com/mcdev12/quizlive/go/internal/quiz"
)

// MessageType identifies a client to server message.
type MessageType string

const (
	MessageJoin      MessageType = "join"
	MessageAnswer    MessageType = "answer"
	MessageHost      MessageType = "host"
	MessageLeave     MessageType = "leave"
	MessageTeammates MessageType = "teammates"
)

// ClientMessage is the envelope of every message a client sends.
type ClientMessage struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinData struct {
	Nickname string `json:"nickname"`
}

type AnswerData struct {
	SlideIndex int         `json:"slide_index"`
	Value      quiz.Answer `json:"value"`
}

// TeammatesData names, by nickname, who a player wants on their team.
type TeammatesData struct {
	Nicknames []string `json:"nicknames"`
}

type CreateRequest struct {
	Config  quiz.Document `json:"config"`
	Options quiz.Options  `json:"options"`
}

type CreateResponse struct {
	GameID    string `json:"game_id"`
	WatcherID string `json:"watcher_id"`
}

type ErrorResponse struct {
	Error *gameerr.Error `json:"error"`
}

func decodeMessage(raw []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ClientMessage{}, gameerr.Wrap(gameerr.ErrMalformedMessage, err)
	}
	if msg.Type == "" {
		return ClientMessage{}, gameerr.Withf(gameerr.ErrMalformedMessage, "missing message type")
	}
	return msg, nil
}

// decodeData unmarshals the data of msg into v. Messages without data leave
// v untouched.
func decodeData(msg ClientMessage, v any) error {
	if len(msg.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return gameerr.Withf(gameerr.ErrMalformedMessage, "invalid %s data: %v", msg.Type, err)
	}
	return nil
}

// errorEvent builds an Error event addressed to a single connection. It is
// not part of the session's sequence, so Seq is zero.
func errorEvent(gameID string, err error) game.Event {
	return game.Event{
		ID:        uuid.New().String(),
		GameID:    gameID,
		Type:      game.EventError,
		Timestamp: time.Now().UTC(),
		Data:      gameerr.From(err),
	}
}

func encodeEvent(ev game.Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", ev.Type, err)
	}
	return data, nil
}
