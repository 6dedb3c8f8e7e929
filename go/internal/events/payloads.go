package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lifecycle event payloads shared between the game and lifecycle packages

type Type string

const (
	GameCreated   Type = "GameCreated"
	GameStarted   Type = "GameStarted"
	PlayerJoined  Type = "PlayerJoined"
	SlideRevealed Type = "SlideRevealed"
	GameFinished  Type = "GameFinished"
)

// Envelope wraps a marshalled payload with the metadata publishers need.
type Envelope struct {
	ID        uuid.UUID       `json:"event_id"`
	Type      Type            `json:"event_type"`
	GameID    string          `json:"game_id"`
	CreatedAt time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// New marshals payload into an Envelope with a fresh id.
func New(gameID string, typ Type, at time.Time, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}
	return Envelope{
		ID:        uuid.New(),
		Type:      typ,
		GameID:    gameID,
		CreatedAt: at.UTC(),
		Payload:   data,
	}, nil
}

// GameCreatedPayload is the payload for a GameCreated event
type GameCreatedPayload struct {
	GameID     string    `json:"game_id"`
	Title      string    `json:"title"`
	SlideCount int       `json:"slide_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// GameStartedPayload is the payload for a GameStarted event
type GameStartedPayload struct {
	GameID      string    `json:"game_id"`
	PlayerCount int       `json:"player_count"`
	StartedAt   time.Time `json:"started_at"`
}

// PlayerJoinedPayload is the payload for a PlayerJoined event
type PlayerJoinedPayload struct {
	GameID    string    `json:"game_id"`
	WatcherID string    `json:"watcher_id"`
	Nickname  string    `json:"nickname"`
	Late      bool      `json:"late"`
	JoinedAt  time.Time `json:"joined_at"`
}

// SlideRevealedPayload is the payload for a SlideRevealed event
type SlideRevealedPayload struct {
	GameID     string    `json:"game_id"`
	Slide      int       `json:"slide"`
	Answered   int       `json:"answered"`
	Correct    int       `json:"correct"`
	Voided     bool      `json:"voided"`
	RevealedAt time.Time `json:"revealed_at"`
}

// GameFinishedPayload is the payload for a GameFinished event
type GameFinishedPayload struct {
	GameID       string    `json:"game_id"`
	Reason       string    `json:"reason"`
	PlayerCount  int       `json:"player_count"`
	SlidesPlayed int       `json:"slides_played"`
	WinnerID     string    `json:"winner_id,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
	Duration     string    `json:"duration"`
}
