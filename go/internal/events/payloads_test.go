package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	env, err := New("ACDEFG", GameFinished, at, GameFinishedPayload{
		GameID:      "ACDEFG",
		Reason:      "completed",
		PlayerCount: 3,
		WinnerID:    "w-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if env.CreatedAt.Location() != time.UTC || !env.CreatedAt.Equal(at) {
		t.Fatalf("expected UTC timestamp, got %v", env.CreatedAt)
	}

	var p GameFinishedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Reason != "completed" || p.WinnerID != "w-1" {
		t.Fatalf("unexpected payload %+v", p)
	}

	other, _ := New("ACDEFG", GameFinished, at, GameFinishedPayload{})
	if other.ID == env.ID {
		t.Fatal("every envelope should get its own id")
	}
}

func TestNewRejectsUnmarshalablePayload(t *testing.T) {
	if _, err := New("ACDEFG", GameCreated, time.Now(), map[string]any{"bad": make(chan int)}); err == nil {
		t.Fatal("expected marshal error")
	}
}
