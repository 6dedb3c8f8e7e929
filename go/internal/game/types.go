package game

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/quizlive/go/internal/events"
	"github.com/mcdev12/quizlive/go/internal/quiz"
)

// Phase is the stage of a session's state machine.
type Phase string

const (
	PhaseLobby          Phase = "lobby"
	PhaseShowQuestion   Phase = "show_question"
	PhaseCollectAnswers Phase = "collect_answers"
	PhaseRevealAnswer   Phase = "reveal_answer"
	PhaseLeaderboard    Phase = "leaderboard"
	PhaseFinished       Phase = "finished"
)

type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// EventType names an event sent from a session to its participants.
type EventType string

const (
	EventWelcome           EventType = "Welcome"
	EventPhaseChanged      EventType = "PhaseChanged"
	EventParticipantJoined EventType = "ParticipantJoined"
	EventParticipantLeft   EventType = "ParticipantLeft"
	EventScoreUpdate       EventType = "ScoreUpdate"
	EventAnswerProgress    EventType = "AnswerProgress"
	EventTeamAssigned      EventType = "TeamAssigned"
	EventError             EventType = "Error"
)

// Event is one message from a session to a connection. Seq increases
// monotonically per session; a broadcast carries the same Seq for every
// recipient.
type Event struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	Type      EventType `json:"type"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Conn is a participant's duplex channel as seen by the session.
//
// Send must not block: when the connection cannot take more messages it
// returns gameerr.ErrBacklogFull and the session disconnects it. Close must
// be safe to call more than once.
type Conn interface {
	ID() string
	Send(ev Event) error
	Close()
}

// HostAction is a pacing command only the host may issue.
type HostAction string

const (
	ActionStart HostAction = "start"
	ActionNext  HostAction = "next"
	ActionSkip  HostAction = "skip"
	ActionEnd   HostAction = "end"
)

// HostCommand is a host action with an optional guard. When Phase or Slide
// is set and no longer matches the session, the command does nothing, so a
// command racing a timer cannot advance the game twice.
type HostCommand struct {
	Action HostAction `json:"action"`
	Phase  Phase      `json:"phase,omitempty"`
	Slide  *int       `json:"slide,omitempty"`
}

// Notifier receives lifecycle events. Notify is called from the session loop
// and must not block.
type Notifier interface {
	Notify(env events.Envelope)
}

// Settings are the process-wide knobs of a session.
type Settings struct {
	Clock clockwork.Clock
	// HostIdleTimeout ends a game whose host stays disconnected this long.
	// Zero disables the rule.
	HostIdleTimeout time.Duration
	Notifier        Notifier
	QueueSize       int
}

const (
	DefaultHostIdleTimeout = 5 * time.Minute
	DefaultQueueSize       = 64
	MaxNicknameLength      = 30
)

// Finish reasons.
const (
	ReasonCompleted = "completed"
	ReasonEnded     = "ended_by_host"
	ReasonHostIdle  = "host_idle"
	ReasonInternal  = "internal_error"
)

// AnswerRecord is a player's accepted submission for one slide.
type AnswerRecord struct {
	Slide       int         `json:"slide"`
	Answer      quiz.Answer `json:"answer"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Seq         uint64      `json:"seq"`
	Correct     bool        `json:"correct"`
	Credit      float64     `json:"credit"`
	Points      int         `json:"points"`
	Voided      bool        `json:"voided,omitempty"`
}
