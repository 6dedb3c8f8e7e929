package game

import (
	"time"

	"github.com/mcdev12/quizlive/go/internal/quiz"
	"github.com/mcdev12/quizlive/go/internal/scoring"
)

// Snapshot is an immutable summary of a session, republished after every
// command. Reading it never waits on the session loop.
type Snapshot struct {
	GameID           string    `json:"game_id"`
	Title            string    `json:"title"`
	Phase            Phase     `json:"phase"`
	Slide            int       `json:"slide"`
	SlideCount       int       `json:"slide_count"`
	PlayerCount      int       `json:"player_count"`
	ConnectedPlayers int       `json:"connected_players"`
	HostConnected    bool      `json:"host_connected"`
	CreatedAt        time.Time `json:"created_at"`
	FinishedAt       time.Time `json:"finished_at,omitempty"`
	FinishReason     string    `json:"finish_reason,omitempty"`
}

// ParticipantView is a read-only copy of a participant.
type ParticipantView struct {
	WatcherID string         `json:"watcher_id"`
	Nickname  string         `json:"nickname,omitempty"`
	Role      Role           `json:"role"`
	Connected bool           `json:"connected"`
	Score     int            `json:"score"`
	Position  int            `json:"position"`
	JoinedAt  time.Time      `json:"joined_at"`
	Late      bool           `json:"late,omitempty"`
	Team      string         `json:"team,omitempty"`
	Answers   []AnswerRecord `json:"answers,omitempty"`
}

// State is the full, serialized view of a session.
type State struct {
	Snapshot
	Rules        quiz.Rules         `json:"rules"`
	Participants []ParticipantView  `json:"participants"`
	Standings    []scoring.Standing `json:"standings"`
	Question     *QuestionView      `json:"question,omitempty"`
	// TeamStandings is set in team play.
	TeamStandings []scoring.Standing `json:"team_standings,omitempty"`
}

// QuestionView is the player-facing form of a slide. It never carries the
// answer key.
type QuestionView struct {
	Index       int       `json:"index"`
	Count       int       `json:"count"`
	Kind        quiz.Kind `json:"kind"`
	Title       string    `json:"title"`
	Choices     []string  `json:"choices,omitempty"`
	Points      int       `json:"points"`
	TimeLimitMs int64     `json:"time_limit_ms"`
	IntroduceMs int64     `json:"introduce_ms,omitempty"`
	RemainingMs int64     `json:"remaining_ms,omitempty"`
}

// Result is one player's outcome on a revealed slide.
type Result struct {
	WatcherID string `json:"watcher_id"`
	Nickname  string `json:"nickname"`
	Answered  bool   `json:"answered"`
	Correct   bool   `json:"correct"`
	Points    int    `json:"points"`
}

type RevealView struct {
	Index    int      `json:"index"`
	Solution any      `json:"solution"`
	Counts   []int    `json:"counts,omitempty"`
	Answered int      `json:"answered"`
	Voided   bool     `json:"voided,omitempty"`
	Results  []Result `json:"results"`
}

type LeaderboardView struct {
	Index    int                 `json:"index"`
	Current  scoring.Leaderboard `json:"current"`
	Previous scoring.Leaderboard `json:"previous"`
	// Teams ranks the teams in team play.
	Teams *scoring.Leaderboard `json:"teams,omitempty"`
}

type FinishedView struct {
	Reason  string          `json:"reason"`
	Summary scoring.Summary `json:"summary"`
	// Teams is the final team ranking in team play.
	Teams []scoring.Standing `json:"teams,omitempty"`
}

// PhaseChangedData is the payload of EventPhaseChanged. Payload holds a
// QuestionView, RevealView, LeaderboardView or FinishedView depending on
// Phase, and is nil in the lobby.
type PhaseChangedData struct {
	Phase   Phase `json:"phase"`
	Slide   int   `json:"slide"`
	Payload any   `json:"payload,omitempty"`
}

type ParticipantData struct {
	WatcherID   string `json:"watcher_id"`
	Nickname    string `json:"nickname,omitempty"`
	Role        Role   `json:"role"`
	Reconnected bool   `json:"reconnected,omitempty"`
	PlayerCount int    `json:"player_count"`
}

type ScoreUpdateData struct {
	Slide    int  `json:"slide"`
	Answered bool `json:"answered"`
	Correct  bool `json:"correct"`
	Points   int  `json:"points"`
	Score    int  `json:"score"`
	Position int  `json:"position"`
	// Team is set in team play.
	Team *TeamScore `json:"team,omitempty"`
}

// TeamScore is a team's standing as shown to one of its members.
type TeamScore struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Position int    `json:"position"`
}

// TeamData is the payload of EventTeamAssigned.
type TeamData struct {
	TeamID  string   `json:"team_id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type AnswerProgressData struct {
	Slide    int `json:"slide"`
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// WelcomeData syncs a freshly bound connection with the session.
type WelcomeData struct {
	You          ParticipantView   `json:"you"`
	Snapshot     Snapshot          `json:"state"`
	Question     *QuestionView     `json:"question,omitempty"`
	Answered     bool              `json:"answered,omitempty"`
	Leaderboard  *LeaderboardView  `json:"leaderboard,omitempty"`
	Participants []ParticipantData `json:"participants,omitempty"`
}
