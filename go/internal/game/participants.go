package game

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizlive/go/internal/events"
	"github.com/mcdev12/quizlive/go/internal/gameerr"
)

// participant is never removed while the session lives; disconnecting only
// clears conn.
type participant struct {
	id       string
	nickname string
	role     Role
	conn     Conn
	joinSeq  uint64
	joinedAt time.Time
	late     bool
	answers  map[int]*AnswerRecord

	team      *team
	teammates []string
}

// Join adds a new player bound to conn and returns its watcher id.
func (s *Session) Join(ctx context.Context, nickname string, conn Conn) (string, error) {
	var id string
	err := s.do(ctx, "join", func() error {
		var err error
		id, err = s.join(nickname, conn)
		return err
	})
	return id, err
}

// Reconnect binds conn to an existing participant, replacing and closing any
// connection it had. Score and answer history are untouched.
func (s *Session) Reconnect(ctx context.Context, watcherID string, conn Conn) error {
	return s.do(ctx, "reconnect", func() error {
		return s.reconnect(watcherID, conn)
	})
}

// Disconnect clears the participant's binding if conn is still the bound
// connection. A stale conn is ignored.
func (s *Session) Disconnect(ctx context.Context, watcherID string, conn Conn) error {
	return s.do(ctx, "disconnect", func() error {
		p, ok := s.participants[watcherID]
		if !ok {
			return gameerr.ErrUnknownWatcher
		}
		if p.conn == nil || conn == nil || p.conn.ID() != conn.ID() {
			return nil
		}
		s.unbind(p)
		return nil
	})
}

// Participant returns a copy of one participant.
func (s *Session) Participant(ctx context.Context, watcherID string) (ParticipantView, error) {
	var v ParticipantView
	err := s.do(ctx, "participant", func() error {
		p, ok := s.participants[watcherID]
		if !ok {
			return gameerr.ErrUnknownWatcher
		}
		v = s.view(p)
		return nil
	})
	return v, err
}

func (s *Session) join(nickname string, conn Conn) (string, error) {
	if s.phase == PhaseFinished {
		return "", gameerr.ErrGameExpired
	}
	late := s.phase != PhaseLobby
	if late && !s.cfg.Rules.AllowLateJoin {
		return "", gameerr.ErrGameAlreadyStarted
	}

	name, err := cleanNickname(nickname)
	if err != nil {
		return "", err
	}
	for _, p := range s.order {
		if p.role == RolePlayer && p.nickname == name {
			return "", gameerr.Withf(gameerr.ErrNicknameTaken, "%q is already playing", name)
		}
	}
	if s.playerCount() >= s.cfg.Rules.MaxPlayers {
		return "", gameerr.Withf(gameerr.ErrGameFull, "game is limited to %d players", s.cfg.Rules.MaxPlayers)
	}
	if conn != nil && s.boundTo(conn) != nil {
		return "", gameerr.ErrAlreadyJoined
	}

	p := s.addParticipant(uuid.NewString(), name, RolePlayer)
	p.late = late
	s.board.AddPlayer(p.id, name, p.joinSeq)
	if s.teams != nil {
		s.joinTeam(p)
	}

	log.Info().
		Str("game_id", s.id).
		Str("watcher_id", p.id).
		Str("nickname", name).
		Bool("late", late).
		Msg("player joined")

	s.bind(p, conn)
	s.broadcast(EventParticipantJoined, s.participantData(p, false))
	s.notify(events.PlayerJoined, events.PlayerJoinedPayload{
		GameID:    s.id,
		WatcherID: p.id,
		Nickname:  name,
		Late:      late,
		JoinedAt:  p.joinedAt,
	})
	return p.id, nil
}

func (s *Session) reconnect(watcherID string, conn Conn) error {
	p, ok := s.participants[watcherID]
	if !ok {
		return gameerr.ErrUnknownWatcher
	}
	if s.phase == PhaseFinished {
		return gameerr.ErrGameExpired
	}
	if conn == nil {
		return gameerr.Withf(gameerr.ErrInternal, "reconnect without a connection")
	}
	if other := s.boundTo(conn); other != nil && other != p {
		return gameerr.ErrAlreadyJoined
	}

	if prev := p.conn; prev != nil && prev.ID() != conn.ID() {
		prev.Close()
	}
	if p.role == RoleHost {
		s.cancel(&s.idleTimer)
	}

	log.Info().
		Str("game_id", s.id).
		Str("watcher_id", p.id).
		Str("role", string(p.role)).
		Str("connection_id", conn.ID()).
		Msg("participant reconnected")

	s.bind(p, conn)
	s.broadcast(EventParticipantJoined, s.participantData(p, true))
	return nil
}

func (s *Session) addParticipant(id, nickname string, role Role) *participant {
	s.joinSeq++
	p := &participant{
		id:       id,
		nickname: nickname,
		role:     role,
		joinSeq:  s.joinSeq,
		joinedAt: s.clock.Now(),
		answers:  make(map[int]*AnswerRecord),
	}
	s.participants[id] = p
	s.order = append(s.order, p)
	return p
}

// bind attaches conn to p and syncs it with a Welcome.
func (s *Session) bind(p *participant, conn Conn) {
	if conn == nil {
		return
	}
	p.conn = conn
	s.sendTo(p, EventWelcome, s.welcome(p))
}

// unbind detaches p's connection without closing it.
func (s *Session) unbind(p *participant) {
	if p.conn == nil {
		return
	}
	log.Info().
		Str("game_id", s.id).
		Str("watcher_id", p.id).
		Str("connection_id", p.conn.ID()).
		Msg("participant disconnected")

	p.conn = nil
	if p.role == RoleHost && s.phase != PhaseFinished && s.settings.HostIdleTimeout > 0 {
		s.schedule(&s.idleTimer, timerHostIdle, s.settings.HostIdleTimeout)
	}
	s.broadcast(EventParticipantLeft, s.participantData(p, false))
}

// closeAll closes every bound connection without notifying anyone.
func (s *Session) closeAll() {
	for _, p := range s.order {
		if p.conn != nil {
			p.conn.Close()
			p.conn = nil
		}
	}
}

func (s *Session) host() *participant {
	return s.participants[s.hostID]
}

func (s *Session) boundTo(conn Conn) *participant {
	for _, p := range s.order {
		if p.conn != nil && p.conn.ID() == conn.ID() {
			return p
		}
	}
	return nil
}

func (s *Session) players() []*participant {
	out := make([]*participant, 0, len(s.order))
	for _, p := range s.order {
		if p.role == RolePlayer {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) playerCount() int {
	return len(s.order) - 1
}

func (s *Session) view(p *participant) ParticipantView {
	v := ParticipantView{
		WatcherID: p.id,
		Nickname:  p.nickname,
		Role:      p.role,
		Connected: p.conn != nil,
		JoinedAt:  p.joinedAt,
		Late:      p.late,
	}
	if p.team != nil {
		v.Team = p.team.name
	}
	if p.role == RolePlayer {
		v.Score = s.board.Score(p.id)
		v.Position, _ = s.board.Position(p.id)
	}
	for _, a := range p.answers {
		v.Answers = append(v.Answers, *a)
	}
	sort.Slice(v.Answers, func(i, j int) bool { return v.Answers[i].Slide < v.Answers[j].Slide })
	return v
}

func (s *Session) participantData(p *participant, reconnected bool) ParticipantData {
	return ParticipantData{
		WatcherID:   p.id,
		Nickname:    p.nickname,
		Role:        p.role,
		Reconnected: reconnected,
		PlayerCount: s.playerCount(),
	}
}

func (s *Session) welcome(p *participant) WelcomeData {
	w := WelcomeData{You: s.view(p), Snapshot: s.snap()}
	switch s.phase {
	case PhaseShowQuestion, PhaseCollectAnswers:
		q := s.question()
		w.Question = &q
		w.Answered = p.answers[s.slide] != nil
	case PhaseLeaderboard:
		lb := s.leaderboard()
		w.Leaderboard = &lb
	}
	if p.role == RoleHost {
		for _, other := range s.players() {
			w.Participants = append(w.Participants, s.participantData(other, false))
		}
	}
	return w
}

// cleanNickname trims surrounding whitespace and enforces the length rules.
func cleanNickname(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", gameerr.Withf(gameerr.ErrInvalidNickname, "nickname cannot be empty")
	}
	if len(name) > MaxNicknameLength {
		return "", gameerr.Withf(gameerr.ErrInvalidNickname, "nickname longer than %d bytes", MaxNicknameLength)
	}
	return name, nil
}
