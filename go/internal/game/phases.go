package game

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizlive/go/internal/events"
	"github.com/mcdev12/quizlive/go/internal/gameerr"
	"github.com/mcdev12/quizlive/go/internal/quiz"
)

// Host applies a host command on behalf of watcherID.
func (s *Session) Host(ctx context.Context, watcherID string, cmd HostCommand) error {
	return s.do(ctx, "host_"+string(cmd.Action), func() error {
		return s.applyHost(watcherID, cmd)
	})
}

func (s *Session) Start(ctx context.Context, watcherID string) error {
	return s.Host(ctx, watcherID, HostCommand{Action: ActionStart})
}

func (s *Session) Next(ctx context.Context, watcherID string) error {
	return s.Host(ctx, watcherID, HostCommand{Action: ActionNext})
}

func (s *Session) Skip(ctx context.Context, watcherID string) error {
	return s.Host(ctx, watcherID, HostCommand{Action: ActionSkip})
}

// End forces the session to Finished. Ending a finished game does nothing.
func (s *Session) End(ctx context.Context, watcherID string) error {
	return s.Host(ctx, watcherID, HostCommand{Action: ActionEnd})
}

func (s *Session) applyHost(watcherID string, cmd HostCommand) error {
	p, ok := s.participants[watcherID]
	if !ok {
		return gameerr.ErrUnknownWatcher
	}
	if p.role != RoleHost {
		return gameerr.ErrNotHost
	}
	if (cmd.Phase != "" && cmd.Phase != s.phase) || (cmd.Slide != nil && *cmd.Slide != s.slide) {
		log.Debug().
			Str("game_id", s.id).
			Str("action", string(cmd.Action)).
			Str("phase", string(s.phase)).
			Int("slide", s.slide).
			Msg("ignoring stale host command")
		return nil
	}

	switch cmd.Action {
	case ActionEnd:
		s.finish(ReasonEnded)
		return nil

	case ActionStart:
		switch s.phase {
		case PhaseLobby:
			s.start()
			return nil
		case PhaseFinished:
			return gameerr.ErrGameExpired
		default:
			return gameerr.ErrGameAlreadyStarted
		}

	case ActionNext:
		switch s.phase {
		case PhaseLobby:
			s.start()
		case PhaseShowQuestion:
			s.openAnswers()
		case PhaseCollectAnswers:
			s.reveal(false)
		case PhaseRevealAnswer:
			s.showLeaderboard()
		case PhaseLeaderboard:
			s.advance()
		case PhaseFinished:
			return gameerr.ErrGameExpired
		}
		return nil

	case ActionSkip:
		switch s.phase {
		case PhaseLobby:
			return gameerr.Withf(gameerr.ErrPhaseMismatch, "nothing to skip before the game starts")
		case PhaseShowQuestion, PhaseCollectAnswers:
			s.reveal(true)
		case PhaseRevealAnswer:
			s.showLeaderboard()
		case PhaseLeaderboard:
			s.advance()
		case PhaseFinished:
			return gameerr.ErrGameExpired
		}
		return nil
	}

	return gameerr.Withf(gameerr.ErrMalformedMessage, "unknown host action %q", cmd.Action)
}

func (s *Session) start() {
	s.startedAt = s.clock.Now()
	log.Info().
		Str("game_id", s.id).
		Int("players", s.playerCount()).
		Msg("game started")

	s.notify(events.GameStarted, events.GameStartedPayload{
		GameID:      s.id,
		PlayerCount: s.playerCount(),
		StartedAt:   s.startedAt,
	})
	if s.cfg.Rules.Teams != nil {
		s.formTeams()
	}
	s.showQuestion(0)
}

func (s *Session) current() quiz.Slide {
	return s.cfg.Slides[s.slide]
}

// layout returns the display order of the current slide. It is fixed the
// first time the slide is shown so reconnecting players see the same order.
func (s *Session) layout() quiz.Layout {
	l, ok := s.layouts[s.slide]
	if !ok {
		l = quiz.NewLayout(s.current())
		s.layouts[s.slide] = l
	}
	return l
}

func (s *Session) showQuestion(i int) {
	s.cancel(&s.slideTimer)
	s.phase = PhaseShowQuestion
	s.slide = i
	s.logPhase()

	intro := s.current().Prompt().IntroduceQuestion
	if intro > 0 {
		s.schedule(&s.slideTimer, timerIntroduce, intro)
	}
	s.broadcast(EventPhaseChanged, PhaseChangedData{Phase: s.phase, Slide: i, Payload: s.question()})
	if intro == 0 {
		s.openAnswers()
	}
}

func (s *Session) openAnswers() {
	s.phase = PhaseCollectAnswers
	s.collectStart = s.clock.Now()
	s.schedule(&s.slideTimer, timerCollect, s.current().Prompt().TimeLimit)
	s.logPhase()

	s.broadcast(EventPhaseChanged, PhaseChangedData{Phase: s.phase, Slide: s.slide, Payload: s.question()})
}

// reveal closes the answer window, scores the slide and moves straight on to
// the leaderboard. A voided slide earns nobody points.
func (s *Session) reveal(voided bool) {
	s.cancel(&s.slideTimer)
	s.phase = PhaseRevealAnswer
	s.logPhase()

	slide := s.current()
	earned := make(map[string]int)
	view := RevealView{Index: s.slide, Solution: s.layout().Solution(slide), Voided: voided}
	var given []quiz.Answer
	correct := 0

	for _, p := range s.players() {
		r := Result{WatcherID: p.id, Nickname: p.nickname}
		if rec := p.answers[s.slide]; rec != nil {
			if voided {
				rec.Voided = true
				rec.Points = 0
			}
			r.Answered = true
			r.Correct = rec.Correct
			r.Points = rec.Points
			earned[p.id] = rec.Points
			given = append(given, rec.Answer)
			if rec.Correct {
				correct++
			}
		}
		view.Results = append(view.Results, r)
	}
	view.Answered = len(given)
	view.Counts = slide.Tally(given)
	s.board.Record(earned)
	if s.teams != nil {
		s.scoreTeams(earned)
	}

	s.broadcast(EventPhaseChanged, PhaseChangedData{Phase: s.phase, Slide: s.slide, Payload: view})
	s.notify(events.SlideRevealed, events.SlideRevealedPayload{
		GameID:     s.id,
		Slide:      s.slide,
		Answered:   view.Answered,
		Correct:    correct,
		Voided:     voided,
		RevealedAt: s.clock.Now(),
	})

	s.showLeaderboard()
}

func (s *Session) showLeaderboard() {
	s.phase = PhaseLeaderboard
	s.logPhase()

	s.broadcast(EventPhaseChanged, PhaseChangedData{Phase: s.phase, Slide: s.slide, Payload: s.leaderboard()})
	for _, p := range s.players() {
		s.sendTo(p, EventScoreUpdate, s.scoreUpdate(p))
	}
}

func (s *Session) advance() {
	if s.slide+1 < s.cfg.Len() {
		s.showQuestion(s.slide + 1)
		return
	}
	s.finish(ReasonCompleted)
}

// finish moves the session to its terminal phase. The loop keeps running so
// the registry can still answer queries until the session is evicted.
func (s *Session) finish(reason string) {
	if s.phase == PhaseFinished {
		return
	}
	s.cancel(&s.slideTimer)
	s.cancel(&s.idleTimer)
	s.phase = PhaseFinished
	s.finishedAt = s.clock.Now()
	s.finishReason = reason

	summary := s.board.Summary()
	view := FinishedView{Reason: reason, Summary: summary}
	if s.teams != nil {
		view.Teams = s.teamBoard.Standings()
	}
	log.Info().
		Str("game_id", s.id).
		Str("reason", reason).
		Int("players", summary.PlayerCount).
		Int("slides_played", s.board.Rounds()).
		Msg("game finished")

	s.broadcast(EventPhaseChanged, PhaseChangedData{
		Phase:   s.phase,
		Slide:   s.slide,
		Payload: view,
	})
	s.closeAll()

	payload := events.GameFinishedPayload{
		GameID:       s.id,
		Reason:       reason,
		PlayerCount:  summary.PlayerCount,
		SlidesPlayed: s.board.Rounds(),
		FinishedAt:   s.finishedAt,
		Duration:     s.finishedAt.Sub(s.createdAt).String(),
	}
	if len(summary.Standings) > 0 {
		payload.WinnerID = summary.Standings[0].WatcherID
	}
	s.notify(events.GameFinished, payload)
}

func (s *Session) question() QuestionView {
	slide := s.current()
	p := slide.Prompt()
	q := QuestionView{
		Index:       s.slide,
		Count:       s.cfg.Len(),
		Kind:        slide.Kind(),
		Title:       p.Title,
		Choices:     s.layout().Choices(slide),
		Points:      p.Points,
		TimeLimitMs: p.TimeLimit.Milliseconds(),
		IntroduceMs: p.IntroduceQuestion.Milliseconds(),
	}
	if s.phase == PhaseCollectAnswers {
		q.RemainingMs = s.remaining(&s.slideTimer).Milliseconds()
	}
	return q
}

func (s *Session) leaderboard() LeaderboardView {
	cur, prev := s.board.Top(s.cfg.Rules.LeaderboardSize)
	lb := LeaderboardView{Index: s.slide, Current: cur, Previous: prev}
	if s.teams != nil {
		teams, _ := s.teamBoard.Top(s.cfg.Rules.LeaderboardSize)
		lb.Teams = &teams
	}
	return lb
}

func (s *Session) scoreUpdate(p *participant) ScoreUpdateData {
	u := ScoreUpdateData{Slide: s.slide, Score: s.board.Score(p.id)}
	u.Position, _ = s.board.Position(p.id)
	if rec := p.answers[s.slide]; rec != nil {
		u.Answered = true
		u.Correct = rec.Correct
		u.Points = rec.Points
	}
	u.Team = s.teamScore(p)
	return u
}

func (s *Session) logPhase() {
	log.Info().
		Str("game_id", s.id).
		Str("phase", string(s.phase)).
		Int("slide", s.slide).
		Msg("phase changed")
}
