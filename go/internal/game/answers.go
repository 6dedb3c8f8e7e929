package game

import (
	"context"
	"time"

	"github.com/mcdev12/quizlive/go/internal/gameerr"
	"github.com/mcdev12/quizlive/go/internal/quiz"
	"github.com/mcdev12/quizlive/go/internal/scoring"
)

// SubmitAnswer records a player's answer to the open slide. The submission
// time is read from the session clock when the call is made, so time spent
// waiting in the queue does not cost points. The first accepted answer is
// final.
func (s *Session) SubmitAnswer(ctx context.Context, watcherID string, slide int, answer quiz.Answer) error {
	at := s.clock.Now()
	return s.do(ctx, "answer", func() error {
		return s.submit(watcherID, slide, answer, at)
	})
}

func (s *Session) submit(watcherID string, slide int, answer quiz.Answer, at time.Time) error {
	p, ok := s.participants[watcherID]
	if !ok {
		return gameerr.ErrUnknownWatcher
	}
	if p.role != RolePlayer {
		return gameerr.ErrNotAPlayer
	}
	if s.phase != PhaseCollectAnswers {
		return gameerr.Withf(gameerr.ErrPhaseMismatch, "answers are not being collected")
	}
	if slide != s.slide {
		return gameerr.Withf(gameerr.ErrSlideMismatch, "slide %d is not open", slide)
	}
	if _, dup := p.answers[slide]; dup {
		return gameerr.ErrDuplicateAnswer
	}

	current := s.current()
	verdict, err := current.Judge(s.layout().Resolve(answer))
	if err != nil {
		return err
	}
	prompt := current.Prompt()
	points := scoring.Points(prompt.Points, verdict.Credit, at.Sub(s.collectStart), prompt.TimeLimit, s.cfg.Rules.SpeedFloor)

	s.answerSeq++
	p.answers[slide] = &AnswerRecord{
		Slide:       slide,
		Answer:      answer,
		SubmittedAt: at,
		Seq:         s.answerSeq,
		Correct:     verdict.Correct,
		Credit:      verdict.Credit,
		Points:      points,
	}

	answered, connected, everyone := s.progress()
	s.sendTo(s.host(), EventAnswerProgress, AnswerProgressData{
		Slide:    slide,
		Answered: answered,
		Total:    everyone,
	})

	if connected > 0 && s.allConnectedAnswered() {
		s.reveal(false)
	}
	return nil
}

// progress counts answers to the open slide, connected players and all
// players.
func (s *Session) progress() (answered, connected, total int) {
	for _, p := range s.players() {
		total++
		if p.conn != nil {
			connected++
		}
		if p.answers[s.slide] != nil {
			answered++
		}
	}
	return answered, connected, total
}

func (s *Session) allConnectedAnswered() bool {
	for _, p := range s.players() {
		if p.conn != nil && p.answers[s.slide] == nil {
			return false
		}
	}
	return true
}
