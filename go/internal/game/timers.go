package game

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type timerKind int

const (
	timerIntroduce timerKind = iota
	timerCollect
	timerHostIdle
)

func (k timerKind) String() string {
	switch k {
	case timerIntroduce:
		return "introduce"
	case timerCollect:
		return "collect"
	case timerHostIdle:
		return "host_idle"
	}
	return "unknown"
}

// scheduled is one cancellable timer slot. gen is zero when nothing is
// pending.
type scheduled struct {
	timer    clockwork.Timer
	gen      uint64
	deadline time.Time
}

// schedule replaces whatever t holds with a timer that enqueues kind after d.
func (s *Session) schedule(t *scheduled, kind timerKind, d time.Duration) {
	s.cancel(t)

	s.timerGen++
	gen := s.timerGen
	t.gen = gen
	t.deadline = s.clock.Now().Add(d)
	t.timer = s.clock.AfterFunc(d, func() { s.fire(kind, gen) })

	log.Debug().
		Str("game_id", s.id).
		Stringer("timer", kind).
		Dur("duration", d).
		Msg("scheduled timer")
}

// cancel stops t. A callback that already fired is left to find a stale
// generation.
func (s *Session) cancel(t *scheduled) {
	if t.timer != nil {
		t.timer.Stop()
	}
	*t = scheduled{}
}

// remaining is the time left on t, or zero.
func (s *Session) remaining(t *scheduled) time.Duration {
	if t.gen == 0 {
		return 0
	}
	if d := t.deadline.Sub(s.clock.Now()); d > 0 {
		return d
	}
	return 0
}

// fire runs on the clock's goroutine and routes the timer through the
// command queue.
func (s *Session) fire(kind timerKind, gen uint64) {
	c := &command{
		name:  "timer_" + kind.String(),
		fn:    func() error { s.onTimer(kind, gen); return nil },
		reply: make(chan error, 1),
	}
	select {
	case s.cmds <- c:
	case <-s.quit:
	}
}

func (s *Session) onTimer(kind timerKind, gen uint64) {
	switch kind {
	case timerIntroduce:
		if s.slideTimer.gen != gen || s.phase != PhaseShowQuestion {
			return
		}
		s.openAnswers()

	case timerCollect:
		if s.slideTimer.gen != gen || s.phase != PhaseCollectAnswers {
			return
		}
		log.Debug().Str("game_id", s.id).Int("slide", s.slide).Msg("answer window expired")
		s.reveal(false)

	case timerHostIdle:
		if s.idleTimer.gen != gen || s.phase == PhaseFinished {
			return
		}
		s.idleTimer = scheduled{}
		if s.host().conn != nil {
			return
		}
		log.Info().Str("game_id", s.id).Msg("host did not come back, ending game")
		s.finish(ReasonHostIdle)
	}
}
