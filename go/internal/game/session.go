// Package game runs live quiz sessions.
//
// Each Session is an actor: one goroutine owns every piece of mutable state
// (phase, participants, scoreboard, timers) and applies commands from a queue
// one at a time. Public methods enqueue a command and wait for its reply.
// Timers fire by enqueueing commands into the same queue, tagged with a
// generation number so a timer cancelled after it fired is ignored.
package game

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizlive/go/internal/events"
	"github.com/mcdev12/quizlive/go/internal/gameerr"
	"github.com/mcdev12/quizlive/go/internal/quiz"
	"github.com/mcdev12/quizlive/go/internal/scoring"
)

type command struct {
	name  string
	fn    func() error
	reply chan error
	// claimed is set by whichever gets to the command first: the loop
	// applying it or a caller giving up on it. A command claimed by its
	// caller is dropped unapplied.
	claimed atomic.Bool
}

type Session struct {
	id       string
	hostID   string
	cfg      *quiz.Config
	clock    clockwork.Clock
	settings Settings

	cmds     chan *command
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	snapshot atomic.Pointer[Snapshot]

	// Everything below is owned by the loop goroutine.
	phase        Phase
	slide        int
	participants map[string]*participant
	order        []*participant
	board        *scoring.Board
	layouts      map[int]quiz.Layout
	teams        []*team
	teamBoard    *scoring.Board

	seq       uint64
	joinSeq   uint64
	answerSeq uint64

	createdAt    time.Time
	startedAt    time.Time
	collectStart time.Time
	finishedAt   time.Time
	finishReason string

	timerGen   uint64
	slideTimer scheduled
	idleTimer  scheduled
}

// NewSession starts a session in the lobby with a single, not yet connected,
// host participant.
func NewSession(id string, cfg *quiz.Config, settings Settings) *Session {
	if settings.Clock == nil {
		settings.Clock = clockwork.NewRealClock()
	}
	if settings.QueueSize <= 0 {
		settings.QueueSize = DefaultQueueSize
	}

	s := &Session{
		id:           id,
		cfg:          cfg,
		clock:        settings.Clock,
		settings:     settings,
		cmds:         make(chan *command, settings.QueueSize),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		phase:        PhaseLobby,
		participants: make(map[string]*participant),
		board:        scoring.NewBoard(),
		layouts:      make(map[int]quiz.Layout),
		teamBoard:    scoring.NewBoard(),
		createdAt:    settings.Clock.Now(),
	}

	host := s.addParticipant(uuid.NewString(), "", RoleHost)
	s.hostID = host.id
	if settings.HostIdleTimeout > 0 {
		s.schedule(&s.idleTimer, timerHostIdle, settings.HostIdleTimeout)
	}

	s.publish()
	s.notify(events.GameCreated, events.GameCreatedPayload{
		GameID:     id,
		Title:      cfg.Title,
		SlideCount: cfg.Len(),
		CreatedAt:  s.createdAt,
	})
	log.Info().
		Str("game_id", id).
		Int("slides", cfg.Len()).
		Msg("game session created")

	go s.run()
	return s
}

func (s *Session) ID() string     { return s.id }
func (s *Session) HostID() string { return s.hostID }

// Snapshot returns the summary published after the last command.
func (s *Session) Snapshot() Snapshot {
	return *s.snapshot.Load()
}

// Done is closed once the session loop has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops the session loop and closes every connection. It is used by
// the registry on eviction and shutdown; players see the connection drop.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.done
}

// State returns the full view of the session.
func (s *Session) State(ctx context.Context) (State, error) {
	var st State
	err := s.do(ctx, "state", func() error {
		st = s.state()
		return nil
	})
	return st, err
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case c := <-s.cmds:
			s.exec(c)
		case <-s.quit:
			s.shutdown()
			return
		}
	}
}

func (s *Session) exec(c *command) {
	if !c.claimed.CompareAndSwap(false, true) {
		log.Debug().Str("game_id", s.id).Str("command", c.name).Msg("dropping abandoned command")
		return
	}
	defer s.publish()
	defer func() {
		if r := recover(); r != nil {
			s.fault(c.name, r)
			c.reply <- gameerr.ErrInternal
		}
	}()
	c.reply <- c.fn()
}

// do enqueues fn and waits for it to be applied. When ctx ends first, fn is
// either never applied or do waits for it to finish, so an error from do
// never hides a change it made.
func (s *Session) do(ctx context.Context, name string, fn func() error) error {
	c := &command{name: name, fn: fn, reply: make(chan error, 1)}

	select {
	case s.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.quit:
		return gameerr.ErrGameExpired
	}

	select {
	case err := <-c.reply:
		return err
	case <-ctx.Done():
		if c.claimed.CompareAndSwap(false, true) {
			return ctx.Err()
		}
		// Already being applied.
		return <-c.reply
	case <-s.done:
		select {
		case err := <-c.reply:
			return err
		default:
			return gameerr.ErrGameExpired
		}
	}
}

// fault tears the session down after a command panicked.
func (s *Session) fault(name string, r any) {
	log.Error().
		Str("game_id", s.id).
		Str("command", name).
		Interface("panic", r).
		Bytes("stack", debug.Stack()).
		Msg("recovered panic in game session")

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("game_id", s.id).Interface("panic", r).Msg("game session teardown failed")
			s.cancel(&s.slideTimer)
			s.cancel(&s.idleTimer)
			if s.phase != PhaseFinished {
				s.phase = PhaseFinished
				s.finishedAt = s.clock.Now()
				s.finishReason = ReasonInternal
			}
			s.closeAll()
		}
	}()

	s.broadcast(EventError, gameerr.Withf(gameerr.ErrInternal, "the game was ended after an internal error"))
	s.finish(ReasonInternal)
	s.closeAll()
}

func (s *Session) shutdown() {
	s.cancel(&s.slideTimer)
	s.cancel(&s.idleTimer)
	s.closeAll()
	log.Debug().Str("game_id", s.id).Msg("game session stopped")
}

func (s *Session) publish() {
	snap := s.snap()
	s.snapshot.Store(&snap)
}

func (s *Session) snap() Snapshot {
	snap := Snapshot{
		GameID:       s.id,
		Title:        s.cfg.Title,
		Phase:        s.phase,
		Slide:        s.slide,
		SlideCount:   s.cfg.Len(),
		CreatedAt:    s.createdAt,
		FinishedAt:   s.finishedAt,
		FinishReason: s.finishReason,
	}
	for _, p := range s.order {
		switch {
		case p.role == RoleHost:
			snap.HostConnected = p.conn != nil
		case p.conn != nil:
			snap.PlayerCount++
			snap.ConnectedPlayers++
		default:
			snap.PlayerCount++
		}
	}
	return snap
}

func (s *Session) state() State {
	st := State{
		Snapshot:  s.snap(),
		Rules:     s.cfg.Rules,
		Standings: s.board.Standings(),
	}
	if s.teams != nil {
		st.TeamStandings = s.teamBoard.Standings()
	}
	for _, p := range s.order {
		st.Participants = append(st.Participants, s.view(p))
	}
	if s.phase == PhaseShowQuestion || s.phase == PhaseCollectAnswers {
		q := s.question()
		st.Question = &q
	}
	return st
}

func (s *Session) notify(typ events.Type, payload any) {
	if s.settings.Notifier == nil {
		return
	}
	env, err := events.New(s.id, typ, s.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("game_id", s.id).Msg("failed to build lifecycle event")
		return
	}
	s.settings.Notifier.Notify(env)
}
