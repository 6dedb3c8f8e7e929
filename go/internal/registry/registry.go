// Package registry owns the set of live game sessions of a process.
package registry

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizlive/go/internal/game"
	"github.com/mcdev12/quizlive/go/internal/quiz"
)

const (
	// GameIDAlphabet leaves out letters that are easy to confuse when read
	// aloud or off a projector.
	GameIDAlphabet = "ACDEFGHJKLQRSTUVWXYZ"
	GameIDLength   = 6

	DefaultEvictionGrace = time.Minute
	DefaultSweepInterval = time.Minute
)

type Settings struct {
	Clock         clockwork.Clock
	EvictionGrace time.Duration
	SweepInterval time.Duration
	// Defaults are merged under the options of every created game.
	Defaults quiz.Options
	Session  game.Settings
}

// Stats is a point-in-time count of the sessions in the registry.
type Stats struct {
	Games            int `json:"games"`
	Lobby            int `json:"lobby"`
	Running          int `json:"running"`
	Finished         int `json:"finished"`
	Players          int `json:"players"`
	ConnectedPlayers int `json:"connected_players"`
	ConnectedHosts   int `json:"connected_hosts"`
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session

	clock    clockwork.Clock
	settings Settings
}

func New(settings Settings) *Registry {
	if settings.Clock == nil {
		settings.Clock = clockwork.NewRealClock()
	}
	if settings.EvictionGrace <= 0 {
		settings.EvictionGrace = DefaultEvictionGrace
	}
	if settings.SweepInterval <= 0 {
		settings.SweepInterval = DefaultSweepInterval
	}
	settings.Session.Clock = settings.Clock

	return &Registry{
		sessions: make(map[string]*game.Session),
		clock:    settings.Clock,
		settings: settings,
	}
}

// Create validates doc and starts a new session in the lobby. It returns the
// game id and the host's watcher id.
func (r *Registry) Create(doc quiz.Document, opts quiz.Options) (string, string, error) {
	cfg, err := quiz.NewConfig(doc, opts.Merge(r.settings.Defaults))
	if err != nil {
		return "", "", err
	}

	r.mu.Lock()
	id := newGameID()
	for r.sessions[id] != nil {
		id = newGameID()
	}
	s := game.NewSession(id, cfg, r.settings.Session)
	r.sessions[id] = s
	r.mu.Unlock()

	return id, s.HostID(), nil
}

// Lookup finds a session by id. Ids are matched case-insensitively.
func (r *Registry) Lookup(id string) (*game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[normalize(id)]
	return s, ok
}

// IsAlive reports whether the game exists and has not been finished for
// longer than the eviction grace.
func (r *Registry) IsAlive(id string) bool {
	s, ok := r.Lookup(id)
	if !ok {
		return false
	}
	return !r.expired(s.Snapshot())
}

// Sweep evicts every expired session and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	var evicted []*game.Session
	for id, s := range r.sessions {
		if r.expired(s.Snapshot()) {
			evicted = append(evicted, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range evicted {
		s.Close()
		log.Info().Str("game_id", s.ID()).Msg("evicted finished game")
	}
	return len(evicted)
}

// Run sweeps on every tick until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.settings.SweepInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.settings.SweepInterval).Msg("registry sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("registry sweeper stopped")
			return
		case <-ticker.Chan():
			if n := r.Sweep(); n > 0 {
				log.Debug().Int("evicted", n).Msg("sweep finished")
			}
		}
	}
}

// Close stops every session and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*game.Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var st Stats
	for _, s := range r.sessions {
		snap := s.Snapshot()
		st.Games++
		switch snap.Phase {
		case game.PhaseLobby:
			st.Lobby++
		case game.PhaseFinished:
			st.Finished++
		default:
			st.Running++
		}
		st.Players += snap.PlayerCount
		st.ConnectedPlayers += snap.ConnectedPlayers
		if snap.HostConnected {
			st.ConnectedHosts++
		}
	}
	return st
}

func (r *Registry) expired(snap game.Snapshot) bool {
	if snap.Phase != game.PhaseFinished {
		return false
	}
	return r.clock.Since(snap.FinishedAt) >= r.settings.EvictionGrace
}

func newGameID() string {
	b := make([]byte, GameIDLength)
	for i := range b {
		b[i] = GameIDAlphabet[rand.IntN(len(GameIDAlphabet))]
	}
	return string(b)
}

func normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
