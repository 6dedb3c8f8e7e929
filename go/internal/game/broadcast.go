package game

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func (s *Session) newEvent(typ EventType, data any) Event {
	s.seq++
	return Event{
		ID:        uuid.NewString(),
		GameID:    s.id,
		Type:      typ,
		Seq:       s.seq,
		Timestamp: s.clock.Now().UTC(),
		Data:      data,
	}
}

// broadcast sends one event to every connected participant. Connections that
// refuse it are dropped after the fan-out so the rest still see the event in
// order.
func (s *Session) broadcast(typ EventType, data any) {
	ev := s.newEvent(typ, data)

	type failure struct {
		p   *participant
		err error
	}
	var failed []failure
	for _, p := range s.order {
		if p.conn == nil {
			continue
		}
		if err := p.conn.Send(ev); err != nil {
			failed = append(failed, failure{p, err})
		}
	}
	for _, f := range failed {
		s.dropConn(f.p, f.err)
	}
}

// sendTo delivers a private event to p, if connected.
func (s *Session) sendTo(p *participant, typ EventType, data any) {
	if p.conn == nil {
		return
	}
	if err := p.conn.Send(s.newEvent(typ, data)); err != nil {
		s.dropConn(p, err)
	}
}

// dropConn disconnects a participant whose connection cannot keep up.
func (s *Session) dropConn(p *participant, err error) {
	if p.conn == nil {
		return
	}
	log.Warn().
		Err(err).
		Str("game_id", s.id).
		Str("watcher_id", p.id).
		Str("connection_id", p.conn.ID()).
		Msg("dropping slow connection")

	p.conn.Close()
	s.unbind(p)
}
