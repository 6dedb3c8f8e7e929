package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/quizlive/go/internal/events"
	"github.com/mcdev12/quizlive/go/internal/gameerr"
	"github.com/mcdev12/quizlive/go/internal/quiz"
)

var ctx = context.Background()

// recordingConn keeps every event it is sent.
type recordingConn struct {
	id string

	mu      sync.Mutex
	events  []Event
	closed  bool
	full    bool
	panicOn EventType
}

func newConn(id string) *recordingConn {
	return &recordingConn{id: id}
}

func (c *recordingConn) ID() string { return c.id }

func (c *recordingConn) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panicOn != "" && ev.Type == c.panicOn {
		c.panicOn = ""
		panic("connection exploded")
	}
	if c.closed {
		return fmt.Errorf("connection closed")
	}
	if c.full {
		return gameerr.ErrBacklogFull
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *recordingConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recordingConn) setFull(full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = full
}

func (c *recordingConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *recordingConn) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func (c *recordingConn) ofType(typ EventType) []Event {
	var out []Event
	for _, ev := range c.all() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (c *recordingConn) phases() []PhaseChangedData {
	var out []PhaseChangedData
	for _, ev := range c.ofType(EventPhaseChanged) {
		out = append(out, ev.Data.(PhaseChangedData))
	}
	return out
}

func (c *recordingConn) lastPhase(phase Phase) (PhaseChangedData, bool) {
	ps := c.phases()
	for i := len(ps) - 1; i >= 0; i-- {
		if ps[i].Phase == phase {
			return ps[i], true
		}
	}
	return PhaseChangedData{}, false
}

type recordingNotifier struct {
	mu    sync.Mutex
	types []events.Type
}

func (n *recordingNotifier) Notify(env events.Envelope) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types = append(n.types, env.Type)
}

func (n *recordingNotifier) seen() []events.Type {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]events.Type(nil), n.types...)
}

func mcDoc(n int, limitMs int64) quiz.Document {
	doc := quiz.Document{Title: "Test quiz"}
	for i := 0; i < n; i++ {
		doc.Slides = append(doc.Slides, quiz.SlideSpec{
			Type:        quiz.KindMultipleChoice,
			Title:       fmt.Sprintf("Question %d", i+1),
			TimeLimitMs: limitMs,
			Choices: []quiz.Choice{
				{Text: "right", Correct: true},
				{Text: "wrong"},
			},
		})
	}
	return doc
}

type fixture struct {
	s     *Session
	clock *clockwork.FakeClock
	host  *recordingConn
}

func newFixture(t *testing.T, doc quiz.Document, opts quiz.Options, settings Settings) *fixture {
	t.Helper()
	cfg, err := quiz.NewConfig(doc, opts)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	settings.Clock = clock

	s := NewSession("GAMEID", cfg, settings)
	t.Cleanup(s.Close)
	return &fixture{s: s, clock: clock}
}

// withHost connects the host.
func (f *fixture) withHost(t *testing.T) *fixture {
	t.Helper()
	f.host = newConn("host-conn")
	if err := f.s.Reconnect(ctx, f.s.HostID(), f.host); err != nil {
		t.Fatalf("host connect: %v", err)
	}
	return f
}

func (f *fixture) join(t *testing.T, nickname string) (string, *recordingConn) {
	t.Helper()
	conn := newConn(nickname + "-conn")
	id, err := f.s.Join(ctx, nickname, conn)
	if err != nil {
		t.Fatalf("join %s: %v", nickname, err)
	}
	return id, conn
}

func (f *fixture) waitPhase(t *testing.T, phase Phase, slide int) {
	t.Helper()
	eventually(t, fmt.Sprintf("phase %s slide %d", phase, slide), func() bool {
		snap := f.s.Snapshot()
		return snap.Phase == phase && snap.Slide == slide
	})
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
