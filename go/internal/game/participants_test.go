package game

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mcdev12/quizlive/go/internal/gameerr"
	"github.com/mcdev12/quizlive/go/internal/quiz"
)

func TestReconnectPreservesScoreAndHistory(t *testing.T) {
	f := newFixture(t, mcDoc(2, 10_000), quiz.Options{}, Settings{}).withHost(t)
	p1, c1 := f.join(t, "Ann")

	if err := f.s.Start(ctx, f.s.HostID()); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(5 * time.Second)
	if err := f.s.SubmitAnswer(ctx, p1, 0, quiz.ChoiceAnswer(0)); err != nil {
		t.Fatal(err)
	}
	f.waitPhase(t, PhaseLeaderboard, 0)

	before, err := f.s.Participant(ctx, p1)
	if err != nil {
		t.Fatal(err)
	}
	if before.Score != 750 {
		t.Fatalf("expected 750 points, got %d", before.Score)
	}

	if err := f.s.Disconnect(ctx, p1, c1); err != nil {
		t.Fatal(err)
	}
	gone, _ := f.s.Participant(ctx, p1)
	if gone.Connected || gone.Score != before.Score {
		t.Fatalf("disconnect should keep the score, got %+v", gone)
	}
	if left := f.host.ofType(EventParticipantLeft); len(left) != 1 {
		t.Fatalf("expected host to see one departure, got %d", len(left))
	}

	c1b := newConn("ann-again")
	if err := f.s.Reconnect(ctx, p1, c1b); err != nil {
		t.Fatal(err)
	}
	after, _ := f.s.Participant(ctx, p1)
	if !after.Connected || after.Score != before.Score || len(after.Answers) != len(before.Answers) {
		t.Fatalf("reconnect changed the participant: %+v vs %+v", before, after)
	}
	if a, b := after.Answers[0], before.Answers[0]; a.Seq != b.Seq || a.Points != b.Points || !a.SubmittedAt.Equal(b.SubmittedAt) {
		t.Fatalf("answer history changed: %+v vs %+v", before.Answers[0], after.Answers[0])
	}

	welcome := c1b.ofType(EventWelcome)
	if len(welcome) != 1 {
		t.Fatalf("expected a welcome on reconnect, got %d", len(welcome))
	}
	w := welcome[0].Data.(WelcomeData)
	if w.You.Score != 750 || w.Snapshot.Phase != PhaseLeaderboard || w.Leaderboard == nil {
		t.Fatalf("unexpected welcome %+v", w)
	}

	// A late disconnect from the replaced connection is ignored.
	if err := f.s.Disconnect(ctx, p1, c1); err != nil {
		t.Fatal(err)
	}
	if v, _ := f.s.Participant(ctx, p1); !v.Connected {
		t.Fatal("stale disconnect should not unbind the new connection")
	}
}

func TestReconnectReplacesOldConnection(t *testing.T) {
	f := newFixture(t, mcDoc(1, 10_000), quiz.Options{}, Settings{}).withHost(t)
	p1, c1 := f.join(t, "Ann")

	c2 := newConn("second-tab")
	if err := f.s.Reconnect(ctx, p1, c2); err != nil {
		t.Fatal(err)
	}
	if !c1.isClosed() {
		t.Fatal("previous connection should be closed")
	}
	if err := f.s.Reconnect(ctx, "nobody", newConn("x")); !errors.Is(err, gameerr.ErrUnknownWatcher) {
		t.Fatalf("expected ErrUnknownWatcher, got %v", err)
	}
	if err := f.s.Reconnect(ctx, f.s.HostID(), c2); !errors.Is(err, gameerr.ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}

	if err := f.s.End(ctx, f.s.HostID()); err != nil {
		t.Fatal(err)
	}
	if err := f.s.Reconnect(ctx, p1, newConn("too-late")); !errors.Is(err, gameerr.ErrGameExpired) {
		t.Fatalf("expected ErrGameExpired, got %v", err)
	}
}

func TestWelcomeCarriesRemainingTime(t *testing.T) {
	f := newFixture(t, mcDoc(1, 10_000), quiz.Options{}, Settings{}).withHost(t)
	p1, _ := f.join(t, "Ann")
	f.join(t, "Bob")

	if err := f.s.Start(ctx, f.s.HostID()); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(4 * time.Second)
	if err := f.s.SubmitAnswer(ctx, p1, 0, quiz.ChoiceAnswer(0)); err != nil {
		t.Fatal(err)
	}

	c := newConn("ann-phone")
	if err := f.s.Reconnect(ctx, p1, c); err != nil {
		t.Fatal(err)
	}
	w := c.ofType(EventWelcome)[0].Data.(WelcomeData)
	if w.Question == nil || w.Question.RemainingMs != 6000 {
		t.Fatalf("expected 6000ms remaining, got %+v", w.Question)
	}
	if !w.Answered {
		t.Fatal("welcome should report the answer already given")
	}
	if len(w.Question.Choices) != 2 {
		t.Fatalf("expected choices in welcome, got %v", w.Question.Choices)
	}
}

func TestHostWelcomeListsPlayers(t *testing.T) {
	f := newFixture(t, mcDoc(1, 10_000), quiz.Options{}, Settings{})
	f.join(t, "Ann")
	f.join(t, "Bob")
	f.withHost(t)

	w := f.host.ofType(EventWelcome)[0].Data.(WelcomeData)
	if w.You.Role != RoleHost || len(w.Participants) != 2 || w.Participants[1].Nickname != "Bob" {
		t.Fatalf("unexpected host welcome %+v", w)
	}
}

func TestLateJoinPolicy(t *testing.T) {
	f := newFixture(t, mcDoc(2, 10_000), quiz.Options{}, Settings{}).withHost(t)
	f.join(t, "Ann")
	if err := f.s.Start(ctx, f.s.HostID()); err != nil {
		t.Fatal(err)
	}
	_, err := f.s.Join(ctx, "Bob", newConn("bob"))
	if !errors.Is(err, gameerr.ErrGameAlreadyStarted) || gameerr.KindOf(err) != gameerr.KindState {
		t.Fatalf("expected state error, got %v", err)
	}

	allow := true
	g := newFixture(t, mcDoc(2, 10_000), quiz.Options{AllowLateJoin: &allow}, Settings{}).withHost(t)
	g.join(t, "Ann")
	if err := g.s.Start(ctx, g.s.HostID()); err != nil {
		t.Fatal(err)
	}
	bob, conn := g.join(t, "Bob")
	v, _ := g.s.Participant(ctx, bob)
	if !v.Late {
		t.Fatal("expected late join to be flagged")
	}
	if w := conn.ofType(EventWelcome)[0].Data.(WelcomeData); w.Question == nil {
		t.Fatal("late joiner should be shown the open question")
	}
	if err := g.s.SubmitAnswer(ctx, bob, 0, quiz.ChoiceAnswer(0)); err != nil {
		t.Fatalf("late joiner should be able to answer: %v", err)
	}
}

func TestJoinValidation(t *testing.T) {
	f := newFixture(t, mcDoc(1, 10_000), quiz.Options{MaxPlayers: 2}, Settings{}).withHost(t)
	_, annConn := f.join(t, "  Ann  ")

	cases := []struct {
		name     string
		nickname string
		conn     *recordingConn
		want     error
	}{
		{"empty", "   ", newConn("a"), gameerr.ErrInvalidNickname},
		{"too long", strings.Repeat("x", MaxNicknameLength+1), newConn("b"), gameerr.ErrInvalidNickname},
		{"taken after trim", "Ann", newConn("c"), gameerr.ErrNicknameTaken},
		{"same connection", "Ann2", annConn, gameerr.ErrAlreadyJoined},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.s.Join(ctx, tc.nickname, tc.conn); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	f.join(t, strings.Repeat("y", MaxNicknameLength))
	if _, err := f.s.Join(ctx, "Cid", newConn("cid")); !errors.Is(err, gameerr.ErrGameFull) {
		t.Fatalf("expected ErrGameFull, got %v", err)
	}

	joined := f.host.ofType(EventParticipantJoined)
	if len(joined) != 3 {
		t.Fatalf("expected host to see two joins plus its own, got %d", len(joined))
	}
}

func TestSlowConnectionIsDropped(t *testing.T) {
	f := newFixture(t, mcDoc(1, 10_000), quiz.Options{}, Settings{}).withHost(t)
	_, c1 := f.join(t, "Ann")
	p2, c2 := f.join(t, "Bob")
	c2.setFull(true)

	if err := f.s.Start(ctx, f.s.HostID()); err != nil {
		t.Fatal(err)
	}
	if !c2.isClosed() {
		t.Fatal("slow connection should be closed")
	}
	if c1.isClosed() {
		t.Fatal("other connections must not be affected")
	}

	left := c1.ofType(EventParticipantLeft)
	if len(left) != 1 || left[0].Data.(ParticipantData).WatcherID != p2 {
		t.Fatalf("expected Ann to see Bob leave, got %+v", left)
	}
	if phases := c1.phases(); len(phases) != 2 {
		t.Fatalf("Ann should still see both transitions, got %+v", phases)
	}
	if snap := f.s.Snapshot(); snap.ConnectedPlayers != 1 || snap.PlayerCount != 2 {
		t.Fatalf("unexpected counts %+v", snap)
	}
}

func TestHostIdleTimeout(t *testing.T) {
	f := newFixture(t, mcDoc(1, 10_000), quiz.Options{}, Settings{HostIdleTimeout: 5 * time.Minute})
	f.clock.Advance(5 * time.Minute)
	f.waitPhase(t, PhaseFinished, 0)
	if reason := f.s.Snapshot().FinishReason; reason != ReasonHostIdle {
		t.Fatalf("expected host idle reason, got %q", reason)
	}

	g := newFixture(t, mcDoc(1, 10_000), quiz.Options{}, Settings{HostIdleTimeout: 5 * time.Minute}).withHost(t)
	g.clock.Advance(10 * time.Minute)
	if snap := g.s.Snapshot(); snap.Phase != PhaseLobby {
		t.Fatalf("connected host should keep the game alive, got %s", snap.Phase)
	}

	if err := g.s.Disconnect(ctx, g.s.HostID(), g.host); err != nil {
		t.Fatal(err)
	}
	g.clock.Advance(4 * time.Minute)
	if err := g.s.Reconnect(ctx, g.s.HostID(), newConn("host-again")); err != nil {
		t.Fatal(err)
	}
	g.clock.Advance(2 * time.Minute)
	if snap := g.s.Snapshot(); snap.Phase != PhaseLobby {
		t.Fatalf("reconnecting should cancel the idle timer, got %s", snap.Phase)
	}
}
