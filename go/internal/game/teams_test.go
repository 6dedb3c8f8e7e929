package game

import (
	"errors"
	"testing"
	"time"

	"github.com/mcdev12/quizlive/go/internal/gameerr"
	"github.com/mcdev12/quizlive/go/internal/quiz"
)

func teamOf(t *testing.T, c *recordingConn) TeamData {
	t.Helper()
	evs := c.ofType(EventTeamAssigned)
	if len(evs) == 0 {
		t.Fatalf("%s: no team assigned", c.id)
	}
	return evs[len(evs)-1].Data.(TeamData)
}

func TestTeamsFollowMutualPreferences(t *testing.T) {
	late := true
	opts := quiz.Options{Teams: &quiz.TeamOptions{Size: 2}, AllowLateJoin: &late}
	f := newFixture(t, mcDoc(1, 10_000), opts, Settings{}).withHost(t)
	ann, annConn := f.join(t, "Ann")
	bob, bobConn := f.join(t, "Bob")
	cat, _ := f.join(t, "Cat")
	f.join(t, "Dan")

	for id, names := range map[string][]string{ann: {"Cat"}, cat: {"Ann"}, bob: {"Dan"}} {
		if err := f.s.SetTeammates(ctx, id, names); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.s.Start(ctx, f.s.HostID()); err != nil {
		t.Fatal(err)
	}

	annTeam, bobTeam := teamOf(t, annConn), teamOf(t, bobConn)
	if annTeam.TeamID == bobTeam.TeamID {
		t.Fatalf("expected two teams, got %+v", annTeam)
	}
	if len(annTeam.Members) != 2 || annTeam.Members[0] != "Cat" && annTeam.Members[1] != "Cat" {
		t.Fatalf("Ann and Cat asked for each other, got %+v", annTeam)
	}

	f.clock.Advance(2 * time.Second)
	for id, answer := range map[string]int{ann: 0, cat: 1, bob: 0} {
		if err := f.s.SubmitAnswer(ctx, id, 0, quiz.ChoiceAnswer(answer)); err != nil {
			t.Fatal(err)
		}
	}
	f.clock.Advance(8 * time.Second)
	f.waitPhase(t, PhaseLeaderboard, 0)

	lb, _ := annConn.lastPhase(PhaseLeaderboard)
	teams := lb.Payload.(LeaderboardView).Teams
	if teams == nil || teams.Count != 2 {
		t.Fatalf("expected two ranked teams, got %+v", teams)
	}
	// Cat's wrong answer sinks Ann's team; Dan not answering does not hurt Bob's.
	if teams.Entries[0].Nickname != bobTeam.Name || teams.Entries[0].Score != 900 || teams.Entries[1].Score != 0 {
		t.Fatalf("unexpected team standings %+v", teams.Entries)
	}
	updates := bobConn.ofType(EventScoreUpdate)
	if u := updates[len(updates)-1].Data.(ScoreUpdateData); u.Team == nil || u.Team.Score != 900 || u.Team.Position != 0 {
		t.Fatalf("unexpected team score for Bob %+v", u.Team)
	}

	eve, _ := f.join(t, "Eve")
	p, err := f.s.Participant(ctx, eve)
	if err != nil {
		t.Fatal(err)
	}
	if p.Team == "" {
		t.Fatal("a late joiner should be put in a team")
	}
}

func TestSetTeammatesErrors(t *testing.T) {
	solo := newFixture(t, mcDoc(1, 10_000), quiz.Options{}, Settings{}).withHost(t)
	id, _ := solo.join(t, "Ann")
	if err := solo.s.SetTeammates(ctx, id, []string{"Bob"}); !errors.Is(err, gameerr.ErrTeamsDisabled) {
		t.Fatalf("expected teams disabled, got %v", err)
	}

	random := newFixture(t, mcDoc(1, 10_000), quiz.Options{Teams: &quiz.TeamOptions{Size: 2, AssignRandom: true}}, Settings{}).withHost(t)
	id, _ = random.join(t, "Ann")
	if err := random.s.SetTeammates(ctx, id, []string{"Bob"}); !errors.Is(err, gameerr.ErrTeamsDisabled) {
		t.Fatalf("expected teams disabled with random assignment, got %v", err)
	}

	f := newFixture(t, mcDoc(1, 10_000), quiz.Options{Teams: &quiz.TeamOptions{Size: 2}}, Settings{}).withHost(t)
	id, _ = f.join(t, "Ann")
	if err := f.s.SetTeammates(ctx, f.s.HostID(), []string{"Ann"}); !errors.Is(err, gameerr.ErrNotAPlayer) {
		t.Fatalf("expected not a player, got %v", err)
	}
	if err := f.s.SetTeammates(ctx, id, []string{"Bob", "Cat"}); !errors.Is(err, gameerr.ErrMalformedMessage) {
		t.Fatalf("expected too many teammates to be rejected, got %v", err)
	}
	if err := f.s.Start(ctx, f.s.HostID()); err != nil {
		t.Fatal(err)
	}
	if err := f.s.SetTeammates(ctx, id, []string{"Bob"}); !errors.Is(err, gameerr.ErrPhaseMismatch) {
		t.Fatalf("expected phase mismatch after start, got %v", err)
	}
}

func TestRandomTeamsAreBalanced(t *testing.T) {
	f := newFixture(t, mcDoc(1, 10_000), quiz.Options{Teams: &quiz.TeamOptions{Size: 3, AssignRandom: true}}, Settings{}).withHost(t)
	for _, name := range []string{"Ann", "Bob", "Cat", "Dan", "Eve", "Fay", "Gus"} {
		f.join(t, name)
	}
	if err := f.s.Start(ctx, f.s.HostID()); err != nil {
		t.Fatal(err)
	}

	st, err := f.s.State(ctx)
	if err != nil {
		t.Fatal(err)
	}
	sizes := make(map[string]int)
	for _, p := range st.Participants {
		if p.Role == RolePlayer {
			sizes[p.Team]++
		}
	}
	if len(sizes) != 3 || len(st.TeamStandings) != 3 {
		t.Fatalf("7 players in teams of 3 should make 3 teams, got %v", sizes)
	}
	for name, n := range sizes {
		if n < 2 || n > 3 {
			t.Fatalf("team %s has %d players", name, n)
		}
	}
}
