package scoring

import (
	"testing"
	"time"
)

func TestPoints(t *testing.T) {
	limit := 10 * time.Second

	cases := []struct {
		name    string
		base    int
		credit  float64
		elapsed time.Duration
		floor   float64
		want    int
	}{
		{"instant", 1000, 1, 0, 0.5, 1000},
		{"quarter window", 1000, 1, 2500 * time.Millisecond, 0.5, 875},
		{"half window", 1000, 1, 5 * time.Second, 0.5, 750},
		{"end of window", 1000, 1, limit, 0.5, 500},
		{"after window clamps", 1000, 1, 2 * limit, 0.5, 500},
		{"negative elapsed clamps", 1000, 1, -time.Second, 0.5, 1000},
		{"wrong answer", 1000, 0, 0, 0.5, 0},
		{"half credit", 1000, 0.5, 0, 0.5, 500},
		{"floor zero", 1000, 1, limit, 0, 0},
		{"floor one ignores time", 1000, 1, limit, 1, 1000},
		{"rounds", 1, 1, 5 * time.Second, 0.5, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Points(tc.base, tc.credit, tc.elapsed, limit, tc.floor); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestBoardTieBreakByJoinOrder(t *testing.T) {
	b := NewBoard()
	b.AddPlayer("late", "Late", 3)
	b.AddPlayer("early", "Early", 1)
	b.AddPlayer("middle", "Middle", 2)

	b.Record(map[string]int{"late": 500, "early": 500, "middle": 200})

	got := b.Standings()
	want := []string{"early", "late", "middle"}
	for i, id := range want {
		if got[i].WatcherID != id || got[i].Position != i {
			t.Fatalf("position %d: expected %s, got %+v", i, id, got[i])
		}
	}

	// Recomputing without change keeps the same order.
	b.Record(nil)
	for i, id := range want {
		if b.Standings()[i].WatcherID != id {
			t.Fatalf("order changed after empty round: %+v", b.Standings())
		}
	}
}

func TestBoardRoundsAndPrevious(t *testing.T) {
	b := NewBoard()
	b.AddPlayer("p1", "Ann", 1)
	b.AddPlayer("p2", "Bob", 2)

	b.Record(map[string]int{"p1": 1000, "p2": 750})
	b.Record(map[string]int{"p2": 800})

	if b.Score("p1") != 1000 || b.Score("p2") != 1550 {
		t.Fatalf("unexpected scores p1=%d p2=%d", b.Score("p1"), b.Score("p2"))
	}
	if pos, ok := b.Position("p2"); !ok || pos != 0 {
		t.Fatalf("expected p2 first, got %d %v", pos, ok)
	}
	if b.RoundPoints(1, "p1") != 0 || b.RoundPoints(0, "p2") != 750 {
		t.Fatal("unexpected round points")
	}

	cur, prev := b.Top(1)
	if cur.Count != 2 || len(cur.Entries) != 1 || cur.Entries[0].WatcherID != "p2" {
		t.Fatalf("unexpected current leaderboard %+v", cur)
	}
	if prev.Count != 2 || prev.Entries[0].WatcherID != "p1" {
		t.Fatalf("unexpected previous leaderboard %+v", prev)
	}
}

func TestBoardSummary(t *testing.T) {
	b := NewBoard()
	b.AddPlayer("p1", "Ann", 1)
	b.AddPlayer("p2", "Bob", 2)
	b.Record(map[string]int{"p1": 1000})
	b.AddPlayer("p3", "Cid", 3)
	b.Record(map[string]int{"p1": 600, "p3": 900})

	s := b.Summary()
	if s.PlayerCount != 3 || len(s.Slides) != 2 {
		t.Fatalf("unexpected summary shape %+v", s)
	}
	if s.Slides[0] != (SlideStats{Earned: 1, NotEarned: 1}) {
		t.Fatalf("unexpected slide 0 stats %+v", s.Slides[0])
	}
	if s.Slides[1] != (SlideStats{Earned: 2, NotEarned: 1}) {
		t.Fatalf("unexpected slide 1 stats %+v", s.Slides[1])
	}
	if got := s.PerPlayer["p3"]; len(got) != 2 || got[0] != 0 || got[1] != 900 {
		t.Fatalf("unexpected per player points for late joiner %v", got)
	}
	if s.Standings[0].WatcherID != "p1" || s.Standings[0].Score != 1600 {
		t.Fatalf("unexpected winner %+v", s.Standings[0])
	}
}

func TestTeamPoints(t *testing.T) {
	teams := map[string][]string{
		"owls":   {"ann", "bob"},
		"foxes":  {"cat", "dan"},
		"herons": {"eve"},
	}
	earned := map[string]int{"ann": 900, "bob": 0, "cat": 800}

	got := TeamPoints(earned, teams)
	if got["owls"] != 0 {
		t.Fatalf("a wrong member should sink the team, got %d", got["owls"])
	}
	if got["foxes"] != 800 {
		t.Fatalf("members who did not answer should not count, got %d", got["foxes"])
	}
	if _, ok := got["herons"]; ok {
		t.Fatalf("a team with no answers should earn nothing, got %v", got)
	}

	b := NewBoard()
	b.AddPlayer("owls", "Owls", 1)
	b.AddPlayer("foxes", "Foxes", 2)
	b.AddPlayer("herons", "Herons", 3)
	b.Record(got)
	if s := b.Standings(); s[0].WatcherID != "foxes" || s[1].WatcherID != "owls" {
		t.Fatalf("unexpected team standings %+v", s)
	}
}
