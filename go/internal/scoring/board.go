package scoring

import (
	"sort"
)

// Standing is one row of the ranked scoreboard. Position is zero based.
type Standing struct {
	WatcherID string `json:"watcher_id"`
	Nickname  string `json:"nickname"`
	Score     int    `json:"score"`
	Position  int    `json:"position"`
}

// Leaderboard is a truncated view of the standings. Count is the number of
// ranked players before truncation.
type Leaderboard struct {
	Entries []Standing `json:"entries"`
	Count   int        `json:"count"`
}

// SlideStats counts, for one slide, the players who earned points and those
// who did not.
type SlideStats struct {
	Earned    int `json:"earned"`
	NotEarned int `json:"not_earned"`
}

// Summary is the end-of-game report.
type Summary struct {
	PlayerCount int              `json:"player_count"`
	Slides      []SlideStats     `json:"slides"`
	Standings   []Standing       `json:"standings"`
	PerPlayer   map[string][]int `json:"per_player"`
}

type player struct {
	id       string
	nickname string
	joinSeq  uint64
	score    int
}

// Board ranks players by cumulative score, highest first, breaking ties by
// the earliest join sequence. It is not safe for concurrent use; the game
// session owns it.
type Board struct {
	players map[string]*player
	rounds  []map[string]int

	current  []Standing
	previous []Standing
}

func NewBoard() *Board {
	return &Board{players: make(map[string]*player)}
}

// AddPlayer registers a player with a zero score. Re-adding a known id is a
// no-op.
func (b *Board) AddPlayer(id, nickname string, joinSeq uint64) {
	if _, ok := b.players[id]; ok {
		return
	}
	b.players[id] = &player{id: id, nickname: nickname, joinSeq: joinSeq}
	b.current = b.rank()
}

// Has reports whether id is on the board.
func (b *Board) Has(id string) bool {
	_, ok := b.players[id]
	return ok
}

// Score returns the cumulative score of id.
func (b *Board) Score(id string) int {
	if p, ok := b.players[id]; ok {
		return p.score
	}
	return 0
}

// Rounds is the number of recorded slides.
func (b *Board) Rounds() int { return len(b.rounds) }

// Record adds one slide's earned points. Every player on the board takes
// part in the round; players missing from earned score zero for it. The
// standings before the round become the previous standings.
func (b *Board) Record(earned map[string]int) {
	round := make(map[string]int, len(b.players))
	for id, p := range b.players {
		pts := earned[id]
		if pts < 0 {
			pts = 0
		}
		round[id] = pts
		p.score += pts
	}
	b.rounds = append(b.rounds, round)

	b.previous = b.current
	b.current = b.rank()
}

// RoundPoints returns what id earned on slide round, or 0.
func (b *Board) RoundPoints(round int, id string) int {
	if round < 0 || round >= len(b.rounds) {
		return 0
	}
	return b.rounds[round][id]
}

// Standings returns the full current ranking.
func (b *Board) Standings() []Standing {
	return append([]Standing(nil), b.current...)
}

// Position returns the zero based rank of id.
func (b *Board) Position(id string) (int, bool) {
	for _, s := range b.current {
		if s.WatcherID == id {
			return s.Position, true
		}
	}
	return 0, false
}

// Top returns the current and the previous standings, each truncated to limit
// entries.
func (b *Board) Top(limit int) (current, previous Leaderboard) {
	return truncate(b.current, limit), truncate(b.previous, limit)
}

// Summary builds the final report over every recorded round.
func (b *Board) Summary() Summary {
	s := Summary{
		PlayerCount: len(b.players),
		Slides:      make([]SlideStats, len(b.rounds)),
		Standings:   b.Standings(),
		PerPlayer:   make(map[string][]int, len(b.players)),
	}
	for id := range b.players {
		s.PerPlayer[id] = make([]int, len(b.rounds))
	}
	for i, round := range b.rounds {
		for id, pts := range round {
			if pts > 0 {
				s.Slides[i].Earned++
			} else {
				s.Slides[i].NotEarned++
			}
			s.PerPlayer[id][i] = pts
		}
	}
	return s
}

func (b *Board) rank() []Standing {
	ps := make([]*player, 0, len(b.players))
	for _, p := range b.players {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].score != ps[j].score {
			return ps[i].score > ps[j].score
		}
		return ps[i].joinSeq < ps[j].joinSeq
	})

	out := make([]Standing, len(ps))
	for i, p := range ps {
		out[i] = Standing{WatcherID: p.id, Nickname: p.nickname, Score: p.score, Position: i}
	}
	return out
}

func truncate(in []Standing, limit int) Leaderboard {
	lb := Leaderboard{Count: len(in)}
	if limit <= 0 || limit > len(in) {
		limit = len(in)
	}
	lb.Entries = append([]Standing{}, in[:limit]...)
	return lb
}
