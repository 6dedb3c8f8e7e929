package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizlive/go/internal/gameerr"
	"github.com/mcdev12/quizlive/go/internal/scoring"
)

type team struct {
	id      string
	name    string
	members []*participant
}

var teamNames = []string{
	"Otters", "Falcons", "Badgers", "Herons", "Lynxes", "Ravens",
	"Bisons", "Geckos", "Walruses", "Foxes", "Owls", "Pandas",
	"Moles", "Cranes", "Wolves", "Hares",
}

// SetTeammates records the players watcherID would like to team up with,
// by nickname. Only wishes that are mutual are honoured when teams are
// formed at Start.
func (s *Session) SetTeammates(ctx context.Context, watcherID string, nicknames []string) error {
	return s.do(ctx, "teammates", func() error {
		return s.setTeammates(watcherID, nicknames)
	})
}

func (s *Session) setTeammates(watcherID string, nicknames []string) error {
	p, ok := s.participants[watcherID]
	if !ok {
		return gameerr.ErrUnknownWatcher
	}
	if p.role != RolePlayer {
		return gameerr.ErrNotAPlayer
	}
	opts := s.cfg.Rules.Teams
	if opts == nil {
		return gameerr.ErrTeamsDisabled
	}
	if opts.AssignRandom {
		return gameerr.Withf(gameerr.ErrTeamsDisabled, "teams are assigned at random")
	}
	if s.phase != PhaseLobby {
		return gameerr.Withf(gameerr.ErrPhaseMismatch, "teams are formed when the game starts")
	}
	if len(nicknames) > opts.Size-1 {
		return gameerr.Withf(gameerr.ErrMalformedMessage, "at most %d teammates", opts.Size-1)
	}

	wanted := make([]string, 0, len(nicknames))
	for _, n := range nicknames {
		n = strings.TrimSpace(n)
		if n != "" && n != p.nickname {
			wanted = append(wanted, n)
		}
	}
	p.teammates = wanted
	return nil
}

// formTeams splits the players into about len/size teams. Players who
// picked each other stay together where the size allows.
func (s *Session) formTeams() {
	opts := s.cfg.Rules.Teams
	players := s.players()

	count := (len(players) + opts.Size - 1) / opts.Size
	if count < 1 {
		count = 1
	}
	buckets := make([][]*participant, count)
	for _, g := range s.preferenceGroups(players) {
		smallest := 0
		for i := range buckets {
			if len(buckets[i]) < len(buckets[smallest]) {
				smallest = i
			}
		}
		buckets[smallest] = append(buckets[smallest], g...)
	}

	names := rand.Perm(len(teamNames))
	for i, members := range buckets {
		t := &team{id: uuid.NewString(), name: teamName(names, i)}
		s.teams = append(s.teams, t)
		s.teamBoard.AddPlayer(t.id, t.name, uint64(i))
		for _, p := range members {
			t.members = append(t.members, p)
			p.team = t
		}
	}
	for _, t := range s.teams {
		for _, p := range t.members {
			s.sendTo(p, EventTeamAssigned, s.teamData(t))
		}
	}

	log.Info().
		Str("game_id", s.id).
		Int("teams", len(s.teams)).
		Int("players", len(players)).
		Msg("teams formed")
}

// preferenceGroups groups players who named each other as teammates,
// largest group first. No group is larger than the team size.
func (s *Session) preferenceGroups(players []*participant) [][]*participant {
	opts := s.cfg.Rules.Teams

	parent := make(map[*participant]*participant, len(players))
	byName := make(map[string]*participant, len(players))
	for _, p := range players {
		parent[p] = p
		byName[p.nickname] = p
	}
	find := func(p *participant) *participant {
		for parent[p] != p {
			parent[p] = parent[parent[p]]
			p = parent[p]
		}
		return p
	}
	if !opts.AssignRandom {
		for _, p := range players {
			for _, name := range p.teammates {
				q, ok := byName[name]
				if ok && q != p && q.wants(p.nickname) {
					parent[find(p)] = find(q)
				}
			}
		}
	}

	var roots []*participant
	grouped := make(map[*participant][]*participant)
	for _, p := range players {
		r := find(p)
		if _, ok := grouped[r]; !ok {
			roots = append(roots, r)
		}
		grouped[r] = append(grouped[r], p)
	}

	var groups [][]*participant
	for _, r := range roots {
		g := grouped[r]
		rand.Shuffle(len(g), func(i, j int) { g[i], g[j] = g[j], g[i] })
		for len(g) > opts.Size {
			groups = append(groups, g[:opts.Size])
			g = g[opts.Size:]
		}
		groups = append(groups, g)
	}
	rand.Shuffle(len(groups), func(i, j int) { groups[i], groups[j] = groups[j], groups[i] })
	sort.SliceStable(groups, func(i, j int) bool { return len(groups[i]) > len(groups[j]) })
	return groups
}

// joinTeam puts a player who joined after Start into the smallest team.
func (s *Session) joinTeam(p *participant) {
	t := s.teams[0]
	for _, other := range s.teams[1:] {
		if len(other.members) < len(t.members) {
			t = other
		}
	}
	t.members = append(t.members, p)
	p.team = t
	for _, m := range t.members {
		s.sendTo(m, EventTeamAssigned, s.teamData(t))
	}
}

// scoreTeams records a slide for the teams from what their members earned.
func (s *Session) scoreTeams(earned map[string]int) {
	members := make(map[string][]string, len(s.teams))
	for _, t := range s.teams {
		for _, p := range t.members {
			members[t.id] = append(members[t.id], p.id)
		}
	}
	s.teamBoard.Record(scoring.TeamPoints(earned, members))
}

func (s *Session) teamData(t *team) TeamData {
	d := TeamData{TeamID: t.id, Name: t.name}
	for _, m := range t.members {
		d.Members = append(d.Members, m.nickname)
	}
	return d
}

func (s *Session) teamScore(p *participant) *TeamScore {
	if p.team == nil {
		return nil
	}
	ts := &TeamScore{Name: p.team.name, Score: s.teamBoard.Score(p.team.id)}
	ts.Position, _ = s.teamBoard.Position(p.team.id)
	return ts
}

func (p *participant) wants(nickname string) bool {
	for _, n := range p.teammates {
		if n == nickname {
			return true
		}
	}
	return false
}

func teamName(perm []int, i int) string {
	if i < len(perm) {
		return teamNames[perm[i]]
	}
	return fmt.Sprintf("Team %d", i+1)
}
