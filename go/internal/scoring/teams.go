package scoring

// TeamPoints turns one slide's per-player points into per-team points. A
// team earns what its weakest answering member earned, so every member has
// to get it right. Members missing from earned did not answer and are left
// out; a team where nobody answered earns nothing.
func TeamPoints(earned map[string]int, teams map[string][]string) map[string]int {
	out := make(map[string]int, len(teams))
	for team, members := range teams {
		answered := false
		low := 0
		for _, id := range members {
			pts, ok := earned[id]
			if !ok {
				continue
			}
			if !answered || pts < low {
				low = pts
			}
			answered = true
		}
		if answered {
			out[team] = low
		}
	}
	return out
}
