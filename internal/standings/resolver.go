package standings

import (
	"cmp"
	"slices"
	"strings"

	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// Resolver orders participants that share tournament points.
//
// Precedence: tournament points, head-to-head, Buchholz, victory points, participant id.
// When the head-to-head results inside a group of tied participants form a cycle,
// head-to-head is ignored for that whole group and Buchholz decides.
type Resolver struct {
	rows    map[string]tournament.StandingsRow
	netWins map[[2]string]int
	cyclic  map[int]bool
}

// NewResolver prepares tie-break data for the given totals and match history.
func NewResolver(rows []tournament.StandingsRow, matches []tournament.Match) *Resolver {
	r := &Resolver{
		rows:    make(map[string]tournament.StandingsRow, len(rows)),
		netWins: make(map[[2]string]int),
		cyclic:  make(map[int]bool),
	}
	for _, row := range rows {
		r.rows[row.ParticipantID] = row
	}
	for _, m := range finalMatches(matches) {
		if m.IsBye || m.Result.Winner == tournament.SideNone {
			continue
		}
		winner, loser := m.PlayerA, m.PlayerB
		if m.Result.Winner == tournament.SideB {
			winner, loser = loser, winner
		}
		key, sign := pairKey(winner, loser)
		r.netWins[key] += sign
	}

	groups := make(map[int][]string)
	for _, row := range rows {
		groups[row.TournamentPoints] = append(groups[row.TournamentPoints], row.ParticipantID)
	}
	for points, members := range groups {
		if len(members) > 1 && r.hasCycle(members) {
			r.cyclic[points] = true
		}
	}
	return r
}

func pairKey(a, b string) ([2]string, int) {
	if a < b {
		return [2]string{a, b}, 1
	}
	return [2]string{b, a}, -1
}

// HeadToHead returns a positive number when a has more wins against b than b against a,
// negative for the reverse and zero when they never met or are level.
func (r *Resolver) HeadToHead(a, b string) int {
	key, sign := pairKey(a, b)
	return r.netWins[key] * sign
}

// Buchholz returns the sum of tournament points of every opponent the participant met.
func (r *Resolver) Buchholz(id string) int {
	return r.rows[id].Buchholz
}

// Compare returns -1 when a ranks ahead of b, 1 when b ranks ahead of a and 0 when a == b.
func (r *Resolver) Compare(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := r.rows[a], r.rows[b]
	if ra.TournamentPoints != rb.TournamentPoints {
		return cmp.Compare(rb.TournamentPoints, ra.TournamentPoints)
	}
	if !r.cyclic[ra.TournamentPoints] {
		if h := r.HeadToHead(a, b); h > 0 {
			return -1
		} else if h < 0 {
			return 1
		}
	}
	return compareKey(ra, rb)
}

// Rank returns every row ordered best first with ranks 1..n assigned.
//
// Within a group on equal points the order is topological over the head-to-head results,
// always taking the best remaining participant by Buchholz, victory points and id.
func (r *Resolver) Rank() []tournament.StandingsRow {
	ordered := make([]tournament.StandingsRow, 0, len(r.rows))
	for _, row := range r.rows {
		ordered = append(ordered, row)
	}
	slices.SortFunc(ordered, func(a, b tournament.StandingsRow) int {
		if c := cmp.Compare(b.TournamentPoints, a.TournamentPoints); c != 0 {
			return c
		}
		return compareKey(a, b)
	})

	ranked := make([]tournament.StandingsRow, 0, len(ordered))
	for start := 0; start < len(ordered); {
		end := start + 1
		for end < len(ordered) && ordered[end].TournamentPoints == ordered[start].TournamentPoints {
			end++
		}
		group := ordered[start:end]
		if len(group) > 1 && !r.cyclic[group[0].TournamentPoints] {
			group = r.headToHeadOrder(group)
		}
		ranked = append(ranked, group...)
		start = end
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func (r *Resolver) headToHeadOrder(group []tournament.StandingsRow) []tournament.StandingsRow {
	remaining := slices.Clone(group)
	out := make([]tournament.StandingsRow, 0, len(group))
	for len(remaining) > 0 {
		pick := 0
		for i, cand := range remaining {
			beaten := false
			for _, other := range remaining {
				if r.HeadToHead(other.ParticipantID, cand.ParticipantID) > 0 {
					beaten = true
					break
				}
			}
			if !beaten {
				pick = i
				break
			}
		}
		out = append(out, remaining[pick])
		remaining = slices.Delete(remaining, pick, pick+1)
	}
	return out
}

// hasCycle runs Kahn's algorithm over the head-to-head graph restricted to members.
func (r *Resolver) hasCycle(members []string) bool {
	indegree := make(map[string]int, len(members))
	for _, a := range members {
		for _, b := range members {
			if a != b && r.HeadToHead(a, b) > 0 {
				indegree[b]++
			}
		}
	}
	queue := make([]string, 0, len(members))
	for _, m := range members {
		if indegree[m] == 0 {
			queue = append(queue, m)
		}
	}
	seen := 0
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		seen++
		for _, b := range members {
			if a != b && r.HeadToHead(a, b) > 0 {
				indegree[b]--
				if indegree[b] == 0 {
					queue = append(queue, b)
				}
			}
		}
	}
	return seen < len(members)
}

func compareKey(a, b tournament.StandingsRow) int {
	return cmp.Or(
		cmp.Compare(b.Buchholz, a.Buchholz),
		cmp.Compare(b.VictoryPoints, a.VictoryPoints),
		strings.Compare(a.ParticipantID, b.ParticipantID),
	)
}
