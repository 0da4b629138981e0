package pairing

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/warlord-swiss/internal/standings"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// searchBudget bounds the rematch-free pairing search before falling back to greedy pairing.
const searchBudget = 100_000

// Params is the input for generating one round.
type Params struct {
	Tournament *tournament.Tournament
	// Round is the number of the round to generate.
	Round int
	// Participants holds every registered participant, dropped ones included.
	// Only active participants are paired.
	Participants []tournament.Participant
	// History holds all matches of previous rounds.
	History []tournament.Match
}

// Result is a generated round. Matches start pending with no result.
type Result struct {
	Round     int
	Matches   []tournament.Match
	Bye       string
	Rematches [][2]string
}

// Generator produces Swiss pairings.
type Generator struct {
	rng  *rand.Rand
	calc *standings.Calculator
}

// NewGenerator creates a Generator. rng drives the first-round shuffle.
func NewGenerator(rng *rand.Rand, calc *standings.Calculator) *Generator {
	return &Generator{rng: rng, calc: calc}
}

// Generate builds the pairings for p.Round.
func (g *Generator) Generate(p Params) (*Result, error) {
	active, err := validate(p)
	if err != nil {
		return nil, err
	}

	var (
		pairs [][2]string
		bye   string
		faced = facedCounts(p.History)
	)
	if p.Round == 1 {
		pairs, bye = g.firstRound(active)
	} else {
		pairs, bye = g.swissRound(p, active, faced)
	}

	res := &Result{Round: p.Round, Bye: bye}
	for i, pr := range pairs {
		m := tournament.Match{
			TournamentID: p.Tournament.ID,
			Round:        p.Round,
			Table:        i + 1,
			PlayerA:      pr[0],
			PlayerB:      pr[1],
			Status:       tournament.ResultPending,
		}
		if faced[key(pr[0], pr[1])] > 0 {
			m.Rematch = true
			res.Rematches = append(res.Rematches, pr)
			log.Warn("No rematch-free pairing left, pairing opponents again", "tournamentID", p.Tournament.ID, "round", p.Round, "playerA", pr[0], "playerB", pr[1])
		}
		res.Matches = append(res.Matches, m)
	}
	if bye != "" {
		res.Matches = append(res.Matches, tournament.Match{
			TournamentID: p.Tournament.ID,
			Round:        p.Round,
			PlayerA:      bye,
			IsBye:        true,
			Status:       tournament.ResultPending,
		})
	}
	log.Info("Generated pairings", "tournamentID", p.Tournament.ID, "round", p.Round, "matches", len(pairs), "bye", bye, "rematches", len(res.Rematches))
	return res, nil
}

func validate(p Params) ([]string, error) {
	t := p.Tournament
	if t == nil {
		return nil, fmt.Errorf("%w: no tournament given", tournament.ErrInvalidInput)
	}
	if t.State != tournament.StateInProgress {
		return nil, fmt.Errorf("%w: tournament is %s", tournament.ErrInvalidState, t.State)
	}
	if p.Round < 1 || p.Round > t.RoundCount {
		return nil, fmt.Errorf("%w: round %d outside 1..%d", tournament.ErrInvalidInput, p.Round, t.RoundCount)
	}

	previous := 0
	for _, m := range p.History {
		if m.Round >= p.Round {
			return nil, fmt.Errorf("%w: round %d already has pairings", tournament.ErrInvalidState, p.Round)
		}
		if m.Round == p.Round-1 {
			previous++
			if !m.Status.Final() {
				return nil, fmt.Errorf("%w: round %d is not fully confirmed", tournament.ErrInvalidState, m.Round)
			}
		}
	}
	if p.Round > 1 && previous == 0 {
		return nil, fmt.Errorf("%w: round %d has no matches", tournament.ErrInvalidState, p.Round-1)
	}

	seen := make(map[string]bool, len(p.Participants))
	active := make([]string, 0, len(p.Participants))
	for _, part := range p.Participants {
		if part.ID == "" {
			return nil, fmt.Errorf("%w: participant without id", tournament.ErrInvalidInput)
		}
		if seen[part.ID] {
			return nil, fmt.Errorf("%w: participant %s listed twice", tournament.ErrInvalidInput, part.ID)
		}
		seen[part.ID] = true
		if part.Active {
			active = append(active, part.ID)
		}
	}
	if len(active) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 active participants, have %d", tournament.ErrInvalidInput, len(active))
	}
	slices.Sort(active)
	return active, nil
}

// firstRound shuffles the field and pairs neighbours. With an odd field the last
// participant after the shuffle receives the BYE.
func (g *Generator) firstRound(ids []string) ([][2]string, string) {
	shuffled := slices.Clone(ids)
	g.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var bye string
	if len(shuffled)%2 == 1 {
		bye = shuffled[len(shuffled)-1]
		shuffled = shuffled[:len(shuffled)-1]
	}
	pairs := make([][2]string, 0, len(shuffled)/2)
	for i := 0; i+1 < len(shuffled); i += 2 {
		pairs = append(pairs, [2]string{shuffled[i], shuffled[i+1]})
	}
	return pairs, bye
}

func (g *Generator) swissRound(p Params, active []string, faced map[[2]string]int) ([][2]string, string) {
	rows := g.calc.Calculate(p.Participants, p.History)
	position := make(map[string]int, len(rows))
	for i, r := range rows {
		position[r.ParticipantID] = i
	}
	order := slices.Clone(active)
	slices.SortStableFunc(order, func(a, b string) int {
		return position[a] - position[b]
	})

	var bye string
	if len(order)%2 == 1 {
		bye = pickBye(order, byeCounts(p.History))
		order = slices.DeleteFunc(order, func(id string) bool { return id == bye })
	}

	if pairs, ok := searchPairs(order, faced); ok {
		return pairs, bye
	}
	log.Warn("Rematch-free pairing not possible, falling back to greedy pairing", "tournamentID", p.Tournament.ID, "round", p.Round)
	return greedyPairs(order, faced), bye
}

// pickBye returns the lowest ranked participant among those with the fewest prior BYEs.
func pickBye(order []string, byes map[string]int) string {
	fewest := -1
	for _, id := range order {
		if fewest < 0 || byes[id] < fewest {
			fewest = byes[id]
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		if byes[order[i]] == fewest {
			return order[i]
		}
	}
	return ""
}

// searchPairs pairs the best unpaired participant with the nearest opponent below it that
// it has not met yet, backtracking when the rest of the field cannot be completed.
func searchPairs(order []string, faced map[[2]string]int) ([][2]string, bool) {
	steps := 0
	var solve func(rest []string) ([][2]string, bool)
	solve = func(rest []string) ([][2]string, bool) {
		if len(rest) == 0 {
			return nil, true
		}
		steps++
		if steps > searchBudget {
			return nil, false
		}
		top := rest[0]
		for j := 1; j < len(rest); j++ {
			if faced[key(top, rest[j])] > 0 {
				continue
			}
			remaining := make([]string, 0, len(rest)-2)
			remaining = append(remaining, rest[1:j]...)
			remaining = append(remaining, rest[j+1:]...)
			if sub, ok := solve(remaining); ok {
				return append([][2]string{{top, rest[j]}}, sub...), true
			}
			if steps > searchBudget {
				return nil, false
			}
		}
		return nil, false
	}
	return solve(order)
}

// greedyPairs pairs each participant with the nearest opponent it has not met,
// or with its direct neighbour when every remaining opponent is a rematch.
func greedyPairs(order []string, faced map[[2]string]int) [][2]string {
	rest := slices.Clone(order)
	pairs := make([][2]string, 0, len(rest)/2)
	for len(rest) > 1 {
		pick := 1
		for j := 1; j < len(rest); j++ {
			if faced[key(rest[0], rest[j])] == 0 {
				pick = j
				break
			}
		}
		pairs = append(pairs, [2]string{rest[0], rest[pick]})
		rest = slices.Delete(rest, pick, pick+1)
		rest = rest[1:]
	}
	return pairs
}

func facedCounts(history []tournament.Match) map[[2]string]int {
	faced := make(map[[2]string]int)
	for _, m := range history {
		if m.IsBye || m.PlayerB == "" {
			continue
		}
		faced[key(m.PlayerA, m.PlayerB)]++
	}
	return faced
}

func byeCounts(history []tournament.Match) map[string]int {
	byes := make(map[string]int)
	for _, m := range history {
		if m.IsBye {
			byes[m.PlayerA]++
		}
	}
	return byes
}

func key(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}
