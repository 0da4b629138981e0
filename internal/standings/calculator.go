package standings

import (
	"slices"
	"strings"

	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// ScoringPolicy converts match outcomes into tournament points.
type ScoringPolicy struct {
	Win  int `json:"win"`
	Draw int `json:"draw"`
	Loss int `json:"loss"`
	Bye  int `json:"bye"`
	// Victory and massacre points credited to a participant receiving a BYE.
	ByeVictoryPoints  int `json:"bye_victory_points"`
	ByeMassacrePoints int `json:"bye_massacre_points"`
}

// DefaultScoring is 3 for a win or a BYE, 1 for a draw and 0 for a loss.
func DefaultScoring() ScoringPolicy {
	return ScoringPolicy{Win: 3, Draw: 1, Loss: 0, Bye: 3}
}

// Points returns the tournament points the given side earns from a match.
func (p ScoringPolicy) Points(m tournament.Match, side tournament.Side) int {
	if m.Result == nil {
		return 0
	}
	if m.IsBye {
		if side == tournament.SideA {
			return p.Bye
		}
		return 0
	}
	switch m.Result.Winner {
	case tournament.SideNone:
		return p.Draw
	case side:
		return p.Win
	}
	return p.Loss
}

// Calculator folds final match results into standings.
type Calculator struct {
	policy ScoringPolicy
}

// NewCalculator creates a Calculator for the given scoring policy.
func NewCalculator(policy ScoringPolicy) *Calculator {
	return &Calculator{policy: policy}
}

// Policy returns the scoring policy the calculator applies.
func (c *Calculator) Policy() ScoringPolicy {
	return c.policy
}

// Calculate returns the ranked standings table. Only final matches count.
// Participants without any match get an all-zero row.
func (c *Calculator) Calculate(participants []tournament.Participant, matches []tournament.Match) []tournament.StandingsRow {
	rows := c.Totals(participants, matches)
	return NewResolver(rows, matches).Rank()
}

// Totals accumulates per-participant totals and Buchholz scores without ranking them.
// Rows are ordered by participant id.
func (c *Calculator) Totals(participants []tournament.Participant, matches []tournament.Match) []tournament.StandingsRow {
	byID := make(map[string]*tournament.StandingsRow, len(participants))
	row := func(id string) *tournament.StandingsRow {
		r, ok := byID[id]
		if !ok {
			r = &tournament.StandingsRow{ParticipantID: id}
			byID[id] = r
		}
		return r
	}
	for _, p := range participants {
		row(p.ID)
	}

	counted := finalMatches(matches)
	for _, m := range counted {
		if m.IsBye {
			r := row(m.PlayerA)
			r.GamesPlayed++
			r.Wins++
			r.Byes++
			r.TournamentPoints += c.policy.Points(m, tournament.SideA)
			r.VictoryPoints += m.Result.A.VictoryPoints
			r.MassacrePoints += m.Result.A.MassacrePoints
			continue
		}
		for _, side := range []tournament.Side{tournament.SideA, tournament.SideB} {
			id := m.PlayerA
			if side == tournament.SideB {
				id = m.PlayerB
			}
			r := row(id)
			score := m.Result.Score(side)
			r.GamesPlayed++
			switch m.Result.Winner {
			case tournament.SideNone:
				r.Draws++
			case side:
				r.Wins++
			default:
				r.Losses++
			}
			r.TournamentPoints += c.policy.Points(m, side)
			r.VictoryPoints += score.VictoryPoints
			r.MassacrePoints += score.MassacrePoints
			if score.WarlordKilled {
				r.WarlordKills++
			}
		}
	}

	// Buchholz needs every opponent's final total, so it runs as a second pass.
	for _, m := range counted {
		if m.IsBye {
			continue
		}
		byID[m.PlayerA].Buchholz += byID[m.PlayerB].TournamentPoints
		byID[m.PlayerB].Buchholz += byID[m.PlayerA].TournamentPoints
	}

	rows := make([]tournament.StandingsRow, 0, len(byID))
	for _, r := range byID {
		rows = append(rows, *r)
	}
	slices.SortFunc(rows, func(a, b tournament.StandingsRow) int {
		return strings.Compare(a.ParticipantID, b.ParticipantID)
	})
	return rows
}

func finalMatches(matches []tournament.Match) []tournament.Match {
	out := make([]tournament.Match, 0, len(matches))
	for _, m := range matches {
		if !m.Status.Final() || m.Result == nil {
			continue
		}
		if !m.IsBye && (m.PlayerA == "" || m.PlayerB == "") {
			continue
		}
		out = append(out, m)
	}
	return out
}
