package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

var _ TournamentStore = (*Mock)(nil)

// Mock is an in-memory TournamentStore for tests. It applies the same version checks as
// the SQL store. Setting one of the Func spies replaces the in-memory behaviour of that
// method. It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	tournaments  map[string]tournament.Tournament
	participants map[string][]tournament.Participant
	matches      map[string]tournament.Match
	matchOrder   []string
	amendments   map[string][]tournament.Amendment
	final        map[string][]tournament.StandingsRow

	// Spies
	SaveRoundFunc       func(ctx context.Context, t *tournament.Tournament, matches []tournament.Match) error
	SaveMatchResultFunc func(ctx context.Context, m *tournament.Match) error
	AmendResultFunc     func(ctx context.Context, m *tournament.Match, amendment *tournament.Amendment, refrozen []tournament.StandingsRow) error
	SaveTournamentFunc  func(ctx context.Context, t *tournament.Tournament) error

	// Call records
	SaveRoundCalls        []SaveRoundCall
	SaveMatchResultCalls  []tournament.Match
	AmendResultCalls      []AmendResultCall
	SaveTournamentCalls   []tournament.Tournament
	FinishTournamentCalls []FinishTournamentCall
}

// SaveRoundCall holds the arguments for a call to SaveRound.
type SaveRoundCall struct {
	Tournament tournament.Tournament
	Matches    []tournament.Match
}

// AmendResultCall holds the arguments for a call to AmendResult.
type AmendResultCall struct {
	Match     tournament.Match
	Amendment tournament.Amendment
	Refrozen  []tournament.StandingsRow
}

// FinishTournamentCall holds the arguments for a call to FinishTournament.
type FinishTournamentCall struct {
	Tournament tournament.Tournament
	Standings  []tournament.StandingsRow
}

// NewMock creates an empty in-memory store.
func NewMock() *Mock {
	return &Mock{
		tournaments:  make(map[string]tournament.Tournament),
		participants: make(map[string][]tournament.Participant),
		matches:      make(map[string]tournament.Match),
		amendments:   make(map[string][]tournament.Amendment),
		final:        make(map[string][]tournament.StandingsRow),
	}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveRoundCalls = nil
	m.SaveMatchResultCalls = nil
	m.AmendResultCalls = nil
	m.SaveTournamentCalls = nil
	m.FinishTournamentCalls = nil
}

func (m *Mock) CreateTournament(ctx context.Context, t *tournament.Tournament) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tournaments[t.ID]; ok {
		return fmt.Errorf("%w: tournament %s already exists", tournament.ErrConflict, t.ID)
	}
	stored := *t
	stored.Participants = nil
	m.tournaments[t.ID] = stored
	m.participants[t.ID] = slices.Clone(t.Participants)
	return nil
}

func (m *Mock) ListTournaments(ctx context.Context) ([]tournament.Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]tournament.Tournament, 0, len(m.tournaments))
	for _, t := range m.tournaments {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b tournament.Tournament) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *Mock) LoadTournament(ctx context.Context, id string) (*tournament.Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return nil, fmt.Errorf("%w: tournament %s", tournament.ErrNotFound, id)
	}
	t.Participants = slices.Clone(m.participants[id])
	return &t, nil
}

func (m *Mock) SaveTournament(ctx context.Context, t *tournament.Tournament) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveTournamentCalls = append(m.SaveTournamentCalls, *t)
	if m.SaveTournamentFunc != nil {
		return m.SaveTournamentFunc(ctx, t)
	}
	if err := m.casTournament(t); err != nil {
		return err
	}
	t.Version++
	return nil
}

func (m *Mock) AddParticipant(ctx context.Context, p *tournament.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[p.TournamentID]
	if !ok {
		return fmt.Errorf("%w: tournament %s", tournament.ErrNotFound, p.TournamentID)
	}
	if t.State != tournament.StatePending {
		return fmt.Errorf("%w: registration for %s is closed, tournament is %s", tournament.ErrInvalidState, t.ID, t.State)
	}
	for _, existing := range m.participants[p.TournamentID] {
		if existing.ID == p.ID || existing.DisplayName == p.DisplayName || (p.UserID != "" && existing.UserID == p.UserID) {
			return fmt.Errorf("%w: participant %s already exists", tournament.ErrConflict, p.DisplayName)
		}
	}
	m.participants[p.TournamentID] = append(m.participants[p.TournamentID], *p)
	return nil
}

func (m *Mock) UpdateParticipant(ctx context.Context, p *tournament.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.participants[p.TournamentID]
	for i := range list {
		if list[i].ID == p.ID {
			list[i].DisplayName = p.DisplayName
			list[i].Club = p.Club
			list[i].Faction = p.Faction
			list[i].Era = p.Era
			list[i].Active = p.Active
			return nil
		}
	}
	return fmt.Errorf("%w: participant %s", tournament.ErrNotFound, p.ID)
}

func (m *Mock) LoadMatches(ctx context.Context, tournamentID string, fromRound, toRound int) ([]tournament.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tournament.Match
	for _, id := range m.matchOrder {
		match := m.matches[id]
		if match.TournamentID != tournamentID || match.Round < fromRound || (toRound > 0 && match.Round > toRound) {
			continue
		}
		out = append(out, copyMatch(match))
	}
	slices.SortStableFunc(out, func(a, b tournament.Match) int {
		if a.Round != b.Round {
			return a.Round - b.Round
		}
		if a.IsBye != b.IsBye {
			if a.IsBye {
				return 1
			}
			return -1
		}
		return a.Table - b.Table
	})
	return out, nil
}

func (m *Mock) LoadMatch(ctx context.Context, tournamentID, matchID string) (*tournament.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[matchID]
	if !ok || match.TournamentID != tournamentID {
		return nil, fmt.Errorf("%w: match %s in tournament %s", tournament.ErrNotFound, matchID, tournamentID)
	}
	c := copyMatch(match)
	return &c, nil
}

func (m *Mock) SaveRound(ctx context.Context, t *tournament.Tournament, matches []tournament.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveRoundCalls = append(m.SaveRoundCalls, SaveRoundCall{Tournament: *t, Matches: slices.Clone(matches)})
	if m.SaveRoundFunc != nil {
		return m.SaveRoundFunc(ctx, t, matches)
	}
	if err := m.casTournament(t); err != nil {
		return err
	}
	for _, match := range matches {
		if _, ok := m.matches[match.ID]; ok {
			return fmt.Errorf("%w: match %s already exists", tournament.ErrConflict, match.ID)
		}
	}
	for _, match := range matches {
		m.matches[match.ID] = copyMatch(match)
		m.matchOrder = append(m.matchOrder, match.ID)
	}
	t.Version++
	return nil
}

func (m *Mock) SaveMatchResult(ctx context.Context, match *tournament.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveMatchResultCalls = append(m.SaveMatchResultCalls, copyMatch(*match))
	if m.SaveMatchResultFunc != nil {
		return m.SaveMatchResultFunc(ctx, match)
	}
	if err := m.casMatch(match); err != nil {
		return err
	}
	match.Version++
	return nil
}

func (m *Mock) AmendResult(ctx context.Context, match *tournament.Match, amendment *tournament.Amendment, refrozen []tournament.StandingsRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AmendResultCalls = append(m.AmendResultCalls, AmendResultCall{Match: copyMatch(*match), Amendment: *amendment, Refrozen: slices.Clone(refrozen)})
	if m.AmendResultFunc != nil {
		return m.AmendResultFunc(ctx, match, amendment, refrozen)
	}
	if err := m.casMatch(match); err != nil {
		return err
	}
	amendment.ID = int64(len(m.amendments[match.ID]) + 1)
	m.amendments[match.ID] = append(m.amendments[match.ID], *amendment)
	if refrozen != nil {
		m.final[match.TournamentID] = slices.Clone(refrozen)
	}
	match.Version++
	return nil
}

func (m *Mock) ListAmendments(ctx context.Context, tournamentID, matchID string) ([]tournament.Amendment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.amendments[matchID]), nil
}

func (m *Mock) FinishTournament(ctx context.Context, t *tournament.Tournament, rows []tournament.StandingsRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FinishTournamentCalls = append(m.FinishTournamentCalls, FinishTournamentCall{Tournament: *t, Standings: slices.Clone(rows)})
	if err := m.casTournament(t); err != nil {
		return err
	}
	m.final[t.ID] = slices.Clone(rows)
	t.Version++
	return nil
}

func (m *Mock) LoadFinalStandings(ctx context.Context, tournamentID string) ([]tournament.StandingsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.final[tournamentID]), nil
}

// casTournament must be called with m.mu held.
func (m *Mock) casTournament(t *tournament.Tournament) error {
	current, ok := m.tournaments[t.ID]
	if !ok {
		return fmt.Errorf("%w: tournament %s", tournament.ErrNotFound, t.ID)
	}
	if current.Version != t.Version {
		return fmt.Errorf("%w: tournament %s was modified concurrently", tournament.ErrConflict, t.ID)
	}
	current.Name = t.Name
	current.RoundCount = t.RoundCount
	current.CurrentRound = t.CurrentRound
	current.State = t.State
	current.UpdatedAt = t.UpdatedAt
	current.Version++
	m.tournaments[t.ID] = current
	return nil
}

// casMatch must be called with m.mu held.
func (m *Mock) casMatch(match *tournament.Match) error {
	current, ok := m.matches[match.ID]
	if !ok || current.TournamentID != match.TournamentID {
		return fmt.Errorf("%w: match %s", tournament.ErrNotFound, match.ID)
	}
	if current.Version != match.Version {
		return fmt.Errorf("%w: match %s was modified concurrently", tournament.ErrConflict, match.ID)
	}
	current.Status = match.Status
	current.Result = copyResult(match.Result)
	current.ReportedBy = match.ReportedBy
	current.UpdatedAt = match.UpdatedAt
	current.Version++
	m.matches[match.ID] = current
	return nil
}

func copyMatch(match tournament.Match) tournament.Match {
	match.Result = copyResult(match.Result)
	return match
}

func copyResult(r *tournament.Result) *tournament.Result {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
