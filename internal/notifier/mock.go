package notifier

import (
	"sync"

	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendPairingsFunc            func(evt tournament.PairingsGenerated, dryRun bool) error
	SendFinalStandingsFunc      func(evt tournament.TournamentFinished, dryRun bool) error
	FormatStandingsResponseFunc func(name string, rows []tournament.StandingsRow, participants []tournament.Participant) (any, error)

	// Call records
	SendPairingsCalls       []SendPairingsCall
	SendFinalStandingsCalls []SendFinalStandingsCall
	FormatStandingsCalls    [][]tournament.StandingsRow
}

// SendPairingsCall holds the arguments for a call to SendPairings.
type SendPairingsCall struct {
	Event  tournament.PairingsGenerated
	DryRun bool
}

// SendFinalStandingsCall holds the arguments for a call to SendFinalStandings.
type SendFinalStandingsCall struct {
	Event  tournament.TournamentFinished
	DryRun bool
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendPairingsCalls = nil
	m.SendFinalStandingsCalls = nil
	m.FormatStandingsCalls = nil
}

func (m *Mock) SendPairings(evt tournament.PairingsGenerated, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendPairingsCalls = append(m.SendPairingsCalls, SendPairingsCall{Event: evt, DryRun: dryRun})
	if m.SendPairingsFunc != nil {
		return m.SendPairingsFunc(evt, dryRun)
	}
	return nil
}

func (m *Mock) SendFinalStandings(evt tournament.TournamentFinished, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendFinalStandingsCalls = append(m.SendFinalStandingsCalls, SendFinalStandingsCall{Event: evt, DryRun: dryRun})
	if m.SendFinalStandingsFunc != nil {
		return m.SendFinalStandingsFunc(evt, dryRun)
	}
	return nil
}

func (m *Mock) FormatStandingsResponse(name string, rows []tournament.StandingsRow, participants []tournament.Participant) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FormatStandingsCalls = append(m.FormatStandingsCalls, rows)
	if m.FormatStandingsResponseFunc != nil {
		return m.FormatStandingsResponseFunc(name, rows, participants)
	}
	return map[string]any{"text": name}, nil
}
