package gamesystem

import (
	"fmt"
	"slices"

	"github.com/mauv0809/warlord-swiss/internal/standings"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// Capabilities describes how a game system is presented and scored.
type Capabilities struct {
	System        tournament.GameSystem   `json:"system"`
	Name          string                  `json:"name"`
	StandingsView string                  `json:"standings_view"`
	PairingView   string                  `json:"pairing_view"`
	InfoView      string                  `json:"info_view"`
	Scoring       standings.ScoringPolicy `json:"scoring"`
}

// Registry maps each supported game system to its capabilities.
type Registry struct {
	systems map[tournament.GameSystem]Capabilities
}

// NewRegistry builds the registry of supported systems. defaultScoring applies to every
// system that does not define its own.
func NewRegistry(defaultScoring standings.ScoringPolicy) *Registry {
	r := &Registry{systems: make(map[tournament.GameSystem]Capabilities)}
	for _, c := range []Capabilities{
		{
			System:        tournament.GameSystemSaga,
			Name:          "SAGA",
			StandingsView: "saga-standings",
			PairingView:   "saga-pairings",
			InfoView:      "saga-info",
			Scoring:       defaultScoring,
		},
		{
			System:        tournament.GameSystemSagaAgeOfMagic,
			Name:          "SAGA: Age of Magic",
			StandingsView: "saga-standings",
			PairingView:   "saga-pairings",
			InfoView:      "age-of-magic-info",
			Scoring:       defaultScoring,
		},
		{
			System:        tournament.GameSystemSagaAgeOfCrusade,
			Name:          "SAGA: Age of Crusades",
			StandingsView: "saga-standings",
			PairingView:   "saga-pairings",
			InfoView:      "age-of-crusades-info",
			Scoring:       defaultScoring,
		},
		{
			System:        tournament.GameSystemGeneric,
			Name:          "Generic",
			StandingsView: "generic-standings",
			PairingView:   "generic-pairings",
			InfoView:      "generic-info",
			// Win/draw/loss only, no BYE bonus beyond a win.
			Scoring: standings.ScoringPolicy{Win: defaultScoring.Win, Draw: defaultScoring.Draw, Loss: defaultScoring.Loss, Bye: defaultScoring.Win},
		},
	} {
		r.systems[c.System] = c
	}
	return r
}

// Lookup returns the capabilities of a game system.
func (r *Registry) Lookup(system tournament.GameSystem) (Capabilities, error) {
	c, ok := r.systems[system]
	if !ok {
		return Capabilities{}, fmt.Errorf("%w: unknown game system %q", tournament.ErrInvalidInput, system)
	}
	return c, nil
}

// Scoring returns the scoring policy for a game system, falling back to the generic one.
func (r *Registry) Scoring(system tournament.GameSystem) standings.ScoringPolicy {
	if c, ok := r.systems[system]; ok {
		return c.Scoring
	}
	return r.systems[tournament.GameSystemGeneric].Scoring
}

// All returns every registered system ordered by identifier.
func (r *Registry) All() []Capabilities {
	out := make([]Capabilities, 0, len(r.systems))
	for _, c := range r.systems {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Capabilities) int {
		if a.System < b.System {
			return -1
		}
		if a.System > b.System {
			return 1
		}
		return 0
	})
	return out
}
