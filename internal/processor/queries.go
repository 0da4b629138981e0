package processor

import (
	"context"
	"fmt"

	"github.com/mauv0809/warlord-swiss/internal/gamesystem"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
	"golang.org/x/sync/errgroup"
)

// Tournament returns a tournament with its participants.
func (p *Processor) Tournament(ctx context.Context, tournamentID string) (*tournament.Tournament, error) {
	return p.store.LoadTournament(ctx, tournamentID)
}

// Tournaments lists all tournaments without participants.
func (p *Processor) Tournaments(ctx context.Context) ([]tournament.Tournament, error) {
	return p.store.ListTournaments(ctx)
}

// GameSystems lists the supported game systems.
func (p *Processor) GameSystems() []gamesystem.Capabilities {
	return p.registry.All()
}

// Round returns the matches of one paired round.
func (p *Processor) Round(ctx context.Context, tournamentID string, number int) (*tournament.Round, error) {
	t, err := p.store.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if number < 1 || number > t.CurrentRound {
		return nil, fmt.Errorf("%w: round %d of tournament %s", tournament.ErrNotFound, number, t.ID)
	}
	matches, err := p.store.LoadMatches(ctx, t.ID, number, number)
	if err != nil {
		return nil, err
	}
	return &tournament.Round{Number: number, Matches: matches}, nil
}

// Standings returns the current table, or the frozen one once the tournament is finished.
func (p *Processor) Standings(ctx context.Context, tournamentID string) ([]tournament.StandingsRow, error) {
	t, err := p.store.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.State == tournament.StateFinished {
		return p.store.LoadFinalStandings(ctx, t.ID)
	}
	history, err := p.store.LoadMatches(ctx, t.ID, 1, 0)
	if err != nil {
		return nil, err
	}
	return p.calculate(t, history), nil
}

// View loads a tournament, its rounds and its standings in one call.
func (p *Processor) View(ctx context.Context, tournamentID string) (*View, error) {
	var (
		t       *tournament.Tournament
		history []tournament.Match
		frozen  []tournament.StandingsRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = p.store.LoadTournament(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = p.store.LoadMatches(gctx, tournamentID, 1, 0)
		return err
	})
	g.Go(func() error {
		var err error
		frozen, err = p.store.LoadFinalStandings(gctx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &View{Tournament: t, Rounds: make([]tournament.Round, 0, t.CurrentRound)}
	for n := 1; n <= t.CurrentRound; n++ {
		view.Rounds = append(view.Rounds, tournament.Round{Number: n})
	}
	for _, m := range history {
		if m.Round >= 1 && m.Round <= len(view.Rounds) {
			view.Rounds[m.Round-1].Matches = append(view.Rounds[m.Round-1].Matches, m)
		}
	}
	if t.State == tournament.StateFinished {
		view.Standings = frozen
	} else {
		view.Standings = p.calculate(t, history)
	}
	return view, nil
}
