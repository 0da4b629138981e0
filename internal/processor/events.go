package processor

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// HandlePairingsGenerated announces a freshly paired round.
func (p *Processor) HandlePairingsGenerated(evt tournament.PairingsGenerated, dryRun bool) error {
	log.Info("Announcing pairings", "tournamentID", evt.TournamentID, "round", evt.Round, "dryRun", dryRun)
	return p.notifier.SendPairings(evt, dryRun)
}

// HandleTournamentFinished announces the final standings.
func (p *Processor) HandleTournamentFinished(evt tournament.TournamentFinished, dryRun bool) error {
	log.Info("Announcing final standings", "tournamentID", evt.TournamentID, "dryRun", dryRun)
	return p.notifier.SendFinalStandings(evt, dryRun)
}

// StandingsResponse formats the standings of a tournament for a chat command reply.
func (p *Processor) StandingsResponse(ctx context.Context, tournamentID string) (any, error) {
	t, err := p.store.LoadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	rows, err := p.Standings(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return p.notifier.FormatStandingsResponse(t.Name, rows, t.Participants)
}
