package notifier

import "github.com/mauv0809/warlord-swiss/internal/tournament"

// Notifier defines a high-level interface for sending notifications about tournament events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// When a round has been paired
	SendPairings(evt tournament.PairingsGenerated, dryRun bool) error
	// When a tournament is finished
	SendFinalStandings(evt tournament.TournamentFinished, dryRun bool) error

	// For formatting responses for slash commands
	FormatStandingsResponse(name string, rows []tournament.StandingsRow, participants []tournament.Participant) (any, error)
}
