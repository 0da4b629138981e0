package store

import (
	"context"

	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

// TournamentStore persists tournaments, participants, matches and frozen standings.
//
// Writes to a tournament and to a match are compare-and-set on their Version field:
// a stale version fails with tournament.ErrConflict and leaves the store untouched.
// On success the passed entity's Version is advanced.
type TournamentStore interface {
	CreateTournament(ctx context.Context, t *tournament.Tournament) error
	ListTournaments(ctx context.Context) ([]tournament.Tournament, error)
	LoadTournament(ctx context.Context, id string) (*tournament.Tournament, error)
	SaveTournament(ctx context.Context, t *tournament.Tournament) error

	// AddParticipant fails with tournament.ErrInvalidState unless the tournament is pending.
	AddParticipant(ctx context.Context, p *tournament.Participant) error
	UpdateParticipant(ctx context.Context, p *tournament.Participant) error

	LoadMatches(ctx context.Context, tournamentID string, fromRound, toRound int) ([]tournament.Match, error)
	LoadMatch(ctx context.Context, tournamentID, matchID string) (*tournament.Match, error)
	// SaveRound advances the tournament and inserts the round's matches atomically.
	SaveRound(ctx context.Context, t *tournament.Tournament, matches []tournament.Match) error
	SaveMatchResult(ctx context.Context, m *tournament.Match) error
	// AmendResult stores an override with its amendment record and, when refrozen is not nil,
	// replaces the frozen standings, all atomically.
	AmendResult(ctx context.Context, m *tournament.Match, amendment *tournament.Amendment, refrozen []tournament.StandingsRow) error
	ListAmendments(ctx context.Context, tournamentID, matchID string) ([]tournament.Amendment, error)

	// FinishTournament saves the finished tournament together with its frozen standings.
	FinishTournament(ctx context.Context, t *tournament.Tournament, rows []tournament.StandingsRow) error
	LoadFinalStandings(ctx context.Context, tournamentID string) ([]tournament.StandingsRow, error)
}
