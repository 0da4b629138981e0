package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

var _ TournamentStore = (*store)(nil)

// New creates a new TournamentStore.
func New(db *sql.DB) TournamentStore {
	return &store{
		db: db,
	}
}

const tournamentColumns = `id, name, game_system, format, round_count, current_round, state, organizer_id, version, created_at, updated_at`

// CreateTournament inserts a new tournament together with any participants it already holds.
func (s *store) CreateTournament(ctx context.Context, t *tournament.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tournaments (`+tournamentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.GameSystem, t.Format, t.RoundCount, t.CurrentRound, t.State, t.OrganizerID, t.Version,
		t.CreatedAt.Unix(), t.UpdatedAt.Unix())
	if err != nil {
		return mapConstraint(err, "tournament "+t.ID)
	}
	for i := range t.Participants {
		if err := insertParticipant(ctx, tx, &t.Participants[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Debug("Created tournament", "tournamentID", t.ID, "participants", len(t.Participants))
	return nil
}

// ListTournaments returns all tournaments, newest first, without participants.
func (s *store) ListTournaments(ctx context.Context) ([]tournament.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tournament.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// LoadTournament returns a tournament snapshot including its participants.
func (s *store) LoadTournament(ctx context.Context, id string) (*tournament.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := scanTournament(s.db.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tournament %s", tournament.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tournament_id, user_id, display_name, club, faction, era, active, created_at
		FROM participants WHERE tournament_id = ? ORDER BY created_at, rowid`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		t.Participants = append(t.Participants, p)
	}
	return t, rows.Err()
}

// SaveTournament stores name, round count, round and state changes of a tournament.
func (s *store) SaveTournament(ctx context.Context, t *tournament.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := casTournament(ctx, s.db, t); err != nil {
		return err
	}
	t.Version++
	return nil
}

// AddParticipant registers a participant in a tournament that is still pending. The state
// is checked by the insert itself, so a registration cannot land after a start committed.
func (s *store) AddParticipant(ctx context.Context, p *tournament.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, tournament_id, user_id, display_name, club, faction, era, active, created_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM tournaments WHERE id = ? AND state = ?)`,
		p.ID, p.TournamentID, nullString(p.UserID), p.DisplayName, p.Club, p.Faction, p.Era, p.Active, p.CreatedAt.Unix(),
		p.TournamentID, tournament.StatePending)
	if err != nil {
		return mapConstraint(err, "participant "+p.DisplayName)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var state tournament.State
	err = s.db.QueryRowContext(ctx, `SELECT state FROM tournaments WHERE id = ?`, p.TournamentID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: tournament %s", tournament.ErrNotFound, p.TournamentID)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: registration for %s is closed, tournament is %s", tournament.ErrInvalidState, p.TournamentID, state)
}

// UpdateParticipant stores the mutable fields of a participant.
func (s *store) UpdateParticipant(ctx context.Context, p *tournament.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE participants SET display_name = ?, club = ?, faction = ?, era = ?, active = ?
		WHERE id = ? AND tournament_id = ?`,
		p.DisplayName, p.Club, p.Faction, p.Era, p.Active, p.ID, p.TournamentID)
	if err != nil {
		return mapConstraint(err, "participant "+p.DisplayName)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: participant %s", tournament.ErrNotFound, p.ID)
	}
	return nil
}

const matchColumns = `id, tournament_id, round, table_number, player_a_id, player_b_id, is_bye, rematch, status, result_json, reported_by, version, updated_at`

// LoadMatches returns the matches of rounds fromRound..toRound inclusive, ordered by round and table.
// A toRound of 0 means no upper bound.
func (s *store) LoadMatches(ctx context.Context, tournamentID string, fromRound, toRound int) ([]tournament.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = ? AND round >= ?`
	args := []any{tournamentID, fromRound}
	if toRound > 0 {
		query += ` AND round <= ?`
		args = append(args, toRound)
	}
	query += ` ORDER BY round, is_bye, table_number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tournament.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// LoadMatch returns one match of a tournament.
func (s *store) LoadMatch(ctx context.Context, tournamentID, matchID string) (*tournament.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanMatch(s.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ? AND tournament_id = ?`, matchID, tournamentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: match %s in tournament %s", tournament.ErrNotFound, matchID, tournamentID)
	}
	return m, err
}

// SaveRound advances the tournament and inserts the round's matches in one transaction.
func (s *store) SaveRound(ctx context.Context, t *tournament.Tournament, matches []tournament.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := casTournament(ctx, tx, t); err != nil {
		return err
	}
	for _, m := range matches {
		resultJSON, err := encodeResult(m.Result)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO matches (`+matchColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.TournamentID, m.Round, m.Table, m.PlayerA, nullString(m.PlayerB), m.IsBye, m.Rematch,
			m.Status, resultJSON, nullString(m.ReportedBy), m.Version, m.UpdatedAt.Unix())
		if err != nil {
			return mapConstraint(err, "match "+m.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	t.Version++
	log.Debug("Saved round", "tournamentID", t.ID, "round", t.CurrentRound, "matches", len(matches))
	return nil
}

// SaveMatchResult stores a match's status and result if its version is still current.
func (s *store) SaveMatchResult(ctx context.Context, m *tournament.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := casMatch(ctx, tx, m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	m.Version++
	return nil
}

// AmendResult stores an organizer override, its amendment record and, when refrozen is
// not nil, the replacement frozen standings in one transaction.
func (s *store) AmendResult(ctx context.Context, m *tournament.Match, amendment *tournament.Amendment, refrozen []tournament.StandingsRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := encodeResult(amendment.PreviousResult)
	if err != nil {
		return err
	}
	next, err := encodeResult(amendment.NewResult)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := casMatch(ctx, tx, m); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO match_amendments (match_id, previous_status, previous_result_json, new_status, new_result_json, amended_by, amended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		amendment.MatchID, amendment.PreviousStatus, prev, amendment.NewStatus, next, amendment.AmendedBy, amendment.AmendedAt.Unix())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if refrozen != nil {
		if err := replaceStandings(ctx, tx, m.TournamentID, refrozen); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	amendment.ID = id
	m.Version++
	log.Debug("Amended result", "tournamentID", m.TournamentID, "matchID", m.ID, "refrozen", refrozen != nil)
	return nil
}

// casMatch writes a match's status and result if m.Version is still current.
func casMatch(ctx context.Context, ex execer, m *tournament.Match) error {
	resultJSON, err := encodeResult(m.Result)
	if err != nil {
		return err
	}
	res, err := ex.ExecContext(ctx, `
		UPDATE matches SET status = ?, result_json = ?, reported_by = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND tournament_id = ? AND version = ?`,
		m.Status, resultJSON, nullString(m.ReportedBy), m.UpdatedAt.Unix(), m.ID, m.TournamentID, m.Version)
	if err != nil {
		return err
	}
	return checkSwapped(ctx, ex, res, `SELECT 1 FROM matches WHERE id = ? AND tournament_id = ?`, "match "+m.ID, m.ID, m.TournamentID)
}

// ListAmendments returns the override history of a match, oldest first.
func (s *store) ListAmendments(ctx context.Context, tournamentID, matchID string) ([]tournament.Amendment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.match_id, a.previous_status, a.previous_result_json, a.new_status, a.new_result_json, a.amended_by, a.amended_at
		FROM match_amendments a JOIN matches m ON m.id = a.match_id
		WHERE a.match_id = ? AND m.tournament_id = ?
		ORDER BY a.id`, matchID, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tournament.Amendment
	for rows.Next() {
		var (
			a          tournament.Amendment
			prev, next sql.NullString
			amendedAt  int64
		)
		if err := rows.Scan(&a.ID, &a.MatchID, &a.PreviousStatus, &prev, &a.NewStatus, &next, &a.AmendedBy, &amendedAt); err != nil {
			return nil, err
		}
		if a.PreviousResult, err = decodeResult(prev); err != nil {
			return nil, err
		}
		if a.NewResult, err = decodeResult(next); err != nil {
			return nil, err
		}
		a.AmendedAt = time.Unix(amendedAt, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// FinishTournament saves the tournament state and its frozen standings atomically.
func (s *store) FinishTournament(ctx context.Context, t *tournament.Tournament, rows []tournament.StandingsRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := casTournament(ctx, tx, t); err != nil {
		return err
	}
	if err := replaceStandings(ctx, tx, t.ID, rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	t.Version++
	return nil
}

// LoadFinalStandings returns the frozen standings ordered by rank. It is empty for
// tournaments that have not finished.
func (s *store) LoadFinalStandings(ctx context.Context, tournamentID string) ([]tournament.StandingsRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT participant_id, rank, games_played, wins, draws, losses, byes, tournament_points, massacre_points, victory_points, warlord_kills, buchholz
		FROM final_standings WHERE tournament_id = ? ORDER BY rank`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tournament.StandingsRow
	for rows.Next() {
		var r tournament.StandingsRow
		if err := rows.Scan(&r.ParticipantID, &r.Rank, &r.GamesPlayed, &r.Wins, &r.Draws, &r.Losses, &r.Byes,
			&r.TournamentPoints, &r.MassacrePoints, &r.VictoryPoints, &r.WarlordKills, &r.Buchholz); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func replaceStandings(ctx context.Context, ex execer, tournamentID string, rows []tournament.StandingsRow) error {
	if _, err := ex.ExecContext(ctx, `DELETE FROM final_standings WHERE tournament_id = ?`, tournamentID); err != nil {
		return err
	}
	for _, r := range rows {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO final_standings (tournament_id, participant_id, rank, games_played, wins, draws, losses, byes, tournament_points, massacre_points, victory_points, warlord_kills, buchholz)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tournamentID, r.ParticipantID, r.Rank, r.GamesPlayed, r.Wins, r.Draws, r.Losses, r.Byes,
			r.TournamentPoints, r.MassacrePoints, r.VictoryPoints, r.WarlordKills, r.Buchholz)
		if err != nil {
			return err
		}
	}
	return nil
}

// casTournament writes the mutable tournament fields if t.Version is still current.
// It does not touch t.Version; callers bump it after their transaction commits.
func casTournament(ctx context.Context, ex execer, t *tournament.Tournament) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE tournaments SET name = ?, round_count = ?, current_round = ?, state = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		t.Name, t.RoundCount, t.CurrentRound, t.State, t.UpdatedAt.Unix(), t.ID, t.Version)
	if err != nil {
		return err
	}
	return checkSwapped(ctx, ex, res, `SELECT 1 FROM tournaments WHERE id = ?`, "tournament "+t.ID, t.ID)
}

// checkSwapped turns a compare-and-set that touched no row into ErrNotFound or ErrConflict.
func checkSwapped(ctx context.Context, ex execer, res sql.Result, existsQuery, what string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = ex.QueryRowContext(ctx, existsQuery, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", tournament.ErrNotFound, what)
	}
	if err != nil {
		return err
	}
	log.Warn("Stale write rejected", "entity", what)
	return fmt.Errorf("%w: %s was modified concurrently", tournament.ErrConflict, what)
}

func insertParticipant(ctx context.Context, ex execer, p *tournament.Participant) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO participants (id, tournament_id, user_id, display_name, club, faction, era, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TournamentID, nullString(p.UserID), p.DisplayName, p.Club, p.Faction, p.Era, p.Active, p.CreatedAt.Unix())
	if err != nil {
		return mapConstraint(err, "participant "+p.DisplayName)
	}
	return nil
}

// mapConstraint translates constraint violations reported by SQLite or libsql.
func mapConstraint(err error, what string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s already exists", tournament.ErrConflict, what)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %s references a missing entity", tournament.ErrNotFound, what)
	}
	return err
}
