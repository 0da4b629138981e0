package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mauv0809/warlord-swiss/internal/tournament"
)

func scanTournament(row scanner) (*tournament.Tournament, error) {
	var (
		t                    tournament.Tournament
		createdAt, updatedAt int64
	)
	err := row.Scan(&t.ID, &t.Name, &t.GameSystem, &t.Format, &t.RoundCount, &t.CurrentRound, &t.State,
		&t.OrganizerID, &t.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &t, nil
}

func scanParticipant(row scanner) (tournament.Participant, error) {
	var (
		p         tournament.Participant
		userID    sql.NullString
		createdAt int64
	)
	err := row.Scan(&p.ID, &p.TournamentID, &userID, &p.DisplayName, &p.Club, &p.Faction, &p.Era, &p.Active, &createdAt)
	if err != nil {
		return p, err
	}
	p.UserID = userID.String
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return p, nil
}

func scanMatch(row scanner) (*tournament.Match, error) {
	var (
		m                           tournament.Match
		playerB, result, reportedBy sql.NullString
		updatedAt                   int64
	)
	err := row.Scan(&m.ID, &m.TournamentID, &m.Round, &m.Table, &m.PlayerA, &playerB, &m.IsBye, &m.Rematch,
		&m.Status, &result, &reportedBy, &m.Version, &updatedAt)
	if err != nil {
		return nil, err
	}
	m.PlayerB = playerB.String
	m.ReportedBy = reportedBy.String
	m.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if m.Result, err = decodeResult(result); err != nil {
		return nil, err
	}
	return &m, nil
}

func encodeResult(r *tournament.Result) (sql.NullString, error) {
	if r == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeResult(s sql.NullString) (*tournament.Result, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var r tournament.Result
	if err := json.Unmarshal([]byte(s.String), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
