package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mauv0809/warlord-swiss/internal/database"
	"github.com/mauv0809/warlord-swiss/internal/store"
	"github.com/mauv0809/warlord-swiss/internal/tournament"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (store.TournamentStore, *sql.DB, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	return store.New(db), db, dbTeardown
}

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func seedTournament(t *testing.T, s store.TournamentStore) *tournament.Tournament {
	t.Helper()
	tour := &tournament.Tournament{
		ID:          "t1",
		Name:        "Spring Clash",
		GameSystem:  tournament.GameSystemSaga,
		Format:      tournament.FormatIndividual,
		RoundCount:  3,
		State:       tournament.StatePending,
		OrganizerID: "org",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, id := range []string{"A", "B", "C", "D"} {
		tour.Participants = append(tour.Participants, tournament.Participant{
			ID: id, TournamentID: "t1", DisplayName: "Player " + id, Faction: "Vikings", Active: true, CreatedAt: now,
		})
	}
	require.NoError(t, s.CreateTournament(context.Background(), tour))
	return tour
}

func roundOne() []tournament.Match {
	return []tournament.Match{
		{ID: "m1", TournamentID: "t1", Round: 1, Table: 1, PlayerA: "A", PlayerB: "B", Status: tournament.ResultPending, UpdatedAt: now},
		{ID: "m2", TournamentID: "t1", Round: 1, Table: 2, PlayerA: "C", PlayerB: "D", Status: tournament.ResultPending, UpdatedAt: now},
	}
}

func TestCreateAndLoadTournament(t *testing.T) {
	s, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	seedTournament(t, s)

	loaded, err := s.LoadTournament(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Spring Clash", loaded.Name)
	assert.Equal(t, tournament.StatePending, loaded.State)
	assert.Equal(t, now, loaded.CreatedAt)
	require.Len(t, loaded.Participants, 4)
	assert.Equal(t, "Vikings", loaded.Participants[0].Faction)
	assert.True(t, loaded.Participants[0].Active)

	_, err = s.LoadTournament(ctx, "missing")
	assert.ErrorIs(t, err, tournament.ErrNotFound)

	list, err := s.ListTournaments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Participants)
}

func TestParticipants(t *testing.T) {
	s, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	seedTournament(t, s)

	t.Run("duplicate display name conflicts", func(t *testing.T) {
		err := s.AddParticipant(ctx, &tournament.Participant{ID: "E", TournamentID: "t1", DisplayName: "Player A", CreatedAt: now})
		assert.ErrorIs(t, err, tournament.ErrConflict)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		err := s.AddParticipant(ctx, &tournament.Participant{ID: "X", TournamentID: "nope", DisplayName: "X", CreatedAt: now})
		assert.ErrorIs(t, err, tournament.ErrNotFound)
	})

	t.Run("update mutable fields", func(t *testing.T) {
		p := tournament.Participant{ID: "B", TournamentID: "t1", DisplayName: "Player B", Club: "Shieldwall", Faction: "Normans", Era: "Viking Age", Active: false}
		require.NoError(t, s.UpdateParticipant(ctx, &p))
		loaded, err := s.LoadTournament(ctx, "t1")
		require.NoError(t, err)
		got, ok := loaded.Participant("B")
		require.True(t, ok)
		assert.Equal(t, "Normans", got.Faction)
		assert.Equal(t, "Shieldwall", got.Club)
		assert.False(t, got.Active)
	})

	t.Run("update unknown participant", func(t *testing.T) {
		err := s.UpdateParticipant(ctx, &tournament.Participant{ID: "Z", TournamentID: "t1", DisplayName: "Z"})
		assert.ErrorIs(t, err, tournament.ErrNotFound)
	})

	t.Run("registration closes once the tournament starts", func(t *testing.T) {
		tour, err := s.LoadTournament(ctx, "t1")
		require.NoError(t, err)
		tour.State = tournament.StateInProgress
		tour.CurrentRound = 1
		require.NoError(t, s.SaveRound(ctx, tour, roundOne()))

		err = s.AddParticipant(ctx, &tournament.Participant{ID: "L", TournamentID: "t1", DisplayName: "Latecomer", CreatedAt: now})
		assert.ErrorIs(t, err, tournament.ErrInvalidState)

		loaded, err := s.LoadTournament(ctx, "t1")
		require.NoError(t, err)
		_, ok := loaded.Participant("L")
		assert.False(t, ok)
	})
}

func TestSaveRound(t *testing.T) {
	s, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	tour := seedTournament(t, s)

	stale := *tour
	tour.State = tournament.StateInProgress
	tour.CurrentRound = 1
	require.NoError(t, s.SaveRound(ctx, tour, roundOne()))
	assert.Equal(t, 1, tour.Version)

	matches, err := s.LoadMatches(ctx, "t1", 1, 1)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "A", matches[0].PlayerA)
	assert.Equal(t, tournament.ResultPending, matches[0].Status)
	assert.Nil(t, matches[0].Result)

	t.Run("stale version is rejected without writing matches", func(t *testing.T) {
		stale.State = tournament.StateInProgress
		stale.CurrentRound = 1
		dup := []tournament.Match{{ID: "m9", TournamentID: "t1", Round: 1, Table: 1, PlayerA: "A", PlayerB: "C", Status: tournament.ResultPending, UpdatedAt: now}}
		err := s.SaveRound(ctx, &stale, dup)
		assert.ErrorIs(t, err, tournament.ErrConflict)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("participant twice in a round is rejected atomically", func(t *testing.T) {
		tour.CurrentRound = 2
		bad := []tournament.Match{
			{ID: "m3", TournamentID: "t1", Round: 2, Table: 1, PlayerA: "A", PlayerB: "C", Status: tournament.ResultPending, UpdatedAt: now},
			{ID: "m4", TournamentID: "t1", Round: 2, Table: 2, PlayerA: "A", PlayerB: "D", Status: tournament.ResultPending, UpdatedAt: now},
		}
		err := s.SaveRound(ctx, tour, bad)
		assert.ErrorIs(t, err, tournament.ErrConflict)

		loaded, err := s.LoadTournament(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.CurrentRound)
		assert.Equal(t, 1, loaded.Version)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		err := s.SaveTournament(ctx, &tournament.Tournament{ID: "missing"})
		assert.ErrorIs(t, err, tournament.ErrNotFound)
	})
}

func TestSaveTournament(t *testing.T) {
	s, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	tour := seedTournament(t, s)
	stale := *tour

	tour.Name = "Autumn Clash"
	tour.RoundCount = 5
	require.NoError(t, s.SaveTournament(ctx, tour))
	assert.Equal(t, 1, tour.Version)

	loaded, err := s.LoadTournament(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Autumn Clash", loaded.Name)
	assert.Equal(t, 5, loaded.RoundCount)
	assert.Equal(t, 1, loaded.Version)

	stale.RoundCount = 2
	err = s.SaveTournament(ctx, &stale)
	assert.ErrorIs(t, err, tournament.ErrConflict)
	loaded, err = s.LoadTournament(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.RoundCount)
}

func TestSaveMatchResult(t *testing.T) {
	s, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	tour := seedTournament(t, s)
	tour.State = tournament.StateInProgress
	tour.CurrentRound = 1
	require.NoError(t, s.SaveRound(ctx, tour, roundOne()))

	m, err := s.LoadMatch(ctx, "t1", "m1")
	require.NoError(t, err)
	concurrent := *m

	m.Status = tournament.ResultPlayerReported
	m.ReportedBy = "A"
	m.Result = &tournament.Result{Winner: tournament.SideA, A: tournament.SideScore{VictoryPoints: 12, WarlordKilled: true}, B: tournament.SideScore{VictoryPoints: 4}}
	require.NoError(t, s.SaveMatchResult(ctx, m))
	assert.Equal(t, 1, m.Version)

	t.Run("second writer with the old version conflicts", func(t *testing.T) {
		concurrent.Status = tournament.ResultPlayerReported
		concurrent.ReportedBy = "B"
		concurrent.Result = &tournament.Result{Winner: tournament.SideB}
		err := s.SaveMatchResult(ctx, &concurrent)
		assert.ErrorIs(t, err, tournament.ErrConflict)

		loaded, err := s.LoadMatch(ctx, "t1", "m1")
		require.NoError(t, err)
		assert.Equal(t, "A", loaded.ReportedBy)
		assert.Equal(t, m.Result, loaded.Result)
	})

	t.Run("amendment is recorded with the result", func(t *testing.T) {
		prev := m.Result
		m.Status = tournament.ResultOrganizerSet
		m.Result = &tournament.Result{Winner: tournament.SideNone, A: tournament.SideScore{VictoryPoints: 8}, B: tournament.SideScore{VictoryPoints: 8}}
		a := &tournament.Amendment{
			MatchID:        "m1",
			PreviousStatus: tournament.ResultPlayerReported,
			PreviousResult: prev,
			NewStatus:      tournament.ResultOrganizerSet,
			NewResult:      m.Result,
			AmendedBy:      "org",
			AmendedAt:      now,
		}
		require.NoError(t, s.AmendResult(ctx, m, a, nil))
		assert.Equal(t, 2, m.Version)
		assert.NotZero(t, a.ID)

		history, err := s.ListAmendments(ctx, "t1", "m1")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, prev, history[0].PreviousResult)
		assert.Equal(t, tournament.SideNone, history[0].NewResult.Winner)
		assert.Equal(t, now, history[0].AmendedAt)
	})

	t.Run("missing match", func(t *testing.T) {
		_, err := s.LoadMatch(ctx, "t1", "nope")
		assert.ErrorIs(t, err, tournament.ErrNotFound)
		err = s.SaveMatchResult(ctx, &tournament.Match{ID: "nope", TournamentID: "t1"})
		assert.ErrorIs(t, err, tournament.ErrNotFound)
	})
}

func TestFinishTournament(t *testing.T) {
	s, db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	tour := seedTournament(t, s)
	tour.State = tournament.StateInProgress
	tour.CurrentRound = 1
	require.NoError(t, s.SaveRound(ctx, tour, roundOne()))

	rows := []tournament.StandingsRow{
		{ParticipantID: "A", Rank: 1, GamesPlayed: 1, Wins: 1, TournamentPoints: 3, VictoryPoints: 12, WarlordKills: 1},
		{ParticipantID: "B", Rank: 2, GamesPlayed: 1, Losses: 1, VictoryPoints: 4, Buchholz: 3},
	}
	tour.State = tournament.StateFinished
	require.NoError(t, s.FinishTournament(ctx, tour, rows))

	loaded, err := s.LoadFinalStandings(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, rows, loaded)

	m, err := s.LoadMatch(ctx, "t1", "m1")
	require.NoError(t, err)
	amend := func(winner tournament.Side) *tournament.Amendment {
		return &tournament.Amendment{
			MatchID:        "m1",
			PreviousStatus: m.Status,
			PreviousResult: m.Result,
			NewStatus:      tournament.ResultOrganizerSet,
			NewResult:      &tournament.Result{Winner: winner},
			AmendedBy:      "org",
			AmendedAt:      now,
		}
	}
	amendments := func() int {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM match_amendments").Scan(&n))
		return n
	}

	t.Run("amendment refreezes standings", func(t *testing.T) {
		a := amend(tournament.SideA)
		m.Status = tournament.ResultOrganizerSet
		m.Result = a.NewResult
		refrozen := []tournament.StandingsRow{rows[0], rows[1]}
		refrozen[0].TournamentPoints = 4
		require.NoError(t, s.AmendResult(ctx, m, a, refrozen))

		loaded, err := s.LoadFinalStandings(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, 4, loaded[0].TournamentPoints)
		assert.Len(t, loaded, 2)
		assert.Equal(t, 1, amendments())
	})

	t.Run("stale match version writes nothing", func(t *testing.T) {
		stale := *m
		stale.Version--
		stale.Result = &tournament.Result{Winner: tournament.SideB}
		err := s.AmendResult(ctx, &stale, amend(tournament.SideB), []tournament.StandingsRow{{ParticipantID: "B", Rank: 1}})
		assert.ErrorIs(t, err, tournament.ErrConflict)

		loaded, err := s.LoadFinalStandings(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "A", loaded[0].ParticipantID)
		assert.Equal(t, 1, amendments())
	})

	t.Run("failed refreeze rolls back the match", func(t *testing.T) {
		a := amend(tournament.SideB)
		next := *m
		next.Result = a.NewResult
		dup := []tournament.StandingsRow{{ParticipantID: "A", Rank: 1}, {ParticipantID: "A", Rank: 2}}
		require.Error(t, s.AmendResult(ctx, &next, a, dup))

		stored, err := s.LoadMatch(ctx, "t1", "m1")
		require.NoError(t, err)
		assert.Equal(t, tournament.SideA, stored.Result.Winner)
		assert.Equal(t, m.Version, stored.Version)
		loaded, err := s.LoadFinalStandings(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, 4, loaded[0].TournamentPoints)
		assert.Equal(t, 1, amendments())
	})
}
