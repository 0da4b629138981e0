package tournament

import "time"

// State is the lifecycle state of a tournament.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
)

// Format tells whether participants are single players or whole teams.
type Format string

const (
	FormatIndividual Format = "individual"
	FormatTeam       Format = "team"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f == FormatIndividual || f == FormatTeam
}

// GameSystem identifies the wargame rules a tournament is played under.
type GameSystem string

const (
	GameSystemSaga             GameSystem = "saga"
	GameSystemSagaAgeOfMagic   GameSystem = "saga_age_of_magic"
	GameSystemSagaAgeOfCrusade GameSystem = "saga_age_of_crusades"
	GameSystemGeneric          GameSystem = "generic"
)

// ResultStatus is the confirmation state of a match result.
type ResultStatus string

const (
	ResultPending        ResultStatus = "pending"
	ResultPlayerReported ResultStatus = "player_reported"
	ResultConfirmed      ResultStatus = "confirmed"
	ResultOrganizerSet   ResultStatus = "organizer_set"
)

// Final reports whether the status counts towards standings and round completion.
func (s ResultStatus) Final() bool {
	return s == ResultConfirmed || s == ResultOrganizerSet
}

// Side identifies one half of a match. The empty side means a draw when used as a winner.
type Side string

const (
	SideNone Side = ""
	SideA    Side = "a"
	SideB    Side = "b"
)

type Participant struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournament_id"`
	UserID       string    `json:"user_id,omitempty"`
	DisplayName  string    `json:"display_name"`
	Club         string    `json:"club,omitempty"`
	Faction      string    `json:"faction,omitempty"`
	Era          string    `json:"era,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Tournament struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	GameSystem   GameSystem    `json:"game_system"`
	Format       Format        `json:"format"`
	RoundCount   int           `json:"round_count"`
	CurrentRound int           `json:"current_round"`
	State        State         `json:"state"`
	OrganizerID  string        `json:"organizer_id"`
	Version      int           `json:"version"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Participants []Participant `json:"participants,omitempty"`
}

// ActiveParticipants returns the participants still eligible for pairing.
func (t *Tournament) ActiveParticipants() []Participant {
	active := make([]Participant, 0, len(t.Participants))
	for _, p := range t.Participants {
		if p.Active {
			active = append(active, p)
		}
	}
	return active
}

// Participant looks up a registered participant by id.
func (t *Tournament) Participant(id string) (Participant, bool) {
	for _, p := range t.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// SideScore is what one side of a match earned on the table.
type SideScore struct {
	VictoryPoints  int  `json:"victory_points"`
	MassacrePoints int  `json:"massacre_points"`
	WarlordKilled  bool `json:"warlord_killed"`
}

// Result is a reported or confirmed outcome of a match.
type Result struct {
	Winner Side      `json:"winner"`
	A      SideScore `json:"a"`
	B      SideScore `json:"b"`
}

type Match struct {
	ID           string       `json:"id"`
	TournamentID string       `json:"tournament_id"`
	Round        int          `json:"round"`
	Table        int          `json:"table"`
	PlayerA      string       `json:"player_a"`
	PlayerB      string       `json:"player_b,omitempty"`
	IsBye        bool         `json:"is_bye"`
	Rematch      bool         `json:"rematch"`
	Status       ResultStatus `json:"status"`
	Result       *Result      `json:"result,omitempty"`
	ReportedBy   string       `json:"reported_by,omitempty"`
	Version      int          `json:"version"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Round struct {
	Number  int     `json:"number"`
	Matches []Match `json:"matches"`
}

// Complete reports whether every match of the round has a final result.
func (r Round) Complete() bool {
	if len(r.Matches) == 0 {
		return false
	}
	for _, m := range r.Matches {
		if !m.Status.Final() {
			return false
		}
	}
	return true
}

// StandingsRow is one participant's line in the standings table.
type StandingsRow struct {
	ParticipantID    string `json:"participant_id"`
	Rank             int    `json:"rank"`
	GamesPlayed      int    `json:"games_played"`
	Wins             int    `json:"wins"`
	Draws            int    `json:"draws"`
	Losses           int    `json:"losses"`
	Byes             int    `json:"byes"`
	TournamentPoints int    `json:"tournament_points"`
	MassacrePoints   int    `json:"massacre_points"`
	VictoryPoints    int    `json:"victory_points"`
	WarlordKills     int    `json:"warlord_kills"`
	Buchholz         int    `json:"buchholz"`
}

// Amendment is the audit record left by an organizer override.
type Amendment struct {
	ID             int64        `json:"id"`
	MatchID        string       `json:"match_id"`
	PreviousStatus ResultStatus `json:"previous_status"`
	PreviousResult *Result      `json:"previous_result,omitempty"`
	NewStatus      ResultStatus `json:"new_status"`
	NewResult      *Result      `json:"new_result,omitempty"`
	AmendedBy      string       `json:"amended_by"`
	AmendedAt      time.Time    `json:"amended_at"`
}
