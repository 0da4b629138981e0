package tournament

// PairingsGenerated is published once a round has been created and persisted.
type PairingsGenerated struct {
	TournamentID   string        `json:"tournament_id"`
	TournamentName string        `json:"tournament_name"`
	Round          int           `json:"round"`
	Matches        []Match       `json:"matches"`
	Participants   []Participant `json:"participants"`
}

// ResultConfirmedEvent is published whenever a match result becomes final.
type ResultConfirmedEvent struct {
	TournamentID string `json:"tournament_id"`
	Match        Match  `json:"match"`
}

// TournamentFinished is published with the frozen standings of a finished tournament.
type TournamentFinished struct {
	TournamentID   string         `json:"tournament_id"`
	TournamentName string         `json:"tournament_name"`
	Standings      []StandingsRow `json:"standings"`
	Participants   []Participant  `json:"participants"`
}

// NameOf resolves a participant display name from the event payload.
func NameOf(participants []Participant, id string) string {
	for _, p := range participants {
		if p.ID == id {
			return p.DisplayName
		}
	}
	return id
}
