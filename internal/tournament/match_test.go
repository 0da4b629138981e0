package tournament

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSides(t *testing.T) {
	m := Match{PlayerA: "A", PlayerB: "B"}

	assert.True(t, m.Involves("A"))
	assert.False(t, m.Involves("C"))
	assert.False(t, m.Involves(""))
	assert.Equal(t, SideB, m.SideOf("B"))
	assert.Equal(t, SideNone, m.SideOf("C"))
	assert.Equal(t, "A", m.Opponent("B"))
	assert.Empty(t, m.Opponent("C"))
	assert.Equal(t, SideA, SideB.Other())
	assert.Equal(t, SideNone, SideNone.Other())

	bye := Match{PlayerA: "A", IsBye: true}
	assert.Empty(t, bye.Opponent("A"))
	assert.False(t, bye.Involves(""))
}

func TestResultValidate(t *testing.T) {
	m := Match{PlayerA: "A", PlayerB: "B"}
	bye := Match{PlayerA: "A", IsBye: true}

	tests := []struct {
		name   string
		match  Match
		result Result
		ok     bool
	}{
		{"win", m, Result{Winner: SideA, A: SideScore{VictoryPoints: 12}}, true},
		{"draw", m, Result{A: SideScore{VictoryPoints: 8}, B: SideScore{VictoryPoints: 8}}, true},
		{"unknown winner", m, Result{Winner: "c"}, false},
		{"negative points", m, Result{Winner: SideB, B: SideScore{MassacrePoints: -1}}, false},
		{"bye won by its participant", bye, *ByeResult(10, 3), true},
		{"bye lost", bye, Result{Winner: SideB}, false},
		{"bye with opponent score", bye, Result{Winner: SideA, B: SideScore{VictoryPoints: 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate(tt.match)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRoundComplete(t *testing.T) {
	assert.False(t, Round{Number: 1}.Complete())
	r := Round{Number: 1, Matches: []Match{{Status: ResultConfirmed}, {Status: ResultPlayerReported}}}
	assert.False(t, r.Complete())
	r.Matches[1].Status = ResultOrganizerSet
	assert.True(t, r.Complete())
}

func TestActiveParticipants(t *testing.T) {
	tour := &Tournament{Participants: []Participant{{ID: "A", Active: true}, {ID: "B"}, {ID: "C", Active: true}}}
	active := tour.ActiveParticipants()
	require.Len(t, active, 2)
	assert.Equal(t, "C", active[1].ID)

	_, ok := tour.Participant("B")
	assert.True(t, ok)
	_, ok = tour.Participant("Z")
	assert.False(t, ok)
	assert.Equal(t, "Z", NameOf(tour.Participants, "Z"))
}
