package pubsub

import (
	"testing"
	"time"

	"github.com/mauv0809/warlord-swiss/internal/tournament"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEvent(t *testing.T) {
	evt := tournament.PairingsGenerated{
		TournamentID:   "t1",
		TournamentName: "Spring Clash",
		Round:          2,
		Matches: []tournament.Match{
			{ID: "m1", Round: 2, Table: 1, PlayerA: "A", PlayerB: "B", Status: tournament.ResultPending, UpdatedAt: time.Unix(1700000000, 0).UTC()},
		},
	}
	data, err := Encode(evt)
	require.NoError(t, err)

	m := NewMock()
	var got tournament.PairingsGenerated
	require.NoError(t, m.ProcessMessage(data, &got))
	assert.Equal(t, "t1", got.TournamentID)
	assert.Equal(t, 2, got.Round)
	require.Len(t, got.Matches, 1)
	assert.Equal(t, "B", got.Matches[0].PlayerB)
	assert.Len(t, m.ProcessMessageCalls, 1)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var got tournament.PairingsGenerated
	assert.Error(t, Decode([]byte{0xc1}, &got))
}
