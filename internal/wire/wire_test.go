package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/draft"
)

func TestState_MapsSnapshotFields(t *testing.T) {
	board := [][]draft.Cell{
		{{Player: draft.Player{ID: 1, Name: "A", Price: 10}}, {Player: draft.Player{ID: 2, Name: "B", Price: 30}}},
	}
	s := draft.NewState(board, []int{1, 2}, 100)

	_, s, err := draft.Apply(s, draft.Pick{Participant: 1, Row: 0, Col: 0, ClientVersion: 0})
	require.NoError(t, err)

	got := State(s)
	require.Equal(t, 1, got.Version)
	require.Equal(t, s.Turn, got.Turn)
	require.Equal(t, []int{1, 2}, got.Order)
	require.Equal(t, 100, got.Budget)
	require.Equal(t, string(draft.StatusInProgress), got.Status)

	cell := got.Board[0][0]
	require.True(t, cell.Drafted)
	require.Equal(t, 1, cell.DraftedBy)
	require.Equal(t, "A", cell.Player.Name)

	roster := got.Rosters[1]
	require.Equal(t, 10, roster.Spent)
	require.Len(t, roster.Picks, 1)
	require.Equal(t, 1, roster.Picks[0].PlayerID)
}
