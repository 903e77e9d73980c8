// Package wire converts core snapshots into the public message shapes
// of pkg/types.
package wire

import (
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/draft"
	"github.com/steinkopfgrant/fantasy-draft-sub002/pkg/types"
)

func State(s draft.State) types.State {
	board := make([][]types.Cell, len(s.Board))
	for r, row := range s.Board {
		board[r] = make([]types.Cell, len(row))
		for c, cell := range row {
			board[r][c] = types.Cell{
				Player: types.Player{
					ID:    cell.Player.ID,
					Name:  cell.Player.Name,
					Price: cell.Player.Price,
				},
				Drafted:   cell.Drafted,
				DraftedBy: cell.DraftedBy,
			}
		}
	}

	rosters := make(map[int]types.Roster, len(s.Rosters))
	for p, ro := range s.Rosters {
		picks := make([]types.RosterEntry, len(ro.Picks))
		for i, e := range ro.Picks {
			picks[i] = types.RosterEntry{Row: e.Row, Col: e.Col, PlayerID: e.PlayerID, Price: e.Price}
		}
		rosters[p] = types.Roster{Picks: picks, Spent: ro.Spent}
	}

	return types.State{
		Board:   board,
		Order:   append([]int(nil), s.Order...),
		Turn:    s.Turn,
		Version: s.Version,
		Budget:  s.Budget,
		Rosters: rosters,
		Status:  string(s.Status),
	}
}
