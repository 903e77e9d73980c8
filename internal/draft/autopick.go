package draft

// AutoPickPolicy selects the cell to claim on behalf of a participant
// whose turn clock expired. Returning ok=false records a skip instead.
type AutoPickPolicy func(s State, participant int) (row, col int, ok bool)

// CheapestAffordable is the default policy: the cheapest available cell
// the participant can still afford, tie-broken by lowest row then
// lowest column.
func CheapestAffordable(s State, participant int) (int, int, bool) {
	remaining := s.Remaining(participant)
	bestRow, bestCol, bestPrice := -1, -1, 0
	for r, cells := range s.Board {
		for c, cell := range cells {
			if cell.Drafted || cell.Player.Price > remaining {
				continue
			}
			if bestRow == -1 || cell.Player.Price < bestPrice {
				bestRow, bestCol, bestPrice = r, c, cell.Player.Price
			}
		}
	}
	if bestRow == -1 {
		return 0, 0, false
	}
	return bestRow, bestCol, true
}
