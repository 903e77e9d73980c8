package board

import (
	"fmt"
	"math/rand"

	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/draft"
)

// ContestParams describe the board a contest wants generated. Pool is
// the player universe to draw from; when empty a synthetic pool is
// used, which keeps local runs and tests independent of upstream data.
type ContestParams struct {
	Rows   int
	Cols   int
	Budget int
	Seed   int64
	Pool   []draft.Player
}

// Generator produces a priced board from contest parameters. The real
// player feed lives outside this module; Generate is the in-process
// implementation used by room creation.
type Generator interface {
	Generate(params ContestParams) ([][]draft.Cell, error)
}

type generator struct{}

func New() Generator { return generator{} }

// Generate lays the pool onto a Rows x Cols grid in shuffled order.
// The same seed always yields the same board, so a room can be
// reconstructed for dispute resolution from its board_generated event.
func (generator) Generate(params ContestParams) ([][]draft.Cell, error) {
	if params.Rows <= 0 || params.Cols <= 0 {
		return nil, fmt.Errorf("board: invalid dimensions %dx%d", params.Rows, params.Cols)
	}
	n := params.Rows * params.Cols

	pool := params.Pool
	if len(pool) == 0 {
		pool = syntheticPool(n, params.Budget)
	}
	if len(pool) < n {
		return nil, fmt.Errorf("board: pool has %d players, need %d", len(pool), n)
	}

	rng := rand.New(rand.NewSource(params.Seed))
	shuffled := append([]draft.Player(nil), pool...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cells := make([][]draft.Cell, params.Rows)
	for r := range cells {
		cells[r] = make([]draft.Cell, params.Cols)
		for c := range cells[r] {
			cells[r][c] = draft.Cell{Player: shuffled[r*params.Cols+c]}
		}
	}
	return cells, nil
}

// syntheticPool prices players on a spread below the per-participant
// budget so every seat can afford at least the bottom tier.
func syntheticPool(n, budget int) []draft.Player {
	if budget <= 0 {
		budget = 100
	}
	players := make([]draft.Player, n)
	for i := range players {
		price := 5 + (i*(budget/2))/max(n-1, 1)
		players[i] = draft.Player{
			ID:    i + 1,
			Name:  fmt.Sprintf("Player %d", i+1),
			Price: price,
		}
	}
	return players
}
