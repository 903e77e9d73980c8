package draft

import "errors"

var ErrDraftNotFound = errors.New("draft not found")
var ErrStaleState = errors.New("stale state version")
var ErrNotYourTurn = errors.New("not your turn")
var ErrPlayerAlreadyDrafted = errors.New("player already drafted")
var ErrInvalidCell = errors.New("invalid cell")
var ErrInsufficientBudget = errors.New("insufficient budget")
var ErrDraftAlreadyComplete = errors.New("draft already completed")
var ErrQueueFull = errors.New("pick queue full")
var ErrRoomCleared = errors.New("room cleared")

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
)

type Player struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// Cell is one board position. DraftedBy is a participant position,
// zero until the cell is claimed.
type Cell struct {
	Player    Player `json:"player"`
	Drafted   bool   `json:"drafted"`
	DraftedBy int    `json:"drafted_by,omitempty"`
}

type RosterEntry struct {
	Row      int `json:"row"`
	Col      int `json:"col"`
	PlayerID int `json:"player_id"`
	Price    int `json:"price"`
}

type Roster struct {
	Picks []RosterEntry `json:"picks"`
	Spent int           `json:"spent"`
}

// State is one room's full draft state. Apply and TimeoutAdvance never
// mutate their receiver; they return a fresh copy so callers can hand
// out old snapshots safely.
type State struct {
	Board      [][]Cell       `json:"board"`
	Order      []int          `json:"order"`
	Turn       int            `json:"turn"`
	Version    int            `json:"version"`
	Budget     int            `json:"budget"`
	Rosters    map[int]Roster `json:"rosters"`
	Status     Status         `json:"status"`
	SkipStreak int            `json:"skip_streak"`
}

// Pick is an in-flight claim attempt. It lives only inside the
// serializer queue and is never persisted.
type Pick struct {
	Participant   int
	Row           int
	Col           int
	ClientVersion int
}

type EventType string

const (
	EvtDraftStarted   EventType = "draft_started"
	EvtBoardGenerated EventType = "board_generated"
	EvtPick           EventType = "pick"
	EvtSkip           EventType = "skip"
	EvtAutoPick       EventType = "auto_pick"
	EvtDraftComplete  EventType = "draft_complete"
)

type Event struct {
	Type        EventType
	Participant int
	Row         int
	Col         int
	PlayerID    int
	Price       int
	Version     int // state version after the transition
}

// NewState builds the initial in-progress state for a generated board.
// Order fixes participant positions for the whole draft.
func NewState(board [][]Cell, order []int, budget int) State {
	rosters := make(map[int]Roster, len(order))
	for _, p := range order {
		rosters[p] = Roster{Picks: []RosterEntry{}}
	}
	return State{
		Board:   board,
		Order:   order,
		Turn:    0,
		Version: 0,
		Budget:  budget,
		Rosters: rosters,
		Status:  StatusInProgress,
	}
}

// Clone deep-copies the state so a snapshot handed to broadcast can
// never alias the serializer's working copy.
func (s State) Clone() State {
	out := s
	out.Board = make([][]Cell, len(s.Board))
	for i, row := range s.Board {
		out.Board[i] = append([]Cell(nil), row...)
	}
	out.Order = append([]int(nil), s.Order...)
	out.Rosters = make(map[int]Roster, len(s.Rosters))
	for p, r := range s.Rosters {
		cp := r
		cp.Picks = append([]RosterEntry(nil), r.Picks...)
		out.Rosters[p] = cp
	}
	return out
}

// CurrentParticipant returns the position whose turn it is.
func (s State) CurrentParticipant() int {
	return s.Order[s.Turn]
}

// Remaining is the budget the participant has left to spend.
func (s State) Remaining(participant int) int {
	return s.Budget - s.Rosters[participant].Spent
}

func (s State) cellAt(row, col int) (Cell, bool) {
	if row < 0 || row >= len(s.Board) {
		return Cell{}, false
	}
	if col < 0 || col >= len(s.Board[row]) {
		return Cell{}, false
	}
	return s.Board[row][col], true
}

func (s State) allDrafted() bool {
	for _, row := range s.Board {
		for _, c := range row {
			if !c.Drafted {
				return false
			}
		}
	}
	return true
}
