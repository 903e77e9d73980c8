package types

// Wire-level draft state. Field-for-field JSON shape of the core's
// snapshot, defined here so clients can import this package without
// reaching into internal packages.

type Player struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

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

type State struct {
	Board   [][]Cell       `json:"board"`
	Order   []int          `json:"order"`
	Turn    int            `json:"turn"`
	Version int            `json:"version"`
	Budget  int            `json:"budget"`
	Rosters map[int]Roster `json:"rosters"`
	Status  string         `json:"status"`
}

// REST payloads.

type CreateRoomRequest struct {
	Rows         int   `json:"rows"`
	Cols         int   `json:"cols"`
	Budget       int   `json:"budget"`
	Seed         int64 `json:"seed,omitempty"`
	Participants int   `json:"participants"`
}

type CreateRoomResponse struct {
	Code string `json:"code"`
}

type PickRequest struct {
	Participant   int `json:"participant"`
	Row           int `json:"row"`
	Col           int `json:"col"`
	ClientVersion int `json:"client_version"`
}

type PickResponse struct {
	Version int    `json:"version"`
	State   *State `json:"state"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WebSocket fan-out.

type ServerMessage struct {
	Type    string `json:"type"` // "StateSnapshot" | "Error"
	Version int    `json:"version,omitempty"`
	State   *State `json:"state,omitempty"`
	Error   string `json:"error,omitempty"`
}
