package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Event is one immutable audit record. Snapshot carries a denormalized
// JSON payload (board at start, roster after pick) so history can be
// read without replaying engine logic. Events are ordered per room by
// (PickNumber asc, CreatedAt asc) and are never mutated or deleted.
type Event struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	Type        string    `json:"type"`
	PickNumber  int       `json:"pick_number"`
	Participant int       `json:"participant,omitempty"`
	Row         int       `json:"row,omitempty"`
	Col         int       `json:"col,omitempty"`
	PlayerID    int       `json:"player_id,omitempty"`
	Price       int       `json:"price,omitempty"`
	Snapshot    []byte    `json:"snapshot,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the durable append + history read pair. Appends must be
// visible to History in order, with no partial records; History is safe
// to call concurrently with ongoing appends.
type Store interface {
	Append(ctx context.Context, ev Event) error
	History(ctx context.Context, roomID string) ([]Event, error)
}

// MemoryStore keeps events in process. It backs tests and runs without
// Postgres; the interface contract matches the gorm store.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]Event)}
}

func (m *MemoryStore) Append(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.RoomID] = append(m.events[ev.RoomID], ev)
	return nil
}

func (m *MemoryStore) History(_ context.Context, roomID string) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]Event(nil), m.events[roomID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PickNumber != out[j].PickNumber {
			return out[i].PickNumber < out[j].PickNumber
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
