package serial

import (
	"sync"

	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/draft"
)

type task struct {
	run    func()
	cancel func(error)
}

// Serializer guarantees at most one concurrent mutation per room.
// Each room has a FIFO queue and an on-demand worker: the first
// submission to an idle room starts a worker, the worker drains the
// queue in arrival order and exits once empty. The active flag is
// checked-and-set under the same lock as the enqueue, so two workers
// can never run for one room. Rooms never share a worker or a lock
// beyond the map mutex, so separate rooms proceed fully in parallel.
type Serializer struct {
	mu    sync.Mutex
	rooms map[string]*roomQueue
	bound int
}

type roomQueue struct {
	items   []task
	active  bool
	cleared bool
}

// New builds a serializer. bound caps queued-but-unprocessed items per
// room; zero means unbounded.
func New(bound int) *Serializer {
	return &Serializer{rooms: make(map[string]*roomQueue), bound: bound}
}

// Submit enqueues run for the room and starts a worker if none is
// draining. It returns once enqueued; completion is signalled by run
// itself (callers pass a closure that resolves their reply channel).
// cancel is invoked instead of run if the room is cleared first.
func (s *Serializer) Submit(roomID string, run func(), cancel func(error)) error {
	s.mu.Lock()
	rq := s.rooms[roomID]
	if rq == nil {
		rq = &roomQueue{}
		s.rooms[roomID] = rq
	}
	// A cleared entry lingers until its worker finishes the in-flight
	// item; admitting work here would start a second worker for the
	// room, so the submission is rejected instead.
	if rq.cleared {
		s.mu.Unlock()
		return draft.ErrRoomCleared
	}
	if s.bound > 0 && len(rq.items) >= s.bound {
		s.mu.Unlock()
		return draft.ErrQueueFull
	}
	rq.items = append(rq.items, task{run: run, cancel: cancel})
	start := !rq.active
	if start {
		rq.active = true
	}
	s.mu.Unlock()

	if start {
		go s.drain(roomID, rq)
	}
	return nil
}

func (s *Serializer) drain(roomID string, rq *roomQueue) {
	for {
		s.mu.Lock()
		if len(rq.items) == 0 {
			rq.active = false
			// Handoff: only now is it safe to drop the entry, since no
			// item for this room can still be executing.
			if s.rooms[roomID] == rq {
				delete(s.rooms, roomID)
			}
			s.mu.Unlock()
			return
		}
		t := rq.items[0]
		rq.items = rq.items[1:]
		s.mu.Unlock()

		t.run()
	}
}

// Clear discards the room's queued items, cancelling each with
// ErrRoomCleared. An item already handed to the worker finishes first;
// the room's entry stays registered (and rejects new submissions)
// until that worker exits, so a racing Submit can never start a second
// worker alongside it.
func (s *Serializer) Clear(roomID string) {
	s.mu.Lock()
	rq := s.rooms[roomID]
	var pending []task
	if rq != nil {
		pending = rq.items
		rq.items = nil
		rq.cleared = true
		if !rq.active {
			delete(s.rooms, roomID)
		}
	}
	s.mu.Unlock()

	for _, t := range pending {
		if t.cancel != nil {
			t.cancel(draft.ErrRoomCleared)
		}
	}
}

// Pending reports queued-but-unprocessed items for a room.
func (s *Serializer) Pending(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rq := s.rooms[roomID]; rq != nil {
		return len(rq.items)
	}
	return 0
}
