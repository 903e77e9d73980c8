package room

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/audit"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/draft"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/serial"
)

// Snapshot is the immutable post-mutation view handed to subscribers
// and state queries. Broadcast never re-reads live state.
type Snapshot struct {
	Version int         `json:"version"`
	State   draft.State `json:"state"`
}

// Outcome is what a successful submission resolves with: the accepted
// transition events and the snapshot they produced.
type Outcome struct {
	Events   []draft.Event
	Snapshot Snapshot
}

type Config struct {
	ID         string
	Serializer *serial.Serializer
	Audit      audit.Store
	Logger     *zap.Logger
	Policy     draft.AutoPickPolicy
	TurnLimit  time.Duration // zero disables the turn clock
}

// Room owns one draft's state. All mutation funnels through the
// serializer's single worker for this room; reads outside that worker
// only ever see the last published snapshot.
type Room struct {
	id     string
	ser    *serial.Serializer
	store  audit.Store
	log    *zap.Logger
	policy draft.AutoPickPolicy

	mu      sync.RWMutex
	state   draft.State
	subs    map[string]chan Snapshot
	cleared bool

	clock     *turnClock
	done      chan struct{}
	auditErrs chan error
}

type result struct {
	outcome Outcome
	err     error
}

// New starts a room around a freshly generated board and records the
// draft_started and board_generated events.
func New(cfg Config, initial draft.State) *Room {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := &Room{
		id:        cfg.ID,
		ser:       cfg.Serializer,
		store:     cfg.Audit,
		log:       cfg.Logger.With(zap.String("room", cfg.ID)),
		policy:    cfg.Policy,
		state:     initial,
		subs:      make(map[string]chan Snapshot),
		done:      make(chan struct{}),
		auditErrs: make(chan error, 16),
	}

	boardJSON, _ := json.Marshal(initial.Board)
	r.append(draft.Event{Type: draft.EvtDraftStarted}, nil)
	r.append(draft.Event{Type: draft.EvtBoardGenerated}, boardJSON)

	if cfg.TurnLimit > 0 {
		r.clock = newTurnClock(cfg.TurnLimit, r.timeoutFired)
		r.clock.arm(initial.Version)
	}
	return r
}

func (r *Room) ID() string { return r.id }

// Done closes when the draft completes, so the hub can retire the room.
func (r *Room) Done() <-chan struct{} { return r.done }

// AuditErrors is the operator-visible channel for failed audit writes.
// Failures never roll back the applied transition.
func (r *Room) AuditErrors() <-chan error { return r.auditErrs }

// SubmitPick enqueues the pick and blocks until the serializer's worker
// has evaluated it against the then-current state. A queued pick cannot
// be withdrawn; cancelling the context abandons the wait, not the item.
func (r *Room) SubmitPick(ctx context.Context, p draft.Pick) (Outcome, error) {
	reply := make(chan result, 1)
	run := func() {
		events, next, err := draft.Apply(r.currentState(), p)
		reply <- r.commit(events, next, err)
	}
	if err := r.submit(run, reply); err != nil {
		return Outcome{}, err
	}
	select {
	case res := <-reply:
		return res.outcome, res.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// HandleTimeout runs the auto-pick/skip path for the current turn. It
// goes through the same serializer queue as client picks, so it can
// never interleave with one.
func (r *Room) HandleTimeout(ctx context.Context) (Outcome, error) {
	reply := make(chan result, 1)
	run := func() {
		events, next, err := draft.TimeoutAdvance(r.currentState(), r.policy)
		reply <- r.commit(events, next, err)
	}
	if err := r.submit(run, reply); err != nil {
		return Outcome{}, err
	}
	select {
	case res := <-reply:
		return res.outcome, res.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (r *Room) submit(run func(), reply chan result) error {
	r.mu.RLock()
	status := r.state.Status
	cleared := r.cleared
	r.mu.RUnlock()
	// A completed draft outranks teardown so late submissions get the
	// terminal rejection, not a lifecycle one.
	if status == draft.StatusComplete {
		return draft.ErrDraftAlreadyComplete
	}
	if cleared {
		return draft.ErrRoomCleared
	}
	return r.ser.Submit(r.id, run, func(err error) {
		reply <- result{err: err}
	})
}

// commit publishes an accepted transition: audit first, then broadcast,
// then the caller's reply. Runs only inside the serializer worker.
func (r *Room) commit(events []draft.Event, next draft.State, err error) result {
	if err != nil {
		return result{err: err}
	}

	r.mu.Lock()
	// Teardown may have landed between the fast-path check in submit
	// and the worker reaching this item; a cleared room accepts no
	// further transitions.
	if r.cleared {
		r.mu.Unlock()
		return result{err: draft.ErrRoomCleared}
	}
	r.state = next
	snap := Snapshot{Version: next.Version, State: next}
	r.mu.Unlock()

	rosterJSON, _ := json.Marshal(next.Rosters)
	for _, ev := range events {
		r.append(ev, rosterJSON)
	}
	r.broadcast(snap)

	if r.clock != nil {
		if next.Status == draft.StatusComplete {
			r.clock.stop()
		} else {
			r.clock.arm(next.Version)
		}
	}
	if next.Status == draft.StatusComplete {
		r.finish()
	}
	return result{outcome: Outcome{Events: events, Snapshot: snap}}
}

func (r *Room) finish() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

// append writes one audit event. The pick number tracks the state
// version the event produced.
func (r *Room) append(ev draft.Event, snapshot []byte) {
	rec := audit.Event{
		ID:          uuid.NewString(),
		RoomID:      r.id,
		Type:        string(ev.Type),
		PickNumber:  ev.Version,
		Participant: ev.Participant,
		Row:         ev.Row,
		Col:         ev.Col,
		PlayerID:    ev.PlayerID,
		Price:       ev.Price,
		Snapshot:    snapshot,
		CreatedAt:   time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Append(ctx, rec); err != nil {
		r.log.Error("audit append failed",
			zap.String("event", rec.Type),
			zap.Int("pick_number", rec.PickNumber),
			zap.Error(err))
		select {
		case r.auditErrs <- err:
		default:
			r.log.Warn("audit error channel full, dropping")
		}
	}
}

func (r *Room) currentState() draft.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// State returns the last published snapshot.
func (r *Room) State() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{Version: r.state.Version, State: r.state.Clone()}
}

// History is the dispute-resolution read path, ordered by
// (pick_number asc, created_at asc).
func (r *Room) History(ctx context.Context) ([]audit.Event, error) {
	return r.store.History(ctx, r.id)
}

// Subscribe registers an outbox for snapshot fan-out and immediately
// sends the current snapshot. Slow subscribers are dropped on the next
// broadcast rather than stalling the room.
func (r *Room) Subscribe(id string, out chan Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cleared {
		close(out)
		return
	}
	r.subs[id] = out
	select {
	case out <- Snapshot{Version: r.state.Version, State: r.state}:
	default:
	}
}

func (r *Room) Unsubscribe(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.subs[id]; ok {
		delete(r.subs, id)
		close(ch)
	}
}

func (r *Room) broadcast(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ch := range r.subs {
		select {
		case ch <- snap:
		default:
			close(ch)
			delete(r.subs, id)
		}
	}
}

// Close tears the room down: queued submissions resolve with
// ErrRoomCleared, the clock stops, subscriber channels close.
func (r *Room) Close() {
	r.mu.Lock()
	if r.cleared {
		r.mu.Unlock()
		return
	}
	r.cleared = true
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
	r.mu.Unlock()

	if r.clock != nil {
		r.clock.stop()
	}
	r.ser.Clear(r.id)
	r.finish()
}

// timeoutFired is the clock callback. armedVersion pins the fire to the
// turn it was armed for; a pick that landed in between makes it stale.
func (r *Room) timeoutFired(armedVersion int) {
	reply := make(chan result, 1)
	run := func() {
		s := r.currentState()
		if s.Version != armedVersion || s.Status == draft.StatusComplete {
			reply <- result{}
			return
		}
		events, next, err := draft.TimeoutAdvance(s, r.policy)
		reply <- r.commit(events, next, err)
	}
	if err := r.submit(run, reply); err != nil {
		return
	}
	res := <-reply
	if res.err != nil {
		r.log.Warn("timeout advance failed", zap.Error(res.err))
	}
}
