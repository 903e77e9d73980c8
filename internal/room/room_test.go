package room

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/audit"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/draft"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/serial"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("subscriber outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

// 2x2 board: (0,0)=10 (0,1)=30 / (1,0)=20 (1,1)=20
func testBoard() [][]draft.Cell {
	return [][]draft.Cell{
		{{Player: draft.Player{ID: 1, Name: "A", Price: 10}}, {Player: draft.Player{ID: 2, Name: "B", Price: 30}}},
		{{Player: draft.Player{ID: 3, Name: "C", Price: 20}}, {Player: draft.Player{ID: 4, Name: "D", Price: 20}}},
	}
}

func newTestRoom(t *testing.T, budget int, turnLimit time.Duration) (*Room, *audit.MemoryStore) {
	t.Helper()
	store := audit.NewMemoryStore()
	r := New(Config{
		ID:         "TEST01",
		Serializer: serial.New(0),
		Audit:      store,
		TurnLimit:  turnLimit,
	}, draft.NewState(testBoard(), []int{1, 2}, budget))
	t.Cleanup(r.Close)
	return r, store
}

func TestRoom_RecordsStartEvents(t *testing.T) {
	r, _ := newTestRoom(t, 100, 0)

	events, err := r.History(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2 start events, got %d", len(events))
	}
	if events[0].Type != "draft_started" || events[1].Type != "board_generated" {
		t.Fatalf("unexpected start events: %s, %s", events[0].Type, events[1].Type)
	}
	if len(events[1].Snapshot) == 0 {
		t.Fatal("board_generated should carry the board snapshot")
	}
}

func TestRoom_PickBroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	r, _ := newTestRoom(t, 100, 0)

	out := make(chan Snapshot, 2)
	r.Subscribe("c1", out)

	first := recvSnapshot(t, out, 100*time.Millisecond)
	if first.Version != 0 {
		t.Fatalf("after subscribe: want version=0, got %d", first.Version)
	}

	outcome, err := r.SubmitPick(context.Background(), draft.Pick{Participant: 1, Row: 0, Col: 0, ClientVersion: 0})
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Snapshot.Version != 1 {
		t.Fatalf("want version=1, got %d", outcome.Snapshot.Version)
	}

	next := recvSnapshot(t, out, 100*time.Millisecond)
	if next.Version != 1 {
		t.Fatalf("broadcast: want version=1, got %d", next.Version)
	}
	if !next.State.Board[0][0].Drafted || next.State.Board[0][0].DraftedBy != 1 {
		t.Fatalf("broadcast state missing the pick: %+v", next.State.Board[0][0])
	}
}

// Scenario A: two participants race for the same cell; exactly one
// succeeds, the version moves forward exactly once.
func TestRoom_ConcurrentSameCell_ExactlyOneWins(t *testing.T) {
	r, _ := newTestRoom(t, 100, 0)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	picks := []draft.Pick{
		{Participant: 1, Row: 0, Col: 0, ClientVersion: 0},
		{Participant: 2, Row: 0, Col: 0, ClientVersion: 99}, // fresh enough either way
	}
	wg.Add(2)
	for i := range picks {
		i := i
		go func() {
			defer wg.Done()
			_, errs[i] = r.SubmitPick(context.Background(), picks[i])
		}()
	}
	wg.Wait()

	var accepted, rejected int
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		rejected++
		if !errors.Is(err, draft.ErrPlayerAlreadyDrafted) && !errors.Is(err, draft.ErrNotYourTurn) {
			t.Fatalf("loser got unexpected error: %v", err)
		}
	}
	if accepted != 1 || rejected != 1 {
		t.Fatalf("want exactly one winner: accepted=%d rejected=%d", accepted, rejected)
	}
	if v := r.State().Version; v != 1 {
		t.Fatalf("version must advance exactly once, got %d", v)
	}
}

// Scenario C: a stale submission is rejected without touching state or
// the audit log.
func TestRoom_StaleStateRejectedWithoutMutation(t *testing.T) {
	r, store := newTestRoom(t, 100, 0)
	ctx := context.Background()

	if _, err := r.SubmitPick(ctx, draft.Pick{Participant: 1, Row: 0, Col: 0, ClientVersion: 0}); err != nil {
		t.Fatal(err)
	}
	before, _ := store.History(ctx, "TEST01")

	_, err := r.SubmitPick(ctx, draft.Pick{Participant: 2, Row: 1, Col: 0, ClientVersion: 0})
	if !errors.Is(err, draft.ErrStaleState) {
		t.Fatalf("want StaleState, got %v", err)
	}

	if v := r.State().Version; v != 1 {
		t.Fatalf("state mutated by stale request: version %d", v)
	}
	after, _ := store.History(ctx, "TEST01")
	if len(after) != len(before) {
		t.Fatalf("audit log grew on rejected request: %d -> %d", len(before), len(after))
	}
}

// Scenario B: turn timer expiry auto-picks the cheapest affordable
// cell and records an auto_pick event.
func TestRoom_TimeoutAutoPicksAndRecords(t *testing.T) {
	r, store := newTestRoom(t, 100, 0)
	ctx := context.Background()

	outcome, err := r.HandleTimeout(ctx)
	if err != nil {
		t.Fatal(err)
	}
	ev := outcome.Events[0]
	if ev.Type != draft.EvtAutoPick || ev.Row != 0 || ev.Col != 0 {
		t.Fatalf("want auto_pick of (0,0), got %+v", ev)
	}
	if outcome.Snapshot.State.CurrentParticipant() != 2 {
		t.Fatal("turn did not advance after auto-pick")
	}

	events, _ := store.History(ctx, "TEST01")
	last := events[len(events)-1]
	if last.Type != "auto_pick" || last.PickNumber != 1 {
		t.Fatalf("want auto_pick audit event at pick 1, got %+v", last)
	}
}

func TestRoom_TurnClockFiresAutoPick(t *testing.T) {
	r, store := newTestRoom(t, 100, 40*time.Millisecond)

	out := make(chan Snapshot, 4)
	r.Subscribe("c1", out)
	_ = recvSnapshot(t, out, 100*time.Millisecond) // version 0

	next := recvSnapshot(t, out, time.Second)
	if next.Version != 1 {
		t.Fatalf("want version=1 after clock fire, got %d", next.Version)
	}
	if !next.State.Board[0][0].Drafted {
		t.Fatal("clock fire should have auto-picked the cheapest cell")
	}

	events, _ := store.History(context.Background(), "TEST01")
	found := false
	for _, ev := range events {
		if ev.Type == "auto_pick" {
			found = true
		}
	}
	if !found {
		t.Fatal("no auto_pick audit event recorded")
	}
}

func TestRoom_ClockFireAfterPickIsStale(t *testing.T) {
	r, store := newTestRoom(t, 100, 60*time.Millisecond)
	ctx := context.Background()

	if _, err := r.SubmitPick(ctx, draft.Pick{Participant: 1, Row: 0, Col: 0, ClientVersion: 0}); err != nil {
		t.Fatal(err)
	}

	// let the originally armed timer fire; it must be dropped as stale
	time.Sleep(80 * time.Millisecond)

	events, _ := store.History(ctx, "TEST01")
	for _, ev := range events {
		if ev.Type == "auto_pick" && ev.PickNumber == 1 {
			t.Fatal("stale clock fire produced an auto_pick for the consumed turn")
		}
	}
}

// Scenario D: draining the board completes the draft exactly once and
// further submissions get the terminal rejection.
func TestRoom_CompletionRecordedOnce(t *testing.T) {
	r, store := newTestRoom(t, 100, 0)
	ctx := context.Background()

	picks := []draft.Pick{
		{Participant: 1, Row: 0, Col: 0},
		{Participant: 2, Row: 0, Col: 1},
		{Participant: 1, Row: 1, Col: 0},
		{Participant: 2, Row: 1, Col: 1},
	}
	for _, p := range picks {
		p.ClientVersion = r.State().Version
		if _, err := r.SubmitPick(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("room did not signal completion")
	}

	_, err := r.SubmitPick(ctx, draft.Pick{Participant: 1, Row: 0, Col: 0, ClientVersion: 99})
	if !errors.Is(err, draft.ErrDraftAlreadyComplete) {
		t.Fatalf("want DraftAlreadyComplete, got %v", err)
	}

	events, _ := store.History(ctx, "TEST01")
	completes := 0
	for _, ev := range events {
		if ev.Type == "draft_complete" {
			completes++
		}
	}
	if completes != 1 {
		t.Fatalf("want exactly one draft_complete, got %d", completes)
	}
}

// Audit completeness: replaying pick/auto_pick events reconstructs the
// final rosters.
func TestRoom_AuditReplayRebuildsRosters(t *testing.T) {
	r, store := newTestRoom(t, 100, 0)
	ctx := context.Background()

	if _, err := r.SubmitPick(ctx, draft.Pick{Participant: 1, Row: 0, Col: 1, ClientVersion: 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.HandleTimeout(ctx); err != nil { // p2 auto-picks
		t.Fatal(err)
	}
	if _, err := r.SubmitPick(ctx, draft.Pick{Participant: 1, Row: 1, Col: 0, ClientVersion: 2}); err != nil {
		t.Fatal(err)
	}

	events, err := store.History(ctx, "TEST01")
	if err != nil {
		t.Fatal(err)
	}

	spent := map[int]int{}
	counts := map[int]int{}
	for _, ev := range events {
		if ev.Type == "pick" || ev.Type == "auto_pick" {
			spent[ev.Participant] += ev.Price
			counts[ev.Participant]++
		}
	}

	final := r.State().State
	for p, roster := range final.Rosters {
		if spent[p] != roster.Spent {
			t.Fatalf("participant %d: replayed spend %d != roster spend %d", p, spent[p], roster.Spent)
		}
		if counts[p] != len(roster.Picks) {
			t.Fatalf("participant %d: replayed %d picks, roster has %d", p, counts[p], len(roster.Picks))
		}
	}
}

func TestRoom_VersionsHaveNoGaps(t *testing.T) {
	r, store := newTestRoom(t, 100, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.HandleTimeout(ctx)
		}()
	}
	wg.Wait()

	events, _ := store.History(ctx, "TEST01")
	want := 1
	for _, ev := range events {
		if ev.Type != "pick" && ev.Type != "auto_pick" && ev.Type != "skip" {
			continue
		}
		if ev.PickNumber != want {
			t.Fatalf("version gap: want %d, got %d", want, ev.PickNumber)
		}
		want++
	}
	if want == 1 {
		t.Fatal("no mutations recorded")
	}
}

func TestRoom_CloseRejectsAndClosesSubscribers(t *testing.T) {
	r, _ := newTestRoom(t, 100, 0)

	out := make(chan Snapshot, 2)
	r.Subscribe("c1", out)
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	r.Close()

	if _, ok := <-out; ok {
		t.Fatal("subscriber channel should be closed on room teardown")
	}
	_, err := r.SubmitPick(context.Background(), draft.Pick{Participant: 1, Row: 0, Col: 0, ClientVersion: 0})
	if !errors.Is(err, draft.ErrRoomCleared) {
		t.Fatalf("want RoomCleared, got %v", err)
	}
}

func TestRoom_CloseCancelsQueuedPick(t *testing.T) {
	ser := serial.New(0)
	store := audit.NewMemoryStore()
	r := New(Config{
		ID:         "TEST03",
		Serializer: ser,
		Audit:      store,
	}, draft.NewState(testBoard(), []int{1, 2}, 100))

	// occupy the room's worker so the next pick stays queued
	gate := make(chan struct{})
	started := make(chan struct{})
	if err := ser.Submit("TEST03", func() {
		close(started)
		<-gate
	}, nil); err != nil {
		t.Fatal(err)
	}
	<-started

	picked := make(chan error, 1)
	go func() {
		_, err := r.SubmitPick(context.Background(), draft.Pick{Participant: 1, Row: 0, Col: 0, ClientVersion: 0})
		picked <- err
	}()
	// wait for the pick to sit in the queue behind the blocked item
	for i := 0; i < 200 && ser.Pending("TEST03") == 0; i++ {
		time.Sleep(time.Millisecond)
	}

	r.Close()
	close(gate)

	select {
	case err := <-picked:
		if !errors.Is(err, draft.ErrRoomCleared) {
			t.Fatalf("queued pick must resolve RoomCleared, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("queued pick never resolved after teardown")
	}

	// teardown must not have let the pick mutate state or the log
	if v := r.State().Version; v != 0 {
		t.Fatalf("state mutated after teardown: version %d", v)
	}
	events, _ := store.History(context.Background(), "TEST03")
	for _, ev := range events {
		if ev.Type == "pick" {
			t.Fatal("audit log grew after teardown")
		}
	}
}

type failingStore struct{ errs int }

func (f *failingStore) Append(context.Context, audit.Event) error {
	f.errs++
	return errors.New("disk on fire")
}

func (f *failingStore) History(context.Context, string) ([]audit.Event, error) {
	return nil, nil
}

func TestRoom_AuditFailureDoesNotRollBackPick(t *testing.T) {
	store := &failingStore{}
	r := New(Config{
		ID:         "TEST02",
		Serializer: serial.New(0),
		Audit:      store,
	}, draft.NewState(testBoard(), []int{1, 2}, 100))
	defer r.Close()

	outcome, err := r.SubmitPick(context.Background(), draft.Pick{Participant: 1, Row: 0, Col: 0, ClientVersion: 0})
	if err != nil {
		t.Fatalf("audit failure must not fail the pick: %v", err)
	}
	if outcome.Snapshot.Version != 1 {
		t.Fatalf("want version=1, got %d", outcome.Snapshot.Version)
	}

	select {
	case err := <-r.AuditErrors():
		if err == nil {
			t.Fatal("want a surfaced audit error")
		}
	case <-time.After(time.Second):
		t.Fatal("audit failure was swallowed")
	}
}
