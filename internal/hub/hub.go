package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/audit"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/board"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/draft"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/room"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/serial"
)

type HubMsg interface{ isHubMsg() }

// CreateRoom generates a board and starts a draft room.
type CreateRoom struct {
	Code   string
	Params board.ContestParams
	Order  []int
	Reply  chan CreateReply
}

type CreateReply struct {
	Room *room.Room
	Err  error
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom tears the room down; queued picks resolve with
// ErrRoomCleared.
type RemoveRoom struct {
	Code string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Config struct {
	Logger     *zap.Logger
	Audit      audit.Store
	Boards     board.Generator
	Policy     draft.AutoPickPolicy
	TurnLimit  time.Duration
	QueueBound int
	// Retention keeps a completed room registered so late submissions
	// still see DraftAlreadyComplete before the room is retired. Zero
	// keeps completed rooms until an explicit RemoveRoom.
	Retention time.Duration
}

// Hub owns room lifecycle: create on draft start, retire on completion
// or abort. The room map lives only in the hub's loop goroutine.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	ser    *serial.Serializer
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, cfg Config) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		ser:    serial.New(cfg.QueueBound),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if rm := h.rooms[msg.Code]; rm != nil {
					msg.Reply <- CreateReply{Room: rm}
					break
				}
				rm, err := h.create(msg.Code, msg.Params, msg.Order)
				if err != nil {
					msg.Reply <- CreateReply{Err: err}
					break
				}
				h.rooms[msg.Code] = rm
				h.watch(rm)
				msg.Reply <- CreateReply{Room: rm}

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case RemoveRoom:
				if rm := h.rooms[msg.Code]; rm != nil {
					rm.Close()
					delete(h.rooms, msg.Code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(code string, params board.ContestParams, order []int) (*room.Room, error) {
	cells, err := h.cfg.Boards.Generate(params)
	if err != nil {
		return nil, err
	}
	state := draft.NewState(cells, order, params.Budget)
	return room.New(room.Config{
		ID:         code,
		Serializer: h.ser,
		Audit:      h.cfg.Audit,
		Logger:     h.cfg.Logger,
		Policy:     h.cfg.Policy,
		TurnLimit:  h.cfg.TurnLimit,
	}, state), nil
}

// watch retires the room after its draft completes and the retention
// window passes, through the normal RemoveRoom path so teardown has
// one owner.
func (h *Hub) watch(rm *room.Room) {
	if h.cfg.Retention <= 0 {
		return
	}
	go func() {
		select {
		case <-rm.Done():
		case <-h.ctx.Done():
			return
		}
		select {
		case <-time.After(h.cfg.Retention):
		case <-h.ctx.Done():
			return
		}
		select {
		case h.inbox <- RemoveRoom{Code: rm.ID()}:
		case <-h.ctx.Done():
		}
	}()
}

func (h *Hub) shutdown() {
	for code, rm := range h.rooms {
		rm.Close()
		delete(h.rooms, code)
	}
	h.cancel()
}
