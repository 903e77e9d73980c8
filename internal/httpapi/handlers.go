package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/board"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/draft"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/hub"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/room"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/wire"
	"github.com/steinkopfgrant/fantasy-draft-sub002/pkg/types"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", "invalid json")
			return
		}
		if req.Participants < 2 {
			writeError(w, http.StatusBadRequest, "BadRequest", "need at least 2 participants")
			return
		}
		if req.Budget <= 0 {
			writeError(w, http.StatusBadRequest, "BadRequest", "budget must be positive")
			return
		}

		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Internal", "failed to generate code")
				return
			}
			reply := make(chan *room.Room, 1)
			h.Inbox() <- hub.GetRoom{Code: c, Reply: reply}
			if <-reply == nil {
				code = c
				break
			}
		}

		order := make([]int, req.Participants)
		for i := range order {
			order[i] = i + 1
		}
		reply := make(chan hub.CreateReply, 1)
		h.Inbox() <- hub.CreateRoom{
			Code: code,
			Params: board.ContestParams{
				Rows:   req.Rows,
				Cols:   req.Cols,
				Budget: req.Budget,
				Seed:   req.Seed,
			},
			Order: order,
			Reply: reply,
		}
		res := <-reply
		if res.Err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", res.Err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(types.CreateRoomResponse{Code: code})
	}
}

func SubmitPick(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, ok := lookup(h, w, r)
		if !ok {
			return
		}
		var req types.PickRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", "invalid json")
			return
		}

		outcome, err := rm.SubmitPick(r.Context(), draft.Pick{
			Participant:   req.Participant,
			Row:           req.Row,
			Col:           req.Col,
			ClientVersion: req.ClientVersion,
		})
		if err != nil {
			code, status := classify(err)
			writeError(w, status, code, err.Error())
			return
		}

		state := wire.State(outcome.Snapshot.State)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.PickResponse{
			Version: outcome.Snapshot.Version,
			State:   &state,
		})
	}
}

func GetState(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, ok := lookup(h, w, r)
		if !ok {
			return
		}
		snap := rm.State()
		state := wire.State(snap.State)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.PickResponse{Version: snap.Version, State: &state})
	}
}

func GetHistory(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, ok := lookup(h, w, r)
		if !ok {
			return
		}
		events, err := rm.History(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal", "history read failed")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(events)
	}
}

func DeleteRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		h.Inbox() <- hub.RemoveRoom{Code: code}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func lookup(h *hub.Hub, w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	code := chi.URLParam(r, "code")
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
	rm := <-reply
	if rm == nil {
		writeError(w, http.StatusNotFound, "DraftNotFound", draft.ErrDraftNotFound.Error())
		return nil, false
	}
	return rm, true
}

// classify maps engine rejections to wire codes. StaleState invites a
// refetch-and-retry; the rest are permanent for that request.
func classify(err error) (string, int) {
	switch {
	case errors.Is(err, draft.ErrStaleState):
		return "StaleState", http.StatusConflict
	case errors.Is(err, draft.ErrNotYourTurn):
		return "NotYourTurn", http.StatusConflict
	case errors.Is(err, draft.ErrPlayerAlreadyDrafted):
		return "PlayerAlreadyDrafted", http.StatusConflict
	case errors.Is(err, draft.ErrInvalidCell):
		return "InvalidCell", http.StatusBadRequest
	case errors.Is(err, draft.ErrInsufficientBudget):
		return "InsufficientBudget", http.StatusConflict
	case errors.Is(err, draft.ErrDraftAlreadyComplete):
		return "DraftAlreadyComplete", http.StatusGone
	case errors.Is(err, draft.ErrQueueFull):
		return "QueueFull", http.StatusTooManyRequests
	case errors.Is(err, draft.ErrRoomCleared):
		return "RoomCleared", http.StatusGone
	case errors.Is(err, draft.ErrDraftNotFound):
		return "DraftNotFound", http.StatusNotFound
	default:
		return "Internal", http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Code: code, Message: msg})
}
