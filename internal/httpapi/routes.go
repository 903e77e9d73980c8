package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/hub"
	"github.com/steinkopfgrant/fantasy-draft-sub002/internal/ws"
)

func SetupRoutes(h *hub.Hub) http.Handler {
	r := chi.NewRouter()

	r.Post("/rooms", CreateRoom(h))
	r.Post("/rooms/{code}/picks", SubmitPick(h))
	r.Get("/rooms/{code}/state", GetState(h))
	r.Get("/rooms/{code}/history", GetHistory(h))
	r.Delete("/rooms/{code}", DeleteRoom(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h))
	return r
}
