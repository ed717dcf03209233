// Package list serves the current price tier list.
package list

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/yahyaheni/gymtrack/internal/http/response"
	"github.com/yahyaheni/gymtrack/internal/store"
)

type Handler struct {
	log   *slog.Logger
	store *store.Store
}

func New(log *slog.Logger, st *store.Store) *Handler {
	return &Handler{log: log, store: st}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tier.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tiers := h.store.Tiers()

	log.Info("tiers listed", slog.Int("count", len(tiers)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"tiers": tiers,
	}))
}
