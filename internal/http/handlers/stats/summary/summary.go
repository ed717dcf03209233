// Package summary serves the dashboard totals.
package summary

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/yahyaheni/gymtrack/internal/http/response"
	"github.com/yahyaheni/gymtrack/internal/store"
)

type Handler struct {
	log   *slog.Logger
	store *store.Store
	now   func() time.Time
}

func New(log *slog.Logger, st *store.Store) *Handler {
	return &Handler{log: log, store: st, now: time.Now}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats.summary"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	today := h.now()
	sum := h.store.Summary(today)
	dist := h.store.TierDistribution()

	log.Info("summary computed",
		slog.Int("expiring_soon", sum.ExpiringSoon),
		slog.Int("unpaid", sum.Unpaid),
	)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"summary":          sum,
		"tierDistribution": dist,
	}))
}
