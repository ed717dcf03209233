// Package report serves date-range totals over customers and expenses.
package report

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/yahyaheni/gymtrack/internal/http/response"
	"github.com/yahyaheni/gymtrack/internal/lib/sl"
	"github.com/yahyaheni/gymtrack/internal/store"
)

const dateLayout = "2006-01-02"

type Handler struct {
	log   *slog.Logger
	store *store.Store
}

func New(log *slog.Logger, st *store.Store) *Handler {
	return &Handler{log: log, store: st}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats.report"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if fromRaw == "" || toRaw == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("from and to query parameters are required"))
		return
	}

	from, err := time.Parse(dateLayout, fromRaw)
	if err != nil {
		log.Error("bad from parameter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("from must be a date in YYYY-MM-DD form"))
		return
	}
	to, err := time.Parse(dateLayout, toRaw)
	if err != nil {
		log.Error("bad to parameter", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("to must be a date in YYYY-MM-DD form"))
		return
	}
	if to.Before(from) {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("to must not be before from"))
		return
	}

	// End of the "to" day so same-day records are included.
	rep := h.store.Report(from, to.Add(24*time.Hour-time.Nanosecond))

	log.Info("report computed",
		slog.Int("customers", rep.CustomerCount),
		slog.Int("expenses", rep.ExpenseCount),
	)
	render.JSON(w, r, response.OKWithData(rep))
}
