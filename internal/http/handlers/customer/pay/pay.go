// Package pay handles recording a subscriber's payment.
package pay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/yahyaheni/gymtrack/internal/http/response"
	"github.com/yahyaheni/gymtrack/internal/lib/sl"
	"github.com/yahyaheni/gymtrack/internal/models"
	"github.com/yahyaheni/gymtrack/internal/services/tracker"
)

type Service interface {
	MarkPaid(ctx context.Context, id string) (models.Customer, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.customer.pay"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing id"))
		return
	}

	customer, err := h.service.MarkPaid(r.Context(), id)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscriber not found"))
			return
		}
		log.Error("failed to record payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not record payment"))
		return
	}

	log.Info("payment recorded", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(customer))
}
