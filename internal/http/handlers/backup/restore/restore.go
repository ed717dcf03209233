// Package restore replaces all application data from an uploaded snapshot.
package restore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/yahyaheni/gymtrack/internal/http/response"
	"github.com/yahyaheni/gymtrack/internal/lib/sl"
	"github.com/yahyaheni/gymtrack/internal/models"
)

// maxSnapshotBytes caps the restore body so a stray upload cannot
// exhaust memory.
const maxSnapshotBytes = 32 << 20

type Service interface {
	Restore(ctx context.Context, data models.AppData) error
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.backup.restore"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes))
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	data, err := models.ParseAppData(raw)
	if err != nil {
		log.Error("snapshot rejected", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("backup file is invalid or corrupt"))
		return
	}

	if err := h.service.Restore(r.Context(), data); err != nil {
		if errors.Is(err, models.ErrInvalidAppData) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("backup file is invalid or corrupt"))
			return
		}
		log.Error("failed to restore snapshot", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not restore data"))
		return
	}

	log.Info("snapshot restored",
		slog.Int("customers", len(data.Customers)),
		slog.Int("expenses", len(data.Expenses)),
		slog.Int("tiers", len(data.Tiers)),
	)
	render.JSON(w, r, response.OK())
}
