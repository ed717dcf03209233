// Package export serves a full JSON snapshot for download.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/yahyaheni/gymtrack/internal/http/response"
	"github.com/yahyaheni/gymtrack/internal/lib/sl"
	"github.com/yahyaheni/gymtrack/internal/models"
)

type Service interface {
	Export() models.AppData
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.backup.export"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	data := h.service.Export()

	// The body is the bare snapshot document, not the usual envelope,
	// so the download can be fed straight back into restore.
	filename := fmt.Sprintf("gym-backup-%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode snapshot", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not export data"))
		return
	}

	log.Info("snapshot exported",
		slog.Int("customers", len(data.Customers)),
		slog.Int("expenses", len(data.Expenses)),
		slog.Int("tiers", len(data.Tiers)),
	)
}
