// Package list returns the subscriber collection with the derived fields
// the subscriber table renders: expiry date and subscription status, both
// recomputed on every request since they depend on the current day.
package list

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/yahyaheni/gymtrack/internal/http/response"
	"github.com/yahyaheni/gymtrack/internal/lib/datemath"
	"github.com/yahyaheni/gymtrack/internal/models"
	"github.com/yahyaheni/gymtrack/internal/store"
)

// customerView is a customer row plus its derived presentation fields.
type customerView struct {
	models.Customer
	ExpiryDate time.Time       `json:"expiryDate"`
	Status     datemath.Status `json:"status"`
}

type Handler struct {
	log   *slog.Logger
	store *store.Store
	now   func() time.Time
}

func New(log *slog.Logger, st *store.Store) *Handler {
	return &Handler{log: log, store: st, now: time.Now}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.customer.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	today := h.now()
	filter := r.URL.Query().Get("status")

	customers := h.store.Customers()
	views := make([]customerView, 0, len(customers))
	for _, c := range customers {
		status := c.Status(today)
		if !matches(c, status, filter) {
			continue
		}
		views = append(views, customerView{
			Customer:   c,
			ExpiryDate: c.ExpiryDate(),
			Status:     status,
		})
	}

	log.Info("subscribers listed", slog.Int("count", len(views)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"customers":         views,
		"expiringSoonCount": h.store.ExpiringSoonCount(today),
	}))
}

func matches(c models.Customer, status datemath.Status, filter string) bool {
	switch filter {
	case "":
		return true
	case "unpaid":
		return c.EffectivePaymentStatus() == models.PaymentUnpaid
	default:
		return string(status) == filter
	}
}
