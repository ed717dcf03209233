package gymtrack

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/yahyaheni/gymtrack/internal/http/handlers/backup/export"
	"github.com/yahyaheni/gymtrack/internal/http/handlers/backup/restore"
	customercreate "github.com/yahyaheni/gymtrack/internal/http/handlers/customer/create"
	customerlist "github.com/yahyaheni/gymtrack/internal/http/handlers/customer/list"
	"github.com/yahyaheni/gymtrack/internal/http/handlers/customer/pay"
	customerremove "github.com/yahyaheni/gymtrack/internal/http/handlers/customer/remove"
	"github.com/yahyaheni/gymtrack/internal/http/handlers/customer/renew"
	customerupdate "github.com/yahyaheni/gymtrack/internal/http/handlers/customer/update"
	expensecreate "github.com/yahyaheni/gymtrack/internal/http/handlers/expense/create"
	expenselist "github.com/yahyaheni/gymtrack/internal/http/handlers/expense/list"
	expenseremove "github.com/yahyaheni/gymtrack/internal/http/handlers/expense/remove"
	expenseupdate "github.com/yahyaheni/gymtrack/internal/http/handlers/expense/update"
	"github.com/yahyaheni/gymtrack/internal/http/handlers/health"
	"github.com/yahyaheni/gymtrack/internal/http/handlers/stats/report"
	"github.com/yahyaheni/gymtrack/internal/http/handlers/stats/summary"
	tierlist "github.com/yahyaheni/gymtrack/internal/http/handlers/tier/list"
	tierreplace "github.com/yahyaheni/gymtrack/internal/http/handlers/tier/replace"
	"github.com/yahyaheni/gymtrack/internal/http/middlewarectx"
	"github.com/yahyaheni/gymtrack/internal/services/tracker"
	"github.com/yahyaheni/gymtrack/internal/store"
)

// RegisterRoutes wires all application routes.
func RegisterRoutes(r chi.Router, logger *slog.Logger, service *tracker.Service, st *store.Store) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(50), 100)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))

		r.Get("/customers", customerlist.New(logger, st).ServeHTTP)
		r.Post("/customers", customercreate.New(logger, service).ServeHTTP)
		r.Put("/customers/{id}", customerupdate.New(logger, service).ServeHTTP)
		r.Delete("/customers/{id}", customerremove.New(logger, service).ServeHTTP)
		r.Post("/customers/{id}/renew", renew.New(logger, service).ServeHTTP)
		r.Post("/customers/{id}/pay", pay.New(logger, service).ServeHTTP)

		r.Get("/expenses", expenselist.New(logger, st).ServeHTTP)
		r.Post("/expenses", expensecreate.New(logger, service).ServeHTTP)
		r.Put("/expenses/{id}", expenseupdate.New(logger, service).ServeHTTP)
		r.Delete("/expenses/{id}", expenseremove.New(logger, service).ServeHTTP)

		r.Get("/tiers", tierlist.New(logger, st).ServeHTTP)
		r.Put("/tiers", tierreplace.New(logger, service).ServeHTTP)

		r.Get("/backup", export.New(logger, service).ServeHTTP)
		r.Post("/restore", restore.New(logger, service).ServeHTTP)

		r.Get("/stats/summary", summary.New(logger, st).ServeHTTP)
		r.Get("/stats/report", report.New(logger, st).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", health.New(service).ServeHTTP)
}
