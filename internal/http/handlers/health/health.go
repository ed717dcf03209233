// Package health reports liveness and the current persistence mode.
package health

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/yahyaheni/gymtrack/internal/http/response"
)

type Service interface {
	Online() bool
}

type Handler struct {
	service Service
}

func New(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mode := "offline"
	if h.service.Online() {
		mode = "online"
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"mode": mode,
	}))
}
