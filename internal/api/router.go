// Package api exposes the locator over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the locate handlers.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)
	r.Route("/locate", func(r chi.Router) {
		r.Get("/", h.LocateHandler)
		r.Post("/image", h.LocateImageHandler)
	})

	return r
}
