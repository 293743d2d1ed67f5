// Package router wires handlers and middleware into the HTTP route tree.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eventa-io/eventa-server/internal/api/http/handler"
	"github.com/eventa-io/eventa-server/internal/api/http/middleware"
)

// New builds the route tree. Read endpoints take an optional bearer
// token so the access guard can distinguish authors from strangers;
// write endpoints and logout require one.
func New(
	auth *handler.Auth,
	event *handler.Event,
	authenticate *middleware.Authenticate,
	logging *middleware.Logging,
) http.Handler {
	r := chi.NewRouter()
	r.Use(logging.Handle)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/{provider}/login", auth.OAuthStart)
			r.Get("/{provider}/callback", auth.OAuthCallback)
			r.Post("/refresh", auth.Refresh)
			r.With(authenticate.Require).Delete("/logout", auth.Logout)
		})

		r.Route("/events", func(r chi.Router) {
			r.With(authenticate.Optional).Get("/", event.List)
			r.With(authenticate.Require).Post("/", event.Create)

			r.Route("/{eventID}", func(r chi.Router) {
				r.With(authenticate.Optional).Get("/", event.Get)
				r.With(authenticate.Require).Put("/", event.Update)
				r.With(authenticate.Require).Delete("/", event.Delete)

				r.With(authenticate.Optional).Get("/poster", event.DownloadPoster)
				r.With(authenticate.Require).Put("/poster", event.UploadPoster)
			})
		})
	})

	return r
}
