package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-hvp/pkg/hvp/api"
	"github.com/tendant/simple-hvp/pkg/hvp/config"
)

// mountRoutes registers the management API behind auth and the package files
// the runtime loads from the browser without it.
func mountRoutes(r chi.Router, components *config.Components, cfg *config.ServerConfig, auth func(http.Handler) http.Handler, logger *slog.Logger) {
	instances := api.NewInstanceHandler(components.Service)
	packages := api.NewPackageHandler(components.Packages, components.Blobs)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.RequestIDMiddleware)
		r.Use(api.LoggingMiddleware(logger))
		r.Use(api.RecoveryMiddleware)
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Use(api.RequestSizeLimitMiddleware(cfg.MaxUploadBytes))
			r.Mount("/hvp", instances.Routes())
			r.Mount("/packages", packages.Routes())
		})
	})

	r.Mount(cfg.FilesPath(), packages.FileRoutes())
}
