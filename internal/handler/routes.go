package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YannKr/certgen/internal/metrics"
)

// Routes builds the router. renderRL limits the routes that render
// certificates; nil disables rate limiting.
func (h *Handler) Routes(renderRL *RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.RequireToken)

		r.Get("/templates", h.APITemplateList)
		r.Post("/templates", h.APITemplateUpload)

		r.Get("/config", h.APIConfigGet)
		r.Put("/config", h.APIConfigPut)

		r.Group(func(r chi.Router) {
			if renderRL != nil {
				r.Use(renderRL.Middleware)
			}
			r.Post("/preview", h.APIPreview)
			r.Post("/certificates", h.APICertificateCreate)
			r.Post("/bulk", h.APIBulk)
		})
		r.Get("/certificates/{file}", h.APICertificateDownload)

		r.Get("/jobs", h.APIJobList)
		r.Get("/jobs/{id}", h.APIJobGet)
		r.Get("/jobs/{id}/archive", h.APIJobArchive)
	})

	return r
}
