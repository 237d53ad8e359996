package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.RealIP)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(h.withMetrics)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Compress(5, "application/json"))
		if h.opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(h.opts.RequestTimeout))
		}

		r.Get("/version", h.getServerVersion)

		// routes without authorization
		r.Route("/auth", func(r chi.Router) {
			r.Use(h.withRateLimit)

			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh-token", h.refreshToken)
			r.Post("/forgot-password", h.forgotPassword)
			r.Get("/reset-password/{token}", h.validateResetToken)
			r.Post("/reset-password/{token}", h.resetPassword)
		})

		// routes with authorization
		r.Group(func(r chi.Router) {
			r.Use(h.auth)

			r.Put("/user/password", h.changePassword)
		})
	})

	if h.opts.MetricsHandler != nil {
		router.Method("GET", "/metrics", h.opts.MetricsHandler)
	}

	router.NotFound(routeNotFound)
	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
