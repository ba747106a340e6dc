package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lumengallery/auth-service/internal/application"
)

// Handler is the HTTP adapter entrypoint for auth use-cases.
// Keeping only application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers HTTP routes and the middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handler.register)
		r.Post("/verify-registration", handler.verifyRegistration)
		r.Post("/login", handler.login)
		r.Post("/forgot-password", handler.forgotPassword)
		r.Post("/reset-password", handler.resetPassword)
		r.Post("/bootstrap-admin", handler.bootstrapAdmin)
		r.Get("/google", handler.googleAuthorize)
		r.Get("/google/callback", handler.googleCallback)
	})

	r.Route("/otp", func(r chi.Router) {
		r.Post("/send-otp", handler.sendOTP)
		r.Post("/verify-otp", handler.verifyOTP)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(handler.protect)
		r.Use(handler.requireAdmin)
		r.Get("/users", handler.listUsers)
		r.Put("/users/{id}", handler.updateUser)
		r.Patch("/users/{id}/toggle-active", handler.toggleActive)
		r.Patch("/users/{id}/toggle-verify", handler.toggleVerify)
		r.Get("/users/{id}/login-history", handler.loginHistory)
	})

	return r
}
