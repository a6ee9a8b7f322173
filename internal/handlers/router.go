package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает все маршруты API
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.RequestLogger)
	r.Use(h.Recoverer)
	r.Use(h.CORS)
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
	}

	// 405 отвечаем так же, как на неизвестный маршрут
	r.NotFound(h.NotFoundHandler)
	r.MethodNotAllowed(h.NotFoundHandler)

	r.Get("/", h.RootHandler)
	r.Get("/health", h.HealthHandler)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.RegisterHandler)
			r.Post("/login", h.LoginHandler)
			r.Post("/forgot-password", h.ForgotPasswordHandler)
			r.Post("/reset-password", h.ResetPasswordHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", h.CreateProjectHandler)
				r.Get("/", h.GetProjectsHandler)
				r.Get("/{id}", h.GetProjectHandler)
				r.Put("/{id}", h.UpdateProjectHandler)
				r.Delete("/{id}", h.DeleteProjectHandler)
			})

			r.Route("/requirements", func(r chi.Router) {
				r.Post("/", h.CreateRequirementHandler)
				r.Get("/project/{project_id}", h.GetRequirementsByProjectHandler)
				r.Put("/{id}", h.UpdateRequirementHandler)
				r.Delete("/{id}", h.DeleteRequirementHandler)
			})

			r.Route("/rfqs", func(r chi.Router) {
				r.Post("/", h.CreateRfqHandler)
				r.Get("/", h.GetRfqsHandler)
				r.Get("/closed", h.GetClosedRfqsHandler)
				r.Get("/project/{project_id}", h.GetRfqsByProjectHandler)
				r.Get("/project/{project_id}/closed", h.GetClosedRfqsByProjectHandler)
				r.Get("/{id}", h.GetRfqHandler)
				r.Put("/{id}", h.UpdateRfqHandler)
				r.Delete("/{id}", h.DeleteRfqHandler)
			})

			r.Route("/quotes", func(r chi.Router) {
				r.Post("/", h.CreateQuoteHandler)
				r.Get("/", h.GetQuotesHandler)
				r.Get("/rfq/{rfq_id}", h.GetQuotesByRfqHandler)
				r.Get("/vendor/{vendor_id}", h.GetQuotesByVendorHandler)
				r.Get("/{id}", h.GetQuoteHandler)
				r.Put("/{id}", h.UpdateQuoteHandler)
				r.Delete("/{id}", h.DeleteQuoteHandler)
			})

			r.Route("/vendors", func(r chi.Router) {
				r.Post("/", h.CreateVendorHandler)
				r.Get("/", h.GetVendorsHandler)
				r.Get("/user/{user_id}", h.GetVendorByUserHandler)
				r.Get("/{id}", h.GetVendorHandler)
				r.Put("/{id}", h.UpdateVendorHandler)
				r.Delete("/{id}", h.DeleteVendorHandler)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/{id}", h.GetUserHandler)
				r.Put("/{id}", h.UpdateUserHandler)
			})

			r.Route("/documents", func(r chi.Router) {
				r.Post("/upload", h.UploadDocumentHandler)
				r.Get("/download/{id}", h.DownloadDocumentHandler)
				r.Get("/{entity_type}/{entity_id}", h.GetDocumentsByEntityHandler)
				r.Delete("/{id}", h.DeleteDocumentHandler)
			})
		})
	})

	return r
}
