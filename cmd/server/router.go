package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/taskman/internal/api"
	apiMiddleware "github.com/phrazzld/taskman/internal/api/middleware"
	"github.com/phrazzld/taskman/internal/domain"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{apiMiddleware.IdleExpiresHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(limitBody(app.config.Server.MaxBodyBytes))

	authHandler := api.NewAuthHandler(app.authService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	adminHandler := api.NewAdminHandler(app.userService, app.taskService)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.authService)

	r.Get("/health", api.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", api.Welcome(version))

		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.ListTasks)
				r.Post("/", taskHandler.CreateTask)
				r.Get("/due-soon", taskHandler.DueSoon)
				r.Get("/{id}", taskHandler.GetTask)
				r.Put("/{id}", taskHandler.UpdateTask)
				r.Delete("/{id}", taskHandler.DeleteTask)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(apiMiddleware.RequireRole(domain.RoleAdmin))
				r.Get("/users", adminHandler.ListUsers)
				r.Get("/tasks", adminHandler.ListTasks)
				r.Get("/tasks/{id}", adminHandler.GetTask)
			})
		})
	})

	r.NotFound(api.NotFound)
	r.MethodNotAllowed(api.MethodNotAllowed)

	return r
}

// limitBody caps request bodies at n bytes; oversized bodies fail JSON decoding.
func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
