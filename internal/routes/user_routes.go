package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"accounts/internal/config"
	"accounts/internal/handlers"
	"accounts/internal/middleware"
	"accounts/internal/repository"
)

func RegisterUserRoutes(router chi.Router, db *sql.DB, cfg *config.Config) {
	userRepo := repository.NewUserRepository(db)
	userHandler := handlers.NewUserHandler(userRepo, cfg.PasswordMinLength)

	router.Route("/users", func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.JWTSecret))

		r.Get("/", userHandler.ListUsers)
		r.Get("/me", userHandler.Me)
		r.Put("/me/password", userHandler.ChangePassword)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", userHandler.GetUser)
			r.Delete("/", userHandler.DeleteUser)
		})
	})
}
