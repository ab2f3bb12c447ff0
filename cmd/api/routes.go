package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PUT is deliberately not routed anywhere: nested resources accept
// GET/POST/PATCH/DELETE only.
func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(app.RateLimiter)
	router.Use(app.Authenticate)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.healthcheck)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.signup)
			r.Post("/token", app.getToken)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", app.listCategories)
			r.Post("/", app.createCategory)
			r.Delete("/{slug}", app.deleteCategory)
		})
		r.Route("/genres", func(r chi.Router) {
			r.Get("/", app.listGenres)
			r.Post("/", app.createGenre)
			r.Delete("/{slug}", app.deleteGenre)
		})
		r.Route("/titles", func(r chi.Router) {
			r.Get("/", app.listTitles)
			r.Post("/", app.createTitle)
			r.Route("/{title_id}", func(r chi.Router) {
				r.Get("/", app.getTitle)
				r.Patch("/", app.updateTitle)
				r.Delete("/", app.deleteTitle)
				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", app.listReviews)
					r.Post("/", app.createReview)
					r.Route("/{review_id}", func(r chi.Router) {
						r.Get("/", app.getReview)
						r.Patch("/", app.updateReview)
						r.Delete("/", app.deleteReview)
						r.Route("/comments", func(r chi.Router) {
							r.Get("/", app.listComments)
							r.Post("/", app.createComment)
							r.Get("/{comment_id}", app.getComment)
							r.Patch("/{comment_id}", app.updateComment)
							r.Delete("/{comment_id}", app.deleteComment)
						})
					})
				})
			})
		})
		r.Route("/users", func(r chi.Router) {
			r.With(app.requireAuthenticatedUser).Get("/me", app.getProfile)
			r.With(app.requireAuthenticatedUser).Patch("/me", app.updateProfile)
			r.Get("/", app.listUsers)
			r.Post("/", app.createUser)
			r.Get("/{username}", app.getUser)
			r.Patch("/{username}", app.updateUser)
			r.Delete("/{username}", app.deleteUser)
		})
	})
	return router
}
