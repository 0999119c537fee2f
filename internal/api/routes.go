package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Routes(m *Middleware, corsOrigins []string, rateLimitRPM int) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(m.RequestID)
	r.Use(m.RequestLogger)
	r.Use(m.Recoverer)
	r.Use(m.SecurityHeaders)
	r.Use(m.Compress)
	r.Use(middleware.Heartbeat("/ping"))

	// CORS and rate limiting - configured from main
	r.Use(m.CORS(corsOrigins))
	r.Use(m.RateLimit(rateLimitRPM))

	// Health endpoints
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	// v1 API routes
	r.Route("/v1", func(r chi.Router) {
		// Streaming endpoints stay outside the timeout handler: its
		// wrapped writer can neither flush nor hijack.
		r.Group(func(r chi.Router) {
			r.Use(m.RequireAuth)
			r.Get("/auth/demo/stream", h.DemoStream)
			r.Get("/ws", h.HandleWebSocket)
		})

		r.Group(func(r chi.Router) {
			r.Use(m.Timeout(15 * time.Second))

			// Authentication
			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", h.Register)
				r.Post("/login", h.Login)
				r.Post("/demo", h.StartDemo)

				r.Group(func(r chi.Router) {
					r.Use(m.RequireAuth)
					r.Post("/logout", h.Logout)
					r.Get("/me", h.Me)
					r.Get("/demo/countdown", h.DemoCountdown)
				})
			})

			// Everything below requires a live session
			r.Group(func(r chi.Router) {
				r.Use(m.RequireAuth)

				// Feed & posts
				r.Route("/posts", func(r chi.Router) {
					r.Get("/", h.GetFeed)
					r.Post("/", h.CreatePost)
					r.Get("/{id}", h.GetPost)
					r.Put("/{id}", h.UpdatePost)
					r.Delete("/{id}", h.DeletePost)
					r.Get("/{id}/comments", h.GetPostComments)
					r.Post("/{id}/comments", h.CreateComment)
					r.Post("/{id}/like", h.ToggleLike)
				})

				// Direct messages
				r.Route("/messages", func(r chi.Router) {
					r.Get("/", h.ListConversations)
					r.Get("/{partnerId}", h.GetConversation)
					r.Post("/{receiverId}", h.SendMessage)
				})

				// Resource library
				r.Route("/resources", func(r chi.Router) {
					r.Get("/", h.ListResources)
					r.Post("/", h.CreateResource)
					r.Delete("/{id}", h.DeleteResource)
				})

				// Profiles
				r.Put("/users/me", h.UpdateMyProfile)
				r.Route("/users/{id}", func(r chi.Router) {
					r.Get("/", h.GetUserProfile)
					r.Get("/posts", h.GetUserPosts)
				})
			})
		})
	})

	return r
}
