// Package backend wires the reference REST and websocket server.
package backend

import (
	"net/http"

	"sync-photo-client/internal/backend/blob"
	"sync-photo-client/internal/backend/handlers"
	"sync-photo-client/internal/backend/hub"
	"sync-photo-client/internal/backend/middleware"
	"sync-photo-client/internal/backend/repository"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Deps holds the collaborators the router needs
type Deps struct {
	Store      repository.Store
	Blobs      blob.Store
	Tokens     *middleware.JWT
	Hub        *hub.Hub
	Limiter    *middleware.RateLimiter
	BcryptCost int
	MaxUpload  int64
}

// NewRouter builds the HTTP handler serving /api/v1 and /ws
func NewRouter(deps Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Store, deps.Tokens, deps.BcryptCost)
	userHandler := handlers.NewUserHandler(deps.Store)
	groupHandler := handlers.NewGroupHandler(deps.Store, deps.Hub)
	photoHandler := handlers.NewPhotoHandler(deps.Store, deps.Blobs, deps.Hub, deps.MaxUpload)
	feedbackHandler := handlers.NewFeedbackHandler(deps.Store)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Tokens)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Middleware)
		}

		// Public routes
		r.Post("/auth/signup", authHandler.SignUp)
		r.Post("/auth/login", authHandler.SignIn)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(deps.Tokens))

			r.Get("/users/me", userHandler.GetMe)
			r.Patch("/users/me", userHandler.UpdateMe)

			r.Post("/groups", groupHandler.CreateGroup)
			r.Get("/groups", groupHandler.ListGroups)
			r.Post("/groups/join", groupHandler.JoinGroup)
			r.Get("/groups/{group_id}", groupHandler.GetGroup)
			r.Get("/groups/{group_id}/photos", photoHandler.ListPhotos)
			r.Post("/groups/{group_id}/photos", photoHandler.UploadPhoto)
			r.Post("/groups/{group_id}/photos/{photo_id}/like", photoHandler.LikePhoto)
			r.Delete("/groups/{group_id}/photos/{photo_id}/like", photoHandler.UnlikePhoto)

			r.Post("/feedback", feedbackHandler.SubmitFeedback)
		})
	})

	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
