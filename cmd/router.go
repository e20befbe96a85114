package cmd

import (
	"net/http"

	"ephemeral-photo-backend/internal/config"
	"ephemeral-photo-backend/internal/handlers"
	"ephemeral-photo-backend/internal/middleware"
	"ephemeral-photo-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// app holds the services behind the router
type app struct {
	userService       *services.UserService
	postService       *services.PostService
	discoverService   *services.DiscoverService
	profileService    *services.ProfileService
	replyService      *services.ReplyService
	suggestionService *services.SuggestionService
	hub               *services.WSHub
}

func newApp(st *stores, media services.MediaStore, changes services.ChangeFeed, completer services.Completer, cfg *config.Config) *app {
	postService := services.NewPostService(st.posts, media, changes, cfg.Media.FallbackURL)
	replyService := services.NewReplyService(st.replies, st.posts, changes)

	return &app{
		userService:       services.NewUserService(st.users, cfg.JWT.Secret),
		postService:       postService,
		discoverService:   services.NewDiscoverService(st.posts, st.users),
		profileService:    services.NewProfileService(st.users),
		replyService:      replyService,
		suggestionService: services.NewSuggestionService(completer),
		hub:               services.NewWSHub(postService, replyService),
	}
}

func newRouter(a *app) http.Handler {
	// Initialize handlers
	userHandler := handlers.NewUserHandler(a.userService)
	postHandler := handlers.NewPostHandler(a.postService)
	discoverHandler := handlers.NewDiscoverHandler(a.discoverService)
	profileHandler := handlers.NewProfileHandler(a.profileService)
	replyHandler := handlers.NewReplyHandler(a.replyService)
	suggestionHandler := handlers.NewSuggestionHandler(a.suggestionService)
	wsHandler := handlers.NewWebSocketHandler(a.hub, a.userService, a.replyService)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(middleware.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(a.userService))

			r.Get("/feed", postHandler.GetFeed)
			r.Post("/posts", postHandler.CreatePost)
			r.Get("/posts/mine", postHandler.GetMyPosts)
			r.Get("/posts/{post_id}", postHandler.GetPost)
			r.Patch("/posts/{post_id}", postHandler.UpdatePost)
			r.Delete("/posts/{post_id}", postHandler.DeletePost)
			r.Post("/posts/{post_id}/replies", replyHandler.SendReply)
			r.Get("/posts/{post_id}/replies", replyHandler.ListReplies)

			r.Get("/discover", discoverHandler.GetByTag)
			r.Get("/discover/tags", discoverHandler.GetTags)
			r.Get("/discover/search", discoverHandler.Search)

			r.Get("/profile", profileHandler.GetProfile)
			r.Put("/profile", profileHandler.UpdateProfile)

			r.Get("/notifications", replyHandler.GetNotifications)
			r.Post("/notifications/{notification_id}/seen", replyHandler.MarkSeen)

			r.Post("/suggestions/{kind}", suggestionHandler.Suggest)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
