package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/socio/socio-go/internal/middleware"
)

// RouterConfig collects everything NewRouter mounts.
type RouterConfig struct {
	Auth     *AuthHandler
	Messages *MessageHandler
	Feed     *FeedHandler

	Tokens         middleware.TokenVerifier
	AuthLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter builds the HTTP API. Registration and login sit behind the rate limiter;
// messaging, lookup and posting require a bearer token.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		if cfg.AuthLimiter != nil {
			r.Use(cfg.AuthLimiter.Middleware)
		}
		r.Post("/api/v1/auth/register", cfg.Auth.HandleRegister)
		r.Post("/api/v1/auth/login", cfg.Auth.HandleLogin)
	})

	r.Get("/api/v1/feeds", cfg.Feed.HandleList)

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.Tokens))
		r.Get("/api/v1/auth/me", cfg.Auth.HandleMe)
		r.Get("/api/v1/users/lookup", cfg.Auth.HandleLookup)

		r.Post("/api/v1/messages", cfg.Messages.HandleSend)
		r.Get("/api/v1/messages/chat", cfg.Messages.HandleChat)
		r.Get("/api/v1/messages/conversations", cfg.Messages.HandleConversations)

		r.Post("/api/v1/feeds", cfg.Feed.HandleCreate)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		MaxAge:           300,
		AllowCredentials: true,
	})

	return c.Handler(r)
}
