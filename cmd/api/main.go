package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/socio/socio-go/internal/config"
	"github.com/socio/socio-go/internal/crypto"
	"github.com/socio/socio-go/internal/handler"
	"github.com/socio/socio-go/internal/middleware"
	"github.com/socio/socio-go/internal/repository"
	"github.com/socio/socio-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg))

	if cfg.IsProduction() && cfg.DatabaseDriver == "sqlite" {
		slog.Warn("running production on the embedded sqlite store; writes are serialized")
	}

	ctx := context.Background()

	db, err := repository.NewDB(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	tokens := crypto.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)

	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	postRepo := repository.NewPostRepository(db)

	authService := service.NewAuthService(userRepo, newHasher(cfg), tokens)
	messageService := service.NewMessageService(messageRepo, userRepo, cfg.MaxMessageLength)
	conversationService := service.NewConversationService(messageRepo)
	feedService := service.NewFeedService(postRepo)

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	defer authLimiter.Stop()

	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService),
		Messages:       handler.NewMessageHandler(messageService, conversationService),
		Feed:           handler.NewFeedHandler(feedService),
		Tokens:         tokens,
		AuthLimiter:    authLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func newHasher(cfg config.Config) crypto.Hasher {
	if cfg.PasswordHash == "argon2id" {
		params := crypto.DefaultHashParams()
		params.Memory = cfg.Argon2MemoryKB
		params.Iterations = cfg.Argon2Iterations
		params.Parallelism = cfg.Argon2Parallelism
		return crypto.NewArgon2Hasher(params)
	}
	return crypto.NewBcryptHasher(cfg.BcryptCost)
}
