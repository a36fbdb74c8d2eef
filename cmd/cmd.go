package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-share-backend/internal/config"
	"recipe-share-backend/internal/handlers"
	"recipe-share-backend/internal/middleware"
	"recipe-share-backend/internal/repository"
	"recipe-share-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)
	handlers.Development = cfg.IsDevelopment()

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Connect to redis for the token denylist
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping redis")
	}
	log.Info().Msg("Redis connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	denylist := repository.NewTokenDenylist(rdb)
	rateLimiter := repository.NewRateLimiter(rdb)

	// Initialize services. A missing signing secret aborts startup.
	tokenService, err := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiryDays, denylist)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token service")
	}
	wsHub := services.NewWSHub()
	userService := services.NewUserService(userRepo, followRepo)
	recipeService := services.NewRecipeService(recipeRepo)
	notificationService := services.NewNotificationService(notificationRepo, wsHub)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokenService, notificationService)
	userHandler := handlers.NewUserHandler(userService)
	recipeHandler := handlers.NewRecipeHandler(recipeService, notificationService, wsHub)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, tokenService, userRepo)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	requireAuth := middleware.RequireAuth(tokenService, userRepo)
	optionalAuth := middleware.OptionalAuth(tokenService, userRepo)
	apiLimit := middleware.RateLimit(rateLimiter, "api", cfg.RateLimit.APIMax, cfg.RateLimit.APIWindow())
	authLimit := middleware.RateLimit(rateLimiter, "auth", cfg.RateLimit.AuthMax, cfg.RateLimit.AuthWindow())

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiLimit)

		r.Route("/auth", func(r chi.Router) {
			// Public routes, throttled harder than the rest of the surface
			r.Group(func(r chi.Router) {
				r.Use(authLimit)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
				r.Put("/profile", authHandler.UpdateProfile)
				r.Put("/change-password", authHandler.ChangePassword)
				r.Delete("/deactivate", authHandler.Deactivate)
				r.Post("/follow/{id}", authHandler.Follow)
				r.Delete("/unfollow/{id}", authHandler.Unfollow)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}/followers", userHandler.Followers)
			r.Get("/{id}/following", userHandler.Following)
		})

		r.Route("/recipes", func(r chi.Router) {
			// Output varies with an optional identity (liked flag, drafts)
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/{id}", recipeHandler.Get)
				r.Get("/{id}/comments", recipeHandler.Comments)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", recipeHandler.Create)
				r.Put("/{id}", recipeHandler.Update)
				r.Delete("/{id}", recipeHandler.Delete)
				r.Post("/{id}/publish", recipeHandler.Publish)
				r.Post("/{id}/like", recipeHandler.ToggleLike)
				r.Post("/{id}/comments", recipeHandler.AddComment)
				r.Delete("/{id}/comments/{commentId}", recipeHandler.RemoveComment)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/notifications", notificationHandler.List)
			r.Put("/notifications/read", notificationHandler.MarkRead)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Close WebSocket connections; clients must re-handshake after restart
	wsHub.CloseAll()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
