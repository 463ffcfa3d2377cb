package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	_ "github.com/ahmedNY/TypeScript-Node-Starter/docs" // Swagger docs (generated)
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/auth"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/config"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/database"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/email"
	httpServer "github.com/ahmedNY/TypeScript-Node-Starter/internal/http"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/logging"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/post"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/ratelimit"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/user"
)

// @title           Node Starter API
// @version         1.0
// @description     REST API with email/password and OAuth authentication, account management, and posts.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_backend", cfg.Auth.TokenBackend,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize token service for the selected backend
	tokenService, err := initTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Initialize repositories
	hasher := auth.NewPasswordHasher()
	userRepo := user.NewRepository(db, hasher)
	postRepo := post.NewRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.AppBaseURL,
	)

	// Initialize auth service
	authService := auth.NewService(
		userRepo,
		hasher,
		auth.NewResetTokenIssuer(),
		tokenService,
		emailService,
		logger,
		cfg.Auth.BearerTokenDuration,
	)

	// Initialize HTTP handlers
	isProduction := !cfg.Server.IsDevelopment()
	authHandler := auth.NewHandler(
		authService,
		rateLimiter,
		logger,
		isProduction,
		cfg.Auth.BearerTokenDuration,
	)
	authMiddleware := auth.NewMiddleware(tokenService)
	oauthHandler := auth.NewOAuthHandler(
		authService,
		authMiddleware,
		cfg.OAuth.FacebookID,
		cfg.OAuth.FacebookSecret,
		cfg.OAuth.FacebookCallbackURL,
		logger,
		isProduction,
		cfg.Auth.BearerTokenDuration,
	)
	userHandler := user.NewHandler(userRepo, auth.GetUserIDFromContext, logger)
	postHandler := post.NewHandler(postRepo, auth.GetUserIDFromContext, logger)

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, oauthHandler, authMiddleware, userHandler, postHandler, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// initTokenService builds the bearer credential backend selected by config
func initTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenBackend {
	case config.TokenBackendJWT:
		return auth.NewJWTService(cfg.SecretKey), nil
	default:
		return auth.NewPasetoService(cfg.SecretKey)
	}
}
