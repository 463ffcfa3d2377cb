package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ahmedNY/TypeScript-Node-Starter/internal/auth"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/config"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/httputil"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/logging"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/post"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/user"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	oauthHandler *auth.OAuthHandler,
	authMiddleware *auth.Middleware,
	userHandler *user.Handler,
	postHandler *post.Handler,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		log.Println("Swagger UI disabled (production mode)")
	}

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/signup", authHandler.Signup)
		r.Post("/logout", authHandler.Logout)
		r.Post("/forgot", authHandler.ForgotPassword)
		r.Get("/reset/{token}", authHandler.GetReset)
		r.Post("/reset/{token}", authHandler.ResetPassword)

		// OAuth: the callback itself decides between sign-in and linking
		// based on whether the request carries a valid session
		r.Get("/facebook", oauthHandler.Redirect)
		r.Get("/facebook/callback", oauthHandler.Callback)
	})

	// Account routes (require authentication)
	r.Route("/account", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Get("/", userHandler.GetAccount)
		r.Post("/profile", userHandler.UpdateProfile)
		r.Post("/password", authHandler.UpdatePassword)
		r.Post("/delete", authHandler.DeleteAccount)
		r.Get("/unlink/{provider}", authHandler.UnlinkProvider)
	})

	// Post routes: reads are public, writes require authentication
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.List)
		r.Get("/{id}", postHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Post("/", postHandler.Create)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
