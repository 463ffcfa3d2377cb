package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ahmedNY/TypeScript-Node-Starter/internal/httputil"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/logging"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/ratelimit"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service        *Service
	rateLimiter    *ratelimit.Limiter
	logger         *logging.Logger
	isProduction   bool
	bearerDuration time.Duration
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger, isProduction bool, bearerDuration time.Duration) *Handler {
	return &Handler{
		service:        service,
		rateLimiter:    rateLimiter,
		logger:         logger,
		isProduction:   isProduction,
		bearerDuration: bearerDuration,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// UpdatePasswordRequest represents the authenticated password change
type UpdatePasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// TokenResponse carries an issued bearer credential
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive a bearer credential
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      401 {object} ErrorResponse "Invalid credentials"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrEmailRequired):
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in successfully")
	h.respondWithToken(w, r, token, http.StatusOK)
}

// Signup handles account creation
// @Summary      Create a new account
// @Description  Register with email, password and password confirmation
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Signup fields"
// @Success      201 {object} TokenResponse
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} ErrorResponse "Email already exists"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "signup")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for signup", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "signup"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, token, err := h.service.Signup(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("signup failed: email already exists")
			respondError(w, "account with that email address already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrEmailRequired):
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordMismatch):
			respondError(w, err.Error(), httputil.CodePasswordMismatch, http.StatusBadRequest)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			respondError(w, "failed to create account", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed up successfully", "user_id", newUser.ID)
	h.respondWithToken(w, r, token, http.StatusCreated)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Issue a reset token and email a reset link to the account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      404 {object} ErrorResponse "Account not found"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Router       /auth/forgot [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ip := getClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		// Continue despite error to avoid blocking legitimate requests
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown", "email", req.Email)
		respondError(w, "please wait before requesting another reset", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	err = h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrMailDelivery):
			// The token is already persisted; tell the user delivery failed
			logger.Warn("reset token stored but email delivery failed")
			respondJSON(w, map[string]string{
				"message": "Reset requested, but the email could not be delivered. Please try again later.",
			}, http.StatusOK)
		case errors.Is(err, ErrAccountNotFound):
			logger.Warn("forgot password: account not found")
			respondError(w, err.Error(), httputil.CodeAccountNotFound, http.StatusNotFound)
		case errors.Is(err, ErrEmailRequired):
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		default:
			logger.Error("forgot password failed: internal error", "error", err.Error())
			respondError(w, "failed to process reset request", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset email sent")
	respondJSON(w, map[string]string{
		"message": "An e-mail has been sent with further instructions.",
	}, http.StatusOK)
}

// GetReset validates a reset token before the client shows the reset form
// @Summary      Validate reset token
// @Tags         auth
// @Produce      json
// @Param        token path string true "Reset token"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid or expired token"
// @Router       /auth/reset/{token} [get]
func (h *Handler) GetReset(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := chi.URLParam(r, "token")
	if err := h.service.ValidateResetToken(r.Context(), token); err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			logger.Warn("reset token invalid or expired")
			respondError(w, err.Error(), httputil.CodeInvalidResetToken, http.StatusBadRequest)
			return
		}
		logger.Error("reset token validation failed", "error", err.Error())
		respondError(w, "failed to validate token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]string{"message": "token is valid"}, http.StatusOK)
}

// ResetPassword consumes a reset token and sets a new password
// @Summary      Reset password
// @Description  Set a new password using a valid reset token; signs the user in on success
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token path string true "Reset token"
// @Param        request body ResetPasswordRequest true "New password and confirmation"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} ErrorResponse "Invalid request or token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/reset/{token} [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	token := chi.URLParam(r, "token")
	bearer, err := h.service.ResetPassword(r.Context(), token, req.Password, req.Confirm)
	if err != nil && !errors.Is(err, ErrMailDelivery) {
		switch {
		case errors.Is(err, ErrResetTokenInvalid):
			logger.Warn("password reset failed: invalid or expired token")
			respondError(w, err.Error(), httputil.CodeInvalidResetToken, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordMismatch):
			respondError(w, err.Error(), httputil.CodePasswordMismatch, http.StatusBadRequest)
		default:
			logger.Error("password reset failed: internal error", "error", err.Error())
			respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	if errors.Is(err, ErrMailDelivery) {
		// Password change already committed; only the confirmation mail failed
		logger.Warn("password reset succeeded but confirmation email failed")
	}

	logger.Info("password reset successfully")
	h.respondWithToken(w, r, bearer, http.StatusOK)
}

// UpdatePassword changes the password of the authenticated user
// @Summary      Change password
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdatePasswordRequest true "New password and confirmation"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Validation error"
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /account/password [post]
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.UpdatePassword(r.Context(), userID, req.Password, req.ConfirmPassword)
	if err != nil && !errors.Is(err, ErrMailDelivery) {
		switch {
		case errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordMismatch):
			respondError(w, err.Error(), httputil.CodePasswordMismatch, http.StatusBadRequest)
		default:
			logger.Error("password update failed: internal error", "error", err.Error())
			respondError(w, "failed to update password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password updated", "user_id", userID)
	respondJSON(w, map[string]string{"message": "Password has been changed."}, http.StatusOK)
}

// DeleteAccount permanently deletes the authenticated user's account
// @Summary      Delete account
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]string
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /account/delete [post]
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		logger.Error("account deletion failed", "error", err.Error())
		respondError(w, "failed to delete account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	ClearAuthCookie(w)
	logger.Info("account deleted", "user_id", userID)
	respondJSON(w, map[string]string{"message": "Your account has been deleted."}, http.StatusOK)
}

// UnlinkProvider removes an OAuth provider linkage from the current account
// @Summary      Unlink OAuth provider
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Param        provider path string true "Provider name"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Unknown provider"
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Router       /account/unlink/{provider} [get]
func (h *Handler) UnlinkProvider(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	provider := chi.URLParam(r, "provider")
	if err := h.service.UnlinkProvider(r.Context(), userID, provider); err != nil {
		if errors.Is(err, ErrUnknownProvider) {
			respondError(w, "unknown provider "+provider, httputil.CodeUnknownProvider, http.StatusBadRequest)
			return
		}
		logger.Error("provider unlink failed", "provider", provider, "error", err.Error())
		respondError(w, "failed to unlink provider", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("provider unlinked", "provider", provider, "user_id", userID)
	respondJSON(w, map[string]string{"message": provider + " account has been unlinked."}, http.StatusOK)
}

// Logout clears the session cookie. Bearer credentials are stateless, so
// API clients simply discard theirs.
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearAuthCookie(w)
	respondJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// respondWithToken returns the credential in the body for API clients, or in
// the session cookie for browsers.
func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, token string, statusCode int) {
	if ShouldUseCookies(r) {
		SetAuthCookie(w, token, h.isProduction, h.bearerDuration)
		respondJSON(w, map[string]string{"message": "authenticated"}, statusCode)
		return
	}
	respondJSON(w, TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.bearerDuration.Seconds()),
	}, statusCode)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
