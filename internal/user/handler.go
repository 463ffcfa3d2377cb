package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"github.com/ahmedNY/TypeScript-Node-Starter/internal/httputil"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/logging"
)

// IdentityFunc extracts the authenticated user id that the auth middleware
// stored in the request context. Injected to keep this package free of an
// import back into the auth package.
type IdentityFunc func(ctx context.Context) (int64, bool)

// Handler serves the authenticated account endpoints
type Handler struct {
	repo     *Repository
	identity IdentityFunc
	logger   *logging.Logger
}

func NewHandler(repo *Repository, identity IdentityFunc, logger *logging.Logger) *Handler {
	return &Handler{repo: repo, identity: identity, logger: logger}
}

// UpdateProfileRequest carries the editable profile fields. Pointer fields
// distinguish "not sent" from "set to empty".
type UpdateProfileRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Gender   *string `json:"gender"`
	Location *string `json:"location"`
	Website  *string `json:"website"`
}

// ProfileResponse is the account as returned to its owner
type ProfileResponse struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name,omitempty"`
	Gender   string   `json:"gender,omitempty"`
	Location string   `json:"location,omitempty"`
	Website  string   `json:"website,omitempty"`
	Picture  string   `json:"picture,omitempty"`
	Linked   []string `json:"linked_providers"`
}

// GetAccount returns the authenticated user's profile
// @Summary      Get account
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ProfileResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /account [get]
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := h.identity(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	u, err := h.repo.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "account not found", httputil.CodeAccountNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load account", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, toProfileResponse(u), http.StatusOK)
}

// UpdateProfile updates the editable profile fields of the authenticated user
// @Summary      Update profile
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Profile fields"
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already in use"
// @Router       /account/profile [post]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := h.identity(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	u, err := h.repo.GetByID(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load account", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load account", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if req.Email != nil {
		normalized := NormalizeEmail(*req.Email)
		if normalized == "" {
			httputil.RespondErrorWithCode(w, "email is required", httputil.CodeEmailRequired, http.StatusBadRequest)
			return
		}
		if _, err := mail.ParseAddress(normalized); err != nil {
			httputil.RespondErrorWithCode(w, "invalid email format", httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
			return
		}
		u.Email = normalized
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Gender != nil {
		u.Gender = *req.Gender
	}
	if req.Location != nil {
		u.Location = *req.Location
	}
	if req.Website != nil {
		u.Website = *req.Website
	}
	if u.Picture == "" {
		u.Picture = u.Gravatar(200)
	}

	if err := h.repo.Save(r.Context(), u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			logger.Warn("profile update rejected: email in use", "user_id", userID)
			httputil.RespondErrorWithCode(w, "the email address is already associated with an account", httputil.CodeEmailAlreadyExists, http.StatusConflict)
			return
		}
		logger.Error("failed to save profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("profile updated", "user_id", userID)
	httputil.RespondJSON(w, toProfileResponse(u), http.StatusOK)
}

func toProfileResponse(u *User) ProfileResponse {
	linked := make([]string, 0, 3)
	for _, p := range []string{"facebook", "google", "twitter"} {
		if u.LinkedTo(p) {
			linked = append(linked, p)
		}
	}
	return ProfileResponse{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Gender:   u.Gender,
		Location: u.Location,
		Website:  u.Website,
		Picture:  u.Picture,
		Linked:   linked,
	}
}
