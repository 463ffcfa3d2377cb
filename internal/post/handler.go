package post

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ahmedNY/TypeScript-Node-Starter/internal/httputil"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/logging"
)

// IdentityFunc extracts the authenticated user id stored in the request
// context by the auth middleware.
type IdentityFunc func(ctx context.Context) (int64, bool)

// Handler serves the post endpoints
type Handler struct {
	repo     *Repository
	identity IdentityFunc
	logger   *logging.Logger
}

func NewHandler(repo *Repository, identity IdentityFunc, logger *logging.Logger) *Handler {
	return &Handler{repo: repo, identity: identity, logger: logger}
}

// CreatePostRequest represents the post creation body
type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// List returns all posts
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Success      200 {array} Post
// @Router       /posts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	posts, err := h.repo.List(r.Context())
	if err != nil {
		logger.Error("failed to list posts", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list posts", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, posts, http.StatusOK)
}

// Get returns a single post by id
// @Summary      Get post
// @Tags         posts
// @Produce      json
// @Param        id path int true "Post id"
// @Success      200 {object} Post
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /posts/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid post id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	p, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "post not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get post", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get post", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, p, http.StatusOK)
}

// Create publishes a new post authored by the authenticated user
// @Summary      Create post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreatePostRequest true "Post fields"
// @Success      201 {object} Post
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /posts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := h.identity(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		httputil.RespondErrorWithCode(w, "title is required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.repo.Create(r.Context(), &Post{
		Title:    strings.TrimSpace(req.Title),
		Body:     req.Body,
		AuthorID: &userID,
	})
	if err != nil {
		logger.Error("failed to create post", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create post", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("post created", "post_id", created.ID, "user_id", userID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}
