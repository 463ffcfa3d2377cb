package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/ahmedNY/TypeScript-Node-Starter/internal/httputil"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/logging"
)

const (
	oauthStateCookieName = "oauthstate"
	oauthStateTTL        = 10 * time.Minute

	facebookProfileURL = "https://graph.facebook.com/me?fields=id,name,email,gender,location"
)

// OAuthHandler runs the provider redirect and callback for OAuth sign-in.
// Only Facebook is configured; the provider switch is where the next one
// plugs in.
type OAuthHandler struct {
	service        *Service
	middleware     *Middleware
	facebookConfig *oauth2.Config
	logger         *logging.Logger
	isProduction   bool
	bearerDuration time.Duration
}

func NewOAuthHandler(
	service *Service,
	middleware *Middleware,
	facebookID, facebookSecret, facebookCallbackURL string,
	logger *logging.Logger,
	isProduction bool,
	bearerDuration time.Duration,
) *OAuthHandler {
	return &OAuthHandler{
		service:    service,
		middleware: middleware,
		facebookConfig: &oauth2.Config{
			ClientID:     facebookID,
			ClientSecret: facebookSecret,
			RedirectURL:  facebookCallbackURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
		logger:         logger,
		isProduction:   isProduction,
		bearerDuration: bearerDuration,
	}
}

// Redirect sends the client to the provider's consent page with a random
// state bound to a short-lived cookie
// @Summary      Start Facebook OAuth
// @Tags         oauth
// @Success      307
// @Router       /auth/facebook [get]
func (h *OAuthHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	state, err := h.setStateCookie(w)
	if err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to generate oauth state", "error", err.Error())
		respondError(w, "failed to start sign-in", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.facebookConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the provider's redirect back: it verifies the state,
// exchanges the code, fetches the profile, and hands the identity to the
// service, which decides between linking, signing in, and creating an
// account.
// @Summary      Facebook OAuth callback
// @Tags         oauth
// @Produce      json
// @Param        code query string true "Authorization code"
// @Param        state query string true "CSRF state"
// @Success      200 {object} TokenResponse
// @Failure      400 {object} ErrorResponse "State mismatch or exchange failure"
// @Failure      409 {object} ErrorResponse "Identity conflicts with an existing account"
// @Router       /auth/facebook/callback [get]
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || r.FormValue("state") != stateCookie.Value {
		logger.Warn("oauth state mismatch")
		respondError(w, "invalid oauth state", httputil.CodeOAuthStateMismatch, http.StatusBadRequest)
		return
	}
	h.clearStateCookie(w)

	token, err := h.facebookConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		logger.Warn("oauth code exchange failed", "error", err.Error())
		respondError(w, "failed to exchange authorization code", httputil.CodeOAuthExchangeFailed, http.StatusBadRequest)
		return
	}

	identity, err := h.fetchFacebookProfile(r.Context(), token)
	if err != nil {
		logger.Error("failed to fetch provider profile", "error", err.Error())
		respondError(w, "failed to fetch profile from provider", httputil.CodeOAuthProfileUnavailable, http.StatusBadGateway)
		return
	}

	// A valid session turns the callback into a link request
	currentUserID := h.middleware.CurrentUserID(r)

	signedIn, bearer, err := h.service.SignInWithProvider(r.Context(), currentUserID, *identity)
	if err != nil {
		switch {
		case errors.Is(err, ErrProviderAlreadyLinked):
			logger.Warn("provider identity already linked elsewhere")
			respondError(w, err.Error(), httputil.CodeProviderAlreadyLinked, http.StatusConflict)
		case errors.Is(err, ErrEmailAlreadyRegistered):
			logger.Warn("provider email already registered locally")
			respondError(w, err.Error(), httputil.CodeEmailAlreadyRegistered, http.StatusConflict)
		default:
			logger.Error("provider sign-in failed", "error", err.Error())
			respondError(w, "failed to sign in with provider", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("provider sign-in succeeded", "user_id", signedIn.ID, "provider", identity.Provider)

	if ShouldUseCookies(r) {
		SetAuthCookie(w, bearer, h.isProduction, h.bearerDuration)
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}
	respondJSON(w, TokenResponse{
		Token:     bearer,
		TokenType: "Bearer",
		ExpiresIn: int64(h.bearerDuration.Seconds()),
	}, http.StatusOK)
}

// fetchFacebookProfile calls the Graph API with the exchanged token
func (h *OAuthHandler) fetchFacebookProfile(ctx context.Context, token *oauth2.Token) (*ProviderIdentity, error) {
	client := h.facebookConfig.Client(ctx, token)

	resp, err := client.Get(facebookProfileURL)
	if err != nil {
		return nil, fmt.Errorf("graph api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("graph api returned %d: %s", resp.StatusCode, body)
	}

	var profile struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Gender   string `json:"gender"`
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("provider profile missing id")
	}

	return &ProviderIdentity{
		Provider:    "facebook",
		ID:          profile.ID,
		AccessToken: token.AccessToken,
		Email:       profile.Email,
		Name:        profile.Name,
		Gender:      profile.Gender,
		Picture:     fmt.Sprintf("https://graph.facebook.com/%s/picture?type=large", url.PathEscape(profile.ID)),
		Location:    profile.Location.Name,
	}, nil
}

// setStateCookie generates a random state and stores it in a short-lived
// cookie for the callback to verify
func (h *OAuthHandler) setStateCookie(w http.ResponseWriter) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}

func (h *OAuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
