package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/ahmedNY/TypeScript-Node-Starter/internal/logging"
	"github.com/ahmedNY/TypeScript-Node-Starter/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 4 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrAccountNotFound    = errors.New("account with that email address does not exist")
	ErrResetTokenInvalid  = errors.New("password reset token is invalid or has expired")
	// ErrMailDelivery is returned after the state change has already been
	// committed; callers report the delivery failure without rolling back.
	ErrMailDelivery = errors.New("email delivery failed")

	ErrProviderAlreadyLinked  = errors.New("provider account is already linked to another user")
	ErrEmailAlreadyRegistered = errors.New("an account with this email already exists, link it manually from account settings")
	ErrUnknownProvider        = errors.New("unknown provider")
)

const minPasswordLen = 4

// Service orchestrates the authentication workflows: login, signup,
// forgot/reset password, OAuth link/sign-in/unlink, and the account
// credential operations.
type Service struct {
	store          UserStore
	hasher         *PasswordHasher
	resetTokens    *ResetTokenIssuer
	tokenService   TokenService
	emailService   EmailService
	logger         *logging.Logger
	bearerDuration time.Duration
}

func NewService(
	store UserStore,
	hasher *PasswordHasher,
	resetTokens *ResetTokenIssuer,
	tokenService TokenService,
	emailService EmailService,
	logger *logging.Logger,
	bearerDuration time.Duration,
) *Service {
	return &Service{
		store:          store,
		hasher:         hasher,
		resetTokens:    resetTokens,
		tokenService:   tokenService,
		emailService:   emailService,
		logger:         logger,
		bearerDuration: bearerDuration,
	}
}

// Login authenticates a user and returns a bearer credential. Unknown email
// and wrong password both answer ErrInvalidCredentials so the response never
// reveals whether the account exists.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" {
		return "", ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmailFormat
	}
	if password == "" {
		return "", ErrPasswordRequired
	}

	existing, err := s.store.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(existing.Password, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(existing.ID, existing.Email, s.bearerDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return token, nil
}

// Signup creates a new local account and returns it with a bearer credential.
// The store hashes the password on write.
func (s *Service) Signup(ctx context.Context, email, password, confirmPassword string) (*user.User, string, error) {
	if email == "" {
		return nil, "", ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, "", ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, "", ErrPasswordRequired
	}
	if len(password) < minPasswordLen {
		return nil, "", ErrPasswordTooShort
	}
	if password != confirmPassword {
		return nil, "", ErrPasswordMismatch
	}

	newUser := &user.User{
		Email:    user.NormalizeEmail(email),
		Password: password,
	}
	newUser.Picture = newUser.Gravatar(200)

	created, err := s.store.Create(ctx, newUser)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", user.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokenService.CreateToken(created.ID, created.Email, s.bearerDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return created, token, nil
}

// ForgotPassword issues a reset token, persists it on the account, then
// emails a reset link. An unknown email is reported to the caller, matching
// the observed behavior of the product. A mail failure after the persist is
// surfaced as ErrMailDelivery without undoing the token.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmailFormat
	}

	existing, err := s.store.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, expiresAt, err := s.resetTokens.Issue()
	if err != nil {
		return err
	}

	existing.PasswordResetToken = &token
	existing.PasswordResetExpires = &expiresAt
	if err := s.store.Save(ctx, existing); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailService.SendPasswordResetEmail(ctx, existing.Email, token); err != nil {
		s.logger.Warn("failed to send password reset email", "email", existing.Email, "error", err)
		return ErrMailDelivery
	}

	return nil
}

// ValidateResetToken checks a token against the store's expiry-aware lookup
// without consuming it.
func (s *Service) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.store.GetByValidResetToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token: sets the new password (rehashed by
// the store), clears both reset fields so the token cannot be replayed, and
// signs the user in. The confirmation email is best effort; its failure is
// reported as ErrMailDelivery alongside the already issued credential.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirmPassword string) (string, error) {
	existing, err := s.store.GetByValidResetToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrResetTokenInvalid
		}
		return "", fmt.Errorf("failed to look up reset token: %w", err)
	}

	if password == "" {
		return "", ErrPasswordRequired
	}
	if len(password) < minPasswordLen {
		return "", ErrPasswordTooShort
	}
	if password != confirmPassword {
		return "", ErrPasswordMismatch
	}

	existing.Password = password
	existing.PasswordResetToken = nil
	existing.PasswordResetExpires = nil
	if err := s.store.Save(ctx, existing); err != nil {
		return "", fmt.Errorf("failed to save user: %w", err)
	}

	bearer, err := s.tokenService.CreateToken(existing.ID, existing.Email, s.bearerDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	if err := s.emailService.SendPasswordChangedEmail(ctx, existing.Email); err != nil {
		s.logger.Warn("failed to send password changed email", "email", existing.Email, "error", err)
		return bearer, ErrMailDelivery
	}

	return bearer, nil
}

// UpdatePassword changes the password of an authenticated user and sends the
// change confirmation email best effort.
func (s *Service) UpdatePassword(ctx context.Context, userID int64, password, confirmPassword string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if password != confirmPassword {
		return ErrPasswordMismatch
	}

	existing, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	existing.Password = password
	if err := s.store.Save(ctx, existing); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	if err := s.emailService.SendPasswordChangedEmail(ctx, existing.Email); err != nil {
		s.logger.Warn("failed to send password changed email", "email", existing.Email, "error", err)
		return ErrMailDelivery
	}

	return nil
}

// DeleteAccount removes the account permanently
func (s *Service) DeleteAccount(ctx context.Context, userID int64) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// ProviderIdentity is the profile the OAuth callback learned from the provider
type ProviderIdentity struct {
	Provider    string
	ID          string
	AccessToken string
	Email       string
	Name        string
	Gender      string
	Picture     string
	Location    string
}

// SignInWithProvider implements the three OAuth callback cases:
//
//   - an authenticated session links the provider to the current account,
//     unless the provider identity already belongs to a different account;
//   - a known provider identity signs that account in;
//   - an unknown identity creates a passwordless account from the provider
//     profile, unless a local account already uses the provider's email.
//
// It returns the affected user and a bearer credential for the session.
func (s *Service) SignInWithProvider(ctx context.Context, currentUserID *int64, identity ProviderIdentity) (*user.User, string, error) {
	if !knownProvider(identity.Provider) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownProvider, identity.Provider)
	}

	if currentUserID != nil {
		return s.linkProvider(ctx, *currentUserID, identity)
	}

	existing, err := s.store.GetByProviderID(ctx, identity.Provider, identity.ID)
	if err == nil {
		return s.issueFor(existing)
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to look up provider id: %w", err)
	}

	if identity.Email != "" {
		if _, err := s.store.GetByEmail(ctx, user.NormalizeEmail(identity.Email)); err == nil {
			return nil, "", ErrEmailAlreadyRegistered
		} else if !errors.Is(err, user.ErrNotFound) {
			return nil, "", fmt.Errorf("failed to look up email: %w", err)
		}
	}

	newUser := &user.User{
		Email:    user.NormalizeEmail(identity.Email),
		Name:     identity.Name,
		Gender:   identity.Gender,
		Picture:  identity.Picture,
		Location: identity.Location,
	}
	setProviderFields(newUser, identity)

	created, err := s.store.Create(ctx, newUser)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueFor(created)
}

// linkProvider attaches a provider identity to the authenticated account
func (s *Service) linkProvider(ctx context.Context, userID int64, identity ProviderIdentity) (*user.User, string, error) {
	other, err := s.store.GetByProviderID(ctx, identity.Provider, identity.ID)
	if err == nil && other.ID != userID {
		return nil, "", ErrProviderAlreadyLinked
	}
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to look up provider id: %w", err)
	}

	current, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	setProviderFields(current, identity)
	if current.Name == "" {
		current.Name = identity.Name
	}
	if current.Gender == "" {
		current.Gender = identity.Gender
	}
	if current.Picture == "" {
		current.Picture = identity.Picture
	}

	if err := s.store.Save(ctx, current); err != nil {
		return nil, "", fmt.Errorf("failed to save user: %w", err)
	}

	return s.issueFor(current)
}

// UnlinkProvider clears the provider id and token fields and persists. Each
// provider case persists its own clearing; an unknown provider mutates
// nothing and is a request error.
func (s *Service) UnlinkProvider(ctx context.Context, userID int64, provider string) error {
	existing, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	switch provider {
	case "facebook":
		existing.Facebook = nil
		existing.FacebookToken = nil
	case "google":
		existing.Google = nil
		existing.GoogleToken = nil
	case "twitter":
		existing.Twitter = nil
		existing.TwitterToken = nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	if err := s.store.Save(ctx, existing); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

func (s *Service) issueFor(u *user.User) (*user.User, string, error) {
	token, err := s.tokenService.CreateToken(u.ID, u.Email, s.bearerDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}
	return u, token, nil
}

func knownProvider(provider string) bool {
	switch provider {
	case "facebook", "google", "twitter":
		return true
	}
	return false
}

func setProviderFields(u *user.User, identity ProviderIdentity) {
	id := identity.ID
	tok := identity.AccessToken
	switch identity.Provider {
	case "facebook":
		u.Facebook = &id
		u.FacebookToken = &tok
	case "google":
		u.Google = &id
		u.GoogleToken = &tok
	case "twitter":
		u.Twitter = &id
		u.TwitterToken = &tok
	}
}
