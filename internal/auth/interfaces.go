package auth

import (
	"context"
	"time"

	"github.com/ahmedNY/TypeScript-Node-Starter/internal/user"
)

// TokenService defines the interface for bearer credential creation and
// validation. Implementations include PasetoService (PASETO v4.local) and
// JWTService (HS256).
type TokenService interface {
	CreateToken(userID int64, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserStore is the credential store contract the workflow depends on.
// *user.Repository is the production implementation.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByValidResetToken(ctx context.Context, token string, now time.Time) (*user.User, error)
	GetByProviderID(ctx context.Context, provider, providerID string) (*user.User, error)
	Create(ctx context.Context, u *user.User) (*user.User, error)
	Save(ctx context.Context, u *user.User) error
	Delete(ctx context.Context, id int64) error
}

// EmailService defines the interface for transactional mail
type EmailService interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
	SendPasswordChangedEmail(ctx context.Context, toEmail string) error
}
