package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/ahmedNY/TypeScript-Node-Starter/internal/database"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrUnknownProvider = errors.New("unknown oauth provider")
)

// PasswordHasher is the slice of the hashing component the store needs to
// uphold its hash-on-write invariant.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	IsHash(encoded string) bool
}

// Repository handles user persistence. Create and Save hash the password
// field whenever it is not already an encoded hash, so a plaintext password
// can never reach the database on either the insert or the update path.
type Repository struct {
	db     *bun.DB
	hasher PasswordHasher
}

func NewRepository(db *bun.DB, hasher PasswordHasher) *Repository {
	return &Repository{db: db, hasher: hasher}
}

// Create inserts a new user. The id is assigned by the database.
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	if err := r.ensureHashed(u); err != nil {
		return nil, err
	}

	dbUser := mapModelToDBUser(u)
	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// Save persists all mutable fields of an existing user.
func (r *Repository) Save(ctx context.Context, u *User) error {
	if err := r.ensureHashed(u); err != nil {
		return err
	}

	dbUser := mapModelToDBUser(u)
	dbUser.UpdatedAt = time.Now()

	result, err := r.db.NewUpdate().
		Model(dbUser).
		WherePK().
		ExcludeColumn("created_at").
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	u.Password = dbUser.PasswordHash
	u.UpdatedAt = dbUser.UpdatedAt
	return nil
}

// GetByEmail retrieves a user by (already normalized) email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByValidResetToken retrieves the user holding the given password reset
// token, but only while the token's expiry is strictly in the future.
func (r *Repository) GetByValidResetToken(ctx context.Context, token string, now time.Time) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("password_reset_token = ?", token).
		Where("password_reset_expires > ?", now).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByProviderID retrieves the user linked to the given provider identity.
func (r *Repository) GetByProviderID(ctx context.Context, provider, providerID string) (*User, error) {
	var column string
	switch provider {
	case "facebook":
		column = "facebook"
	case "google":
		column = "google"
	case "twitter":
		column = "twitter"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("? = ?", bun.Ident(column), providerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s id: %w", provider, err)
	}

	return mapDBUserToModel(dbUser), nil
}

// Delete removes a user permanently. There is no soft delete.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.NewDelete().
		Model((*database.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ensureHashed rewrites the password field through the hasher unless it is
// already an encoded hash. Empty passwords (OAuth-only accounts) pass through.
func (r *Repository) ensureHashed(u *User) error {
	if u.Password == "" || r.hasher.IsHash(u.Password) {
		return nil
	}
	hashed, err := r.hasher.Hash(u.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.Password = hashed
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// mapDBUserToModel converts the persisted row to the domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                   dbu.ID,
		Email:                dbu.Email,
		Password:             dbu.PasswordHash,
		PasswordResetToken:   dbu.PasswordResetToken,
		PasswordResetExpires: dbu.PasswordResetExpires,
		Facebook:             dbu.Facebook,
		FacebookToken:        dbu.FacebookToken,
		Google:               dbu.Google,
		GoogleToken:          dbu.GoogleToken,
		Twitter:              dbu.Twitter,
		TwitterToken:         dbu.TwitterToken,
		Name:                 dbu.Name,
		Gender:               dbu.Gender,
		Location:             dbu.Location,
		Website:              dbu.Website,
		Picture:              dbu.Picture,
		CreatedAt:            dbu.CreatedAt,
		UpdatedAt:            dbu.UpdatedAt,
	}
}

// mapModelToDBUser converts the domain model to the persisted row
func mapModelToDBUser(u *User) *database.User {
	return &database.User{
		ID:                   u.ID,
		Email:                u.Email,
		PasswordHash:         u.Password,
		PasswordResetToken:   u.PasswordResetToken,
		PasswordResetExpires: u.PasswordResetExpires,
		Facebook:             u.Facebook,
		FacebookToken:        u.FacebookToken,
		Google:               u.Google,
		GoogleToken:          u.GoogleToken,
		Twitter:              u.Twitter,
		TwitterToken:         u.TwitterToken,
		Name:                 u.Name,
		Gender:               u.Gender,
		Location:             u.Location,
		Website:              u.Website,
		Picture:              u.Picture,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}
