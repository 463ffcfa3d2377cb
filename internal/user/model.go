package user

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// User is the sole persisted entity of the authentication core.
// Password holds the encoded argon2id hash after any store write; the
// repository refuses to persist plaintext (see Repository).
type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"`

	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	Facebook      *string `json:"-"`
	FacebookToken *string `json:"-"`
	Google        *string `json:"-"`
	GoogleToken   *string `json:"-"`
	Twitter       *string `json:"-"`
	TwitterToken  *string `json:"-"`

	Name     string `json:"name,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
	Picture  string `json:"picture,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeEmail lowercases and trims an email address. Every store lookup
// expects the caller to have normalized first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Gravatar returns the user's gravatar URL for the given size.
func (u *User) Gravatar(size int) string {
	if size <= 0 {
		size = 200
	}
	if u.Email == "" {
		return fmt.Sprintf("https://gravatar.com/avatar/?s=%d&d=retro", size)
	}
	sum := md5.Sum([]byte(u.Email))
	return fmt.Sprintf("https://gravatar.com/avatar/%s?s=%d&d=retro", hex.EncodeToString(sum[:]), size)
}

// LinkedTo reports whether the account is linked to the given provider.
func (u *User) LinkedTo(provider string) bool {
	switch provider {
	case "facebook":
		return u.Facebook != nil
	case "google":
		return u.Google != nil
	case "twitter":
		return u.Twitter != nil
	}
	return false
}
