package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	resetTokenBytes = 16
	resetTokenTTL   = 1 * time.Hour
)

// ResetTokenIssuer mints opaque single-use password reset tokens. Single use
// is enforced by the workflow clearing both reset fields after a successful
// reset; expiry is enforced by the store's lookup.
type ResetTokenIssuer struct {
	now func() time.Time
}

func NewResetTokenIssuer() *ResetTokenIssuer {
	return &ResetTokenIssuer{now: time.Now}
}

// Issue returns a hex-encoded random token and its absolute expiry,
// one hour from issuance.
func (i *ResetTokenIssuer) Issue() (string, time.Time, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), i.now().Add(resetTokenTTL), nil
}
