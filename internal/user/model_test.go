package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestGravatar(t *testing.T) {
	u := &User{Email: "alice@example.com"}

	url := u.Gravatar(200)
	assert.Contains(t, url, "https://gravatar.com/avatar/")
	assert.Contains(t, url, "s=200")
	assert.Contains(t, url, "d=retro")

	// Same email always maps to the same avatar
	assert.Equal(t, url, (&User{Email: "alice@example.com"}).Gravatar(200))
}

func TestGravatarWithoutEmail(t *testing.T) {
	u := &User{}
	assert.Equal(t, "https://gravatar.com/avatar/?s=200&d=retro", u.Gravatar(200))
}

func TestGravatarDefaultSize(t *testing.T) {
	u := &User{Email: "alice@example.com"}
	assert.Contains(t, u.Gravatar(0), "s=200")
}

func TestLinkedTo(t *testing.T) {
	fb := "fb-123"
	u := &User{Facebook: &fb}

	assert.True(t, u.LinkedTo("facebook"))
	assert.False(t, u.LinkedTo("google"))
	assert.False(t, u.LinkedTo("twitter"))
	assert.False(t, u.LinkedTo("myspace"))
}
