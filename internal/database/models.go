package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the persisted shape of a user row. The domain model lives in
// internal/user; repositories map between the two explicitly so the in-memory
// shape is never coupled to column layout.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Email        string `bun:"email,notnull,unique"`
	PasswordHash string `bun:"password_hash,nullzero"`

	PasswordResetToken   *string    `bun:"password_reset_token"`
	PasswordResetExpires *time.Time `bun:"password_reset_expires"`

	Facebook      *string `bun:"facebook"`
	FacebookToken *string `bun:"facebook_token"`
	Google        *string `bun:"google"`
	GoogleToken   *string `bun:"google_token"`
	Twitter       *string `bun:"twitter"`
	TwitterToken  *string `bun:"twitter_token"`

	Name     string `bun:"name,nullzero"`
	Gender   string `bun:"gender,nullzero"`
	Location string `bun:"location,nullzero"`
	Website  string `bun:"website,nullzero"`
	Picture  string `bun:"picture,nullzero"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Post is the persisted shape of a post row.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Title    string `bun:"title,notnull"`
	Body     string `bun:"body,nullzero"`
	AuthorID *int64 `bun:"author_id"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
