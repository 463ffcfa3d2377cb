package post

import "time"

// Post is a piece of content published by a user. AuthorID is nil when the
// author's account has been deleted.
type Post struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	AuthorID *int64 `json:"author_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
