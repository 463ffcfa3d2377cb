package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/ahmedNY/TypeScript-Node-Starter/internal/database"
)

var ErrNotFound = errors.New("post not found")

// Repository handles post persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new post. The id is assigned by the database.
func (r *Repository) Create(ctx context.Context, p *Post) (*Post, error) {
	dbPost := mapModelToDBPost(p)
	_, err := r.db.NewInsert().
		Model(dbPost).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return mapDBPostToModel(dbPost), nil
}

// List returns all posts, newest first
func (r *Repository) List(ctx context.Context) ([]*Post, error) {
	var dbPosts []*database.Post
	err := r.db.NewSelect().
		Model(&dbPosts).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]*Post, 0, len(dbPosts))
	for _, dbPost := range dbPosts {
		posts = append(posts, mapDBPostToModel(dbPost))
	}
	return posts, nil
}

// GetByID retrieves a post by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Post, error) {
	dbPost := new(database.Post)
	err := r.db.NewSelect().
		Model(dbPost).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post by id: %w", err)
	}

	return mapDBPostToModel(dbPost), nil
}

func mapDBPostToModel(dbp *database.Post) *Post {
	return &Post{
		ID:        dbp.ID,
		Title:     dbp.Title,
		Body:      dbp.Body,
		AuthorID:  dbp.AuthorID,
		CreatedAt: dbp.CreatedAt,
		UpdatedAt: dbp.UpdatedAt,
	}
}

func mapModelToDBPost(p *Post) *database.Post {
	return &database.Post{
		ID:       p.ID,
		Title:    p.Title,
		Body:     p.Body,
		AuthorID: p.AuthorID,
	}
}
