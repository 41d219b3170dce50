package repository

import (
	"context"
	"database/sql"

	"github.com/socio/socio-go/internal/model"
)

// PostRepository handles feed post persistence.
type PostRepository struct {
	db *DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post and sets its generated ID.
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	query := `INSERT INTO posts (user_id, caption, text, created_at) VALUES (?, ?, ?, ?)`

	var caption sql.NullString
	if post.Caption != nil {
		caption = sql.NullString{String: *post.Caption, Valid: true}
	}

	id, err := r.db.insert(ctx, query, post.UserID, caption, post.Text, toTimestamp(post.CreatedAt))
	if err != nil {
		return err
	}

	post.ID = id
	return nil
}

// List returns one page of posts, newest first.
func (r *PostRepository) List(ctx context.Context, limit, offset int) ([]model.Post, error) {
	query := r.db.rebind(`SELECT id, user_id, caption, text, created_at
		FROM posts ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		var (
			p         model.Post
			caption   sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &p.UserID, &caption, &p.Text, &createdAt); err != nil {
			return nil, err
		}
		if caption.Valid {
			p.Caption = &caption.String
		}
		p.CreatedAt = fromTimestamp(createdAt)
		posts = append(posts, p)
	}

	return posts, rows.Err()
}
