package repository

import (
	"context"

	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
)

type commentRepo struct {
	db DBTX
}

func NewCommentRepository(db DBTX) CommentRepository {
	return &commentRepo{db: db}
}

// Create reports ErrNotFound when the book or the author is gone.
func (r *commentRepo) Create(ctx context.Context, comment *model.Comment) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO comments (id, content, book_id, comment_by) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		comment.ID, comment.Content, comment.BookID, comment.CommentBy.ID,
	).Scan(&comment.CreatedAt)
	if err != nil {
		return dbError(err)
	}
	return nil
}

func (r *commentRepo) ListByBook(ctx context.Context, bookID string, offset, limit int) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT c.id, c.content, c.book_id, c.created_at,
			u.id, u.username, u.first_name, u.last_name
		FROM comments c JOIN users u ON u.id = c.comment_by
		WHERE c.book_id = $1 ORDER BY c.created_at DESC LIMIT $2 OFFSET $3`, bookID, limit, offset)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()
	comments := make([]model.Comment, 0, limit)
	for rows.Next() {
		var c model.Comment
		err = rows.Scan(&c.ID, &c.Content, &c.BookID, &c.CreatedAt,
			&c.CommentBy.ID, &c.CommentBy.Username, &c.CommentBy.FirstName, &c.CommentBy.LastName)
		if err != nil {
			return nil, dbError(err)
		}
		comments = append(comments, c)
	}
	if err = rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return comments, nil
}

func (r *commentRepo) CountByBook(ctx context.Context, bookID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE book_id = $1`, bookID).Scan(&n); err != nil {
		return 0, dbError(err)
	}
	return n, nil
}
