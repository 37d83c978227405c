package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepository(db)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`^INSERT INTO comments \(id, content, book_id, comment_by\) VALUES \(\$1, \$2, \$3, \$4\) RETURNING created_at$`).
		WithArgs("c1", "great read", "b1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	comment := &model.Comment{ID: "c1", Content: "great read", BookID: "b1", CommentBy: model.Profile{ID: "u1"}}
	require.NoError(t, repo.Create(context.Background(), comment))
	assert.Equal(t, now, comment.CreatedAt)
}

func TestCommentCreate_BookGone(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepository(db)

	mock.ExpectQuery(`^INSERT INTO comments`).
		WillReturnError(&pq.Error{Code: codeForeignKeyViolation, Constraint: "comments_book_id_fkey"})

	err := repo.Create(context.Background(), &model.Comment{ID: "c1", BookID: "gone"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentListAndCount(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepository(db)
	now := time.Now()
	cols := []string{"id", "content", "book_id", "created_at", "id", "username", "first_name", "last_name"}

	mock.ExpectQuery(`WHERE c.book_id = \$1 ORDER BY c.created_at DESC LIMIT \$2 OFFSET \$3$`).
		WithArgs("b1", 5, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c2", "second", "b1", now, "u2", "bob", "Bob", "Jones").
			AddRow("c1", "first", "b1", now.Add(-time.Minute), "u1", "alice", "Alice", "Smith"))
	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM comments WHERE book_id = \$1$`).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	comments, err := repo.ListByBook(context.Background(), "b1", 0, 5)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)
	assert.Equal(t, model.Profile{ID: "u1", Username: "alice", FirstName: "Alice", LastName: "Smith"}, comments[1].CommentBy)

	total, err := repo.CountByBook(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
