package repository

import (
	"context"
	"database/sql"

	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
)

const bookSelect = `SELECT b.id, b.title, b.description, b.genre, b.cover, b.author_id,
		u.username, u.first_name, u.last_name, b.created_at, b.updated_at
	FROM books b JOIN users u ON u.id = b.author_id`

type bookRepo struct {
	db DBTX
}

func NewBookRepository(db DBTX) BookRepository {
	return &bookRepo{db: db}
}

func (r *bookRepo) Create(ctx context.Context, book *model.Book) error {
	query := `INSERT INTO books (id, title, description, author_id, cover, genre)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		book.ID, book.Title, book.Description, book.AuthorID, book.Cover, book.Genre,
	).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return dbError(err)
	}
	return nil
}

func (r *bookRepo) GetByID(ctx context.Context, id string) (*model.Book, error) {
	return scanBook(r.db.QueryRowContext(ctx, bookSelect+` WHERE b.id = $1`, id))
}

func (r *bookRepo) GetByIDAndAuthor(ctx context.Context, id, authorID string) (*model.Book, error) {
	return scanBook(r.db.QueryRowContext(ctx, bookSelect+` WHERE b.id = $1 AND b.author_id = $2`, id, authorID))
}

func (r *bookRepo) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE title = $1)`, title).Scan(&exists); err != nil {
		return false, dbError(err)
	}
	return exists, nil
}

func (r *bookRepo) List(ctx context.Context, offset, limit int) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx, bookSelect+` ORDER BY b.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()
	books := make([]model.Book, 0, limit)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	if err = rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return books, nil
}

func (r *bookRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, dbError(err)
	}
	return n, nil
}

func (r *bookRepo) Update(ctx context.Context, book *model.Book) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE books SET title = $2, description = $3, updated_at = now() WHERE id = $1 RETURNING updated_at`,
		book.ID, book.Title, book.Description,
	).Scan(&book.UpdatedAt)
	if err != nil {
		return dbError(err)
	}
	return nil
}

func (r *bookRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return dbError(err)
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (*model.Book, error) {
	var (
		book  model.Book
		genre sql.NullString
		cover sql.NullString
	)
	err := row.Scan(
		&book.ID, &book.Title, &book.Description, &genre, &cover, &book.AuthorID,
		&book.Author.Username, &book.Author.FirstName, &book.Author.LastName,
		&book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, dbError(err)
	}
	book.Author.ID = book.AuthorID
	book.Genre = stringPtr(genre)
	book.Cover = stringPtr(cover)
	return &book, nil
}
