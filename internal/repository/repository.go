package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	SetRefreshToken(ctx context.Context, id, encrypted string) error
	// SwapRefreshToken replaces the stored token only if it still equals old.
	SwapRefreshToken(ctx context.Context, id, old, encrypted string) (bool, error)
	// ClearRefreshToken reports false when there was nothing to clear.
	ClearRefreshToken(ctx context.Context, id string) (bool, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

/* One row in follows is one edge: it is at the same time an entry of the
 * follower's "following" list and of the target's "followers" list. */
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID string) (bool, error)
	Unfollow(ctx context.Context, followerID, followingID string) (bool, error)
	Counts(ctx context.Context, userID string) (followers int, following int, err error)
	Followers(ctx context.Context, userID string) ([]model.Profile, error)
	Following(ctx context.Context, userID string) ([]model.Profile, error)
}

type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id string) (*model.Book, error)
	GetByIDAndAuthor(ctx context.Context, id, authorID string) (*model.Book, error)
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]model.Book, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id string) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByBook(ctx context.Context, bookID string, offset, limit int) ([]model.Comment, error)
	CountByBook(ctx context.Context, bookID string) (int, error)
}

// Store hands out repositories bound either to the pool or to a transaction.
type Store interface {
	Users() UserRepository
	Follows() FollowRepository
	Books() BookRepository
	Comments() CommentRepository
	// WithTx runs fn inside one transaction. Inside fn only tx must be used.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
}
