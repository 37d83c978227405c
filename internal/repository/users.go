package repository

import (
	"context"
	"database/sql"

	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, refresh_token, created_at, updated_at`

type userRepo struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, nullString(user.PasswordHash), user.FirstName, user.LastName,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return dbError(err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return false, dbError(err)
	}
	return exists, nil
}

func (r *userRepo) SetRefreshToken(ctx context.Context, id, encrypted string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`, id, encrypted)
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

func (r *userRepo) SwapRefreshToken(ctx context.Context, id, old, encrypted string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $3, updated_at = now() WHERE id = $1 AND refresh_token = $2`,
		id, old, encrypted)
	if err != nil {
		return false, dbError(err)
	}
	return affected(res)
}

func (r *userRepo) ClearRefreshToken(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = NULL, updated_at = now() WHERE id = $1 AND refresh_token IS NOT NULL`, id)
	if err != nil {
		return false, dbError(err)
	}
	return affected(res)
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
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

func (r *userRepo) getOne(ctx context.Context, query string, arg string) (*model.User, error) {
	var (
		user         model.User
		passwordHash sql.NullString
		refreshToken sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &passwordHash,
		&user.FirstName, &user.LastName, &refreshToken,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, dbError(err)
	}
	user.PasswordHash = passwordHash.String
	user.RefreshToken = stringPtr(refreshToken)
	return &user, nil
}
