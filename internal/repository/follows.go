package repository

import (
	"context"

	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
)

type followRepo struct {
	db DBTX
}

func NewFollowRepository(db DBTX) FollowRepository {
	return &followRepo{db: db}
}

// Follow reports false when the edge already exists.
func (r *followRepo) Follow(ctx context.Context, followerID, followingID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO follows (follower_id, following_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		followerID, followingID)
	if err != nil {
		return false, dbError(err)
	}
	return affected(res)
}

// Unfollow reports false when there was no edge.
func (r *followRepo) Unfollow(ctx context.Context, followerID, followingID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`,
		followerID, followingID)
	if err != nil {
		return false, dbError(err)
	}
	return affected(res)
}

func (r *followRepo) Counts(ctx context.Context, userID string) (followers int, following int, err error) {
	query := `SELECT
		(SELECT COUNT(*) FROM follows WHERE following_id = $1),
		(SELECT COUNT(*) FROM follows WHERE follower_id = $1)`
	if err = r.db.QueryRowContext(ctx, query, userID).Scan(&followers, &following); err != nil {
		return 0, 0, dbError(err)
	}
	return followers, following, nil
}

func (r *followRepo) Followers(ctx context.Context, userID string) ([]model.Profile, error) {
	return r.profiles(ctx, `SELECT u.id, u.username, u.first_name, u.last_name
		FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.following_id = $1 ORDER BY f.created_at`, userID)
}

func (r *followRepo) Following(ctx context.Context, userID string) ([]model.Profile, error) {
	return r.profiles(ctx, `SELECT u.id, u.username, u.first_name, u.last_name
		FROM follows f JOIN users u ON u.id = f.following_id
		WHERE f.follower_id = $1 ORDER BY f.created_at`, userID)
}

func (r *followRepo) profiles(ctx context.Context, query string, userID string) ([]model.Profile, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()
	result := make([]model.Profile, 0)
	for rows.Next() {
		var p model.Profile
		if err = rows.Scan(&p.ID, &p.Username, &p.FirstName, &p.LastName); err != nil {
			return nil, dbError(err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return result, nil
}
