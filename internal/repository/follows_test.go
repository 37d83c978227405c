package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFollowRepository(db)
	q := `^INSERT INTO follows \(follower_id, following_id\) VALUES \(\$1, \$2\) ON CONFLICT DO NOTHING$`

	mock.ExpectExec(q).WithArgs("a", "b").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("a", "b").WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.Follow(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Follow(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestUnfollow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFollowRepository(db)
	q := `^DELETE FROM follows WHERE follower_id = \$1 AND following_id = \$2$`

	mock.ExpectExec(q).WithArgs("a", "b").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("a", "b").WillReturnError(errors.New("db down"))

	removed, err := repo.Unfollow(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = repo.Unfollow(context.Background(), "a", "b")
	assert.EqualError(t, err, "db error: db down")
}

func TestCounts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFollowRepository(db)

	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM follows WHERE following_id = \$1\), \(SELECT COUNT\(\*\) FROM follows WHERE follower_id = \$1\)`).
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows([]string{"followers", "following"}).AddRow(3, 1))

	followers, following, err := repo.Counts(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 3, followers)
	assert.Equal(t, 1, following)
}

func TestFollowersAndFollowing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFollowRepository(db)
	cols := []string{"id", "username", "first_name", "last_name"}

	mock.ExpectQuery(`JOIN users u ON u.id = f.follower_id WHERE f.following_id = \$1`).
		WithArgs("b").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("a", "alice", "Alice", "Smith"))
	mock.ExpectQuery(`JOIN users u ON u.id = f.following_id WHERE f.follower_id = \$1`).
		WithArgs("b").
		WillReturnRows(sqlmock.NewRows(cols))

	followers, err := repo.Followers(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, []model.Profile{{ID: "a", Username: "alice", FirstName: "Alice", LastName: "Smith"}}, followers)

	following, err := repo.Following(context.Background(), "b")
	require.NoError(t, err)
	assert.NotNil(t, following)
	assert.Empty(t, following)
	require.NoError(t, mock.ExpectationsWereMet())
}
