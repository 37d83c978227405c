package service

import (
	"context"
	"strings"

	"github.com/TooLazyToCreate/bookshelf-service/internal/apperr"
	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/TooLazyToCreate/bookshelf-service/internal/repository"
	"github.com/TooLazyToCreate/bookshelf-service/internal/token"
	"go.uber.org/zap"
)

type TokenIssuer interface {
	Issue(identity model.Identity) (token.Pair, error)
}

// RefreshCipher keeps the stored refresh token unreadable at rest.
type RefreshCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type PageQuery struct {
	Page  int
	Limit int
}

/* normalize fills in defaults for zero values and clamps the limit,
 * so cache keys never depend on how the client spelled the defaults. */
func (q PageQuery) normalize() PageQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func (q PageQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

// normalizeText lowercases and trims free text before it is stored.
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

/* internalError hides an unexpected failure behind a generic Internal error
 * and logs the real one. Domain errors pass through untouched. */
func internalError(logger *zap.Logger, message string, err error, fields ...zap.Field) error {
	if apperr.KindOf(err) != apperr.Internal {
		logger.Debug(message, append(fields, zap.Error(err))...)
		return err
	}
	logger.Error(message, append(fields, zap.Error(err))...)
	return apperr.Wrap(apperr.Internal, message, err)
}

// identityOf builds the token payload of user with its current follow counts.
func identityOf(ctx context.Context, follows repository.FollowRepository, user *model.User) (model.Identity, error) {
	followers, following, err := follows.Counts(ctx, user.ID)
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{
		UserID:         user.ID,
		Verified:       true,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		FollowersCount: followers,
		FollowingCount: following,
	}, nil
}
