package service

import (
	"context"
	"errors"

	"github.com/TooLazyToCreate/bookshelf-service/internal/apperr"
	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/TooLazyToCreate/bookshelf-service/internal/repository"
	"go.uber.org/zap"
)

const (
	msgFollowSelf       = "You can't follow yourself"
	msgUnfollowSelf     = "You can't unfollow yourself"
	msgFollowTargetGone = "User to follow not found"
	msgUserNotFound     = "User not found"
	msgAlreadyFollowing = "Already following this user"
	msgNotFollowing     = "You are not following this user"
)

// UsersService maintains the follow graph.
type UsersService struct {
	logger *zap.Logger
	store  repository.Store
}

func NewUsersService(logger *zap.Logger, store repository.Store) *UsersService {
	return &UsersService{logger: logger, store: store}
}

func (service *UsersService) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return apperr.NewBadRequest(msgFollowSelf)
	}
	err := service.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, targetID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NewNotFound(msgFollowTargetGone)
			}
			return err
		}
		created, err := tx.Follows().Follow(ctx, followerID, targetID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NewNotFound(msgUserNotFound)
			}
			return err
		}
		if !created {
			return apperr.NewBadRequest(msgAlreadyFollowing)
		}
		return nil
	})
	if err != nil {
		return internalError(service.logger, "Follow failed", err,
			zap.String("user_id", followerID), zap.String("target_id", targetID))
	}
	return nil
}

func (service *UsersService) Unfollow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return apperr.NewBadRequest(msgUnfollowSelf)
	}
	err := service.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, targetID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NewNotFound(msgUserNotFound)
			}
			return err
		}
		removed, err := tx.Follows().Unfollow(ctx, followerID, targetID)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.NewBadRequest(msgNotFollowing)
		}
		return nil
	})
	if err != nil {
		return internalError(service.logger, "Unfollow failed", err,
			zap.String("user_id", followerID), zap.String("target_id", targetID))
	}
	return nil
}

func (service *UsersService) Followers(ctx context.Context, userID string) ([]model.Profile, error) {
	return service.list(ctx, userID, "Followers fetch failed", service.store.Follows().Followers)
}

func (service *UsersService) Following(ctx context.Context, userID string) ([]model.Profile, error) {
	return service.list(ctx, userID, "Following fetch failed", service.store.Follows().Following)
}

func (service *UsersService) list(ctx context.Context, userID, failMessage string,
	fetch func(ctx context.Context, userID string) ([]model.Profile, error)) ([]model.Profile, error) {
	if _, err := service.store.Users().GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NewNotFound(msgUserNotFound)
		}
		return nil, internalError(service.logger, failMessage, err, zap.String("user_id", userID))
	}
	profiles, err := fetch(ctx, userID)
	if err != nil {
		return nil, internalError(service.logger, failMessage, err, zap.String("user_id", userID))
	}
	return profiles, nil
}
