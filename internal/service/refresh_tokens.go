package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/TooLazyToCreate/bookshelf-service/internal/apperr"
	"github.com/TooLazyToCreate/bookshelf-service/internal/repository"
	"github.com/TooLazyToCreate/bookshelf-service/internal/token"
	"go.uber.org/zap"
)

/* RefreshTokens exchanges the presented refresh token for a new pair.
 * The signature was already checked by the guard; here the token must also
 * be the one currently registered for the user. */
func (service *AuthService) RefreshTokens(ctx context.Context, userID, presented string) (token.Pair, error) {
	user, err := service.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return token.Pair{}, apperr.NewForbidden(msgAccessDenied)
		}
		return token.Pair{}, internalError(service.logger, "Refresh failed", err, zap.String("user_id", userID))
	}
	if user.RefreshToken == nil {
		service.logger.Debug("Refresh without active session", zap.String("user_id", userID))
		return token.Pair{}, apperr.NewForbidden(msgAccessDenied)
	}

	stored, err := service.cipher.Decrypt(*user.RefreshToken)
	if err != nil {
		service.logger.Warn("Stored refresh token could not be decrypted", zap.Error(err),
			zap.String("user_id", userID))
		return token.Pair{}, apperr.NewForbidden(msgAccessDenied)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		service.logger.Debug("Refresh token mismatch", zap.String("user_id", userID))
		return token.Pair{}, apperr.NewForbidden(msgAccessDenied)
	}

	pair, encrypted, err := service.issue(ctx, service.store, user)
	if err != nil {
		return token.Pair{}, internalError(service.logger, "Refresh failed", err, zap.String("user_id", userID))
	}

	/* Swap only if the row still holds the token we just checked.
	 * The loser of two concurrent refreshes gets a refusal, not a dead pair. */
	swapped, err := service.store.Users().SwapRefreshToken(ctx, user.ID, *user.RefreshToken, encrypted)
	if err != nil {
		return token.Pair{}, internalError(service.logger, "Refresh failed", err, zap.String("user_id", userID))
	}
	if !swapped {
		service.logger.Warn("Refresh token rotated concurrently", zap.String("user_id", userID))
		return token.Pair{}, apperr.NewForbidden(msgAccessDenied)
	}
	return pair, nil
}
