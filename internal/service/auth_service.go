package service

import (
	"context"
	"errors"
	"strings"

	"github.com/TooLazyToCreate/bookshelf-service/internal/apperr"
	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/TooLazyToCreate/bookshelf-service/internal/password"
	"github.com/TooLazyToCreate/bookshelf-service/internal/repository"
	"github.com/TooLazyToCreate/bookshelf-service/internal/token"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgUserExists      = "Email or Username already exist"
	msgLoginFail       = "Login fail"
	msgInvalidPassword = "Invalid password"
	msgLoggedOut       = "Already logged out!"
	msgAccessDenied    = "Access Denied"
	msgUserNotExist    = "User does not exist"
)

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

/* AuthService is the session manager. The user row is the session store:
 * it holds the encrypted refresh token of the one active session. */
type AuthService struct {
	logger *zap.Logger
	store  repository.Store
	tokens TokenIssuer
	cipher RefreshCipher
	hasher PasswordHasher
}

func NewAuthService(logger *zap.Logger, store repository.Store, tokens TokenIssuer, cipher RefreshCipher, hasher PasswordHasher) *AuthService {
	return &AuthService{
		logger: logger,
		store:  store,
		tokens: tokens,
		cipher: cipher,
		hasher: hasher,
	}
}

func (service *AuthService) Register(ctx context.Context, in RegisterInput) (token.Pair, error) {
	var pair token.Pair
	err := service.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		/* Check and insert share the transaction; the unique indexes catch what slips past */
		exists, err := tx.Users().ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
		if err != nil {
			return err
		}
		if exists {
			return apperr.NewConflict(msgUserExists)
		}

		hash, err := service.hasher.Hash(in.Password)
		if err != nil {
			return err
		}
		user := &model.User{
			ID:           uuid.NewString(),
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: hash,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
		}
		if err = tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.NewConflict(msgUserExists)
			}
			return err
		}

		pair, err = service.startSession(ctx, tx, user)
		return err
	})
	if err != nil {
		return token.Pair{}, internalError(service.logger, "Registration failed", err,
			zap.String("username", in.Username))
	}
	service.logger.Debug("User registered", zap.String("username", in.Username))
	return pair, nil
}

// Login treats an identifier containing "@" as an email, anything else as a username.
func (service *AuthService) Login(ctx context.Context, identifier, plain string) (token.Pair, error) {
	user, err := service.findByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return token.Pair{}, apperr.NewUnauthorized(msgLoginFail)
		}
		return token.Pair{}, internalError(service.logger, "Login failed", err)
	}
	if user.PasswordHash == "" {
		return token.Pair{}, apperr.NewUnauthorized(msgLoginFail)
	}
	if err = service.hasher.Compare(user.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			service.logger.Debug("Invalid password", zap.String("user_id", user.ID))
			return token.Pair{}, apperr.NewUnauthorized(msgInvalidPassword)
		}
		return token.Pair{}, internalError(service.logger, "Login failed", err, zap.String("user_id", user.ID))
	}

	/* Last login wins: the stored refresh token is overwritten */
	pair, err := service.startSession(ctx, service.store, user)
	if err != nil {
		return token.Pair{}, internalError(service.logger, "Login failed", err, zap.String("user_id", user.ID))
	}
	return pair, nil
}

func (service *AuthService) Logout(ctx context.Context, userID string) error {
	cleared, err := service.store.Users().ClearRefreshToken(ctx, userID)
	if err != nil {
		return internalError(service.logger, "Logout failed", err, zap.String("user_id", userID))
	}
	if cleared {
		return nil
	}
	if _, err = service.store.Users().GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NewBadRequest(msgUserNotExist)
		}
		return internalError(service.logger, "Logout failed", err, zap.String("user_id", userID))
	}
	return apperr.NewBadRequest(msgLoggedOut)
}

func (service *AuthService) ResetPassword(ctx context.Context, identifier, newPassword string) error {
	user, err := service.findByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NewBadRequest(msgUserNotExist)
		}
		return internalError(service.logger, "Reset failed", err)
	}
	hash, err := service.hasher.Hash(newPassword)
	if err != nil {
		return internalError(service.logger, "Reset failed", err, zap.String("user_id", user.ID))
	}
	if err = service.store.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NewBadRequest(msgUserNotExist)
		}
		return internalError(service.logger, "Reset failed", err, zap.String("user_id", user.ID))
	}
	return nil
}

func (service *AuthService) findByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if strings.Contains(identifier, "@") {
		return service.store.Users().GetByEmail(ctx, identifier)
	}
	return service.store.Users().GetByUsername(ctx, identifier)
}

/* startSession issues a fresh pair and overwrites the stored refresh token
 * with its encrypted form. Any earlier refresh token stops working. */
func (service *AuthService) startSession(ctx context.Context, store repository.Store, user *model.User) (token.Pair, error) {
	pair, encrypted, err := service.issue(ctx, store, user)
	if err != nil {
		return token.Pair{}, err
	}
	if err = store.Users().SetRefreshToken(ctx, user.ID, encrypted); err != nil {
		return token.Pair{}, err
	}
	return pair, nil
}

func (service *AuthService) issue(ctx context.Context, store repository.Store, user *model.User) (token.Pair, string, error) {
	identity, err := identityOf(ctx, store.Follows(), user)
	if err != nil {
		return token.Pair{}, "", err
	}
	pair, err := service.tokens.Issue(identity)
	if err != nil {
		return token.Pair{}, "", err
	}
	encrypted, err := service.cipher.Encrypt(pair.Refresh)
	if err != nil {
		return token.Pair{}, "", err
	}
	return pair, encrypted, nil
}
