package handler

import (
	"context"
	"net/http"

	"github.com/TooLazyToCreate/bookshelf-service/internal/apperr"
	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/TooLazyToCreate/bookshelf-service/internal/service"
	"github.com/TooLazyToCreate/bookshelf-service/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (token.Pair, error)
	Login(ctx context.Context, identifier, password string) (token.Pair, error)
	Logout(ctx context.Context, userID string) error
	RefreshTokens(ctx context.Context, userID, presented string) (token.Pair, error)
	ResetPassword(ctx context.Context, identifier, newPassword string) error
}

type UsersService interface {
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
	Followers(ctx context.Context, userID string) ([]model.Profile, error)
	Following(ctx context.Context, userID string) ([]model.Profile, error)
}

type BooksService interface {
	GetAll(ctx context.Context, query service.PageQuery) (model.Page[model.Book], bool, error)
	GetByID(ctx context.Context, bookID string) (*model.Book, bool, error)
	Create(ctx context.Context, authorID string, in service.CreateBookInput) (*model.Book, error)
	Update(ctx context.Context, authorID, bookID string, in service.UpdateBookInput) (*model.Book, error)
	Delete(ctx context.Context, authorID, bookID string) error
	Comment(ctx context.Context, userID, bookID, content string) (*model.Comment, error)
	GetComments(ctx context.Context, bookID string, query service.PageQuery) (model.Page[model.Comment], bool, error)
}

type Options struct {
	Logger  *zap.Logger
	Auth    AuthService
	Users   UsersService
	Books   BooksService
	Tokens  TokenVerifier
	Cookies CookieOptions
}

type Handler struct {
	logger    *zap.Logger
	auth      AuthService
	users     UsersService
	books     BooksService
	tokens    TokenVerifier
	cookies   CookieOptions
	validator *validator.Validate
}

func New(opts Options) *Handler {
	return &Handler{
		logger:    opts.Logger,
		auth:      opts.Auth,
		users:     opts.Users,
		books:     opts.Books,
		tokens:    opts.Tokens,
		cookies:   opts.Cookies,
		validator: newValidator(),
	}
}

// Routes mounts the /v1 API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.With(h.RequireAccess).Post("/logout", h.logout)
		r.With(h.RequireRefresh).Get("/refresh", h.refresh)
		r.Patch("/reset-password", h.resetPassword)
	})

	r.Route("/v1/users/{id}", func(r chi.Router) {
		r.With(h.RequireAccess).Post("/follow", h.follow)
		r.With(h.RequireAccess).Delete("/follow", h.unfollow)
		r.Get("/followers", h.followers)
		r.Get("/following", h.following)
	})

	r.Route("/v1/books", func(r chi.Router) {
		r.Get("/", h.listBooks)
		r.With(h.RequireAccess).Post("/", h.createBook)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getBook)
			r.With(h.RequireAccess).Put("/", h.updateBook)
			r.With(h.RequireAccess).Delete("/", h.deleteBook)
			r.Get("/comments", h.listComments)
			r.With(h.RequireAccess).Post("/comments", h.commentBook)
		})
	})
}

func pathID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperr.NewBadRequest("Invalid id")
	}
	return id, nil
}

// identity is only called behind a guard.
func identity(r *http.Request) model.Identity {
	id, _ := IdentityFrom(r.Context())
	return id
}

func badBody(err error) error {
	return apperr.Wrap(apperr.BadRequest, "Invalid request body", err)
}
