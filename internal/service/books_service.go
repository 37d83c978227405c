package service

import (
	"context"
	"errors"
	"time"

	"github.com/TooLazyToCreate/bookshelf-service/internal/apperr"
	"github.com/TooLazyToCreate/bookshelf-service/internal/cache"
	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/TooLazyToCreate/bookshelf-service/internal/repository"
	"github.com/TooLazyToCreate/bookshelf-service/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgBookNotFound     = "Book not found!"
	msgBookExists       = "Book already exist"
	msgCoverUnavailable = "Cover upload is not available"
)

type CoverStorage interface {
	UploadCover(ctx context.Context, upload storage.Upload) (string, error)
}

type CreateBookInput struct {
	Title       string
	Description string
	Genre       string
	// Cover is nil when no file was sent.
	Cover *storage.Upload
}

type UpdateBookInput struct {
	Title       *string
	Description *string
}

/* BooksService serves books and their comments. Reads go through the cache
 * (cache-aside), writes hit the store and then drop every key they touched. */
type BooksService struct {
	logger *zap.Logger
	store  repository.Store
	cache  cache.Cache
	covers CoverStorage
	ttl    time.Duration
}

// NewBooksService accepts a nil covers when no bucket is configured.
func NewBooksService(logger *zap.Logger, store repository.Store, c cache.Cache, covers CoverStorage, ttl time.Duration) *BooksService {
	return &BooksService{
		logger: logger,
		store:  store,
		cache:  c,
		covers: covers,
		ttl:    ttl,
	}
}

// GetAll reports whether the page came from the cache.
func (service *BooksService) GetAll(ctx context.Context, query PageQuery) (model.Page[model.Book], bool, error) {
	query = query.normalize()
	key := cache.BookListKey(query.Page, query.Limit)
	if page, ok := readCache[model.Page[model.Book]](ctx, service, key); ok {
		return page, true, nil
	}

	books, err := service.store.Books().List(ctx, query.offset(), query.Limit)
	if err != nil {
		return model.Page[model.Book]{}, false, internalError(service.logger, "Book fetch failed", err)
	}
	total, err := service.store.Books().Count(ctx)
	if err != nil {
		return model.Page[model.Book]{}, false, internalError(service.logger, "Book fetch failed", err)
	}
	page := model.Page[model.Book]{
		Items:      books,
		Pagination: model.NewPagination(query.Page, query.Limit, total),
	}
	service.writeCache(ctx, key, page)
	return page, false, nil
}

func (service *BooksService) GetByID(ctx context.Context, bookID string) (*model.Book, bool, error) {
	key := cache.BookKey(bookID)
	if book, ok := readCache[model.Book](ctx, service, key); ok {
		return &book, true, nil
	}

	book, err := service.store.Books().GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, apperr.NewBadRequest(msgBookNotFound)
		}
		return nil, false, internalError(service.logger, "Book fetch failed", err, zap.String("book_id", bookID))
	}
	service.writeCache(ctx, key, book)
	return book, false, nil
}

func (service *BooksService) Create(ctx context.Context, authorID string, in CreateBookInput) (*model.Book, error) {
	book := &model.Book{
		ID:          uuid.NewString(),
		Title:       normalizeText(in.Title),
		Description: normalizeText(in.Description),
		AuthorID:    authorID,
	}
	if genre := normalizeText(in.Genre); genre != "" {
		book.Genre = &genre
	}

	/* The title is checked before the upload so a duplicate leaves no orphan object */
	exists, err := service.store.Books().ExistsByTitle(ctx, book.Title)
	if err != nil {
		return nil, internalError(service.logger, "Book Creation failed", err, zap.String("user_id", authorID))
	}
	if exists {
		return nil, apperr.NewBadRequest(msgBookExists)
	}

	if in.Cover != nil {
		if service.covers == nil {
			return nil, apperr.NewBadRequest(msgCoverUnavailable)
		}
		url, err := service.covers.UploadCover(ctx, *in.Cover)
		if err != nil {
			return nil, internalError(service.logger, "Cover upload failed", err,
				zap.String("user_id", authorID), zap.String("file", in.Cover.Name))
		}
		book.Cover = &url
	}

	if err = service.store.Books().Create(ctx, book); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperr.NewBadRequest(msgBookExists)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NewNotFound(msgUserNotFound)
		}
		return nil, internalError(service.logger, "Book Creation failed", err, zap.String("user_id", authorID))
	}

	if err = service.invalidate(ctx, nil, []string{cache.BookListPrefix}); err != nil {
		return nil, err
	}

	created, err := service.store.Books().GetByID(ctx, book.ID)
	if err != nil {
		return nil, internalError(service.logger, "Book Creation failed", err, zap.String("book_id", book.ID))
	}
	return created, nil
}

// Update is allowed to the author only; anyone else sees the book as missing.
func (service *BooksService) Update(ctx context.Context, authorID, bookID string, in UpdateBookInput) (*model.Book, error) {
	book, err := service.ownBook(ctx, authorID, bookID, "Book Update failed")
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		book.Title = normalizeText(*in.Title)
	}
	if in.Description != nil {
		book.Description = normalizeText(*in.Description)
	}

	if err = service.store.Books().Update(ctx, book); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperr.NewBadRequest(msgBookExists)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NewBadRequest(msgBookNotFound)
		}
		return nil, internalError(service.logger, "Book Update failed", err, zap.String("book_id", bookID))
	}

	if err = service.invalidate(ctx, []string{cache.BookKey(bookID)}, []string{cache.BookListPrefix}); err != nil {
		return nil, err
	}
	return book, nil
}

func (service *BooksService) Delete(ctx context.Context, authorID, bookID string) error {
	if _, err := service.ownBook(ctx, authorID, bookID, "Book Delete failed"); err != nil {
		return err
	}
	if err := service.store.Books().Delete(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NewBadRequest(msgBookNotFound)
		}
		return internalError(service.logger, "Book Delete failed", err, zap.String("book_id", bookID))
	}
	return service.invalidate(ctx,
		[]string{cache.BookKey(bookID)},
		[]string{cache.BookCommentsPrefix(bookID), cache.BookListPrefix})
}

func (service *BooksService) Comment(ctx context.Context, userID, bookID, content string) (*model.Comment, error) {
	if _, err := service.store.Books().GetByID(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NewBadRequest(msgBookNotFound)
		}
		return nil, internalError(service.logger, "Comment failed", err, zap.String("book_id", bookID))
	}
	author, err := service.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NewNotFound(msgUserNotFound)
		}
		return nil, internalError(service.logger, "Comment failed", err, zap.String("user_id", userID))
	}

	comment := &model.Comment{
		ID:        uuid.NewString(),
		Content:   normalizeText(content),
		BookID:    bookID,
		CommentBy: author.Profile(),
	}
	if err = service.store.Comments().Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NewBadRequest(msgBookNotFound)
		}
		return nil, internalError(service.logger, "Comment failed", err,
			zap.String("book_id", bookID), zap.String("user_id", userID))
	}

	if err = service.invalidate(ctx, nil, []string{cache.BookCommentsPrefix(bookID)}); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetComments lists comments of a book, newest first.
func (service *BooksService) GetComments(ctx context.Context, bookID string, query PageQuery) (model.Page[model.Comment], bool, error) {
	query = query.normalize()
	key := cache.BookCommentsKey(bookID, query.Page, query.Limit)
	if page, ok := readCache[model.Page[model.Comment]](ctx, service, key); ok {
		return page, true, nil
	}

	if _, err := service.store.Books().GetByID(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Page[model.Comment]{}, false, apperr.NewBadRequest(msgBookNotFound)
		}
		return model.Page[model.Comment]{}, false, internalError(service.logger, "Comments fetch failed", err,
			zap.String("book_id", bookID))
	}
	comments, err := service.store.Comments().ListByBook(ctx, bookID, query.offset(), query.Limit)
	if err != nil {
		return model.Page[model.Comment]{}, false, internalError(service.logger, "Comments fetch failed", err,
			zap.String("book_id", bookID))
	}
	total, err := service.store.Comments().CountByBook(ctx, bookID)
	if err != nil {
		return model.Page[model.Comment]{}, false, internalError(service.logger, "Comments fetch failed", err,
			zap.String("book_id", bookID))
	}
	page := model.Page[model.Comment]{
		Items:      comments,
		Pagination: model.NewPagination(query.Page, query.Limit, total),
	}
	service.writeCache(ctx, key, page)
	return page, false, nil
}

func (service *BooksService) ownBook(ctx context.Context, authorID, bookID, failMessage string) (*model.Book, error) {
	book, err := service.store.Books().GetByIDAndAuthor(ctx, bookID, authorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NewBadRequest(msgBookNotFound)
		}
		return nil, internalError(service.logger, failMessage, err,
			zap.String("book_id", bookID), zap.String("user_id", authorID))
	}
	return book, nil
}

/* readCache treats any cache failure as a miss: the store is the source of
 * truth and the cache only a hint. */
func readCache[T any](ctx context.Context, service *BooksService, key string) (T, bool) {
	value, ok, err := cache.GetJSON[T](ctx, service.cache, key)
	if err != nil {
		service.logger.Warn("Cache read failed", zap.Error(err), zap.String("key", key))
		return value, false
	}
	return value, ok
}

func (service *BooksService) writeCache(ctx context.Context, key string, value any) {
	if err := cache.SaveJSON(ctx, service.cache, key, value, service.ttl); err != nil {
		service.logger.Warn("Cache write failed", zap.Error(err), zap.String("key", key))
	}
}

// invalidate must succeed before a write is reported as done.
func (service *BooksService) invalidate(ctx context.Context, keys []string, prefixes []string) error {
	if len(keys) > 0 {
		if err := service.cache.Delete(ctx, keys...); err != nil {
			return internalError(service.logger, "Cache invalidation failed", err, zap.Strings("keys", keys))
		}
	}
	for _, prefix := range prefixes {
		if err := service.cache.DeletePrefix(ctx, prefix); err != nil {
			return internalError(service.logger, "Cache invalidation failed", err, zap.String("prefix", prefix))
		}
	}
	return nil
}
