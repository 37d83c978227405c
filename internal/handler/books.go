package handler

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/TooLazyToCreate/bookshelf-service/internal/apperr"
	"github.com/TooLazyToCreate/bookshelf-service/internal/service"
	"github.com/TooLazyToCreate/bookshelf-service/internal/storage"
)

type pageRequest struct {
	Page  int `json:"page" validate:"gte=1"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

type createBookRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Genre       string `json:"genre" validate:"max=50"`
}

type updateBookRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=1"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required"`
}

// pageQuery reads page and limit from the query string, defaulting missing ones.
func (h *Handler) pageQuery(r *http.Request) (service.PageQuery, error) {
	req := pageRequest{Page: service.DefaultPage, Limit: service.DefaultLimit}
	params := []struct {
		name string
		dst  *int
	}{{"page", &req.Page}, {"limit", &req.Limit}}
	for _, p := range params {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return service.PageQuery{}, apperr.NewBadRequest(p.name + " must be an integer number")
		}
		*p.dst = n
	}
	if err := h.validate(&req); err != nil {
		return service.PageQuery{}, err
	}
	return service.PageQuery{Page: req.Page, Limit: req.Limit}, nil
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	query, err := h.pageQuery(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	page, cached, err := h.books.GetAll(r.Context(), query)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	message := "Books fetched successfully"
	if cached {
		message = "Books fetched from cache"
	}
	respond(w, h.logger, r, Ok(http.StatusOK, message, page))
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	book, cached, err := h.books.GetByID(r.Context(), bookID)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	message := "Book retrieved successfully"
	if cached {
		message = "Book fetched from cache"
	}
	respond(w, h.logger, r, Ok(http.StatusOK, message, book))
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := h.readCreateBook(w, r)
	defer cleanup()
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	book, err := h.books.Create(r.Context(), identity(r).UserID, in)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	respond(w, h.logger, r, Ok(http.StatusCreated, "Book Creation Successful", book))
}

/* readCreateBook accepts either a JSON body or a multipart form with an
 * optional "cover" file. cleanup must always be called. */
func (h *Handler) readCreateBook(w http.ResponseWriter, r *http.Request) (service.CreateBookInput, func(), error) {
	cleanup := func() {}
	var req createBookRequest
	var cover *storage.Upload

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		if err := r.ParseMultipartForm(MaxBodyBytes); err != nil {
			return service.CreateBookInput{}, cleanup, badBody(err)
		}
		cleanup = func() { _ = r.MultipartForm.RemoveAll() }
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")
		req.Genre = r.FormValue("genre")

		file, header, err := r.FormFile("cover")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return service.CreateBookInput{}, cleanup, badBody(err)
		default:
			prev := cleanup
			cleanup = func() { _ = file.Close(); prev() }
			cover = &storage.Upload{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			}
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		return service.CreateBookInput{}, cleanup, badBody(err)
	}

	req.Title = normalize(req.Title)
	req.Description = normalize(req.Description)
	req.Genre = normalize(req.Genre)
	if err := h.validate(&req); err != nil {
		return service.CreateBookInput{}, cleanup, err
	}
	return service.CreateBookInput{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Cover:       cover,
	}, cleanup, nil
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	var req updateBookRequest
	if err = decodeJSON(w, r, &req); err != nil {
		fail(w, h.logger, r, badBody(err))
		return
	}
	for _, field := range []*string{req.Title, req.Description} {
		if field != nil {
			*field = normalize(*field)
		}
	}
	if err = h.validate(&req); err != nil {
		fail(w, h.logger, r, err)
		return
	}

	book, err := h.books.Update(r.Context(), identity(r).UserID, bookID, service.UpdateBookInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	respond(w, h.logger, r, Ok(http.StatusOK, "Book updated successfully", book))
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if err = h.books.Delete(r.Context(), identity(r).UserID, bookID); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	respond[any](w, h.logger, r, Ok[any](http.StatusOK, "Book deleted successfully", nil))
}

func (h *Handler) commentBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	var req commentRequest
	if err = decodeJSON(w, r, &req); err != nil {
		fail(w, h.logger, r, badBody(err))
		return
	}
	req.Content = normalize(req.Content)
	if err = h.validate(&req); err != nil {
		fail(w, h.logger, r, err)
		return
	}

	comment, err := h.books.Comment(r.Context(), identity(r).UserID, bookID, req.Content)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	respond(w, h.logger, r, Ok(http.StatusOK, "Commented on book successfully", comment))
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	query, err := h.pageQuery(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	page, cached, err := h.books.GetComments(r.Context(), bookID, query)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	message := "Book Comments retrieved successfully"
	if cached {
		message = "Book Comments fetched from cache"
	}
	respond(w, h.logger, r, Ok(http.StatusOK, message, page))
}
