// Package handler is the chi HTTP surface: DTO validation, guards, cookies
// and the response envelope every endpoint answers with.
package handler

import (
	"errors"
	"net/http"

	"github.com/TooLazyToCreate/bookshelf-service/internal/apperr"
	"go.uber.org/zap"
)

const msgUnexpected = "An unexpected error occurred"

/* Result is the outcome of one endpoint: either Ok with a status, a message
 * and data, or Fail with an error whose apperr.Kind picks the status. */
type Result[T any] struct {
	ok      bool
	status  int
	message string
	data    T
	err     error
}

func Ok[T any](status int, message string, data T) Result[T] {
	return Result[T]{ok: true, status: status, message: message, data: data}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool { return r.ok }

func (r Result[T]) Err() error { return r.err }

type envelope[T any] struct {
	Status     string  `json:"status"`
	StatusCode int     `json:"statusCode"`
	Message    string  `json:"message"`
	Data       *T      `json:"data"`
	Error      *string `json:"error"`
}

// envelope renders the result; internal failures never leak their cause.
func (r Result[T]) envelope() envelope[T] {
	if r.ok {
		return envelope[T]{Status: "success", StatusCode: r.status, Message: r.message, Data: &r.data}
	}
	kind := apperr.KindOf(r.err)
	detail := kind.String()
	message := msgUnexpected
	if kind != apperr.Internal {
		message = messageOf(r.err)
	}
	return envelope[T]{Status: "fail", StatusCode: kind.HTTPStatus(), Message: message, Error: &detail}
}

func messageOf(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func respond[T any](w http.ResponseWriter, logger *zap.Logger, r *http.Request, result Result[T]) {
	body := result.envelope()
	if !result.ok && apperr.KindOf(result.err) == apperr.Internal {
		logger.Error("Request failed", zap.Error(result.err),
			zap.String("method", r.Method), zap.String("path", r.URL.Path))
	}
	writeJSON(w, body.StatusCode, body)
}

func fail(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	respond(w, logger, r, Fail[any](err))
}
