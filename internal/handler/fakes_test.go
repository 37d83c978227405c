package handler

import (
	"context"
	"io"

	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/TooLazyToCreate/bookshelf-service/internal/service"
	"github.com/TooLazyToCreate/bookshelf-service/internal/token"
)

type fakeAuth struct {
	pair token.Pair
	err  error

	registered     service.RegisterInput
	identifier     string
	password       string
	loggedOut      string
	refreshUser    string
	refreshPresent string
}

func (f *fakeAuth) Register(_ context.Context, in service.RegisterInput) (token.Pair, error) {
	f.registered = in
	return f.pair, f.err
}

func (f *fakeAuth) Login(_ context.Context, identifier, password string) (token.Pair, error) {
	f.identifier, f.password = identifier, password
	return f.pair, f.err
}

func (f *fakeAuth) Logout(_ context.Context, userID string) error {
	f.loggedOut = userID
	return f.err
}

func (f *fakeAuth) RefreshTokens(_ context.Context, userID, presented string) (token.Pair, error) {
	f.refreshUser, f.refreshPresent = userID, presented
	return f.pair, f.err
}

func (f *fakeAuth) ResetPassword(_ context.Context, identifier, newPassword string) error {
	f.identifier, f.password = identifier, newPassword
	return f.err
}

type fakeUsers struct {
	err      error
	profiles []model.Profile
	calls    []string
}

func (f *fakeUsers) Follow(_ context.Context, followerID, targetID string) error {
	f.calls = append(f.calls, "follow "+followerID+" "+targetID)
	return f.err
}

func (f *fakeUsers) Unfollow(_ context.Context, followerID, targetID string) error {
	f.calls = append(f.calls, "unfollow "+followerID+" "+targetID)
	return f.err
}

func (f *fakeUsers) Followers(_ context.Context, userID string) ([]model.Profile, error) {
	f.calls = append(f.calls, "followers "+userID)
	return f.profiles, f.err
}

func (f *fakeUsers) Following(_ context.Context, userID string) ([]model.Profile, error) {
	f.calls = append(f.calls, "following "+userID)
	return f.profiles, f.err
}

type fakeBooks struct {
	err    error
	cached bool
	book   *model.Book

	query      service.PageQuery
	created    service.CreateBookInput
	coverBytes string
	updated    service.UpdateBookInput
	author     string
	bookID     string
	content    string
}

func (f *fakeBooks) GetAll(_ context.Context, query service.PageQuery) (model.Page[model.Book], bool, error) {
	f.query = query
	return model.Page[model.Book]{
		Items:      []model.Book{},
		Pagination: model.NewPagination(query.Page, query.Limit, 0),
	}, f.cached, f.err
}

func (f *fakeBooks) GetByID(_ context.Context, bookID string) (*model.Book, bool, error) {
	f.bookID = bookID
	return f.book, f.cached, f.err
}

func (f *fakeBooks) Create(_ context.Context, authorID string, in service.CreateBookInput) (*model.Book, error) {
	f.author, f.created = authorID, in
	if in.Cover != nil {
		body, _ := io.ReadAll(in.Cover.Body)
		f.coverBytes = string(body)
	}
	return f.book, f.err
}

func (f *fakeBooks) Update(_ context.Context, authorID, bookID string, in service.UpdateBookInput) (*model.Book, error) {
	f.author, f.bookID, f.updated = authorID, bookID, in
	return f.book, f.err
}

func (f *fakeBooks) Delete(_ context.Context, authorID, bookID string) error {
	f.author, f.bookID = authorID, bookID
	return f.err
}

func (f *fakeBooks) Comment(_ context.Context, userID, bookID, content string) (*model.Comment, error) {
	f.author, f.bookID, f.content = userID, bookID, content
	return &model.Comment{ID: "c1", Content: content, BookID: bookID}, f.err
}

func (f *fakeBooks) GetComments(_ context.Context, bookID string, query service.PageQuery) (model.Page[model.Comment], bool, error) {
	f.bookID, f.query = bookID, query
	return model.Page[model.Comment]{
		Items:      []model.Comment{},
		Pagination: model.NewPagination(query.Page, query.Limit, 0),
	}, f.cached, f.err
}
