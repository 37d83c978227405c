package service

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/TooLazyToCreate/bookshelf-service/internal/repository"
	"github.com/TooLazyToCreate/bookshelf-service/internal/storage"
)

type edge struct{ follower, following string }

type memState struct {
	users    map[string]model.User
	edges    map[edge]time.Time
	books    map[string]model.Book
	comments map[string]model.Comment
}

func (s memState) clone() memState {
	return memState{
		users:    maps.Clone(s.users),
		edges:    maps.Clone(s.edges),
		books:    maps.Clone(s.books),
		comments: maps.Clone(s.comments),
	}
}

/* memStore is an in-memory repository.Store. WithTx snapshots the state and
 * restores it when fn fails, which is all the tests need from a transaction. */
type memStore struct {
	mu    sync.Mutex
	state memState
	clock time.Time
	// fail makes the named operation return the error.
	fail map[string]error
	txs  int
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			users:    map[string]model.User{},
			edges:    map[edge]time.Time{},
			books:    map[string]model.Book{},
			comments: map[string]model.Comment{},
		},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		fail:  map[string]error{},
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) err(op string) error {
	return m.fail[op]
}

func (m *memStore) Users() repository.UserRepository       { return memUsers{m} }
func (m *memStore) Follows() repository.FollowRepository   { return memFollows{m} }
func (m *memStore) Books() repository.BookRepository       { return memBooks{m} }
func (m *memStore) Comments() repository.CommentRepository { return memComments{m} }
func (m *memStore) Ping(context.Context) error             { return m.err("Ping") }

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	m.mu.Lock()
	m.txs++
	snapshot := m.state.clone()
	m.mu.Unlock()
	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) user(id string) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.users[id]
}

func (m *memStore) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.users)
}

type memUsers struct{ m *memStore }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.err("Users.Create"); err != nil {
		return err
	}
	for _, u := range r.m.state.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("%w: users", repository.ErrDuplicate)
		}
	}
	user.CreatedAt = r.m.tick()
	user.UpdatedAt = user.CreatedAt
	r.m.state.users[user.ID] = *user
	return nil
}

func (r memUsers) find(match func(model.User) bool) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.err("Users.Get"); err != nil {
		return nil, err
	}
	for _, u := range r.m.state.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r memUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	_, err := r.find(func(u model.User) bool { return u.Username == username || u.Email == email })
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r memUsers) update(id string, apply func(u *model.User) bool) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.state.users[id]
	if !ok {
		return false, nil
	}
	if !apply(&u) {
		return false, nil
	}
	u.UpdatedAt = r.m.tick()
	r.m.state.users[id] = u
	return true, nil
}

func (r memUsers) SetRefreshToken(_ context.Context, id, encrypted string) error {
	if err := r.m.err("Users.SetRefreshToken"); err != nil {
		return err
	}
	ok, _ := r.update(id, func(u *model.User) bool { u.RefreshToken = &encrypted; return true })
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

func (r memUsers) SwapRefreshToken(_ context.Context, id, old, encrypted string) (bool, error) {
	if hook := r.m.fail["Users.SwapRefreshToken"]; hook != nil {
		return false, hook
	}
	return r.update(id, func(u *model.User) bool {
		if u.RefreshToken == nil || *u.RefreshToken != old {
			return false
		}
		u.RefreshToken = &encrypted
		return true
	})
}

func (r memUsers) ClearRefreshToken(_ context.Context, id string) (bool, error) {
	return r.update(id, func(u *model.User) bool {
		if u.RefreshToken == nil {
			return false
		}
		u.RefreshToken = nil
		return true
	})
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	ok, _ := r.update(id, func(u *model.User) bool { u.PasswordHash = hash; return true })
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

type memFollows struct{ m *memStore }

func (r memFollows) Follow(_ context.Context, followerID, followingID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.users[followerID]; !ok {
		return false, fmt.Errorf("%w: follows_follower_id_fkey", repository.ErrNotFound)
	}
	e := edge{followerID, followingID}
	if _, ok := r.m.state.edges[e]; ok {
		return false, nil
	}
	r.m.state.edges[e] = r.m.tick()
	return true, nil
}

func (r memFollows) Unfollow(_ context.Context, followerID, followingID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e := edge{followerID, followingID}
	if _, ok := r.m.state.edges[e]; !ok {
		return false, nil
	}
	delete(r.m.state.edges, e)
	return true, nil
}

func (r memFollows) Counts(_ context.Context, userID string) (int, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var followers, following int
	for e := range r.m.state.edges {
		if e.following == userID {
			followers++
		}
		if e.follower == userID {
			following++
		}
	}
	return followers, following, nil
}

func (r memFollows) profiles(pick func(edge) (string, bool)) []model.Profile {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	type row struct {
		at time.Time
		p  model.Profile
	}
	var rows []row
	for e, at := range r.m.state.edges {
		if id, ok := pick(e); ok {
			u := r.m.state.users[id]
			rows = append(rows, row{at, u.Profile()})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })
	result := make([]model.Profile, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.p)
	}
	return result
}

func (r memFollows) Followers(_ context.Context, userID string) ([]model.Profile, error) {
	return r.profiles(func(e edge) (string, bool) { return e.follower, e.following == userID }), nil
}

func (r memFollows) Following(_ context.Context, userID string) ([]model.Profile, error) {
	return r.profiles(func(e edge) (string, bool) { return e.following, e.follower == userID }), nil
}

type memBooks struct{ m *memStore }

func (r memBooks) Create(_ context.Context, book *model.Book) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, b := range r.m.state.books {
		if b.Title == book.Title {
			return fmt.Errorf("%w: books_title_key", repository.ErrDuplicate)
		}
	}
	if _, ok := r.m.state.users[book.AuthorID]; !ok {
		return fmt.Errorf("%w: books_author_id_fkey", repository.ErrNotFound)
	}
	book.CreatedAt = r.m.tick()
	book.UpdatedAt = book.CreatedAt
	r.m.state.books[book.ID] = *book
	return nil
}

func (r memBooks) withAuthor(b model.Book) *model.Book {
	u := r.m.state.users[b.AuthorID]
	b.Author = u.Profile()
	return &b
}

func (r memBooks) GetByID(_ context.Context, id string) (*model.Book, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.err("Books.GetByID"); err != nil {
		return nil, err
	}
	b, ok := r.m.state.books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withAuthor(b), nil
}

func (r memBooks) GetByIDAndAuthor(_ context.Context, id, authorID string) (*model.Book, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.state.books[id]
	if !ok || b.AuthorID != authorID {
		return nil, repository.ErrNotFound
	}
	return r.withAuthor(b), nil
}

func (r memBooks) ExistsByTitle(_ context.Context, title string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, b := range r.m.state.books {
		if b.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (r memBooks) List(_ context.Context, offset, limit int) ([]model.Book, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.err("Books.List"); err != nil {
		return nil, err
	}
	all := make([]model.Book, 0, len(r.m.state.books))
	for _, b := range r.m.state.books {
		all = append(all, *r.withAuthor(b))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return window(all, offset, limit), nil
}

func (r memBooks) Count(context.Context) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.m.state.books), nil
}

func (r memBooks) Update(_ context.Context, book *model.Book) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, b := range r.m.state.books {
		if id != book.ID && b.Title == book.Title {
			return fmt.Errorf("%w: books_title_key", repository.ErrDuplicate)
		}
	}
	b, ok := r.m.state.books[book.ID]
	if !ok {
		return repository.ErrNotFound
	}
	b.Title, b.Description = book.Title, book.Description
	b.UpdatedAt = r.m.tick()
	book.UpdatedAt = b.UpdatedAt
	r.m.state.books[book.ID] = b
	return nil
}

func (r memBooks) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.books[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.state.books, id)
	for cid, c := range r.m.state.comments {
		if c.BookID == id {
			delete(r.m.state.comments, cid)
		}
	}
	return nil
}

type memComments struct{ m *memStore }

func (r memComments) Create(_ context.Context, comment *model.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.state.books[comment.BookID]; !ok {
		return fmt.Errorf("%w: comments_book_id_fkey", repository.ErrNotFound)
	}
	comment.CreatedAt = r.m.tick()
	r.m.state.comments[comment.ID] = *comment
	return nil
}

func (r memComments) ListByBook(_ context.Context, bookID string, offset, limit int) ([]model.Comment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var all []model.Comment
	for _, c := range r.m.state.comments {
		if c.BookID == bookID {
			u := r.m.state.users[c.CommentBy.ID]
			c.CommentBy = u.Profile()
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return window(all, offset, limit), nil
}

func (r memComments) CountByBook(_ context.Context, bookID string) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := 0
	for _, c := range r.m.state.comments {
		if c.BookID == bookID {
			n++
		}
	}
	return n, nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

type fakeCovers struct {
	uploads []storage.Upload
	err     error
}

func (f *fakeCovers) UploadCover(_ context.Context, upload storage.Upload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, upload)
	return "https://cdn.example.com/books/covers/1-" + upload.Name, nil
}
