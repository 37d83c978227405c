package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

type RetryConfig struct {
	MaxRetries  uint64
	InitialWait time.Duration
}

type PostgresStore struct {
	// db is nil for stores bound to a running transaction
	db     *sql.DB
	q      DBTX
	logger *zap.Logger
	retry  RetryConfig
}

func NewPostgresStore(logger *zap.Logger, db *sql.DB, retryConfig RetryConfig) *PostgresStore {
	if retryConfig.InitialWait <= 0 {
		retryConfig.InitialWait = 50 * time.Millisecond
	}
	return &PostgresStore{
		db:     db,
		q:      db,
		logger: logger,
		retry:  retryConfig,
	}
}

func (s *PostgresStore) Users() UserRepository       { return NewUserRepository(s.q) }
func (s *PostgresStore) Follows() FollowRepository   { return NewFollowRepository(s.q) }
func (s *PostgresStore) Books() BookRepository       { return NewBookRepository(s.q) }
func (s *PostgresStore) Comments() CommentRepository { return NewCommentRepository(s.q) }

func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

/* WithTx runs fn in a serializable transaction and retries the whole
 * transaction with exponential backoff while Postgres reports a
 * serialization failure or a deadlock. Nested calls join the outer one. */
func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.db == nil {
		return fn(ctx, s)
	}
	backoff := retry.WithMaxRetries(s.retry.MaxRetries, retry.NewExponential(s.retry.InitialWait))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := withTx(ctx, s.db, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx DBTX) error {
			return fn(ctx, &PostgresStore{q: tx, logger: s.logger, retry: s.retry})
		})
		if isTransient(err) {
			s.logger.Warn("Transaction conflict, retrying", zap.Int("attempt", attempt), zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
}

// withTx commits on success and rolls back on error or panic. Panics are rethrown.
func withTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("db error: %w", err)
		}
	}()
	return fn(ctx, tx)
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isTransient(err error) bool {
	switch pqCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

// dbError maps driver failures onto repository errors.
func dbError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case pqCode(err) == codeUniqueViolation:
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case pqCode(err) == codeForeignKeyViolation:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
