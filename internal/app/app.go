package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/TooLazyToCreate/bookshelf-service/config"
	"github.com/TooLazyToCreate/bookshelf-service/internal/cache"
	"github.com/TooLazyToCreate/bookshelf-service/internal/handler"
	"github.com/TooLazyToCreate/bookshelf-service/internal/metrics"
	"github.com/TooLazyToCreate/bookshelf-service/internal/password"
	"github.com/TooLazyToCreate/bookshelf-service/internal/repository"
	"github.com/TooLazyToCreate/bookshelf-service/internal/service"
	"github.com/TooLazyToCreate/bookshelf-service/internal/storage"
	"github.com/TooLazyToCreate/bookshelf-service/internal/token"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func Run(logger *zap.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Connection to database was closed with error", zap.Error(err))
		}
	}()
	if err = db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("Connected to database")

	if err = repository.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	store := repository.NewPostgresStore(logger, db, repository.RetryConfig{
		MaxRetries:  cfg.Retry.MaxRetries,
		InitialWait: cfg.RetryInitialWait(),
	})

	m := metrics.New()
	bookCache, closeCache, err := openCache(logger, cfg)
	if err != nil {
		return err
	}
	defer closeCache()
	bookCache = cache.WithMetrics(bookCache, m)

	covers, err := openCovers(ctx, logger, cfg)
	if err != nil {
		return err
	}

	tokens := token.NewService(token.Options{
		AccessSecret:    cfg.Tokens.AccessSecret,
		RefreshSecret:   cfg.Tokens.RefreshSecret,
		AccessLifetime:  cfg.AccessLifetime(),
		RefreshLifetime: cfg.RefreshLifetime(),
	})
	cipher, err := token.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("refresh token cipher: %w", err)
	}

	h := handler.New(handler.Options{
		Logger: logger,
		Auth:   service.NewAuthService(logger, store, tokens, cipher, password.NewHasher(cfg.SaltRounds)),
		Users:  service.NewUsersService(logger, store),
		Books:  service.NewBooksService(logger, store, bookCache, covers, cfg.CacheTTL()),
		Tokens: tokens,
		Cookies: handler.CookieOptions{
			Secure:          cfg.IsProduction(),
			AccessLifetime:  cfg.AccessLifetime(),
			RefreshLifetime: cfg.RefreshLifetime(),
		},
	})
	router := newRouter(logger, cfg, h, m,
		check{name: "database", ping: store.Ping},
		check{name: "cache", ping: bookCache.Ping},
	)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, logger, server)
}

/* openCache connects to Redis when REDIS_URL is set. Without it the
 * process keeps its cache in memory, which is fine for a single replica. */
func openCache(logger *zap.Logger, cfg *config.Config) (cache.Cache, func(), error) {
	if cfg.RedisUrl == "" {
		logger.Warn("REDIS_URL is not set, using in-memory cache")
		return cache.NewMemory(), func() {}, nil
	}
	r, err := cache.NewRedisFromURL(cfg.RedisUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	logger.Info("Using redis cache")
	return r, func() {
		if err := r.Close(); err != nil {
			logger.Error("Redis client was closed with error", zap.Error(err))
		}
	}, nil
}

// openCovers returns nil when no bucket is configured; cover uploads are refused then.
func openCovers(ctx context.Context, logger *zap.Logger, cfg *config.Config) (service.CoverStorage, error) {
	if cfg.S3.Bucket == "" {
		logger.Warn("S3 bucket is not configured, book covers are disabled")
		return nil, nil
	}
	s3, err := storage.NewS3(ctx, storage.Options{
		Region:        cfg.S3.Region,
		Bucket:        cfg.S3.Bucket,
		Endpoint:      cfg.S3.Endpoint,
		CloudfrontUrl: cfg.S3.CloudfrontUrl,
		AccessKey:     cfg.S3.AccessKey,
		SecretKey:     cfg.S3.SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return s3, nil
}

func serve(ctx context.Context, logger *zap.Logger, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Will serve on " + server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
