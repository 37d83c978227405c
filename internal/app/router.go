package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/TooLazyToCreate/bookshelf-service/config"
	"github.com/TooLazyToCreate/bookshelf-service/internal/handler"
	"github.com/TooLazyToCreate/bookshelf-service/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const readyTimeout = 2 * time.Second

type check struct {
	name string
	ping func(ctx context.Context) error
}

func newRouter(logger *zap.Logger, cfg *config.Config, h *handler.Handler, m *metrics.Metrics, checks ...check) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	// RemoteAddr becomes the client ip before any proxies, without a port
	router.Use(middleware.RealIP)
	router.Use(stripPort)
	router.Use(handler.RequestLogger(logger, m, cfg.IsDevelopment()))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Cors.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		status, code := map[string]string{}, http.StatusOK
		for _, c := range checks {
			if err := c.ping(ctx); err != nil {
				logger.Warn("Readiness check failed", zap.String("check", c.name), zap.Error(err))
				status[c.name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[c.name] = "up"
		}
		writeStatus(w, code, status)
	})
	router.Method(http.MethodGet, "/metrics", m.Handler())

	h.Routes(router)
	return router
}

func stripPort(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			r.RemoteAddr = host
		}
		next.ServeHTTP(w, r)
	})
}

func writeStatus(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
