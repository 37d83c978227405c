package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

/* RequestLogger logs every request once it is served and reports it to
 * observer under its route pattern. In development it logs at debug level. */
func RequestLogger(logger *zap.Logger, observer RequestObserver, development bool) func(http.Handler) http.Handler {
	level := zapcore.InfoLevel
	if development {
		level = zapcore.DebugLevel
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			if observer != nil {
				observer.ObserveRequest(r.Method, route, status, elapsed)
			}
			if ce := logger.Check(level, "Request to "+r.Method+" "+r.URL.Path); ce != nil {
				ce.Write(
					zap.Int("status", status),
					zap.Duration("duration", elapsed),
					zap.String("ip", r.RemoteAddr),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}
		})
	}
}
