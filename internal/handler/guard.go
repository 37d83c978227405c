package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/TooLazyToCreate/bookshelf-service/internal/apperr"
	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
	"github.com/TooLazyToCreate/bookshelf-service/internal/token"
	"go.uber.org/zap"
)

type TokenVerifier interface {
	Verify(raw string, kind token.Kind) (model.Identity, error)
}

type ctxKey int

const (
	identityKey ctxKey = iota
	refreshTokenKey
)

// IdentityFrom returns the identity a guard attached to the request.
func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(model.Identity)
	return identity, ok
}

func refreshTokenFrom(ctx context.Context) string {
	raw, _ := ctx.Value(refreshTokenKey).(string)
	return raw
}

func (h *Handler) RequireAccess(next http.Handler) http.Handler {
	return h.guard(token.Access, accessCookie, next)
}

func (h *Handler) RequireRefresh(next http.Handler) http.Handler {
	return h.guard(token.Refresh, refreshCookie, next)
}

/* guard reads the bearer token first and falls back to the cookie.
 * The verified identity, and for refresh the raw token, go to the context. */
func (h *Handler) guard(kind token.Kind, cookieName string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			if c, err := r.Cookie(cookieName); err == nil {
				raw = c.Value
			}
		}
		if raw == "" {
			fail(w, h.logger, r, apperr.NewUnauthorized("Unauthorized"))
			return
		}
		identity, err := h.tokens.Verify(raw, kind)
		if err != nil {
			h.logger.Debug("Token rejected", zap.Error(err),
				zap.String("kind", kind.String()), zap.String("ip", r.RemoteAddr))
			fail(w, h.logger, r, apperr.NewUnauthorized("Unauthorized"))
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		if kind == token.Refresh {
			ctx = context.WithValue(ctx, refreshTokenKey, raw)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	scheme, raw, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(raw)
}
