package handler

import (
	"net/http"
	"time"

	"github.com/TooLazyToCreate/bookshelf-service/internal/token"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

type CookieOptions struct {
	// Secure is set in production only.
	Secure          bool
	AccessLifetime  time.Duration
	RefreshLifetime time.Duration
}

func (o CookieOptions) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (o CookieOptions) setPair(w http.ResponseWriter, pair token.Pair) {
	w.Header().Set("Authorization", "Bearer "+pair.Access)
	http.SetCookie(w, o.cookie(accessCookie, pair.Access, o.AccessLifetime))
	http.SetCookie(w, o.cookie(refreshCookie, pair.Refresh, o.RefreshLifetime))
}

func (o CookieOptions) clear(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		c := o.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}
