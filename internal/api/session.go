package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	sessionCookieName = "plate_session"
	sessionMaxAge     = 30 * 24 * time.Hour
)

// ensureSession returns the caller's session id, issuing a new cookie when the
// request carries none or an unrecognised value. It must run before the
// response header is written.
func ensureSession(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
