package api

import (
	"context"
	"net/http"

	"forecast-studio/internal/state"
)

type sessionKey struct{}

// withSession attaches the caller's session, creating one when the request
// has none or an expired one.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := h.cfg.Session.CookieName
		id := ""
		if c, err := r.Cookie(name); err == nil {
			id = c.Value
		}

		sess, created := h.sessions.GetOrCreate(id)
		if created {
			h.logger.WithField("session", sess.ID).Debug("session created")
		}
		// Refreshed on every request so the browser expiry tracks the
		// server-side idle timeout.
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(h.cfg.Session.TTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		h.metrics.SetSessions(h.sessions.Len())

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *state.Session {
	sess, _ := r.Context().Value(sessionKey{}).(*state.Session)
	return sess
}
