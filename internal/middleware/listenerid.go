// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const listenerIDKey contextKey = "listener_id"

// ListenerCookieName identifies a listener across requests. The server
// keys all per-listener state (profile, behavior, queue pool) on it.
const ListenerCookieName = "atmotune_listener"

const listenerCookieMaxAge = 365 * 24 * time.Hour

// ListenerID ensures every request carries a stable listener identity.
// A missing or empty cookie is replaced with a fresh UUID, set on the
// response and injected into the request context.
func ListenerID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(ListenerCookieName); err == nil && c.Value != "" {
			id = c.Value
		} else {
			id = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     ListenerCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(listenerCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), listenerIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetListenerID returns the listener identity from the context, or "".
func GetListenerID(ctx context.Context) string {
	if id, ok := ctx.Value(listenerIDKey).(string); ok {
		return id
	}
	return ""
}
