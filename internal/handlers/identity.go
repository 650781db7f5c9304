package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	applog "pantry/internal/log"
)

const sessionUserIDKey = "identity:user:id"

type userKey struct{}

// RequireUser resolves the trusted user id for the request. The identity
// gateway header wins when present and is pinned into the session so later
// requests carrying only the session cookie keep the same user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := headerUserID(r)
		if ok {
			if sessionManager != nil {
				sessionManager.Put(r.Context(), sessionUserIDKey, int(userID))
			}
		} else if sessionManager != nil {
			if id := sessionManager.GetInt(r.Context(), sessionUserIDKey); id > 0 {
				userID, ok = uint(id), true
			}
		}

		if !ok {
			applog.Debug(r.Context(), "request without user identity", "path", r.URL.Path)
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func headerUserID(r *http.Request) (uint, bool) {
	raw := strings.TrimSpace(r.Header.Get(userHeader))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		applog.Debug(r.Context(), "ignoring malformed identity header", "value", raw)
		return 0, false
	}
	return uint(id), true
}

func currentUserID(r *http.Request) (uint, bool) {
	id, ok := r.Context().Value(userKey{}).(uint)
	return id, ok && id > 0
}

func requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}
