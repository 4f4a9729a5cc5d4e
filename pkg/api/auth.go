package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mergington/activities/pkg/session"
)

// cookieName is the session cookie. Its value is the session token encoded
// with an HMAC so a tampered cookie is rejected before the store is consulted.
const cookieName = "session_token"

// handleLogin verifies teacher credentials and establishes a session.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.creds.Verify(req.Username, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	sess, err := h.sessions.Create(r.Context(), req.Username)
	if err != nil {
		slog.Error("api: failed to create session", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	encoded, err := h.cookies.Encode(cookieName, sess.Token)
	if err != nil {
		slog.Error("api: failed to encode session cookie", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("api: teacher logged in", "username", req.Username)
	writeJSON(w, http.StatusOK, loginResponse{
		Message:  "Login successful",
		Username: req.Username,
	})
}

// handleLogout destroys the current session, if any, and clears the cookie.
// It succeeds unconditionally.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := h.currentSession(r); sess != nil {
		if err := h.sessions.Delete(r.Context(), sess.Token); err != nil {
			slog.Error("api: failed to delete session", "error", err)
		} else {
			slog.Info("api: teacher logged out", "username", sess.Username)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// handleAuthStatus reports whether the caller holds a valid session.
func (h *Handler) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if sess := h.currentSession(r); sess != nil {
		writeJSON(w, http.StatusOK, statusResponse{
			Authenticated: true,
			Username:      sess.Username,
		})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Authenticated: false})
}

// currentSession resolves the request's session cookie against the session
// store. Returns nil when the cookie is missing, undecodable, or refers to a
// session that no longer exists.
func (h *Handler) currentSession(r *http.Request) *session.Session {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}

	var token string
	if err := h.cookies.Decode(cookieName, cookie.Value, &token); err != nil {
		return nil
	}

	sess, err := h.sessions.Get(r.Context(), token)
	if err != nil {
		slog.Error("api: session lookup failed", "error", err)
		return nil
	}
	return sess
}
